// Package reconcile runs one reconciliation cycle against the canonical tracker:
// read the record, ask the extraction model for candidate updates, gate them on
// confidence, merge and commit. A cycle either commits exactly once or leaves
// the record untouched.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agenthands/tally/internal/config"
	"github.com/agenthands/tally/internal/core/common"
	"github.com/agenthands/tally/internal/core/model"
	"github.com/agenthands/tally/internal/llm"
	"github.com/agenthands/tally/internal/metrics"
	"github.com/agenthands/tally/internal/store"
)

// ParseErrorMessage is reported in the result when model output cannot be decoded.
const ParseErrorMessage = "parse error"

// DefaultMinConfidence is the gate applied when the configuration leaves it unset.
const DefaultMinConfidence = 0.8

type Engine struct {
	Store         store.Store
	LLM           llm.LLMClient
	RecordID      string
	MinConfidence float64
	Prompt        string
	Categories    []config.Category

	UUIDGenerator func() string
	Clock         func() time.Time

	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewEngine(s store.Store, llmClient llm.LLMClient, recordID string, cfg config.ReconcileConfig, logger *zap.Logger, m *metrics.Metrics) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	minConfidence := cfg.MinConfidence
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	categories := cfg.Categories
	if len(categories) == 0 {
		categories = config.DefaultCategories()
	}

	return &Engine{
		Store:         s,
		LLM:           llmClient,
		RecordID:      recordID,
		MinConfidence: minConfidence,
		Prompt:        cfg.Prompt,
		Categories:    categories,
		UUIDGenerator: func() string { return uuid.New().String() },
		Clock:         time.Now,
		logger:        logger,
		metrics:       m,
	}
}

// Reconcile runs one cycle. Unparseable or low-confidence output is reported in
// the result with a nil error; read, extraction and commit failures are returned
// as errors and leave the record unchanged.
func (e *Engine) Reconcile(ctx context.Context) (*model.ReconcileResult, error) {
	cycleID := e.UUIDGenerator()
	log := e.logger.With(zap.String("cycle_id", cycleID), zap.String("record_id", e.RecordID))
	result := &model.ReconcileResult{CycleID: cycleID}

	snap, err := e.Store.Get(ctx, e.RecordID)
	if err != nil {
		return nil, e.fail(log, "failed to read tracker", err)
	}

	prompt, err := BuildPrompt(e.Prompt, snap.Data, e.Categories)
	if err != nil {
		return nil, e.fail(log, "failed to build prompt", err)
	}

	response, err := e.LLM.Generate(ctx, prompt)
	if err != nil {
		// An empty answer is treated as text and fails parsing below.
		if !errors.Is(err, llm.ErrNoContent) {
			return nil, e.fail(log, "failed to generate updates", err)
		}
		response = ""
	}

	candidate, err := parseCandidate(response)
	if err != nil {
		log.Warn("discarding unparseable extraction output", zap.String("raw", response), zap.Error(err))
		e.metrics.ReconcileOutcome(metrics.OutcomeParseError)
		result.Error = ParseErrorMessage
		return result, nil
	}

	if candidate.Confidence < e.MinConfidence || len(candidate.Updates) == 0 {
		log.Info("candidate rejected by confidence gate",
			zap.Float64("confidence", candidate.Confidence),
			zap.Int("updates", len(candidate.Updates)))
		e.metrics.ReconcileOutcome(metrics.OutcomeGated)
		result.Reasoning = candidate.Reasoning
		return result, nil
	}

	merged := Merge(snap.Data, candidate.Updates)
	merged[model.FieldLastUpdated] = e.Clock().UTC().Format(time.RFC3339)
	merged[model.FieldLastUpdateReason] = candidate.Reasoning

	committed, err := e.Store.Patch(ctx, e.RecordID, merged, snap.Version)
	if err != nil {
		return nil, e.fail(log, "failed to commit tracker", err)
	}

	log.Info("tracker updated",
		zap.Int64("version", committed.Version),
		zap.Float64("confidence", candidate.Confidence),
		zap.Strings("topics", topics(candidate.Updates)))
	e.metrics.ReconcileOutcome(metrics.OutcomeCommitted)

	result.Updated = true
	result.Changes = candidate.Updates
	result.Reasoning = candidate.Reasoning
	return result, nil
}

func (e *Engine) fail(log *zap.Logger, msg string, err error) error {
	log.Error(msg, zap.Error(err))
	e.metrics.ReconcileOutcome(metrics.OutcomeFailed)
	return fmt.Errorf("%s: %w", msg, err)
}

// candidateOutput distinguishes absent keys from zero values.
type candidateOutput struct {
	Updates    *map[string]interface{} `json:"updates"`
	Reasoning  string                  `json:"reasoning"`
	Confidence *float64                `json:"confidence"`
}

func parseCandidate(response string) (model.Candidate, error) {
	out, err := common.ParseJSON[candidateOutput](response)
	if err != nil {
		return model.Candidate{}, err
	}
	if out.Updates == nil || *out.Updates == nil {
		return model.Candidate{}, &common.ParseError{Raw: response, Err: fmt.Errorf("missing updates object")}
	}
	if out.Confidence == nil {
		return model.Candidate{}, &common.ParseError{Raw: response, Err: fmt.Errorf("missing confidence")}
	}
	if *out.Confidence < 0 || *out.Confidence > 1 {
		return model.Candidate{}, &common.ParseError{
			Raw: response,
			Err: fmt.Errorf("confidence %v outside [0, 1]", *out.Confidence),
		}
	}
	return model.Candidate{Updates: *out.Updates, Reasoning: out.Reasoning, Confidence: *out.Confidence}, nil
}

func topics(updates map[string]interface{}) []string {
	names := make([]string, 0, len(updates))
	for k := range updates {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
