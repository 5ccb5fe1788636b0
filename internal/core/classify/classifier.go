// Package classify extracts one structured entity from one document using a
// named schema. It never touches the tracker store.
package classify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/agenthands/tally/internal/core/common"
	"github.com/agenthands/tally/internal/core/model"
	"github.com/agenthands/tally/internal/llm"
	"github.com/agenthands/tally/internal/metrics"
)

type Classifier struct {
	LLM      llm.LLMClient
	Registry *Registry
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewClassifier(llmClient llm.LLMClient, registry *Registry, logger *zap.Logger, m *metrics.Metrics) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Classifier{LLM: llmClient, Registry: registry, logger: logger, metrics: m}
}

// Classify runs schemaName against article and returns the decoded result verbatim.
// Unknown schemas and empty articles fail with ValidationError before any call is made.
func (c *Classifier) Classify(ctx context.Context, schemaName, article string) (model.ClassificationResult, error) {
	schema, ok := c.Registry.Lookup(schemaName)
	if !ok {
		return nil, &ValidationError{Type: schemaName, Reason: "unknown schema"}
	}
	if strings.TrimSpace(article) == "" {
		return nil, &ValidationError{Reason: "article is empty"}
	}

	response, err := c.LLM.Generate(ctx, schema.Prompt(article))
	if err != nil {
		c.metrics.ClassifyOutcome(schema.Name, "error")
		return nil, fmt.Errorf("failed to classify article: %w", err)
	}

	result, err := common.ParseJSON[model.ClassificationResult](response)
	if err == nil && result == nil {
		err = &common.ParseError{Raw: response, Err: fmt.Errorf("result is not an object")}
	}
	if err != nil {
		c.logger.Warn("unparseable classification output",
			zap.String("schema", schema.Name), zap.String("raw", response), zap.Error(err))
		c.metrics.ClassifyOutcome(schema.Name, "error")
		return nil, err
	}

	outcome := "not_found"
	if result.Found() {
		outcome = "found"
	}
	c.metrics.ClassifyOutcome(schema.Name, outcome)

	return result, nil
}
