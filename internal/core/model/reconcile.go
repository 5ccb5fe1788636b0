package model

// Candidate is one cycle's parsed model output.
type Candidate struct {
	Updates    map[string]interface{} `json:"updates"`
	Reasoning  string                 `json:"reasoning"`
	Confidence float64                `json:"confidence"`
}

// ReconcileResult reports the outcome of one reconciliation cycle.
type ReconcileResult struct {
	CycleID   string                 `json:"cycleId"`
	Updated   bool                   `json:"updated"`
	Changes   map[string]interface{} `json:"changes,omitempty"`
	Reasoning string                 `json:"reasoning,omitempty"`
	Error     string                 `json:"error,omitempty"`
}
