package model

import "time"

// Field names stamped onto every committed record.
const (
	FieldLastUpdated      = "lastUpdated"
	FieldLastUpdateReason = "lastUpdateReason"
)

// Record is the canonical tracker: topic name to topic value. Values are scalars,
// one-level nested maps, or lists of structured entries as decoded from JSON.
type Record map[string]interface{}

// Clone returns a copy that shares no maps or slices with r.
func (r Record) Clone() Record {
	if r == nil {
		return Record{}
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies JSON-shaped values: maps, slices and scalars.
func CloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, inner := range t {
			m[k] = CloneValue(inner)
		}
		return m
	case Record:
		return t.Clone()
	case []interface{}:
		s := make([]interface{}, len(t))
		for i, inner := range t {
			s[i] = CloneValue(inner)
		}
		return s
	default:
		return v
	}
}

// Snapshot is the persisted row holding the record.
// Version is the optimistic concurrency token; zero means no row exists yet.
type Snapshot struct {
	ID        string    `json:"id"`
	Data      Record    `json:"data"`
	UpdatedAt time.Time `json:"updatedAt"`
	Version   int64     `json:"version"`
}
