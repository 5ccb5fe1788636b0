package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agenthands/tally/internal/core/model"
)

func TestMergeShapeRule(t *testing.T) {
	current := model.Record{"debt": map[string]interface{}{"a": 1.0, "b": 2.0}}

	t.Run("nested object merges one level", func(t *testing.T) {
		merged := Merge(current, map[string]interface{}{"debt": map[string]interface{}{"b": 9.0}})
		assert.Equal(t, model.Record{"debt": map[string]interface{}{"a": 1.0, "b": 9.0}}, merged)
	})

	t.Run("scalar replaces object", func(t *testing.T) {
		merged := Merge(current, map[string]interface{}{"debt": 42.0})
		assert.Equal(t, model.Record{"debt": 42.0}, merged)
	})

	t.Run("object replaces scalar", func(t *testing.T) {
		merged := Merge(model.Record{"debt": 42.0}, map[string]interface{}{"debt": map[string]interface{}{"b": 9.0}})
		assert.Equal(t, model.Record{"debt": map[string]interface{}{"b": 9.0}}, merged)
	})

	t.Run("missing topic is added", func(t *testing.T) {
		merged := Merge(current, map[string]interface{}{"wealth": map[string]interface{}{"current": 7.0}})
		assert.Equal(t, map[string]interface{}{"current": 7.0}, merged["wealth"])
		assert.Equal(t, current["debt"], merged["debt"])
	})
}

func TestMergeReplacesArrays(t *testing.T) {
	current := model.Record{"promises": []interface{}{"A", "B"}}

	merged := Merge(current, map[string]interface{}{"promises": []interface{}{"C"}})
	assert.Equal(t, model.Record{"promises": []interface{}{"C"}}, merged)

	merged = Merge(current, map[string]interface{}{"promises": []interface{}{}})
	assert.Equal(t, []interface{}{}, merged["promises"])
}

func TestMergeObjectOverArrayReplaces(t *testing.T) {
	current := model.Record{"incidents": []interface{}{map[string]interface{}{"id": 1.0}}}

	merged := Merge(current, map[string]interface{}{"incidents": map[string]interface{}{"count": 3.0}})
	assert.Equal(t, map[string]interface{}{"count": 3.0}, merged["incidents"])
}

func TestMergeDoesNotRecurseBelowOneLevel(t *testing.T) {
	current := model.Record{
		"travel": map[string]interface{}{
			"golf": map[string]interface{}{"days": 10.0, "cost": 5.0},
			"note": "kept",
		},
	}

	merged := Merge(current, map[string]interface{}{
		"travel": map[string]interface{}{"golf": map[string]interface{}{"days": 12.0}},
	})

	assert.Equal(t, model.Record{
		"travel": map[string]interface{}{
			"golf": map[string]interface{}{"days": 12.0},
			"note": "kept",
		},
	}, merged)
}

func TestMergeLeavesInputsUntouched(t *testing.T) {
	current := model.Record{"debt": map[string]interface{}{"a": 1.0}}
	updates := map[string]interface{}{"debt": map[string]interface{}{"a": 2.0, "c": []interface{}{"x"}}}

	merged := Merge(current, updates)
	merged["debt"].(map[string]interface{})["c"].([]interface{})[0] = "y"

	assert.Equal(t, model.Record{"debt": map[string]interface{}{"a": 1.0}}, current)
	assert.Equal(t, []interface{}{"x"}, updates["debt"].(map[string]interface{})["c"])
}

func TestMergeIsIdempotent(t *testing.T) {
	current := model.Record{
		"debt":     map[string]interface{}{"a": 1.0, "b": 2.0},
		"promises": []interface{}{"A", "B"},
		"title":    "x",
	}
	updates := map[string]interface{}{
		"debt":     map[string]interface{}{"b": 9.0, "c": 3.0},
		"promises": []interface{}{"C"},
		"wealth":   7.0,
	}

	once := Merge(current, updates)
	twice := Merge(once, updates)
	assert.Equal(t, once, twice)
}
