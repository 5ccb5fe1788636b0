package reconcile

import "github.com/agenthands/tally/internal/core/model"

// Merge applies updates to a copy of current, one level deep.
//
// When both the existing and the proposed value of a topic are objects, the
// proposed keys overwrite the existing ones and unmentioned keys survive. Any
// other combination (scalar, list, missing topic, type change) replaces the
// topic wholesale. Lists are never merged element-wise. Deeper objects inside a
// nested field are replaced, not merged. Neither input is modified.
func Merge(current model.Record, updates map[string]interface{}) model.Record {
	merged := current.Clone()

	for key, proposed := range updates {
		existingMap, existingIsMap := merged[key].(map[string]interface{})
		proposedMap, proposedIsMap := proposed.(map[string]interface{})

		if existingIsMap && proposedIsMap {
			for k, v := range proposedMap {
				existingMap[k] = model.CloneValue(v)
			}
			continue
		}

		merged[key] = model.CloneValue(proposed)
	}

	return merged
}
