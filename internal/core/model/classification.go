package model

// ClassificationResult is the decoded classifier output, either {"found": false}
// or {"found": true, "<entity>": {...}}. It is passed through verbatim.
type ClassificationResult map[string]interface{}

// Found reports the "found" flag; a missing or non-boolean flag reads as false.
func (r ClassificationResult) Found() bool {
	found, _ := r["found"].(bool)
	return found
}
