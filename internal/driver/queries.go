package driver

const (
	GetTrackerQuery = `
		MATCH (t:Tracker {id: $id})
		RETURN t.data AS data, t.updated_at AS updated_at, t.version AS version
	`

	// CreateTrackerQuery returns no rows when the node already exists.
	CreateTrackerQuery = `
		OPTIONAL MATCH (existing:Tracker {id: $id})
		WITH existing
		WHERE existing IS NULL
		CREATE (t:Tracker {id: $id, data: $data, updated_at: $updated_at, version: 1})
		RETURN t.version AS version
	`

	// PatchTrackerQuery returns no rows when $expected_version is stale.
	PatchTrackerQuery = `
		MATCH (t:Tracker {id: $id})
		WHERE t.version = $expected_version
		SET t.data = $data,
			t.updated_at = $updated_at,
			t.version = t.version + 1
		RETURN t.version AS version
	`
)
