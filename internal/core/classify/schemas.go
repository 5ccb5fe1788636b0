package classify

var confidence = Field{Name: ConfidenceField, Type: TypeNumber, Description: "0.0 to 1.0, how certain the extraction is"}

var PromiseSchema = Schema{
	Name:         "promise",
	Entity:       "promise",
	Instructions: "You extract campaign or policy promises, and their current status, from news articles.",
	Fields: []Field{
		{Name: "text", Type: TypeString, Description: "the promise as originally stated"},
		{Name: "category", Type: TypeString, Description: "policy area, e.g. economy, immigration, healthcare"},
		{Name: "status", Type: TypeString, Description: "one of kept, broken, in_progress, compromised"},
		{Name: "date", Type: TypeString, Description: "date of the status change, YYYY-MM-DD"},
		{Name: "evidence", Type: TypeString, Description: "one sentence from the article supporting the status"},
		{Name: "source", Type: TypeString, Description: "publication name"},
		confidence,
	},
}

var IncidentSchema = Schema{
	Name:         "iceIncident",
	Entity:       "incident",
	Instructions: "You extract immigration-enforcement incidents involving federal agents from news articles.",
	Fields: []Field{
		{Name: "date", Type: TypeString, Description: "date of the incident, YYYY-MM-DD"},
		{Name: "location", Type: TypeString, Description: "city and state"},
		{Name: "agency", Type: TypeString, Description: "agency involved"},
		{Name: "description", Type: TypeString, Description: "what happened, one or two sentences"},
		{Name: "peopleAffected", Type: TypeNumber, Description: "number of people detained or harmed, 0 if unknown"},
		{Name: "citizenInvolved", Type: TypeBoolean, Description: "whether a U.S. citizen was detained or harmed"},
		{Name: "source", Type: TypeString, Description: "publication name"},
		confidence,
	},
}

var ConflictSchema = Schema{
	Name:         "conflict",
	Entity:       "conflict",
	Instructions: "You extract conflicts of interest: public money or official action benefiting an official's own businesses or family.",
	Fields: []Field{
		{Name: "description", Type: TypeString, Description: "the conflict, one or two sentences"},
		{Name: "businessEntity", Type: TypeString, Description: "business or person that benefited"},
		{Name: "amount", Type: TypeNumber, Description: "amount in USD, 0 if not reported"},
		{Name: "date", Type: TypeString, Description: "date reported, YYYY-MM-DD"},
		{Name: "source", Type: TypeString, Description: "publication name"},
		confidence,
	},
}

// DefaultRegistry holds the built-in extraction schemas.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(PromiseSchema)
	r.MustRegister(IncidentSchema)
	r.MustRegister(ConflictSchema)
	return r
}
