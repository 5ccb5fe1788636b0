package classify

import (
	"fmt"
	"sort"
	"strings"
)

// Field types a schema may declare.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
)

// ConfidenceField must be declared by every schema.
const ConfidenceField = "confidence"

type Field struct {
	Name        string
	Type        string
	Description string
}

// Schema is a typed extraction contract for one kind of entity.
type Schema struct {
	Name         string
	Entity       string
	Instructions string
	Fields       []Field
}

// ValidationError rejects a schema name, a schema definition or a classify input.
type ValidationError struct {
	Type   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("invalid type: %s (%s)", e.Type, e.Reason)
	}
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

func (s Schema) validate() error {
	if s.Name == "" {
		return &ValidationError{Reason: "schema name is empty"}
	}
	if s.Entity == "" {
		return &ValidationError{Type: s.Name, Reason: "entity is empty"}
	}
	if len(s.Fields) == 0 {
		return &ValidationError{Type: s.Name, Reason: "no fields"}
	}

	seen := make(map[string]bool, len(s.Fields))
	hasConfidence := false
	for _, f := range s.Fields {
		if f.Name == "" {
			return &ValidationError{Type: s.Name, Reason: "field with empty name"}
		}
		if seen[f.Name] {
			return &ValidationError{Type: s.Name, Reason: "duplicate field " + f.Name}
		}
		seen[f.Name] = true

		switch f.Type {
		case TypeString, TypeNumber, TypeBoolean:
		default:
			return &ValidationError{Type: s.Name, Reason: fmt.Sprintf("field %s has unknown type %q", f.Name, f.Type)}
		}

		if f.Name == ConfidenceField {
			if f.Type != TypeNumber {
				return &ValidationError{Type: s.Name, Reason: "confidence must be a number"}
			}
			hasConfidence = true
		}
	}
	if !hasConfidence {
		return &ValidationError{Type: s.Name, Reason: "missing confidence field"}
	}
	return nil
}

// Prompt renders the extraction prompt for article.
func (s Schema) Prompt(article string) string {
	var shape strings.Builder
	for i, f := range s.Fields {
		if i > 0 {
			shape.WriteString(",\n")
		}
		fmt.Fprintf(&shape, "    %q: <%s: %s>", f.Name, f.Type, f.Description)
	}

	return fmt.Sprintf(`%s

Read the article below. If it does not describe a relevant %[2]s, respond with exactly:
{"found": false}

Otherwise respond with ONLY a JSON object of this shape:
{
  "found": true,
  %[2]q: {
%[3]s
  }
}

<ARTICLE>
%[4]s
</ARTICLE>`, s.Instructions, s.Entity, shape.String(), article)
}

// Registry maps schema names to validated schemas.
type Registry struct {
	schemas map[string]Schema
}

func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]Schema)}
}

// Register validates s and adds it; names must be unique.
func (r *Registry) Register(s Schema) error {
	if err := s.validate(); err != nil {
		return err
	}
	if _, exists := r.schemas[s.Name]; exists {
		return &ValidationError{Type: s.Name, Reason: "already registered"}
	}
	r.schemas[s.Name] = s
	return nil
}

func (r *Registry) MustRegister(s Schema) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(name string) (Schema, bool) {
	s, ok := r.schemas[name]
	return s, ok
}

// Names returns registered schema names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
