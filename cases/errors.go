package cases

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is matched by every NotFoundError through errors.Is
var ErrNotFound = errors.New("case not found")

// NotFoundError is returned when a case id is absent from storage
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("case %q not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ErrInvalidCase is matched by every ValidationError through errors.Is
var ErrInvalidCase = errors.New("invalid case")

// FieldProblem names one blank or malformed input field
type FieldProblem struct {
	Field   string `json:"field"`
	Line    int    `json:"line,omitempty"` // 1-based line for witness/evidence lists
	Message string `json:"message"`
}

func (p FieldProblem) String() string {
	if p.Line > 0 {
		return fmt.Sprintf("%s line %d: %s", p.Field, p.Line, p.Message)
	}
	return fmt.Sprintf("%s: %s", p.Field, p.Message)
}

// ValidationError lists every problem found in user-authored case fields
type ValidationError struct {
	Problems []FieldProblem `json:"problems"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	return "invalid case: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidCase
}

// Fields returns the distinct field names with problems, in order of appearance
func (e *ValidationError) Fields() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range e.Problems {
		if _, ok := seen[p.Field]; ok {
			continue
		}
		seen[p.Field] = struct{}{}
		out = append(out, p.Field)
	}
	return out
}

func (e *ValidationError) add(field string, line int, msg string) {
	e.Problems = append(e.Problems, FieldProblem{Field: field, Line: line, Message: msg})
}
