// Package planner implements the Codegen Planner (CGP): it traverses a
// schema once and decides, per type, which artifacts the emitter should
// produce, and precomputes the cross-cutting auxiliary state (position
// tables for same_index/corresponding and first<T>/last<T> selectors)
// every composite's encoder needs reserved ahead of time.
package planner

import "fmt"

// Error is a static planning failure: an unknown referenced type, a
// non-power-of-two alignment, an invalid computed-field configuration, or
// terminal_variants naming a non-existent variant (spec.md §4.3). It
// always names the offending type and field so the message is
// actionable.
type Error struct {
	Type    string
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("plan: type %q field %q: %s", e.Type, e.Field, e.Message)
	}
	return fmt.Sprintf("plan: type %q: %s", e.Type, e.Message)
}

func errf(typeName, fieldName, msg string, args ...any) *Error {
	return &Error{Type: typeName, Field: fieldName, Message: fmt.Sprintf(msg, args...)}
}
