package model

import "time"

// Record is a single structured log record as produced by an application's
// logging pipeline. Records are immutable once built; the sink references
// them, it never mutates them.
type Record struct {
	Time    time.Time         `json:"time"`
	Level   string            `json:"level"`
	Message string            `json:"message"`
	Source  string            `json:"source,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Field returns the named structured field, or "" when absent.
func (r *Record) Field(name string) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[name]
}
