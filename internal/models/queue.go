package models

import "encoding/json"

// QueuedWriteRequest is a write operation captured while offline (or after a
// failed send) for later replay. Replay re-issues the original method, target
// and body verbatim; Attempts counts every replay try.
type QueuedWriteRequest struct {
	ID        string            `json:"id"`
	Method    string            `json:"method"`
	Target    string            `json:"target"`
	BodyParts json.RawMessage   `json:"bodyParts,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	QueuedAt  int64             `json:"queuedAtEpochMillis"`
	Attempts  int               `json:"attempts"`
}
