package mail

import "context"

// Result reports the outcome of a send attempt.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Sender delivers a single outbound email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) (Result, error)
}
