package agent

import (
	"errors"
	"fmt"
)

// ErrorKind classifies agent and manager failures.
type ErrorKind string

const (
	// KindNotInitialized: Invoke was called before a successful Initialize.
	KindNotInitialized ErrorKind = "not_initialized"
	// KindRetrievalFailed: the retrieval backend returned an error.
	KindRetrievalFailed ErrorKind = "retrieval_failed"
	// KindCompletionFailed: the completion provider returned an error.
	KindCompletionFailed ErrorKind = "completion_failed"
	// KindTimeout: the query exceeded the manager's per-call timeout.
	KindTimeout ErrorKind = "timeout"
	// KindUnknownAgent: the requested agent id is not registered.
	KindUnknownAgent ErrorKind = "unknown_agent"
	// KindDuplicateAgentID: an agent with the same id is already registered.
	KindDuplicateAgentID ErrorKind = "duplicate_agent_id"
	// KindNoAgentSelected: no agent could serve the query. This is a
	// sentinel outcome the caller may treat as "stay silent", not a fault.
	KindNoAgentSelected ErrorKind = "no_agent_selected"
)

// Error is the error type returned by agents and the manager.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind
	// AgentID is the agent involved, when one was selected.
	AgentID string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.AgentID != "" {
		msg = fmt.Sprintf("%s: agent %s", msg, e.AgentID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by kind, so callers can compare against a bare
// &Error{Kind: ...} sentinel.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

// NewError creates an Error.
func NewError(kind ErrorKind, agentID string, err error) *Error {
	return &Error{Kind: kind, AgentID: agentID, Err: err}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
