package topicmgr

import "errors"

// ErrorType defines the kind of event bus failure
type ErrorType string

const (
	ErrorNotInitialized    ErrorType = "not_initialized"
	ErrorInvalidTopic      ErrorType = "invalid_topic"
	ErrorObserveFailed     ErrorType = "observe_failed"
	ErrorTypeCastingFailed ErrorType = "type_casting_failed"
	ErrorTopicNotFound     ErrorType = "topic_not_found"
	ErrorValveDisabled     ErrorType = "valve_disabled"
	ErrorClosed            ErrorType = "closed"
)

// TopicError represents structured errors reported by the event bus
type TopicError struct {
	Type    ErrorType `json:"type"`
	Topic   string    `json:"topic"`
	Message string    `json:"message"`
	Cause   error     `json:"cause,omitempty"`
}

// Sentinel values for errors.Is. A TopicError matches a sentinel when the
// types are equal.
var (
	ErrNotInitialized    = &TopicError{Type: ErrorNotInitialized, Message: "event bus is not initialized, call Init first"}
	ErrInvalidTopic      = &TopicError{Type: ErrorInvalidTopic, Message: "invalid topic"}
	ErrObserveFailed     = &TopicError{Type: ErrorObserveFailed, Message: "cannot observe topic"}
	ErrTypeCastingFailed = &TopicError{Type: ErrorTypeCastingFailed, Message: "payload type does not match subscriber"}
	ErrTopicNotFound     = &TopicError{Type: ErrorTopicNotFound, Message: "topic not found"}
	ErrValveDisabled     = &TopicError{Type: ErrorValveDisabled, Message: "valve is not enabled for topic"}
	ErrClosed            = &TopicError{Type: ErrorClosed, Message: "topic channel is closed"}
)

// NewError creates a TopicError of the given type
func NewError(typ ErrorType, topic, message string) *TopicError {
	return &TopicError{
		Type:    typ,
		Topic:   topic,
		Message: message,
	}
}

// Error implements the error interface
func (e *TopicError) Error() string {
	msg := e.Message
	if e.Topic != "" {
		msg += " [" + e.Topic + "]"
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *TopicError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a TopicError of the same type.
func (e *TopicError) Is(target error) bool {
	t, ok := target.(*TopicError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// IsType reports whether err carries a TopicError of the given type.
func IsType(err error, typ ErrorType) bool {
	var te *TopicError
	if errors.As(err, &te) {
		return te.Type == typ
	}
	return false
}
