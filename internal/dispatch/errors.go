package dispatch

import "fmt"

// UserFacing is implemented by errors that carry a message safe to show to
// the user. The dispatch wrapper is the single point converting errors to
// chat output.
type UserFacing interface {
	error
	UserMessage() string
}

// ValidationError marks malformed or out-of-policy user input. Recovered
// locally: the session is kept and the user is re-prompted.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation: %s: %v", e.Msg, e.Err)
	}
	return "validation: " + e.Msg
}

func (e *ValidationError) UserMessage() string { return e.Msg }
func (e *ValidationError) Unwrap() error       { return e.Err }

// RoutingError marks an inbound event that does not match what the current
// dialog state expects. The user is informed and the state left unchanged.
type RoutingError struct {
	Msg string
	Err error
}

func (e *RoutingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("routing: %s: %v", e.Msg, e.Err)
	}
	return "routing: " + e.Msg
}

func (e *RoutingError) UserMessage() string { return e.Msg }
func (e *RoutingError) Unwrap() error       { return e.Err }

func validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func routingf(format string, args ...any) *RoutingError {
	return &RoutingError{Msg: fmt.Sprintf(format, args...)}
}
