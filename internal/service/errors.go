package service

import "fmt"

// The service reports failures through three typed errors. Each one
// implements gqlerrors.ExtendedError so the GraphQL layer serializes a
// machine-readable extensions.code (and, for input errors, the offending
// arguments) alongside the message.

// AuthenticationError is returned when an operation requiring identity
// is invoked without a valid current user.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string { return e.Message }

func (e *AuthenticationError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": "UNAUTHENTICATED"}
}

// NewAuthenticationError creates an AuthenticationError.
func NewAuthenticationError(message string) *AuthenticationError {
	return &AuthenticationError{Message: message}
}

// InputValidationError is returned on constraint violations at write
// time or on bad login credentials. InvalidArgs carries the offending
// input for client display.
type InputValidationError struct {
	Message     string
	InvalidArgs interface{}
}

func (e *InputValidationError) Error() string { return e.Message }

func (e *InputValidationError) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": "BAD_USER_INPUT"}
	if e.InvalidArgs != nil {
		ext["invalidArgs"] = e.InvalidArgs
	}
	return ext
}

// NewInputValidationError creates an InputValidationError carrying the
// offending arguments.
func NewInputValidationError(message string, invalidArgs interface{}) *InputValidationError {
	return &InputValidationError{Message: message, InvalidArgs: invalidArgs}
}

// NotFoundError is returned when a lookup required for a mutation
// yields no record.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

func (e *NotFoundError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": "NOT_FOUND"}
}

// NewNotFoundError creates a NotFoundError for the named record.
func NewNotFoundError(kind, name string) *NotFoundError {
	return &NotFoundError{Kind: kind, Name: name}
}
