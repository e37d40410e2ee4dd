// Package guard provides the ConstructorGuard marker used to ensure
// value objects, commands, and entities are only created through their designated
// constructor functions. A zero-value guard fails validation, so any struct that
// embeds a guard can detect bypassed construction.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when the caller supplies a
// nil validation error, so validation still fails with a meaningful message.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard marks an object as properly constructed. Embed one in a struct
// and set it via NewConstructorGuard inside the constructor; Validate then
// distinguishes constructed instances from zero values.
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard creates a guard marking the enclosing object as constructed.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns nil for a properly constructed guard. For a zero-value guard
// it returns validationError, or ErrDefaultConstructorGuard when that is nil.
func (g ConstructorGuard) Validate(validationError error) error {
	if validationError == nil {
		validationError = ErrDefaultConstructorGuard
	}
	if !g.isConstructed {
		return validationError
	}
	return nil
}
