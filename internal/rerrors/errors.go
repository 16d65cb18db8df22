/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package rerrors defines the closed set of error codes that cross package
// boundaries in this module, so callers can branch on Code rather than on
// string matching or type assertions against concrete error types.
package rerrors

import "fmt"

// Code is the closed set of error classifications produced by this module.
type Code string

const (
	InvalidInput          Code = "invalid_input"
	ConstraintViolation   Code = "constraint_violation"
	SolverTimeout         Code = "solver_timeout"
	LockAcquisitionFailed Code = "lock_acquisition_failed"
	LockNotHeld           Code = "lock_not_held"
	StoreUnavailable      Code = "store_unavailable"
	CancellationRequested Code = "cancellation_requested"
)

// Error is a Code-tagged error that wraps an optional underlying cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an Error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an Error that wraps an existing cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Is reports whether err is an *Error carrying the given code. Satisfies the
// errors.Is contract when used as errors.Is(err, rerrors.New(code, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// CodeOf extracts the Code from err if it is, or wraps, an *Error. Returns
// ("", false) otherwise.
func CodeOf(err error) (Code, bool) {
	var e *Error
	for err != nil {
		if asErr, ok := err.(*Error); ok {
			e = asErr
			break
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = unwrapper.Unwrap()
	}
	if e == nil {
		return "", false
	}
	return e.Code, true
}
