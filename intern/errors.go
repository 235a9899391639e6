// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package intern

import (
	"errors"
	"fmt"
)

const (
	// ExhaustedErr indicates the identifier space of a map is used up.
	ExhaustedErr = "identifier_space_exhausted"

	// InvalidConfigErr indicates a map was configured incorrectly.
	InvalidConfigErr = "invalid_config_error"
)

// Error is the error type raised by interning maps.
type Error struct {
	Code    string
	Message string
}

func (err *Error) Error() string {
	if err.Message == "" {
		return err.Code
	}
	return fmt.Sprintf("%v: %v", err.Code, err.Message)
}

// IsExhausted returns true if err (or a value recovered from a panic) is an
// ExhaustedErr.
func IsExhausted(err any) bool {
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ie *Error
	return errors.As(e, &ie) && ie.Code == ExhaustedErr
}

// IsInvalidConfig returns true if err is an InvalidConfigErr.
func IsInvalidConfig(err error) bool {
	var ie *Error
	return errors.As(err, &ie) && ie.Code == InvalidConfigErr
}

func invalidConfigf(f string, a ...any) *Error {
	return &Error{
		Code:    InvalidConfigErr,
		Message: fmt.Sprintf(f, a...),
	}
}
