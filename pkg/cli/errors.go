// Copyright 2026 Beacon Works GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"errors"
	"fmt"
)

// Exit statuses are the scripting contract of the binary. Each failure
// category keeps its own status so callers can branch without parsing
// message text. The values follow the BSD sysexits convention.
const (
	// ExitOK means the command completed.
	ExitOK = 0

	// ExitUsage means the command line itself was wrong: unknown command,
	// missing argument, bad flag.
	ExitUsage = 64

	// ExitInternal means an unexpected failure that is neither an operator
	// mistake nor an I/O condition.
	ExitInternal = 70

	// ExitIO means a filesystem or archive operation failed.
	ExitIO = 74

	// ExitConfig means the installation state does not allow the operation,
	// for example removing a plugin that is not installed.
	ExitConfig = 78
)

// ExitError couples an error with the exit status its category maps to.
// Command implementations return it; main translates it into os.Exit.
type ExitError struct {
	Err  error
	Code int
}

// Error returns the original error message.
func (e *ExitError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying wrapped error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// IsCode checks if the ExitError carries the specified exit status.
func (e *ExitError) IsCode(code int) bool {
	return e.Code == code
}

// NewUsageError wraps err as a command-line usage failure.
func NewUsageError(err error) error {
	return &ExitError{Err: err, Code: ExitUsage}
}

// NewUsageErrorf formats a command-line usage failure.
func NewUsageErrorf(format string, args ...any) error {
	return NewUsageError(fmt.Errorf(format, args...))
}

// NewConfigError wraps err as an installation-state failure.
func NewConfigError(err error) error {
	return &ExitError{Err: err, Code: ExitConfig}
}

// NewConfigErrorf formats an installation-state failure.
func NewConfigErrorf(format string, args ...any) error {
	return NewConfigError(fmt.Errorf(format, args...))
}

// NewIOError wraps err as a filesystem failure.
func NewIOError(err error) error {
	return &ExitError{Err: err, Code: ExitIO}
}

// NewIOErrorf formats a filesystem failure.
func NewIOErrorf(format string, args ...any) error {
	return NewIOError(fmt.Errorf(format, args...))
}

// IsUsageError is a convenience checker for ExitUsage.
func IsUsageError(err error) bool {
	var ee *ExitError

	return errors.As(err, &ee) && ee.IsCode(ExitUsage)
}

// IsConfigError is a convenience checker for ExitConfig.
func IsConfigError(err error) bool {
	var ee *ExitError

	return errors.As(err, &ee) && ee.IsCode(ExitConfig)
}

// IsIOError is a convenience checker for ExitIO.
func IsIOError(err error) bool {
	var ee *ExitError

	return errors.As(err, &ee) && ee.IsCode(ExitIO)
}

// ExitStatus maps err to the exit status of the process. A nil error is
// ExitOK, an ExitError carries its own status, and everything else is an
// unexpected internal failure.
func ExitStatus(err error) int {
	if err == nil {
		return ExitOK
	}

	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}

	return ExitInternal
}
