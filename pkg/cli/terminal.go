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
	"fmt"
	"io"
)

// Verbosity controls how much a Terminal prints.
type Verbosity int

const (
	// Silent suppresses everything except errors.
	Silent Verbosity = iota
	// Normal prints operation progress, the default.
	Normal
	// Verbose additionally prints per-step diagnostic lines.
	Verbose
)

// Terminal is the user-facing output surface of a command. Progress and
// results go to stdout, errors to stderr; structured logs are a separate
// stream and never pass through here.
type Terminal struct {
	stdout    io.Writer
	stderr    io.Writer
	verbosity Verbosity
}

// NewTerminal creates a Terminal writing to the given streams.
func NewTerminal(stdout, stderr io.Writer, verbosity Verbosity) *Terminal {
	return &Terminal{stdout: stdout, stderr: stderr, verbosity: verbosity}
}

// Verbosity returns the configured verbosity.
func (t *Terminal) Verbosity() Verbosity {
	return t.verbosity
}

// Println prints a progress line unless the terminal is silent.
func (t *Terminal) Println(msg string) {
	if t.verbosity >= Normal {
		fmt.Fprintln(t.stdout, msg)
	}
}

// Printf formats a progress line unless the terminal is silent.
func (t *Terminal) Printf(format string, args ...any) {
	t.Println(fmt.Sprintf(format, args...))
}

// VPrintln prints a diagnostic line at verbose level only.
func (t *Terminal) VPrintln(msg string) {
	if t.verbosity >= Verbose {
		fmt.Fprintln(t.stdout, msg)
	}
}

// VPrintf formats a diagnostic line at verbose level only.
func (t *Terminal) VPrintf(format string, args ...any) {
	t.VPrintln(fmt.Sprintf(format, args...))
}

// Errorln prints an error line regardless of verbosity.
func (t *Terminal) Errorln(msg string) {
	fmt.Fprintln(t.stderr, msg)
}

// Errorf formats an error line regardless of verbosity.
func (t *Terminal) Errorf(format string, args ...any) {
	t.Errorln(fmt.Sprintf(format, args...))
}
