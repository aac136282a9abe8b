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

package sentry

import (
	"runtime/debug"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// reportFatal captures a fatal error with the full stack. The process is
// about to exit, so the caller is responsible for Flush.
func reportFatal(err error, log *zap.SugaredLogger) {
	log.Errorf("Fatal error: %s", err)
	log.Debugf("Stack trace: %s", string(debug.Stack()))

	sendSentryEvent(createSentryEvent(sentry.LevelFatal, err))
}

// reportError captures an unexpected but survivable error.
func reportError(err error, log *zap.SugaredLogger) {
	log.Error(err)

	sendSentryEvent(createSentryEvent(sentry.LevelError, err))
}

// reportWarning captures a condition worth seeing in aggregate.
func reportWarning(err error, log *zap.SugaredLogger) {
	log.Warn(err)

	sendSentryEvent(createSentryEvent(sentry.LevelWarning, err))
}
