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
	"fmt"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

type IssueType string

const (
	IssueTypeWarning IssueType = "warning"
	IssueTypeError   IssueType = "error"
	IssueTypeFatal   IssueType = "fatal"
)

// ReportIssue logs the error and captures it as an issue of the given type.
// Operator mistakes (usage, unknown plugin) never go through here; only
// failures the developers need to see do.
func ReportIssue(err error, issueType IssueType, log *zap.SugaredLogger) {
	if log == nil {
		// If logger initialization failed somehow, create a no-op logger to avoid nil panics
		log = zap.NewNop().Sugar()
	}

	switch issueType {
	case IssueTypeFatal:
		reportFatal(err, log)
	case IssueTypeError:
		reportError(err, log)
	case IssueTypeWarning:
		reportWarning(err, log)
	}
}

// ReportIssuef formats an error message and reports it.
func ReportIssuef(issueType IssueType, log *zap.SugaredLogger, template string, args ...interface{}) {
	ReportIssue(fmt.Errorf(template, args...), issueType, log)
}

// ReportIssueWithContext reports an issue with additional context data that
// becomes tags on the captured issue.
func ReportIssueWithContext(err error, issueType IssueType, log *zap.SugaredLogger, context map[string]interface{}) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	var level sentry.Level

	switch issueType {
	case IssueTypeFatal:
		level = sentry.LevelFatal

		log.Error(err)
	case IssueTypeError:
		level = sentry.LevelError

		log.Error(err)
	case IssueTypeWarning:
		level = sentry.LevelWarning

		log.Warn(err)
	default:
		level = sentry.LevelError

		log.Error(err)
	}

	sendSentryEvent(createSentryEventWithContext(level, err, context))
}

// ReportCommandError reports an unexpected failure of a command run,
// tagged with the command name for grouping.
func ReportCommandError(log *zap.SugaredLogger, command string, err error) {
	context := map[string]interface{}{
		"command": command,
	}
	ReportIssueWithContext(err, IssueTypeError, log, context)
}
