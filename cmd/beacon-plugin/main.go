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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beaconworks/beacon-plugin-cli/pkg/cli"
	"github.com/beaconworks/beacon-plugin-cli/pkg/logger"
	"github.com/beaconworks/beacon-plugin-cli/pkg/sentry"
	"github.com/beaconworks/beacon-plugin-cli/pkg/service/filesystem"
	"github.com/beaconworks/beacon-plugin-cli/pkg/service/plugin"
	"github.com/beaconworks/beacon-plugin-cli/pkg/version"
)

func main() {
	os.Exit(run())
}

func run() (status int) {
	// Initialize the global logger first thing
	logger.Initialize()

	// Initialize crash reporting (no-op for dev builds)
	sentry.Init(version.GetAppVersion())

	log := logger.For(logger.ComponentCLI)

	defer func() {
		if r := recover(); r != nil {
			sentry.ReportIssuef(sentry.IssueTypeFatal, log, "panic: %v", r)
			fmt.Fprintf(os.Stderr, "Error: panic: %v\n", r)

			status = cli.ExitInternal
		}

		sentry.Flush(2 * time.Second)
		_ = logger.Sync()
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app := NewApp(plugin.NewDefaultService(), filesystem.NewDefaultService(), os.Stdout, os.Stderr)

	err := app.Run(ctx, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}

	return cli.ExitStatus(err)
}
