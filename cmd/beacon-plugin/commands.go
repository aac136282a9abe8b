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
	"flag"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/beaconworks/beacon-plugin-cli/pkg/cli"
	"github.com/beaconworks/beacon-plugin-cli/pkg/config"
	"github.com/beaconworks/beacon-plugin-cli/pkg/constants"
	"github.com/beaconworks/beacon-plugin-cli/pkg/logger"
	"github.com/beaconworks/beacon-plugin-cli/pkg/sentry"
	"github.com/beaconworks/beacon-plugin-cli/pkg/service/filesystem"
	"github.com/beaconworks/beacon-plugin-cli/pkg/service/plugin"
	"github.com/beaconworks/beacon-plugin-cli/pkg/version"
)

const usageText = `Usage: beacon-plugin [options] <command> [args]

Commands:
  install <archive>   install a plugin from a local .tar.gz archive
  list                list installed plugins
  remove <name>       remove an installed plugin
  version             print the version of this tool

Options:
  --home DIR   Beacon installation root (default $BEACON_HOME)
  --verbose    print per-step detail
  --quiet      suppress progress output
`

// App wires the command surface to the plugin service. main constructs it
// with the real services, tests with mocks.
type App struct {
	service   plugin.Service
	fsService filesystem.Service
	stdout    io.Writer
	stderr    io.Writer
	log       *zap.SugaredLogger
}

// NewApp creates the command dispatcher.
func NewApp(service plugin.Service, fsService filesystem.Service, stdout, stderr io.Writer) *App {
	return &App{
		service:   service,
		fsService: fsService,
		stdout:    stdout,
		stderr:    stderr,
		log:       logger.For(logger.ComponentCLI),
	}
}

// Run parses the global options, then dispatches to the named command. The
// returned error carries the exit status via the cli error categories.
func (a *App) Run(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet(constants.AppName, flag.ContinueOnError)
	flags.SetOutput(a.stderr)
	flags.Usage = func() { fmt.Fprint(a.stderr, usageText) }

	home := flags.String("home", "", "Beacon installation root (default $BEACON_HOME)")
	verbose := flags.Bool("verbose", false, "print per-step detail")
	quiet := flags.Bool("quiet", false, "suppress progress output")

	if err := flags.Parse(args); err != nil {
		return cli.NewUsageError(err)
	}
	if *verbose && *quiet {
		return cli.NewUsageErrorf("--verbose and --quiet are mutually exclusive")
	}

	verbosity := cli.Normal
	if *verbose {
		verbosity = cli.Verbose
	}
	if *quiet {
		verbosity = cli.Silent
	}
	term := cli.NewTerminal(a.stdout, a.stderr, verbosity)

	rest := flags.Args()
	if len(rest) == 0 {
		flags.Usage()

		return cli.NewUsageErrorf("no command given")
	}

	command, commandArgs := rest[0], rest[1:]
	a.log.Debugf("Dispatching command %s", command)

	var err error

	switch command {
	case "install":
		err = a.runInstall(ctx, term, *home, commandArgs)
	case "list":
		err = a.runList(ctx, term, *home, commandArgs)
	case "remove":
		err = a.runRemove(ctx, term, *home, commandArgs)
	case "version":
		err = a.runVersion(commandArgs)
	default:
		flags.Usage()

		return cli.NewUsageErrorf("unknown command [%s]", command)
	}

	if err != nil && cli.ExitStatus(err) == cli.ExitInternal {
		// Operator mistakes carry their own status; only unexpected
		// failures are worth a crash report.
		sentry.ReportCommandError(a.log, command, err)
	}

	return err
}

// resolveLayout resolves the installation layout for commands that touch the
// filesystem. The version command does not need one.
func (a *App) resolveLayout(ctx context.Context, home string) (config.Layout, error) {
	return config.Resolve(ctx, a.fsService, config.Options{Home: home})
}

func (a *App) runInstall(ctx context.Context, term *cli.Terminal, home string, args []string) error {
	flags := flag.NewFlagSet("install", flag.ContinueOnError)
	flags.SetOutput(a.stderr)
	flags.Usage = func() { fmt.Fprintf(a.stderr, "Usage: %s install <archive>\n", constants.AppName) }

	if err := flags.Parse(args); err != nil {
		return cli.NewUsageError(err)
	}
	if flags.NArg() != 1 {
		flags.Usage()

		return cli.NewUsageErrorf("install expects exactly one archive path")
	}

	layout, err := a.resolveLayout(ctx, home)
	if err != nil {
		return err
	}

	_, err = a.service.Install(ctx, term, flags.Arg(0), layout, a.fsService)

	return err
}

func (a *App) runList(ctx context.Context, term *cli.Terminal, home string, args []string) error {
	flags := flag.NewFlagSet("list", flag.ContinueOnError)
	flags.SetOutput(a.stderr)
	flags.Usage = func() { fmt.Fprintf(a.stderr, "Usage: %s list [--output text|json]\n", constants.AppName) }

	output := flags.String("output", "text", "output format: text or json")

	if err := flags.Parse(args); err != nil {
		return cli.NewUsageError(err)
	}
	if flags.NArg() != 0 {
		flags.Usage()

		return cli.NewUsageErrorf("list takes no arguments")
	}
	if *output != "text" && *output != "json" {
		return cli.NewUsageErrorf("unknown output format [%s]", *output)
	}

	layout, err := a.resolveLayout(ctx, home)
	if err != nil {
		return err
	}

	infos, err := a.service.List(ctx, layout, a.fsService)
	if err != nil {
		return err
	}

	if *output == "json" {
		// The JSON listing is a scripting surface and ignores verbosity.
		data, err := json.Marshal(infos)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, string(data))

		return nil
	}

	for _, info := range infos {
		term.Println(formatPluginLine(info, term.Verbosity()))
	}

	return nil
}

// formatPluginLine renders one plugin for the text listing. Verbose adds the
// manifest details; a pending removal is always called out.
func formatPluginLine(info plugin.Info, verbosity cli.Verbosity) string {
	line := info.Name
	if verbosity >= cli.Verbose && info.Version != "" {
		line = fmt.Sprintf("%s (%s)", info.Name, info.Version)
		if info.Description != "" {
			line += ": " + info.Description
		}
	}
	if info.Removing {
		line += fmt.Sprintf(" (removal in progress; re-run '%s remove %s')", constants.AppName, info.Name)
	}

	return line
}

func (a *App) runRemove(ctx context.Context, term *cli.Terminal, home string, args []string) error {
	flags := flag.NewFlagSet("remove", flag.ContinueOnError)
	flags.SetOutput(a.stderr)
	flags.Usage = func() { fmt.Fprintf(a.stderr, "Usage: %s remove <name>\n", constants.AppName) }

	if err := flags.Parse(args); err != nil {
		return cli.NewUsageError(err)
	}
	if flags.NArg() != 1 {
		flags.Usage()

		return cli.NewUsageErrorf("remove expects exactly one plugin name")
	}

	layout, err := a.resolveLayout(ctx, home)
	if err != nil {
		return err
	}

	return a.service.Remove(ctx, term, flags.Arg(0), layout, a.fsService)
}

func (a *App) runVersion(args []string) error {
	if len(args) != 0 {
		return cli.NewUsageErrorf("version takes no arguments")
	}

	// Version output is a scripting surface and ignores verbosity.
	fmt.Fprintf(a.stdout, "%s %s\n", constants.AppName, version.GetAppVersion())

	return nil
}
