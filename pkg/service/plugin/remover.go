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

package plugin

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/beaconworks/beacon-plugin-cli/internal/fsm"
	"github.com/beaconworks/beacon-plugin-cli/pkg/cli"
	"github.com/beaconworks/beacon-plugin-cli/pkg/config"
	"github.com/beaconworks/beacon-plugin-cli/pkg/constants"
	"github.com/beaconworks/beacon-plugin-cli/pkg/service/filesystem"
)

// Remove deletes the named plugin's executables and its plugin directory.
// The plugin's config directory is never touched, so a later reinstall picks
// up the old settings.
//
// Before anything is deleted, a marker file is created inside the plugin
// root and it is deleted last-but-one, the root itself last. A crash at any
// point therefore leaves either an untouched plugin, or a root that still
// carries the marker, or nothing. The server skips marked roots at startup
// and the next remove of the same name cleans them up.
func (s *DefaultService) Remove(ctx context.Context, term *cli.Terminal, name string, layout config.Layout, fsService filesystem.Service) error {
	if ctx.Err() != nil {
		return ctx.Err() // context already cancelled / deadline exceeded
	}

	s.logger.Debugf("Removing plugin %s", name)

	machine := fsm.NewRemovalInstance(fsm.RemovalInstanceConfig{ID: name}, s.logger)

	fail := func(err error) error {
		if failErr := machine.Fail(ctx, err); failErr != nil {
			s.logger.Debugf("Removal of %s failed before the failure could be recorded: %s", name, failErr)
		}

		return err
	}

	if err := s.validateRemoval(ctx, term, name, layout, fsService); err != nil {
		return fail(err)
	}
	if err := machine.SendEvent(ctx, fsm.EventValidate); err != nil {
		return fail(err)
	}

	paths, err := s.collectRemovalPaths(ctx, term, name, layout, fsService)
	if err != nil {
		return fail(err)
	}
	if err := machine.SendEvent(ctx, fsm.EventCollect); err != nil {
		return fail(err)
	}

	marker := layout.RemovalMarker(name)
	if err := s.ensureRemovalMarker(ctx, term, marker, fsService); err != nil {
		return fail(err)
	}
	if err := machine.SendEvent(ctx, fsm.EventMark); err != nil {
		return fail(err)
	}

	// The marker goes last-but-one and the root last. Anything that dies in
	// the middle of the sweep leaves the marker, the root, or both behind,
	// and the next run finds them.
	paths = append(paths, marker, layout.PluginDir(name))

	if err := s.deletePaths(ctx, paths, fsService); err != nil {
		return fail(err)
	}
	if err := machine.SendEvent(ctx, fsm.EventDelete); err != nil {
		return fail(err)
	}

	s.reportPreservedConfig(ctx, term, name, layout, fsService)
	if err := machine.SendEvent(ctx, fsm.EventNotify); err != nil {
		return fail(err)
	}

	s.logger.Debugf("Removed plugin %s", name)

	return nil
}

// validateRemoval rejects unusable names and plugins that are not installed.
// The progress line prints before the installed check, so a failed remove
// still shows what was attempted.
func (s *DefaultService) validateRemoval(ctx context.Context, term *cli.Terminal, name string, layout config.Layout, fsService filesystem.Service) error {
	if err := ValidateName(name); err != nil {
		return cli.NewUsageError(err)
	}

	term.Printf("-> removing [%s]...", name)

	exists, err := fsService.PathExists(ctx, layout.PluginDir(name))
	if err != nil {
		return cli.NewIOError(err)
	}
	if !exists {
		return cli.NewConfigErrorf("plugin [%s] not found; run '%s list' to get list of installed plugins", name, constants.AppName)
	}

	return nil
}

// collectRemovalPaths snapshots everything the sweep will delete before the
// marker: the executables directory when present, then the children of the
// plugin root. A marker left over from an interrupted removal shows up in
// the snapshot like any other child.
func (s *DefaultService) collectRemovalPaths(ctx context.Context, term *cli.Terminal, name string, layout config.Layout, fsService filesystem.Service) ([]string, error) {
	pluginDir := layout.PluginDir(name)
	binDir := layout.PluginBinDir(name)

	var paths []string

	binExists, err := fsService.PathExists(ctx, binDir)
	if err != nil {
		return nil, cli.NewIOError(err)
	}
	if binExists {
		info, err := fsService.Stat(ctx, binDir)
		if err != nil {
			return nil, cli.NewIOError(err)
		}
		if !info.IsDir() {
			return nil, cli.NewIOErrorf("bin dir for %s is not a directory", name)
		}

		paths = append(paths, binDir)
		term.VPrintf("removing [%s]", binDir)
	}

	term.VPrintf("removing [%s]", pluginDir)

	entries, err := fsService.ReadDir(ctx, pluginDir)
	if err != nil {
		return nil, cli.NewIOError(err)
	}
	for _, entry := range entries {
		paths = append(paths, filepath.Join(pluginDir, entry.Name()))
	}

	return paths, nil
}

// ensureRemovalMarker commits the removal. Once the marker exists the plugin
// counts as removed even if the process dies before the sweep finishes.
func (s *DefaultService) ensureRemovalMarker(ctx context.Context, term *cli.Terminal, marker string, fsService filesystem.Service) error {
	err := fsService.CreateFile(ctx, marker, constants.FilePermissions)
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrExist) {
		// Left over from an interrupted removal of the same plugin. The old
		// marker commits this run just as well.
		term.VPrintf("marker file [%s] already exists", marker)

		return nil
	}

	return cli.NewIOError(err)
}

// deletePaths removes every path in order, skipping ones that are already
// gone. A failed delete does not stop the sweep; whatever could not be
// deleted is reported at the end, and the marker or root left behind keeps
// the plugin flagged for the next run.
func (s *DefaultService) deletePaths(ctx context.Context, paths []string, fsService filesystem.Service) error {
	var errs []error

	for _, path := range paths {
		err := fsService.RemoveAll(ctx, path)
		if err == nil {
			continue
		}

		errs = append(errs, err)

		if ctx.Err() != nil {
			// Every further delete would fail the same way.
			break
		}
	}

	if len(errs) > 0 {
		return cli.NewIOError(errors.Join(errs...))
	}

	return nil
}

// reportPreservedConfig prints the hint that config files survived the
// removal. The plugin is already gone at this point, so a failed probe only
// costs the hint line, never the exit status.
func (s *DefaultService) reportPreservedConfig(ctx context.Context, term *cli.Terminal, name string, layout config.Layout, fsService filesystem.Service) {
	configDir := layout.PluginConfigDir(name)

	exists, err := fsService.PathExists(ctx, configDir)
	if err != nil {
		s.logger.Debugf("Failed to check config dir for %s: %s", name, err)

		return
	}
	if exists {
		term.Printf("-> preserving plugin config files [%s] in case of upgrade; delete manually if not needed", configDir)
	}
}
