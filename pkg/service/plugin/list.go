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
	"sort"
	"strings"

	"github.com/beaconworks/beacon-plugin-cli/pkg/cli"
	"github.com/beaconworks/beacon-plugin-cli/pkg/config"
	"github.com/beaconworks/beacon-plugin-cli/pkg/constants"
	"github.com/beaconworks/beacon-plugin-cli/pkg/service/filesystem"
	"golang.org/x/sync/errgroup"
)

// List returns the installed plugins sorted by name. Dot-prefixed entries
// (staging directories, markers) and plain files are not plugins and are
// never listed. A plugin whose manifest is unreadable is still listed by
// name, so a damaged or half-removed plugin stays visible.
func (s *DefaultService) List(ctx context.Context, layout config.Layout, fsService filesystem.Service) ([]Info, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err() // context already cancelled / deadline exceeded
	}

	entries, err := fsService.ReadDir(ctx, layout.PluginsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Nothing has been installed yet.
			return []Info{}, nil
		}

		return nil, cli.NewIOError(err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	// Manifest reads are independent; an errgroup with the same context
	// bounds them and stops the rest when one fails.
	infos := make([]Info, len(names))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(constants.ManifestReadConcurrency)

	for i, name := range names {
		i, name := i, name // per-iteration copies; required while go.mod is below 1.22
		group.Go(func() error {
			info, err := s.describePlugin(groupCtx, name, layout, fsService)
			if err != nil {
				return err
			}
			infos[i] = info

			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return infos, nil
}

// describePlugin builds the Info for one plugin root, tolerating a missing
// or damaged manifest.
func (s *DefaultService) describePlugin(ctx context.Context, name string, layout config.Layout, fsService filesystem.Service) (Info, error) {
	info := Info{Name: name}

	markerExists, err := fsService.PathExists(ctx, layout.RemovalMarker(name))
	if err != nil {
		return Info{}, cli.NewIOError(err)
	}
	info.Removing = markerExists

	manifest, err := readManifest(ctx, layout.PluginDir(name), fsService)
	switch {
	case err == nil:
		info.Version = manifest.Version
		info.Description = manifest.Description
	case errors.Is(err, ErrNoManifest), errors.Is(err, ErrManifestInvalid):
		s.logger.Debugf("Plugin %s has no readable manifest: %s", name, err)
	default:
		return Info{}, cli.NewIOError(err)
	}

	return info, nil
}

// FindInterruptedRemovals scans the plugins directory for roots that still
// carry their removal marker. The server runs the same scan at startup to
// skip half-removed plugins; the list command uses it to annotate them.
func (s *DefaultService) FindInterruptedRemovals(ctx context.Context, layout config.Layout, fsService filesystem.Service) ([]string, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err() // context already cancelled / deadline exceeded
	}

	matches, err := fsService.Glob(ctx, filepath.Join(layout.PluginsDir, "*", constants.RemovalMarkerPrefix+"*"))
	if err != nil {
		return nil, cli.NewIOError(err)
	}

	var names []string
	for _, match := range matches {
		name := filepath.Base(filepath.Dir(match))
		if filepath.Base(match) != constants.RemovalMarkerPrefix+name {
			// A marker whose suffix does not match its directory is
			// garbage, not a removal record.
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}
