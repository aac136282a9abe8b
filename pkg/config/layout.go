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

// Package config resolves the on-disk layout of a Beacon installation.
//
// The layout names the directories every subcommand operates on: where
// plugins live, where their executables are published, and where their
// configuration is kept. Resolution follows a fixed precedence so that
// scripted and interactive use agree on the same directories.
package config

import (
	"context"
	"path/filepath"

	"github.com/beaconworks/beacon-plugin-cli/pkg/cli"
	"github.com/beaconworks/beacon-plugin-cli/pkg/constants"
	"github.com/beaconworks/beacon-plugin-cli/pkg/env"
	"github.com/beaconworks/beacon-plugin-cli/pkg/service/filesystem"
	"gopkg.in/yaml.v3"
)

// Layout names the directories a Beacon installation spreads across.
type Layout struct {
	// Home is the installation root. Every other directory defaults to a
	// child of it.
	Home string
	// PluginsDir holds one subdirectory per installed plugin.
	PluginsDir string
	// BinDir holds the per-plugin executable directories.
	BinDir string
	// ConfigDir holds beacon.yml and the per-plugin config directories.
	ConfigDir string
}

// Options carries the command-line values that take part in layout
// resolution.
type Options struct {
	// Home overrides the BEACON_HOME environment variable when non-empty.
	Home string
}

// serverConfig models the subset of beacon.yml this tool reads. The server
// owns the file; everything else in it is ignored here.
type serverConfig struct {
	Paths struct {
		Plugins string `yaml:"plugins"`
		Bin     string `yaml:"bin"`
		Config  string `yaml:"config"`
	} `yaml:"paths"`
}

// Resolve determines the layout for this invocation.
//
// Order of precedence (highest to lowest):
//  1. Environment variables (BEACON_PLUGINS_PATH, BEACON_BIN_PATH, BEACON_CONFIG_PATH)
//  2. The paths section of <home>/config/beacon.yml, if the file exists
//  3. Defaults beneath the home directory
//
// Home itself comes from opts.Home or BEACON_HOME; there is no built-in
// default. A home that is unset, missing, or not a directory is reported
// as a configuration error.
func Resolve(ctx context.Context, fsService filesystem.Service, opts Options) (Layout, error) {
	home := opts.Home
	if home == "" {
		var err error
		home, err = env.GetAsString(constants.EnvHome, false, "")
		if err != nil {
			return Layout{}, cli.NewConfigError(err)
		}
	}
	if home == "" {
		return Layout{}, cli.NewConfigErrorf("%s is not set; set it or pass --home", constants.EnvHome)
	}
	home = filepath.Clean(home)

	info, err := fsService.Stat(ctx, home)
	if err != nil {
		return Layout{}, cli.NewConfigErrorf("home directory [%s] is not usable: %w", home, err)
	}
	if !info.IsDir() {
		return Layout{}, cli.NewConfigErrorf("home [%s] is not a directory", home)
	}

	layout := Layout{
		Home:       home,
		PluginsDir: filepath.Join(home, constants.DefaultPluginsDirName),
		BinDir:     filepath.Join(home, constants.DefaultBinDirName),
		ConfigDir:  filepath.Join(home, constants.DefaultConfigDirName),
	}

	if err := applyServerConfig(ctx, fsService, &layout); err != nil {
		return Layout{}, err
	}
	if err := applyEnvOverrides(&layout); err != nil {
		return Layout{}, err
	}

	return layout, nil
}

// applyServerConfig overlays the paths section of beacon.yml onto the
// defaults. The file is always looked up below the home directory so the
// overrides it contains cannot move it. A file that exists but cannot be
// parsed is a configuration error, not an I/O one.
func applyServerConfig(ctx context.Context, fsService filesystem.Service, layout *Layout) error {
	configFile := filepath.Join(layout.Home, constants.DefaultConfigDirName, constants.LayoutConfigFileName)

	exists, err := fsService.PathExists(ctx, configFile)
	if err != nil {
		return cli.NewIOErrorf("failed to check config file [%s]: %w", configFile, err)
	}
	if !exists {
		return nil
	}

	data, err := fsService.ReadFile(ctx, configFile)
	if err != nil {
		return cli.NewIOErrorf("failed to read config file [%s]: %w", configFile, err)
	}

	var cfg serverConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cli.NewConfigErrorf("failed to parse config file [%s]: %w", configFile, err)
	}

	layout.PluginsDir = overridePath(layout.Home, layout.PluginsDir, cfg.Paths.Plugins)
	layout.BinDir = overridePath(layout.Home, layout.BinDir, cfg.Paths.Bin)
	layout.ConfigDir = overridePath(layout.Home, layout.ConfigDir, cfg.Paths.Config)

	return nil
}

// applyEnvOverrides applies the per-directory environment variables. Only
// non-empty values override.
func applyEnvOverrides(layout *Layout) error {
	overrides := []struct {
		key  string
		dest *string
	}{
		{constants.EnvPluginsPath, &layout.PluginsDir},
		{constants.EnvBinPath, &layout.BinDir},
		{constants.EnvConfigPath, &layout.ConfigDir},
	}

	for _, override := range overrides {
		value, err := env.GetAsString(override.key, false, "")
		if err != nil {
			return cli.NewConfigError(err)
		}
		if value != "" {
			*override.dest = resolveAgainst(layout.Home, value)
		}
	}

	return nil
}

// overridePath keeps current when the override is empty.
func overridePath(home, current, override string) string {
	if override == "" {
		return current
	}
	return resolveAgainst(home, override)
}

// resolveAgainst anchors relative overrides at the home directory so the
// layout never depends on the process working directory.
func resolveAgainst(home, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(home, path)
}

// PluginDir returns the directory a named plugin is installed in.
func (l Layout) PluginDir(name string) string {
	return filepath.Join(l.PluginsDir, name)
}

// PluginBinDir returns the executables directory for a named plugin.
func (l Layout) PluginBinDir(name string) string {
	return filepath.Join(l.BinDir, name)
}

// PluginConfigDir returns the configuration directory for a named plugin.
func (l Layout) PluginConfigDir(name string) string {
	return filepath.Join(l.ConfigDir, name)
}

// RemovalMarker returns the path of the removal marker for a named plugin.
// The marker lives inside the plugin directory, so the startup scan finds
// it by looking into each plugin root, and deleting the root deletes it.
func (l Layout) RemovalMarker(name string) string {
	return filepath.Join(l.PluginsDir, name, constants.RemovalMarkerPrefix+name)
}
