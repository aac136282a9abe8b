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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/beaconworks/beacon-plugin-cli/pkg/constants"
	"github.com/beaconworks/beacon-plugin-cli/pkg/service/filesystem"
	"gopkg.in/yaml.v3"
)

// Manifest is the plugin.yml descriptor every plugin archive carries at its
// top level. The server reads the same file, so the field set is an on-disk
// contract.
type Manifest struct {
	// Name is the plugin identifier. It names the plugin root on disk, so
	// it must be a valid single path element.
	Name string `yaml:"name"        json:"name"`
	// Version is the plugin's own semantic version.
	Version string `yaml:"version"     json:"version"`
	// Description is a one-line summary shown by the list command.
	Description string `yaml:"description" json:"description,omitempty"`
	// Requires is an optional semver constraint on the server version,
	// e.g. ">= 2.1.0". Empty means the plugin runs on any server.
	Requires string `yaml:"requires"    json:"requires,omitempty"`
}

// ParseManifest decodes and validates a plugin.yml document.
func ParseManifest(data []byte) (Manifest, error) {
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("%w: %s", ErrManifestInvalid, err)
	}
	if err := manifest.Validate(); err != nil {
		return Manifest{}, err
	}

	return manifest, nil
}

// Validate checks that the manifest carries the required fields and that the
// version fields parse.
func (m Manifest) Validate() error {
	if err := ValidateName(m.Name); err != nil {
		return fmt.Errorf("%w: %s", ErrManifestInvalid, err)
	}
	if m.Version == "" {
		return fmt.Errorf("%w: version is required", ErrManifestInvalid)
	}
	if _, err := semver.NewVersion(m.Version); err != nil {
		return fmt.Errorf("%w: version [%s]: %s", ErrManifestInvalid, m.Version, err)
	}
	if m.Requires != "" {
		if _, err := semver.NewConstraint(m.Requires); err != nil {
			return fmt.Errorf("%w: requires [%s]: %s", ErrManifestInvalid, m.Requires, err)
		}
	}

	return nil
}

// CheckCompatibility verifies the manifest's server constraint against the
// running version. Development builds carry the dev default version and skip
// the check, otherwise no locally built binary could install anything.
func (m Manifest) CheckCompatibility(serverVersion string) error {
	if m.Requires == "" {
		return nil
	}
	if serverVersion == "" || serverVersion == constants.DefaultAppVersion {
		return nil
	}

	constraint, err := semver.NewConstraint(m.Requires)
	if err != nil {
		return fmt.Errorf("%w: requires [%s]: %s", ErrManifestInvalid, m.Requires, err)
	}
	version, err := semver.NewVersion(serverVersion)
	if err != nil {
		return fmt.Errorf("failed to parse server version [%s]: %w", serverVersion, err)
	}
	if !constraint.Check(version) {
		return fmt.Errorf("%w: requires server %s, running %s", ErrIncompatible, m.Requires, serverVersion)
	}

	return nil
}

// ValidateName checks that a plugin name is usable as a directory name.
// Names become path elements under the plugins directory, so anything that
// could escape it or collide with marker files is rejected.
func ValidateName(name string) error {
	if name == "" {
		return errors.New("plugin name is required")
	}
	if strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid plugin name [%s]", name)
	}

	return nil
}

// readManifest loads and parses the manifest at the top of a plugin root.
// A missing file reports ErrNoManifest; other read failures pass through.
func readManifest(ctx context.Context, root string, fsService filesystem.Service) (Manifest, error) {
	data, err := fsService.ReadFile(ctx, filepath.Join(root, constants.ManifestFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, ErrNoManifest
		}

		return Manifest{}, err
	}

	return ParseManifest(data)
}
