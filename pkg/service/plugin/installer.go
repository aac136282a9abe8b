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
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/beaconworks/beacon-plugin-cli/pkg/cli"
	"github.com/beaconworks/beacon-plugin-cli/pkg/config"
	"github.com/beaconworks/beacon-plugin-cli/pkg/constants"
	"github.com/beaconworks/beacon-plugin-cli/pkg/service/filesystem"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
)

// archive payload directories; bin is published next to the plugin root,
// config seeds the preserved config directory.
const (
	archiveBinDir    = "bin"
	archiveConfigDir = "config"
)

// Install unpacks a .tar.gz plugin archive into the layout.
//
// The archive is extracted into a dot-prefixed staging directory next to the
// final plugin root, a sentinel file marks the extraction complete, and one
// rename puts the root in place. A crash mid-install therefore never
// produces a plugin root without its sentinel; at worst a staging directory
// leaks, and its dot prefix keeps it out of every listing.
func (s *DefaultService) Install(ctx context.Context, term *cli.Terminal, archivePath string, layout config.Layout, fsService filesystem.Service) (Info, error) {
	if ctx.Err() != nil {
		return Info{}, ctx.Err() // context already cancelled / deadline exceeded
	}

	s.logger.Debugf("Installing plugin from %s", archivePath)

	term.Printf("-> installing [%s]...", archivePath)

	archiveInfo, err := fsService.Stat(ctx, archivePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Info{}, cli.NewIOErrorf("plugin archive [%s] not found", archivePath)
		}

		return Info{}, cli.NewIOError(err)
	}
	if archiveInfo.IsDir() {
		return Info{}, cli.NewIOErrorf("plugin archive [%s] is not a file", archivePath)
	}

	if err := fsService.EnsureDirectory(ctx, layout.PluginsDir); err != nil {
		return Info{}, cli.NewIOError(err)
	}
	if err := s.checkFreeSpace(ctx, archiveInfo.Size(), layout, fsService); err != nil {
		return Info{}, err
	}

	staging := filepath.Join(layout.PluginsDir, constants.InstallStagingPrefix+uuid.NewString())

	cleanupStaging := func() {
		if stagingExists, _ := fsService.PathExists(ctx, staging); stagingExists {
			if cleanupErr := fsService.RemoveAll(ctx, staging); cleanupErr != nil {
				s.logger.Warnf("Failed to clean up staging directory %s: %v", staging, cleanupErr)
			}
		}
	}

	if err := s.extractArchive(ctx, archivePath, staging, fsService); err != nil {
		cleanupStaging()

		return Info{}, err
	}

	manifest, err := s.loadStagedManifest(ctx, staging, fsService)
	if err != nil {
		cleanupStaging()

		return Info{}, err
	}
	if err := manifest.CheckCompatibility(s.serverVersion); err != nil {
		cleanupStaging()

		return Info{}, cli.NewConfigError(err)
	}

	if err := s.checkNotInstalled(ctx, manifest.Name, layout, fsService); err != nil {
		cleanupStaging()

		return Info{}, err
	}

	// Sentinel before rename: a plugin root carrying it was extracted
	// completely before it became visible under its final name.
	sentinelPath := filepath.Join(staging, constants.InstallSentinelFileName)
	if err := fsService.WriteFile(ctx, sentinelPath, []byte("ok"), constants.FilePermissions); err != nil {
		cleanupStaging()

		return Info{}, cli.NewIOError(err)
	}

	if err := fsService.Rename(ctx, staging, layout.PluginDir(manifest.Name)); err != nil {
		cleanupStaging()

		return Info{}, cli.NewIOError(err)
	}

	if err := s.publishExecutables(ctx, term, manifest.Name, layout, fsService); err != nil {
		return Info{}, err
	}
	if err := s.seedConfig(ctx, term, manifest.Name, layout, fsService); err != nil {
		return Info{}, err
	}

	term.Printf("-> installed [%s (%s)]", manifest.Name, manifest.Version)

	s.logger.Debugf("Installed plugin %s %s", manifest.Name, manifest.Version)

	return Info{Name: manifest.Name, Version: manifest.Version, Description: manifest.Description}, nil
}

// checkFreeSpace rejects the install when the plugins volume cannot hold the
// staging copy plus the extracted tree.
func (s *DefaultService) checkFreeSpace(ctx context.Context, archiveSize int64, layout config.Layout, fsService filesystem.Service) error {
	free, err := fsService.FreeSpace(ctx, layout.PluginsDir)
	if err != nil {
		return cli.NewIOError(err)
	}

	needed := uint64(archiveSize) * constants.InstallSpaceFactor
	if free < needed {
		return cli.NewIOErrorf("not enough free space on [%s]: need %d bytes, %d available", layout.PluginsDir, needed, free)
	}

	return nil
}

// extractArchive unpacks a gzipped tarball into destDir. Entries that would
// land outside destDir and entry types other than files and directories are
// rejected, so an archive cannot write anywhere the layout does not own.
func (s *DefaultService) extractArchive(ctx context.Context, archivePath, destDir string, fsService filesystem.Service) error {
	data, err := fsService.ReadFile(ctx, archivePath)
	if err != nil {
		return cli.NewIOError(err)
	}

	gzipReader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return cli.NewIOErrorf("plugin archive [%s] is not a gzipped tarball: %s", archivePath, err)
	}
	defer func() {
		if closeErr := gzipReader.Close(); closeErr != nil {
			s.logger.Debugf("Failed to close gzip reader for %s: %s", archivePath, closeErr)
		}
	}()

	if err := fsService.EnsureDirectory(ctx, destDir); err != nil {
		return cli.NewIOError(err)
	}

	tarReader := tar.NewReader(gzipReader)
	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return cli.NewIOErrorf("failed to read plugin archive [%s]: %s", archivePath, err)
		}

		if err := s.extractEntry(ctx, header, tarReader, destDir, fsService); err != nil {
			return err
		}
	}
}

// extractEntry writes a single tar entry below destDir.
func (s *DefaultService) extractEntry(ctx context.Context, header *tar.Header, tarReader *tar.Reader, destDir string, fsService filesystem.Service) error {
	name := filepath.Clean(header.Name)
	if name == "." {
		return nil
	}
	if !filepath.IsLocal(name) {
		return cli.NewIOErrorf("bad name %q in plugin archive", header.Name)
	}

	target := filepath.Join(destDir, name)

	switch header.Typeflag {
	case tar.TypeDir:
		return errToIO(fsService.EnsureDirectory(ctx, target))
	case tar.TypeReg:
		if err := fsService.EnsureDirectory(ctx, filepath.Dir(target)); err != nil {
			return cli.NewIOError(err)
		}

		content, err := io.ReadAll(tarReader)
		if err != nil {
			return cli.NewIOErrorf("failed to read %q from plugin archive: %s", header.Name, err)
		}

		return errToIO(fsService.WriteFile(ctx, target, content, os.FileMode(header.Mode&0o777)))
	case tar.TypeXGlobalHeader:
		// Metadata entry some tar writers prepend, nothing to write.
		return nil
	default:
		return cli.NewIOErrorf("bad file type %c in file %q in plugin archive", header.Typeflag, header.Name)
	}
}

// loadStagedManifest reads and validates the manifest at the top of the
// extracted tree. An archive without one is not a plugin.
func (s *DefaultService) loadStagedManifest(ctx context.Context, staging string, fsService filesystem.Service) (Manifest, error) {
	manifest, err := readManifest(ctx, staging, fsService)
	if err != nil {
		if errors.Is(err, ErrNoManifest) {
			return Manifest{}, cli.NewConfigError(fmt.Errorf("%w: archive has no %s at its top level", ErrNoManifest, constants.ManifestFileName))
		}
		if errors.Is(err, ErrManifestInvalid) {
			return Manifest{}, cli.NewConfigError(err)
		}

		return Manifest{}, cli.NewIOError(err)
	}

	return manifest, nil
}

// checkNotInstalled rejects the install when the target plugin root already
// exists, distinguishing a pending removal from a live plugin.
func (s *DefaultService) checkNotInstalled(ctx context.Context, name string, layout config.Layout, fsService filesystem.Service) error {
	exists, err := fsService.PathExists(ctx, layout.PluginDir(name))
	if err != nil {
		return cli.NewIOError(err)
	}
	if !exists {
		return nil
	}

	markerExists, err := fsService.PathExists(ctx, layout.RemovalMarker(name))
	if err == nil && markerExists {
		return cli.NewConfigErrorf("plugin [%s] has an unfinished removal; run '%s remove %s' to clean it up first", name, constants.AppName, name)
	}

	return cli.NewConfigErrorf("plugin [%s] already exists; run '%s remove %s' first if you want to update it", name, constants.AppName, name)
}

// publishExecutables moves a staged bin/ payload out of the plugin root to
// the per-plugin executables directory and ensures executable bits on its
// files.
func (s *DefaultService) publishExecutables(ctx context.Context, term *cli.Terminal, name string, layout config.Layout, fsService filesystem.Service) error {
	staged := filepath.Join(layout.PluginDir(name), archiveBinDir)

	exists, err := fsService.PathExists(ctx, staged)
	if err != nil {
		return cli.NewIOError(err)
	}
	if !exists {
		return nil
	}

	binDir := layout.PluginBinDir(name)

	if err := fsService.EnsureDirectory(ctx, layout.BinDir); err != nil {
		return cli.NewIOError(err)
	}
	// A crash between the root rename and this publish can leave a stale
	// executables directory behind. The installed check proved no plugin
	// owns it, so clear it before moving the fresh payload in.
	if err := fsService.RemoveAll(ctx, binDir); err != nil {
		return cli.NewIOError(err)
	}
	if err := fsService.Rename(ctx, staged, binDir); err != nil {
		return cli.NewIOError(err)
	}

	entries, err := fsService.ReadDir(ctx, binDir)
	if err != nil {
		return cli.NewIOError(err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := fsService.Chmod(ctx, filepath.Join(binDir, entry.Name()), constants.ExecutablePermissions); err != nil {
			return cli.NewIOError(err)
		}
	}

	term.VPrintf("published executables to [%s]", binDir)

	return nil
}

// seedConfig moves a staged config/ payload to the per-plugin config
// directory unless one already exists. Settings from an earlier install win
// over bundled defaults; removal preserves them either way.
func (s *DefaultService) seedConfig(ctx context.Context, term *cli.Terminal, name string, layout config.Layout, fsService filesystem.Service) error {
	staged := filepath.Join(layout.PluginDir(name), archiveConfigDir)

	exists, err := fsService.PathExists(ctx, staged)
	if err != nil {
		return cli.NewIOError(err)
	}
	if !exists {
		return nil
	}

	configDir := layout.PluginConfigDir(name)

	configExists, err := fsService.PathExists(ctx, configDir)
	if err != nil {
		return cli.NewIOError(err)
	}
	if configExists {
		term.VPrintf("keeping existing config files [%s]", configDir)

		return errToIO(fsService.RemoveAll(ctx, staged))
	}

	if err := fsService.EnsureDirectory(ctx, layout.ConfigDir); err != nil {
		return cli.NewIOError(err)
	}
	if err := fsService.Rename(ctx, staged, configDir); err != nil {
		return cli.NewIOError(err)
	}

	term.VPrintf("seeded config files [%s]", configDir)

	return nil
}

// errToIO categorizes a filesystem failure, passing nil through.
func errToIO(err error) error {
	if err == nil {
		return nil
	}

	return cli.NewIOError(err)
}
