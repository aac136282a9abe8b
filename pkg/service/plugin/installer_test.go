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
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap/zaptest"

	"github.com/beaconworks/beacon-plugin-cli/pkg/cli"
	"github.com/beaconworks/beacon-plugin-cli/pkg/config"
	"github.com/beaconworks/beacon-plugin-cli/pkg/constants"
	"github.com/beaconworks/beacon-plugin-cli/pkg/service/filesystem"
	"github.com/klauspost/compress/gzip"
)

var _ = Describe("Installer", func() {
	var (
		ctx         context.Context
		cancel      context.CancelFunc
		service     *DefaultService
		fsService   filesystem.Service
		layout      config.Layout
		archivePath string
		stdout      *bytes.Buffer
		stderr      *bytes.Buffer
		term        *cli.Terminal
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		service = &DefaultService{
			logger:        zaptest.NewLogger(GinkgoT()).Sugar(),
			serverVersion: "2.3.0",
		}
		fsService = filesystem.NewDefaultService()
		layout = newTestLayout(GinkgoT().TempDir())
		archivePath = filepath.Join(GinkgoT().TempDir(), "foo-1.2.3.tar.gz")
		stdout = &bytes.Buffer{}
		stderr = &bytes.Buffer{}
		term = cli.NewTerminal(stdout, stderr, cli.Verbose)
	})

	AfterEach(func() {
		cancel()
	})

	Context("with a well-formed archive", func() {
		It("installs payload, executables and config defaults", func() {
			makeArchive(archivePath, fooArchiveEntries())

			info, err := service.Install(ctx, term, archivePath, layout, fsService)
			Expect(err).NotTo(HaveOccurred())
			Expect(info).To(Equal(Info{Name: "foo", Version: "1.2.3", Description: "demo integration"}))

			root := layout.PluginDir("foo")
			Expect(pathExists(filepath.Join(root, constants.ManifestFileName))).To(BeTrue())
			Expect(pathExists(filepath.Join(root, "lib", "foo.jar"))).To(BeTrue())
			Expect(pathExists(filepath.Join(root, constants.InstallSentinelFileName))).To(BeTrue())

			// Payload directories moved out of the root.
			Expect(pathExists(filepath.Join(root, "bin"))).To(BeFalse())
			Expect(pathExists(filepath.Join(root, "config"))).To(BeFalse())

			binInfo, statErr := os.Stat(filepath.Join(layout.PluginBinDir("foo"), "foo.sh"))
			Expect(statErr).NotTo(HaveOccurred())
			Expect(binInfo.Mode().Perm()).To(Equal(os.FileMode(0o755)))

			content, readErr := os.ReadFile(filepath.Join(layout.PluginConfigDir("foo"), "foo.yml"))
			Expect(readErr).NotTo(HaveOccurred())
			Expect(string(content)).To(Equal("defaults: bundled\n"))

			Expect(stdout.String()).To(ContainSubstring("-> installing [" + archivePath + "]..."))
			Expect(stdout.String()).To(ContainSubstring("-> installed [foo (1.2.3)]"))

			entries, readDirErr := os.ReadDir(layout.PluginsDir)
			Expect(readDirErr).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1), "no staging leftovers expected")
		})

		It("round-trips with remove, preserving the seeded config", func() {
			makeArchive(archivePath, fooArchiveEntries())

			_, err := service.Install(ctx, term, archivePath, layout, fsService)
			Expect(err).NotTo(HaveOccurred())

			err = service.Remove(ctx, term, "foo", layout, fsService)
			Expect(err).NotTo(HaveOccurred())

			Expect(pathExists(layout.PluginDir("foo"))).To(BeFalse())
			Expect(pathExists(layout.PluginBinDir("foo"))).To(BeFalse())

			content, readErr := os.ReadFile(filepath.Join(layout.PluginConfigDir("foo"), "foo.yml"))
			Expect(readErr).NotTo(HaveOccurred())
			Expect(string(content)).To(Equal("defaults: bundled\n"))
			Expect(stdout.String()).To(ContainSubstring("-> preserving plugin config files [" + layout.PluginConfigDir("foo") + "]"))
		})

		It("keeps existing config files over bundled defaults", func() {
			writeFixture(filepath.Join(layout.PluginConfigDir("foo"), "foo.yml"), "answer: 42\n")
			makeArchive(archivePath, fooArchiveEntries())

			_, err := service.Install(ctx, term, archivePath, layout, fsService)
			Expect(err).NotTo(HaveOccurred())

			content, readErr := os.ReadFile(filepath.Join(layout.PluginConfigDir("foo"), "foo.yml"))
			Expect(readErr).NotTo(HaveOccurred())
			Expect(string(content)).To(Equal("answer: 42\n"))

			// The bundled defaults were dropped, not stashed in the root.
			Expect(pathExists(filepath.Join(layout.PluginDir("foo"), "config"))).To(BeFalse())
		})
	})

	Context("when the plugin is already installed", func() {
		It("fails and leaves the existing plugin untouched", func() {
			makeArchive(archivePath, fooArchiveEntries())

			_, err := service.Install(ctx, term, archivePath, layout, fsService)
			Expect(err).NotTo(HaveOccurred())

			witness := filepath.Join(layout.PluginDir("foo"), "witness.txt")
			writeFixture(witness, "still here")

			_, err = service.Install(ctx, term, archivePath, layout, fsService)
			Expect(err).To(HaveOccurred())
			Expect(cli.IsConfigError(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("plugin [foo] already exists; run 'beacon-plugin remove foo' first if you want to update it"))

			content, readErr := os.ReadFile(witness)
			Expect(readErr).NotTo(HaveOccurred())
			Expect(string(content)).To(Equal("still here"))

			entries, readDirErr := os.ReadDir(layout.PluginsDir)
			Expect(readDirErr).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1), "staging must be cleaned up")
		})

		It("points at the unfinished removal when a marker is pending", func() {
			installedPlugin(layout, "foo", false, false)
			writeFixture(layout.RemovalMarker("foo"), "")
			makeArchive(archivePath, fooArchiveEntries())

			_, err := service.Install(ctx, term, archivePath, layout, fsService)
			Expect(err).To(HaveOccurred())
			Expect(cli.IsConfigError(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("plugin [foo] has an unfinished removal; run 'beacon-plugin remove foo' to clean it up first"))
		})
	})

	Context("archive validation", func() {
		It("rejects a missing archive", func() {
			_, err := service.Install(ctx, term, archivePath, layout, fsService)
			Expect(err).To(HaveOccurred())
			Expect(cli.IsIOError(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("plugin archive [" + archivePath + "] not found"))
		})

		It("rejects a directory", func() {
			_, err := service.Install(ctx, term, GinkgoT().TempDir(), layout, fsService)
			Expect(err).To(HaveOccurred())
			Expect(cli.IsIOError(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("is not a file"))
		})

		It("rejects a file that is not a gzipped tarball", func() {
			writeFixture(archivePath, "plain text")

			_, err := service.Install(ctx, term, archivePath, layout, fsService)
			Expect(err).To(HaveOccurred())
			Expect(cli.IsIOError(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("not a gzipped tarball"))

			entries, readDirErr := os.ReadDir(layout.PluginsDir)
			Expect(readDirErr).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		It("rejects entries escaping the staging directory", func() {
			makeArchive(archivePath, []archiveEntry{
				{name: "plugin.yml", content: "name: evil\nversion: 1.0.0\n", mode: 0o644},
				{name: "../escape.txt", content: "boom", mode: 0o644},
			})

			_, err := service.Install(ctx, term, archivePath, layout, fsService)
			Expect(err).To(HaveOccurred())
			Expect(cli.IsIOError(err)).To(BeTrue())
			Expect(err.Error()).To(Equal(`bad name "../escape.txt" in plugin archive`))

			Expect(pathExists(filepath.Join(layout.PluginsDir, "escape.txt"))).To(BeFalse())

			entries, readDirErr := os.ReadDir(layout.PluginsDir)
			Expect(readDirErr).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty(), "staging must be cleaned up")
		})

		It("rejects entry types other than files and directories", func() {
			var buf bytes.Buffer
			gzipWriter := gzip.NewWriter(&buf)
			tarWriter := tar.NewWriter(gzipWriter)
			Expect(tarWriter.WriteHeader(&tar.Header{
				Name:     "hook",
				Typeflag: tar.TypeSymlink,
				Linkname: "/etc/passwd",
				Mode:     0o777,
			})).To(Succeed())
			Expect(tarWriter.Close()).To(Succeed())
			Expect(gzipWriter.Close()).To(Succeed())
			Expect(os.WriteFile(archivePath, buf.Bytes(), 0o644)).To(Succeed())

			_, err := service.Install(ctx, term, archivePath, layout, fsService)
			Expect(err).To(HaveOccurred())
			Expect(cli.IsIOError(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("bad file type"))
		})
	})

	Context("manifest validation", func() {
		It("rejects an archive without a manifest and cleans up", func() {
			makeArchive(archivePath, []archiveEntry{
				{name: "lib", dir: true, mode: 0o755},
				{name: "lib/x.jar", content: "x", mode: 0o644},
			})

			_, err := service.Install(ctx, term, archivePath, layout, fsService)
			Expect(err).To(HaveOccurred())
			Expect(cli.IsConfigError(err)).To(BeTrue())
			Expect(errors.Is(err, ErrNoManifest)).To(BeTrue())

			entries, readDirErr := os.ReadDir(layout.PluginsDir)
			Expect(readDirErr).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		It("rejects a manifest missing its version", func() {
			makeArchive(archivePath, []archiveEntry{
				{name: "plugin.yml", content: "name: foo\n", mode: 0o644},
			})

			_, err := service.Install(ctx, term, archivePath, layout, fsService)
			Expect(err).To(HaveOccurred())
			Expect(cli.IsConfigError(err)).To(BeTrue())
			Expect(errors.Is(err, ErrManifestInvalid)).To(BeTrue())
		})
	})

	Context("version compatibility", func() {
		requiresNewer := "name: foo\nversion: 1.0.0\nrequires: '>= 9.0.0'\n"

		It("rejects a plugin requiring a newer server", func() {
			makeArchive(archivePath, []archiveEntry{
				{name: "plugin.yml", content: requiresNewer, mode: 0o644},
			})

			versioned := NewDefaultService(WithServerVersion("2.3.0"))
			_, err := versioned.Install(ctx, term, archivePath, layout, fsService)
			Expect(err).To(HaveOccurred())
			Expect(cli.IsConfigError(err)).To(BeTrue())
			Expect(errors.Is(err, ErrIncompatible)).To(BeTrue())

			Expect(pathExists(layout.PluginDir("foo"))).To(BeFalse())

			entries, readDirErr := os.ReadDir(layout.PluginsDir)
			Expect(readDirErr).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		It("skips the check on development builds", func() {
			service.serverVersion = constants.DefaultAppVersion
			makeArchive(archivePath, []archiveEntry{
				{name: "plugin.yml", content: requiresNewer, mode: 0o644},
			})

			_, err := service.Install(ctx, term, archivePath, layout, fsService)
			Expect(err).NotTo(HaveOccurred())
			Expect(pathExists(layout.PluginDir("foo"))).To(BeTrue())
		})

		It("accepts a satisfied constraint", func() {
			makeArchive(archivePath, []archiveEntry{
				{name: "plugin.yml", content: "name: foo\nversion: 1.0.0\nrequires: '>= 2.0.0, < 3.0.0'\n", mode: 0o644},
			})

			_, err := service.Install(ctx, term, archivePath, layout, fsService)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Context("free space preflight", func() {
		It("fails before staging anything when the volume is too small", func() {
			makeArchive(archivePath, fooArchiveEntries())

			realFS := filesystem.NewDefaultService()
			mockFS := filesystem.NewMockFileSystem().
				WithStatFunc(realFS.Stat).
				WithEnsureDirectoryFunc(realFS.EnsureDirectory).
				WithFreeSpaceFunc(func(ctx context.Context, path string) (uint64, error) {
					return 16, nil
				})

			_, err := service.Install(ctx, term, archivePath, layout, mockFS)
			Expect(err).To(HaveOccurred())
			Expect(cli.IsIOError(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("not enough free space"))

			entries, readDirErr := os.ReadDir(layout.PluginsDir)
			Expect(readDirErr).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		It("fails on an oversized archive before staging", func() {
			makeArchive(archivePath, fooArchiveEntries())

			realFS := filesystem.NewDefaultService()
			mockFS := filesystem.NewMockFileSystem()
			mockFS.WithStatFunc(func(ctx context.Context, path string) (os.FileInfo, error) {
				return mockFS.NewMockFileInfo(filepath.Base(path), 1<<60, 0o644, time.Now(), false), nil
			}).
				WithEnsureDirectoryFunc(realFS.EnsureDirectory).
				WithFreeSpaceFunc(realFS.FreeSpace)

			_, err := service.Install(ctx, term, archivePath, layout, mockFS)
			Expect(err).To(HaveOccurred())
			Expect(cli.IsIOError(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("not enough free space"))
		})
	})

	Context("with leftovers from a crashed install", func() {
		It("ignores stale staging directories", func() {
			staleDir := filepath.Join(layout.PluginsDir, constants.InstallStagingPrefix+"c0ffee")
			writeFixture(filepath.Join(staleDir, "junk.bin"), "junk")
			makeArchive(archivePath, fooArchiveEntries())

			_, err := service.Install(ctx, term, archivePath, layout, fsService)
			Expect(err).NotTo(HaveOccurred())

			infos, listErr := service.List(ctx, layout, fsService)
			Expect(listErr).NotTo(HaveOccurred())
			Expect(infos).To(HaveLen(1))
			Expect(infos[0].Name).To(Equal("foo"))

			Expect(pathExists(staleDir)).To(BeTrue(), "stale staging dirs are not this install's business")
		})
	})
})
