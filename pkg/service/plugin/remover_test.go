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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap/zaptest"

	"github.com/beaconworks/beacon-plugin-cli/pkg/cli"
	"github.com/beaconworks/beacon-plugin-cli/pkg/config"
	"github.com/beaconworks/beacon-plugin-cli/pkg/service/filesystem"
)

var _ = Describe("Remover", func() {
	var (
		ctx       context.Context
		cancel    context.CancelFunc
		service   *DefaultService
		fsService filesystem.Service
		layout    config.Layout
		stdout    *bytes.Buffer
		stderr    *bytes.Buffer
		term      *cli.Terminal
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		service = &DefaultService{
			logger:        zaptest.NewLogger(GinkgoT()).Sugar(),
			serverVersion: "2.3.0",
		}
		fsService = filesystem.NewDefaultService()
		layout = newTestLayout(GinkgoT().TempDir())
		stdout = &bytes.Buffer{}
		stderr = &bytes.Buffer{}
		term = cli.NewTerminal(stdout, stderr, cli.Verbose)
	})

	AfterEach(func() {
		cancel()
	})

	Context("argument validation", func() {
		It("rejects an empty name without touching the filesystem", func() {
			installedPlugin(layout, "foo", true, true)

			err := service.Remove(ctx, term, "", layout, fsService)
			Expect(err).To(HaveOccurred())
			Expect(cli.IsUsageError(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("plugin name is required"))

			Expect(stdout.String()).To(BeEmpty())
			Expect(pathExists(layout.PluginDir("foo"))).To(BeTrue())
			Expect(pathExists(layout.PluginBinDir("foo"))).To(BeTrue())
			Expect(pathExists(layout.RemovalMarker("foo"))).To(BeFalse())
		})

		It("rejects a name with path separators", func() {
			err := service.Remove(ctx, term, "a/b", layout, fsService)
			Expect(cli.IsUsageError(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("invalid plugin name [a/b]"))
			Expect(stdout.String()).To(BeEmpty())
		})
	})

	Context("when the plugin is not installed", func() {
		It("fails with a remediation hint and changes nothing", func() {
			installedPlugin(layout, "foo", false, false)

			err := service.Remove(ctx, term, "ghost", layout, fsService)
			Expect(err).To(HaveOccurred())
			Expect(cli.IsConfigError(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("plugin [ghost] not found; run 'beacon-plugin list' to get list of installed plugins"))

			// The attempt is still announced before the installed check.
			Expect(stdout.String()).To(Equal("-> removing [ghost]...\n"))
			Expect(pathExists(layout.PluginDir("foo"))).To(BeTrue())
			Expect(pathExists(layout.RemovalMarker("ghost"))).To(BeFalse())
		})
	})

	Context("when the bin entry is not a directory", func() {
		It("aborts before deleting anything", func() {
			installedPlugin(layout, "foo", false, false)
			writeFixture(layout.PluginBinDir("foo"), "not a directory")

			err := service.Remove(ctx, term, "foo", layout, fsService)
			Expect(err).To(HaveOccurred())
			Expect(cli.IsIOError(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("bin dir for foo is not a directory"))

			Expect(pathExists(layout.PluginDir("foo"))).To(BeTrue())
			Expect(pathExists(filepath.Join(layout.PluginDir("foo"), "plugin.jar"))).To(BeTrue())
			Expect(pathExists(layout.PluginBinDir("foo"))).To(BeTrue())
			Expect(pathExists(layout.RemovalMarker("foo"))).To(BeFalse())
		})
	})

	Context("with a full plugin layout", func() {
		It("removes plugin and executables and preserves the config", func() {
			installedPlugin(layout, "foo", true, true)

			err := service.Remove(ctx, term, "foo", layout, fsService)
			Expect(err).NotTo(HaveOccurred())

			Expect(pathExists(layout.PluginDir("foo"))).To(BeFalse())
			Expect(pathExists(layout.PluginBinDir("foo"))).To(BeFalse())

			content, readErr := os.ReadFile(filepath.Join(layout.PluginConfigDir("foo"), "foo.yml"))
			Expect(readErr).NotTo(HaveOccurred())
			Expect(string(content)).To(Equal("answer: 42\n"))

			lines := strings.Split(strings.TrimRight(stdout.String(), "\n"), "\n")
			Expect(lines).To(Equal([]string{
				"-> removing [foo]...",
				"removing [" + layout.PluginBinDir("foo") + "]",
				"removing [" + layout.PluginDir("foo") + "]",
				"-> preserving plugin config files [" + layout.PluginConfigDir("foo") + "] in case of upgrade; delete manually if not needed",
			}))
			Expect(stderr.String()).To(BeEmpty())
		})
	})

	Context("with a minimal plugin", func() {
		It("prints only the start line", func() {
			term = cli.NewTerminal(stdout, stderr, cli.Normal)
			installedPlugin(layout, "bar", false, false)

			err := service.Remove(ctx, term, "bar", layout, fsService)
			Expect(err).NotTo(HaveOccurred())

			Expect(stdout.String()).To(Equal("-> removing [bar]...\n"))
			Expect(pathExists(layout.PluginDir("bar"))).To(BeFalse())
		})
	})

	Context("after an interrupted removal", func() {
		It("tolerates the leftover marker and finishes the job", func() {
			installedPlugin(layout, "foo", true, false)
			writeFixture(layout.RemovalMarker("foo"), "")

			err := service.Remove(ctx, term, "foo", layout, fsService)
			Expect(err).NotTo(HaveOccurred())

			Expect(stdout.String()).To(ContainSubstring("marker file [" + layout.RemovalMarker("foo") + "] already exists"))
			Expect(pathExists(layout.PluginDir("foo"))).To(BeFalse())
			Expect(pathExists(layout.PluginBinDir("foo"))).To(BeFalse())
		})
	})

	Context("when deletion is interrupted", func() {
		// realDelegatingMock routes everything to the real filesystem so the
		// tree behaves normally until RemoveAll is overridden per test.
		realDelegatingMock := func(realFS *filesystem.DefaultService) *filesystem.MockFileSystem {
			return filesystem.NewMockFileSystem().
				WithPathExistsFunc(realFS.PathExists).
				WithStatFunc(realFS.Stat).
				WithReadDirFunc(realFS.ReadDir).
				WithCreateFileFunc(realFS.CreateFile).
				WithRemoveAllFunc(realFS.RemoveAll)
		}

		It("commits the marker before the first delete", func() {
			installedPlugin(layout, "foo", false, false)

			realFS := filesystem.NewDefaultService()
			mockFS := realDelegatingMock(realFS).
				WithRemoveAllFunc(func(ctx context.Context, path string) error {
					return errors.New("device not ready")
				})

			err := service.Remove(ctx, term, "foo", layout, mockFS)
			Expect(err).To(HaveOccurred())
			Expect(cli.IsIOError(err)).To(BeTrue())

			Expect(pathExists(layout.RemovalMarker("foo"))).To(BeTrue())
			Expect(pathExists(layout.PluginDir("foo"))).To(BeTrue())
		})

		It("leaves the marker or the root at every interruption point", func() {
			// Sweep order for this fixture: bin dir, two payload files,
			// marker, root.
			const sweepLen = 5

			for failAt := 1; failAt <= sweepLen; failAt++ {
				layout := newTestLayout(GinkgoT().TempDir())
				installedPlugin(layout, "foo", true, true)

				realFS := filesystem.NewDefaultService()
				mockFS := realDelegatingMock(realFS)

				// Everything from the failure point on stays on disk, as
				// after a crash.
				deletes := 0
				mockFS.WithRemoveAllFunc(func(ctx context.Context, path string) error {
					deletes++
					if deletes >= failAt {
						return fmt.Errorf("failed to remove directory %s: device not ready", path)
					}

					return realFS.RemoveAll(ctx, path)
				})

				err := service.Remove(ctx, term, "foo", layout, mockFS)
				Expect(err).To(HaveOccurred(), "interruption at delete %d must surface", failAt)
				Expect(cli.IsIOError(err)).To(BeTrue())

				markerLeft := pathExists(layout.RemovalMarker("foo"))
				rootLeft := pathExists(layout.PluginDir("foo"))
				Expect(markerLeft || rootLeft).To(BeTrue(), "delete %d left neither marker nor root", failAt)
			}
		})

		It("attempts every path and aggregates what failed", func() {
			installedPlugin(layout, "foo", false, false)
			stuck := filepath.Join(layout.PluginDir("foo"), "config.yml")

			realFS := filesystem.NewDefaultService()
			mockFS := realDelegatingMock(realFS).
				WithRemoveAllFunc(func(ctx context.Context, path string) error {
					if path == stuck || path == layout.PluginDir("foo") {
						// The stuck file keeps its parent undeletable too.
						return fmt.Errorf("failed to remove directory %s: operation not permitted", path)
					}

					return realFS.RemoveAll(ctx, path)
				})

			err := service.Remove(ctx, term, "foo", layout, mockFS)
			Expect(err).To(HaveOccurred())
			Expect(cli.IsIOError(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring(stuck))
			Expect(err.Error()).To(ContainSubstring(layout.PluginDir("foo")))

			// The path after the stuck one was still attempted and deleted.
			Expect(pathExists(filepath.Join(layout.PluginDir("foo"), "plugin.jar"))).To(BeFalse())
			Expect(pathExists(layout.PluginDir("foo"))).To(BeTrue())
		})
	})

	Context("on a flaky filesystem", func() {
		It("surfaces the failure from the first probe", func() {
			flaky := filesystem.NewMockFileSystem().
				WithFailureRate(1.0).
				WithDelayRange(time.Millisecond)

			err := service.Remove(ctx, term, "foo", layout, flaky)
			Expect(err).To(HaveOccurred())
			Expect(cli.IsIOError(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("simulated failure"))
		})
	})

	Context("with a done context", func() {
		It("refuses to start", func() {
			installedPlugin(layout, "foo", false, false)

			cancelledCtx, cancelNow := context.WithCancel(context.Background())
			cancelNow()

			err := service.Remove(cancelledCtx, term, "foo", layout, fsService)
			Expect(err).To(MatchError(context.Canceled))
			Expect(pathExists(layout.PluginDir("foo"))).To(BeTrue())
		})
	})

	Context("when the plugin root is not a directory", func() {
		It("fails with an I/O error and leaves it alone", func() {
			writeFixture(layout.PluginDir("weird"), "not a directory")

			err := service.Remove(ctx, term, "weird", layout, fsService)
			Expect(err).To(HaveOccurred())
			Expect(cli.IsIOError(err)).To(BeTrue())
			Expect(pathExists(layout.PluginDir("weird"))).To(BeTrue())
		})
	})
})
