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
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/beaconworks/beacon-plugin-cli/pkg/cli"
	"github.com/beaconworks/beacon-plugin-cli/pkg/constants"
	"github.com/beaconworks/beacon-plugin-cli/pkg/service/filesystem"
	"github.com/beaconworks/beacon-plugin-cli/pkg/service/plugin"
	"github.com/beaconworks/beacon-plugin-cli/pkg/version"
)

var _ = Describe("App", func() {
	var (
		ctx         context.Context
		mockService *plugin.MockService
		stdout      *bytes.Buffer
		stderr      *bytes.Buffer
		app         *App
		home        string
	)

	BeforeEach(func() {
		ctx = context.Background()
		mockService = plugin.NewMockService()
		stdout = &bytes.Buffer{}
		stderr = &bytes.Buffer{}
		app = NewApp(mockService, filesystem.NewDefaultService(), stdout, stderr)
		home = GinkgoT().TempDir()
	})

	Context("argument handling", func() {
		It("fails without a command", func() {
			err := app.Run(ctx, []string{})
			Expect(err).To(HaveOccurred())
			Expect(cli.IsUsageError(err)).To(BeTrue())
			Expect(cli.ExitStatus(err)).To(Equal(cli.ExitUsage))
			Expect(stderr.String()).To(ContainSubstring("Usage: beacon-plugin"))
		})

		It("rejects an unknown command", func() {
			err := app.Run(ctx, []string{"frobnicate"})
			Expect(err).To(HaveOccurred())
			Expect(cli.IsUsageError(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("unknown command [frobnicate]"))
		})

		It("rejects an unknown flag", func() {
			err := app.Run(ctx, []string{"--frobnicate"})
			Expect(err).To(HaveOccurred())
			Expect(cli.IsUsageError(err)).To(BeTrue())
		})

		It("rejects --verbose together with --quiet", func() {
			err := app.Run(ctx, []string{"--verbose", "--quiet", "list"})
			Expect(err).To(HaveOccurred())
			Expect(cli.IsUsageError(err)).To(BeTrue())
			Expect(mockService.ListCalled).To(BeFalse())
		})
	})

	Context("layout resolution", func() {
		It("fails with a config error when no home is known", func() {
			GinkgoT().Setenv(constants.EnvHome, "")

			err := app.Run(ctx, []string{"list"})
			Expect(err).To(HaveOccurred())
			Expect(cli.IsConfigError(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring(constants.EnvHome))
			Expect(mockService.ListCalled).To(BeFalse())
		})

		It("fails when the home directory does not exist", func() {
			err := app.Run(ctx, []string{"--home", filepath.Join(home, "nope"), "list"})
			Expect(err).To(HaveOccurred())
			Expect(cli.IsConfigError(err)).To(BeTrue())
			Expect(mockService.ListCalled).To(BeFalse())
		})

		It("prefers --home over the environment", func() {
			GinkgoT().Setenv(constants.EnvHome, filepath.Join(home, "nope"))

			err := app.Run(ctx, []string{"--home", home, "list"})
			Expect(err).NotTo(HaveOccurred())
			Expect(mockService.ListCalled).To(BeTrue())
		})
	})

	Context("install", func() {
		It("requires an archive argument", func() {
			err := app.Run(ctx, []string{"--home", home, "install"})
			Expect(err).To(HaveOccurred())
			Expect(cli.IsUsageError(err)).To(BeTrue())
			Expect(mockService.InstallCalled).To(BeFalse())
		})

		It("passes the archive to the service", func() {
			err := app.Run(ctx, []string{"--home", home, "install", "/tmp/foo-1.2.3.tar.gz"})
			Expect(err).NotTo(HaveOccurred())
			Expect(mockService.InstallCalled).To(BeTrue())
			Expect(mockService.InstallArchivePath).To(Equal("/tmp/foo-1.2.3.tar.gz"))
		})

		It("propagates service failures with their status", func() {
			mockService.InstallError = cli.NewIOErrorf("extraction failed")

			err := app.Run(ctx, []string{"--home", home, "install", "/tmp/foo.tar.gz"})
			Expect(err).To(HaveOccurred())
			Expect(cli.IsIOError(err)).To(BeTrue())
			Expect(cli.ExitStatus(err)).To(Equal(cli.ExitIO))
		})

		It("maps uncategorized failures to the internal status", func() {
			mockService.InstallError = errors.New("manifest cache corrupted")

			err := app.Run(ctx, []string{"--home", home, "install", "/tmp/foo.tar.gz"})
			Expect(err).To(HaveOccurred())
			Expect(cli.ExitStatus(err)).To(Equal(cli.ExitInternal))
		})
	})

	Context("remove", func() {
		It("requires a plugin name", func() {
			err := app.Run(ctx, []string{"--home", home, "remove"})
			Expect(err).To(HaveOccurred())
			Expect(cli.IsUsageError(err)).To(BeTrue())
			Expect(mockService.RemoveCalled).To(BeFalse())
		})

		It("passes the name to the service", func() {
			err := app.Run(ctx, []string{"--home", home, "remove", "foo"})
			Expect(err).NotTo(HaveOccurred())
			Expect(mockService.RemoveCalled).To(BeTrue())
			Expect(mockService.RemoveName).To(Equal("foo"))
		})

		It("propagates a missing plugin as a config status", func() {
			mockService.RemoveError = cli.NewConfigErrorf("plugin [ghost] not found")

			err := app.Run(ctx, []string{"--home", home, "remove", "ghost"})
			Expect(err).To(HaveOccurred())
			Expect(cli.ExitStatus(err)).To(Equal(cli.ExitConfig))
		})
	})

	Context("list", func() {
		BeforeEach(func() {
			mockService.ListResult = []plugin.Info{
				{Name: "alpha", Version: "1.0.0", Description: "first one"},
				{Name: "zeta", Version: "0.9.0", Removing: true},
			}
		})

		It("prints plain names by default", func() {
			err := app.Run(ctx, []string{"--home", home, "list"})
			Expect(err).NotTo(HaveOccurred())
			Expect(stdout.String()).To(Equal(
				"alpha\n" +
					"zeta (removal in progress; re-run 'beacon-plugin remove zeta')\n"))
		})

		It("adds manifest details with --verbose", func() {
			err := app.Run(ctx, []string{"--verbose", "--home", home, "list"})
			Expect(err).NotTo(HaveOccurred())
			Expect(stdout.String()).To(Equal(
				"alpha (1.0.0): first one\n" +
					"zeta (0.9.0) (removal in progress; re-run 'beacon-plugin remove zeta')\n"))
		})

		It("suppresses the text listing when quiet", func() {
			err := app.Run(ctx, []string{"--quiet", "--home", home, "list"})
			Expect(err).NotTo(HaveOccurred())
			Expect(stdout.String()).To(BeEmpty())
		})

		It("emits JSON with --output json", func() {
			err := app.Run(ctx, []string{"--home", home, "list", "--output", "json"})
			Expect(err).NotTo(HaveOccurred())

			var decoded []plugin.Info
			Expect(json.Unmarshal(stdout.Bytes(), &decoded)).To(Succeed())
			Expect(decoded).To(Equal(mockService.ListResult))
		})

		It("emits JSON even when quiet", func() {
			err := app.Run(ctx, []string{"--quiet", "--home", home, "list", "--output", "json"})
			Expect(err).NotTo(HaveOccurred())
			Expect(stdout.String()).NotTo(BeEmpty())
		})

		It("rejects an unknown output format", func() {
			err := app.Run(ctx, []string{"--home", home, "list", "--output", "xml"})
			Expect(err).To(HaveOccurred())
			Expect(cli.IsUsageError(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("unknown output format [xml]"))
		})

		It("rejects positional arguments", func() {
			err := app.Run(ctx, []string{"--home", home, "list", "extra"})
			Expect(err).To(HaveOccurred())
			Expect(cli.IsUsageError(err)).To(BeTrue())
			Expect(mockService.ListCalled).To(BeFalse())
		})
	})

	Context("version", func() {
		It("prints the app version without needing a home", func() {
			err := app.Run(ctx, []string{"version"})
			Expect(err).NotTo(HaveOccurred())
			Expect(stdout.String()).To(Equal(fmt.Sprintf("%s %s\n", constants.AppName, version.GetAppVersion())))
		})

		It("rejects arguments", func() {
			err := app.Run(ctx, []string{"version", "extra"})
			Expect(err).To(HaveOccurred())
			Expect(cli.IsUsageError(err)).To(BeTrue())
		})
	})
})
