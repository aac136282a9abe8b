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

	"github.com/beaconworks/beacon-plugin-cli/pkg/cli"
	"github.com/beaconworks/beacon-plugin-cli/pkg/config"
	"github.com/beaconworks/beacon-plugin-cli/pkg/service/filesystem"
)

// MockService is a mock implementation of the plugin Service interface for testing
type MockService struct {
	// Tracks calls to methods
	RemoveCalled                  bool
	InstallCalled                 bool
	ListCalled                    bool
	FindInterruptedRemovalsCalled bool

	// Return values for each method
	RemoveError                  error
	InstallError                 error
	ListError                    error
	FindInterruptedRemovalsError error

	// Results for each method
	InstallResult                 Info
	ListResult                    []Info
	FindInterruptedRemovalsResult []string

	// Used parameters for each method
	RemoveName         string
	InstallArchivePath string
}

// NewMockService creates a new mock plugin service
func NewMockService() *MockService {
	return &MockService{}
}

// Remove mocks removing a plugin
func (m *MockService) Remove(ctx context.Context, term *cli.Terminal, name string, layout config.Layout, fsService filesystem.Service) error {
	m.RemoveCalled = true
	m.RemoveName = name

	return m.RemoveError
}

// Install mocks installing a plugin archive
func (m *MockService) Install(ctx context.Context, term *cli.Terminal, archivePath string, layout config.Layout, fsService filesystem.Service) (Info, error) {
	m.InstallCalled = true
	m.InstallArchivePath = archivePath

	return m.InstallResult, m.InstallError
}

// List mocks listing installed plugins
func (m *MockService) List(ctx context.Context, layout config.Layout, fsService filesystem.Service) ([]Info, error) {
	m.ListCalled = true

	return m.ListResult, m.ListError
}

// FindInterruptedRemovals mocks scanning for leftover removal markers
func (m *MockService) FindInterruptedRemovals(ctx context.Context, layout config.Layout, fsService filesystem.Service) ([]string, error) {
	m.FindInterruptedRemovalsCalled = true

	return m.FindInterruptedRemovalsResult, m.FindInterruptedRemovalsError
}
