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

// Package plugin implements the plugin lifecycle on disk: installing
// archives, listing what is installed, and removing plugins in a way that
// survives a crash at any point.
package plugin

import (
	"github.com/beaconworks/beacon-plugin-cli/pkg/logger"
	"github.com/beaconworks/beacon-plugin-cli/pkg/version"
	"go.uber.org/zap"
)

// DefaultService is the default implementation of the plugin Service interface
type DefaultService struct {
	logger        *zap.SugaredLogger
	serverVersion string
}

// ServiceOption is a function that configures a DefaultService.
type ServiceOption func(*DefaultService)

// WithServerVersion overrides the server version used for manifest
// compatibility checks
func WithServerVersion(serverVersion string) ServiceOption {
	return func(s *DefaultService) {
		s.serverVersion = serverVersion
	}
}

// NewDefaultService creates a new default plugin service
func NewDefaultService(opts ...ServiceOption) Service {
	service := &DefaultService{
		logger:        logger.For(logger.ComponentPluginService),
		serverVersion: version.GetAppVersion(),
	}
	for _, opt := range opts {
		opt(service)
	}

	return service
}
