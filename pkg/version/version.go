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

// Package version exposes the CLI version stamped in at build time.
package version

import "github.com/beaconworks/beacon-plugin-cli/pkg/constants"

// appVersion is overridden by the release pipeline via
//
//	-ldflags "-X github.com/beaconworks/beacon-plugin-cli/pkg/version.appVersion=vX.Y.Z"
//
// Local builds keep the dev default, which also keeps Sentry disabled.
var appVersion = constants.DefaultAppVersion

// GetAppVersion returns the version this binary was built as.
func GetAppVersion() string {
	return appVersion
}
