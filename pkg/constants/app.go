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

package constants

const (
	// AppName is the binary name; usage text and remediation hints embed it.
	AppName = "beacon-plugin"

	// DefaultAppVersion is the version of local builds. Release builds
	// override it via ldflags. Crash reporting stays disabled while the
	// binary still carries this value.
	DefaultAppVersion = "0.0.0-dev"

	// DefaultDevelopmentEnvironment is the crash-reporting environment for
	// prerelease builds.
	DefaultDevelopmentEnvironment = "development"

	// DefaultProductionEnvironment is the crash-reporting environment for
	// tagged release builds.
	DefaultProductionEnvironment = "production"
)
