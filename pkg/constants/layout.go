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
	// EnvHome points at the installation root. The plugins, bin and config
	// directories live underneath it unless overridden individually.
	EnvHome = "BEACON_HOME"

	// EnvPluginsPath overrides the plugins directory.
	EnvPluginsPath = "BEACON_PLUGINS_PATH"

	// EnvBinPath overrides the executables directory.
	EnvBinPath = "BEACON_BIN_PATH"

	// EnvConfigPath overrides the plugin configuration directory.
	EnvConfigPath = "BEACON_CONFIG_PATH"

	// EnvLogLevel sets the log level (DEBUG, INFO, WARN, ERROR).
	EnvLogLevel = "BEACON_PLUGIN_LOG_LEVEL"

	// EnvLogFormat sets the log encoding (CONSOLE or JSON).
	EnvLogFormat = "BEACON_PLUGIN_LOG_FORMAT"

	// EnvDisableCrashReports opts an installation out of crash reporting
	// regardless of build version.
	EnvDisableCrashReports = "BEACON_PLUGIN_DISABLE_CRASH_REPORTS"

	// DefaultPluginsDirName is the plugins directory under the home.
	DefaultPluginsDirName = "plugins"

	// DefaultBinDirName is the executables directory under the home.
	DefaultBinDirName = "bin"

	// DefaultConfigDirName is the configuration directory under the home.
	DefaultConfigDirName = "config"

	// LayoutConfigFileName is the optional server configuration file under
	// <home>/config that may relocate the three directories above.
	LayoutConfigFileName = "beacon.yml"
)
