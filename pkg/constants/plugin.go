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

import (
	"os"
	"time"
)

const (
	// ExpectedMaxTransitionTime means that a removal transition will not be
	// started if less time than this remains on the context deadline.
	// Interrupting a transition midway leaves the machine in an
	// inconsistent state, which is worse than not starting it.
	ExpectedMaxTransitionTime = time.Millisecond * 35

	// RemovalMarkerPrefix is the name prefix of the marker file written into
	// a plugin root before its contents are deleted. The full name is
	// ".removing-<plugin name>". The server scans for this pattern at
	// startup to detect removals that never finished, so the prefix is an
	// on-disk contract and must not change between releases.
	RemovalMarkerPrefix = ".removing-"

	// InstallStagingPrefix is the name prefix of the temporary directory an
	// archive is extracted into before the atomic rename to its final
	// plugin root. The dot prefix keeps half-finished installs out of
	// directory listings.
	InstallStagingPrefix = ".installing-"

	// InstallSentinelFileName is written into the staging directory as the
	// final step before the rename. A plugin root that carries it was
	// installed completely.
	InstallSentinelFileName = ".installed"

	// ManifestFileName is the descriptor every plugin archive must carry at
	// its top level.
	ManifestFileName = "plugin.yml"

	// ManifestReadConcurrency bounds the number of manifests read in
	// parallel when listing installed plugins.
	ManifestReadConcurrency = 4

	// InstallSpaceFactor is the multiple of the archive size that must be
	// free on the plugins volume before extraction starts. Factor two
	// covers the staging copy plus the extracted tree.
	InstallSpaceFactor = 2

	// DirPermissions is the mode for directories this tool creates.
	DirPermissions os.FileMode = 0o755

	// FilePermissions is the mode for regular files this tool creates,
	// including the removal marker and the install sentinel.
	FilePermissions os.FileMode = 0o644

	// ExecutablePermissions is the mode ensured on files moved into the
	// executables directory.
	ExecutablePermissions os.FileMode = 0o755
)
