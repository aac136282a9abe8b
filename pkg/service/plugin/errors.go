package plugin

import "errors"

var (
	// ErrNoManifest indicates the plugin directory carries no plugin.yml
	ErrNoManifest = errors.New("plugin manifest not found")

	// ErrManifestInvalid is returned when the manifest file cannot be parsed
	// or misses required fields
	ErrManifestInvalid = errors.New("plugin manifest is invalid")

	// ErrIncompatible indicates the plugin requires a different server version
	ErrIncompatible = errors.New("plugin is not compatible with this server version")
)
