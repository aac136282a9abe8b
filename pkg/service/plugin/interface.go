package plugin

import (
	"context"

	"github.com/beaconworks/beacon-plugin-cli/pkg/cli"
	"github.com/beaconworks/beacon-plugin-cli/pkg/config"
	"github.com/beaconworks/beacon-plugin-cli/pkg/service/filesystem"
)

// Info describes one installed plugin the way the list command reports it.
type Info struct {
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
	// Removing marks a plugin whose removal was started but never finished.
	// The next remove of the same name cleans it up.
	Removing bool `json:"removing,omitempty"`
}

// Service defines the interface for managing plugins on disk.
type Service interface {
	// Remove deletes the named plugin's executables and plugin directory,
	// leaving its config directory in place
	Remove(ctx context.Context, term *cli.Terminal, name string, layout config.Layout, fsService filesystem.Service) error
	// Install unpacks a plugin archive into the layout and reports what was installed
	Install(ctx context.Context, term *cli.Terminal, archivePath string, layout config.Layout, fsService filesystem.Service) (Info, error)
	// List returns the installed plugins sorted by name
	List(ctx context.Context, layout config.Layout, fsService filesystem.Service) ([]Info, error)
	// FindInterruptedRemovals returns the names of plugins whose removal
	// marker survived a crash, sorted by name
	FindInterruptedRemovals(ctx context.Context, layout config.Layout, fsService filesystem.Service) ([]string, error)
}
