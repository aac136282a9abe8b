package logger

// Component name constants for standardized logging
const (
	ComponentCLI           = "CLI"
	ComponentPluginService = "PluginService"
)
