package utils

const (
	// ApplicationName is the binary and configuration name.
	ApplicationName = "pagegen"
	// GitDirectoryName is the repository metadata directory consulted for version information.
	GitDirectoryName = ".git"
	// ErrorLogFormat defines the formatting string for error log messages.
	ErrorLogFormat = "Error: %v"
)
