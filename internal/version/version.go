// Package version exposes build-time version information.
package version

// Set via -ldflags at build time.
var (
	// Version is the semantic version of the tool.
	Version = "0.1.0"

	// GitCommit is the git commit hash the binary was built from.
	GitCommit = "unknown"
)
