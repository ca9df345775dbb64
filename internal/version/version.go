// Package version holds the relint version string.
package version

// Version is the current relint version. Overridden at build time via
// -ldflags "-X relint/internal/version.Version=...".
var Version = "0.3.0"
