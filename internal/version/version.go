// Package version holds the build version, set with
// -ldflags "-X modelcat/internal/version.Version=v0.1.0".
package version

var Version = "0.0.1"

func UserAgent() string { return "modelcat/" + Version }
