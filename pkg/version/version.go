// Package version reports the build that is running.
package version

import "runtime/debug"

// Set by -ldflags "-X github.com/Sumatoshi-tech/edgarvault/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// InitBinaryVersion fills unset values from the embedded build info, so
// `go install` builds still report their module version and revision.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == "none" {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == "unknown" {
				Date = setting.Value
			}
		}
	}
}

// String is the one-line version banner.
func String() string {
	return Version + " (commit: " + Commit + ", built: " + Date + ")"
}
