// Where: cli/internal/version/version.go
// What: Version information retrieval.
// Why: Report the build's module version or VCS revision from the `version` command.
package version

import (
	"runtime/debug"
	"strings"
)

// Version can be set with -ldflags "-X .../internal/version.Version=v1.2.3".
var Version = ""

// GetVersion prefers the link-time Version, then the main module version,
// then a short VCS revision ("+dirty" when modified). Falls back to "dev".
func GetVersion() string {
	if Version != "" {
		return Version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	return fromBuildInfo(info)
}

func fromBuildInfo(info *debug.BuildInfo) string {
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	revision := settings["vcs.revision"]
	if revision == "" {
		return "dev"
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if strings.EqualFold(settings["vcs.modified"], "true") {
		revision += "+dirty"
	}
	return revision
}
