package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Semantic version of the SDK.
const (
	Major      = 0
	Minor      = 4
	Patch      = 0
	PreRelease = "" // e.g. "rc1"

	Name = "Nation Index SDK"
)

// Set with -ldflags "-X github.com/NationIndexProtocol/nation-index-sdk/pkg/version.GitCommit=...".
var (
	GitCommit = ""
	BuildDate = ""
)

// Version returns the semantic version string.
func Version() string {
	v := fmt.Sprintf("%d.%d.%d", Major, Minor, Patch)
	if PreRelease != "" {
		v += "-" + PreRelease
	}
	return v
}

// BuildInfo is served by the health endpoint.
type BuildInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetBuildInfo collects build information. When GitCommit was not injected it
// falls back to the VCS revision stamped by the Go toolchain.
func GetBuildInfo() BuildInfo {
	info := BuildInfo{
		Name:      Name,
		Version:   Version(),
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
	if info.GitCommit == "" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				switch s.Key {
				case "vcs.revision":
					info.GitCommit = s.Value
				case "vcs.time":
					if info.BuildDate == "" {
						info.BuildDate = s.Value
					}
				}
			}
		}
	}
	return info
}

// String returns "Name vX.Y.Z (abcdef1)".
func String() string {
	info := GetBuildInfo()
	s := fmt.Sprintf("%s v%s", info.Name, info.Version)
	if len(info.GitCommit) >= 7 {
		s += fmt.Sprintf(" (%s)", info.GitCommit[:7])
	}
	return s
}

// Banner is printed on startup.
func Banner() string {
	info := GetBuildInfo()
	return fmt.Sprintf("🌐 %s v%s  go=%s  platform=%s", info.Name, info.Version, info.GoVersion, info.Platform)
}
