// Package version reports the hotsnip build, from -ldflags when set and
// from the embedded module information otherwise.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// AppName is the name printed in version output.
const AppName = "hotsnip"

// BuildInfo contains version and build information
type BuildInfo struct {
	App       string    `json:"app" yaml:"app"`
	Version   string    `json:"version" yaml:"version"`
	GitCommit string    `json:"git_commit" yaml:"git_commit"`
	Dirty     bool      `json:"dirty" yaml:"dirty"`
	BuildTime time.Time `json:"build_time" yaml:"build_time"`
	GoVersion string    `json:"go_version" yaml:"go_version"`
	Platform  string    `json:"platform" yaml:"platform"`
}

// Set at build time with -ldflags "-X .../version.Version=v1.2.3".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// GetBuildInfo returns the build information for this binary.
func GetBuildInfo() *BuildInfo {
	return &BuildInfo{
		App:       AppName,
		Version:   GetVersion(),
		GitCommit: GetGitCommit(),
		Dirty:     vcsSetting("vcs.modified") == "true",
		BuildTime: parseBuildTime(BuildTime),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// GetVersion returns the release version, or "dev" plus a short revision.
func GetVersion() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if info, ok := readBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	if rev := vcsSetting("vcs.revision"); len(rev) >= 7 {
		return "dev-" + rev[:7]
	}
	return "dev"
}

// GetGitCommit returns the full commit hash, or "unknown".
func GetGitCommit() string {
	if GitCommit != "" && GitCommit != "unknown" {
		return GitCommit
	}
	if rev := vcsSetting("vcs.revision"); rev != "" {
		return rev
	}
	return "unknown"
}

// IsRelease reports whether this is a tagged build.
func IsRelease() bool {
	v := GetVersion()
	return v != "dev" && !strings.HasPrefix(v, "dev-")
}

// String renders the info as the multi-line text printed by "hotsnip version".
func (b *BuildInfo) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", b.App, b.Version)
	if b.GitCommit != "unknown" {
		commit := b.GitCommit
		if b.Dirty {
			commit += " (dirty)"
		}
		fmt.Fprintf(&sb, "commit: %s\n", commit)
	}
	if !b.BuildTime.IsZero() {
		fmt.Fprintf(&sb, "built:  %s\n", b.BuildTime.Format(time.RFC3339))
	}
	fmt.Fprintf(&sb, "go:     %s %s", b.GoVersion, b.Platform)
	return sb.String()
}

func vcsSetting(key string) string {
	info, ok := readBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

// parseBuildTime accepts RFC3339 and a couple of common variants; anything
// else yields the zero time.
func parseBuildTime(value string) time.Time {
	if value == "" || value == "unknown" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
