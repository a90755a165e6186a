package app

import (
	"fmt"
	"runtime/debug"
)

// Build-time variables set via ldflags:
//
//	-X github.com/echoverse/echoverse/internal/app.Version=v1.0.0
var (
	Version   = "dev"
	GitCommit = "unknown"
	GitTag    = ""
	BuildTime = "unknown"
)

// VersionInfo identifies the running build.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"commit"`
	GitTag    string `json:"tag,omitempty"`
	BuildTime string `json:"buildTime"`
}

// GetVersionInfo returns the build information. Builds without ldflags fall
// back to the VCS revision recorded by the go tool.
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
	if info.GitCommit != "unknown" {
		return info
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				info.GitCommit = s.Value[:min(12, len(s.Value))]
			case "vcs.time":
				if info.BuildTime == "unknown" {
					info.BuildTime = s.Value
				}
			}
		}
	}
	return info
}

// Release is the tag when built from one, else the version.
func (v VersionInfo) Release() string {
	if v.GitTag != "" {
		return v.GitTag
	}
	return v.Version
}

// FullString returns a detailed version string for logging.
func (v VersionInfo) FullString() string {
	return fmt.Sprintf("Echoverse %s (commit: %s, built: %s)", v.Release(), v.GitCommit, v.BuildTime)
}
