/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docstore

import (
	"runtime"
	"runtime/debug"
)

// Release metadata for the docstore library and CLI. Release builds stamp
// GitCommit and BuildDate with
//
//	-ldflags "-X github.com/suparena/docstore.GitCommit=<sha> -X github.com/suparena/docstore.BuildDate=<rfc3339>"
//
// Unstamped builds fall back to the VCS data the go command embeds.
var (
	Version   = "0.1.0"
	GitCommit = ""
	BuildDate = ""
)

const unknown = "unknown"

// VersionInfo is what `docstore version` prints.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Modified  bool   `json:"modified,omitempty"`
}

// GetVersionInfo reports the release metadata of the running binary.
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info = withBuildSettings(info, bi.Settings)
	}
	if info.GitCommit == "" {
		info.GitCommit = unknown
	}
	if info.BuildDate == "" {
		info.BuildDate = unknown
	}
	return info
}

// withBuildSettings fills unstamped fields from vcs.* build settings.
func withBuildSettings(info VersionInfo, settings []debug.BuildSetting) VersionInfo {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildDate == "" {
				info.BuildDate = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}
