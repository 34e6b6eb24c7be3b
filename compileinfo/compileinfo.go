// Package compileinfo reports the build provenance stamped into the
// binary by the Go toolchain.
package compileinfo

import (
	"fmt"
	"os"
	"runtime/debug"
)

type BuildInfo struct {
	Module     string
	GoVersion  string
	Commit     string
	CommitTime string
	Dirty      bool
}

func (b BuildInfo) String() string {
	dirty := ""
	if b.Dirty {
		dirty = " The working tree was dirty at build time."
	}

	return fmt.Sprintf("%s built with %s from commit %s (%s).%s", b.Module, b.GoVersion, b.Commit, b.CommitTime, dirty)
}

// Get reads the VCS stamp embedded by the toolchain. Binaries built
// outside a repository yield zero-valued fields.
func Get() BuildInfo {
	out := BuildInfo{}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}

	out.Module = bi.Path
	out.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Dirty = s.Value == "true"
		}
	}

	return out
}

// PrintToStdErr writes the build banner to stderr. Commands blank-import
// the compileinfoprint sibling to trigger this at startup.
func PrintToStdErr() {
	fmt.Fprintf(os.Stderr, "%s\n", Get())
}
