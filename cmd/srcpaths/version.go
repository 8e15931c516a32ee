package main

import "runtime/debug"

// buildVersion is set with -ldflags "-X main.buildVersion=v1.2.3".
var buildVersion string

var version = resolveVersion(buildVersion, readBuildInfo)

func readBuildInfo() (*debug.BuildInfo, bool) {
	return debug.ReadBuildInfo()
}

// resolveVersion prefers an injected version, then the module version of an
// installed binary, then the short VCS revision.
func resolveVersion(injected string, info func() (*debug.BuildInfo, bool)) string {
	if injected != "" {
		return injected
	}

	bi, ok := info()
	if !ok {
		return "dev"
	}
	if v := bi.Main.Version; v != "" && v != "(devel)" {
		return v
	}

	var revision string
	var dirty bool
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}

	if revision == "" {
		return "dev"
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if dirty {
		return revision + "-dirty"
	}
	return revision
}
