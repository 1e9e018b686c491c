package version

import (
	"fmt"
	"runtime/debug"
)

// These variables can be set at build time via ldflags:
//
//	go build -ldflags="-X github.com/muurk/nanohttp/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/nanohttp/internal/version.Commit=abc123"
//
// Otherwise they are filled from the module build info, falling back to "dev".
var (
	// Version is the semantic version of the library
	Version = ""
	// Commit is the git commit hash
	Commit = ""
)

// Product is the product token sent in the Server header
const Product = "nanohttp"

func init() {
	if Version == "" || Commit == "" {
		populateFromBuildInfo()
	}
	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// populateFromBuildInfo reads the module version when nanohttp is a
// dependency, or the VCS revision when built from a checkout
func populateFromBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "" {
		for _, dep := range info.Deps {
			if dep.Path == "github.com/muurk/nanohttp" && dep.Version != "(devel)" {
				Version = dep.Version
			}
		}
	}

	var revision, modified string
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value
		}
	}
	if Commit == "" && revision != "" {
		Commit = revision[:min(7, len(revision))]
		if modified == "true" {
			Commit += "-dirty"
		}
	}
}

// ServerHeader returns the value of the Server response header
func ServerHeader() string {
	return Product + "/" + Version
}

// Full returns the full version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}
