// Package version carries the build identity stamped into the binary.
// Release builds set the variables via ldflags; everything else falls
// back to the metadata the Go toolchain embeds.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

const devVersion = "0.3.0-dev"

var (
	AppName   = "Forked"
	Version   = devVersion
	Revision  = "HEAD"
	BuildDate = ""
)

// Long returns the full build identity, e.g.
// `0.3.0 (5e23a4; go1.23.6; linux/amd64; 2025-06-01T12:00:00Z)`.
func Long() string {
	return fmt.Sprintf("%s (%s)", Version, strings.Join([]string{
		Revision,
		runtime.Version(),
		runtime.GOOS + "/" + runtime.GOARCH,
		BuildDate,
	}, "; "))
}

// buildMeta is what the toolchain knows about the build.
type buildMeta struct {
	module   string // module version, "(devel)" for local builds
	revision string
	modified bool
	time     string
}

// stamp fills in whatever ldflags left at its default. Values set at
// link time always win.
func stamp(m buildMeta) {
	if Version == devVersion || Version == "" {
		if m.module != "" && m.module != "(devel)" {
			Version = strings.TrimPrefix(m.module, "v")
		}
	}

	if (Revision == "HEAD" || Revision == "") && m.revision != "" {
		Revision = m.revision
		if m.modified {
			Revision += "-dirty"
		}
	}

	if BuildDate == "" {
		BuildDate = m.time
	}
}

func init() {
	var m buildMeta
	if info, ok := debug.ReadBuildInfo(); ok && info != nil {
		m.module = info.Main.Version
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				m.revision = s.Value
			case "vcs.modified":
				m.modified = s.Value == "true"
			case "vcs.time":
				m.time = s.Value
			}
		}
	}
	stamp(m)

	if BuildDate == "" {
		BuildDate = time.Now().UTC().Format(time.RFC3339)
	}
}
