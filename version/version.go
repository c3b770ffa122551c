package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

// Set with -ldflags -X.
var (
	Version   = "dev"
	GitCommit = ""
	GitBranch = ""
	BuildTime = ""
	GoVersion = ""
)

const product = "interviewscribe"

// Info is the resolved build identity.
type Info struct {
	Version   string    `json:"version" yaml:"version"`
	GitCommit string    `json:"git_commit,omitempty" yaml:"git_commit,omitempty"`
	GitBranch string    `json:"git_branch,omitempty" yaml:"git_branch,omitempty"`
	BuildTime string    `json:"build_time,omitempty" yaml:"build_time,omitempty"`
	GoVersion string    `json:"go_version" yaml:"go_version"`
	BuildDate time.Time `json:"-" yaml:"-"`
	Release   bool      `json:"release" yaml:"release"`
	Dirty     bool      `json:"dirty" yaml:"dirty"`
}

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// Get resolves the build identity. Linker-stamped values win over the
// toolchain's VCS settings. BuildDate stays zero when neither source
// records a build time.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
	}

	if bi, ok := readBuildInfo(); ok {
		if info.GoVersion == "" {
			info.GoVersion = bi.GoVersion
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = s.Value
				}
			case "vcs.modified":
				info.Dirty = s.Value == "true"
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = s.Value
				}
			}
		}
	}

	if len(info.GitCommit) > 7 {
		info.GitCommit = info.GitCommit[:7]
	}
	if t, err := time.Parse(time.RFC3339, info.BuildTime); err == nil {
		info.BuildDate = t.UTC()
	}
	if strings.HasSuffix(info.Version, "-dirty") {
		info.Dirty = true
	}
	info.Release = info.Version != "dev" && !info.Dirty
	return info
}

// Short is the version plus abbreviated commit, e.g. "1.4.0-3f2a9c1".
func (i Info) Short() string {
	v := strings.TrimSuffix(i.Version, "-dirty")
	if i.GitCommit != "" {
		v += "-" + i.GitCommit
	}
	if i.Dirty {
		v += "-dirty"
	}
	return v
}

// Full adds a non-default branch and the build date to Short.
func (i Info) Full() string {
	v := i.Short()
	if i.GitBranch != "" && i.GitBranch != "main" && i.GitBranch != "master" {
		v += " " + i.GitBranch
	}
	if !i.BuildDate.IsZero() {
		v += fmt.Sprintf(" (built %s)", i.BuildDate.Format(time.RFC3339))
	}
	return v
}

// Short returns Get().Short().
func Short() string { return Get().Short() }

// Full returns Get().Full().
func Full() string { return Get().Full() }

// UserAgent identifies outbound requests, e.g.
// "interviewscribe/1.4.0-3f2a9c1 (go1.26.0)".
func UserAgent() string {
	info := Get()
	if info.GoVersion == "" {
		return product + "/" + info.Short()
	}
	return fmt.Sprintf("%s/%s (%s)", product, info.Short(), info.GoVersion)
}
