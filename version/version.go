package version

var (
	// GitCommit is the current HEAD set using ldflags.
	GitCommit string

	// Version is the built softwares version.
	Version = BeacondSemVer
)

func init() {
	if GitCommit != "" {
		Version += "-" + GitCommit
	}
}

// BeacondSemVer is the semantic version of beacond.
// Must be a string because release scripts read this file.
const BeacondSemVer = "0.1.0"

// Info is the version report printed by the version command.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
}

// Get returns the running build's version Info.
func Get() Info {
	return Info{Version: Version, GitCommit: GitCommit}
}
