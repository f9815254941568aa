package version

import "fmt"

// Set at build time:
//
//	go build -ldflags "-X github.com/chmdznr/syncstat/pkg/version.Version=v1.2.0 \
//	  -X github.com/chmdznr/syncstat/pkg/version.GitCommit=$(git rev-parse --short HEAD) \
//	  -X github.com/chmdznr/syncstat/pkg/version.BuildTime=$(date -u +%FT%TZ)"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Info formats the build metadata for the version command.
func Info() string {
	return fmt.Sprintf("Version:    %s\nGit commit: %s\nBuilt:      %s\n", Version, GitCommit, BuildTime)
}
