package version

import "fmt"

// Version contains the application version information.
// This should be set via build-time ldflags in production:
// go build -ldflags "-X github.com/TeamEOS/packages-apps-EOSUpdater/internal/version.Version=v1.2.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// UserAgent returns the client identifier sent with every feed query.
func UserAgent(device string) string {
	if device == "" {
		return fmt.Sprintf("EOSUpdater/%s", Version)
	}
	return fmt.Sprintf("EOSUpdater/%s (%s)", Version, device)
}
