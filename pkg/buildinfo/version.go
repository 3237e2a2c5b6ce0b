// Package buildinfo holds version information injected at link time:
//
//	go build -ldflags "-X github.com/enowx/forger/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/enowx/forger/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/enowx/forger/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/forger
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns the formatted build information.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template returns the version template string for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s (%s, %s)\n", Version, Commit, Date)
}

// UserAgent identifies Forger in outgoing catalog requests.
func UserAgent() string {
	return "forger/" + Version
}
