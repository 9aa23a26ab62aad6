// Package buildinfo carries version metadata stamped at build time:
//
//	go build -ldflags "\
//	  -X 'github.com/vitorynet/configbot/core/buildinfo.Version=v0.3.0' \
//	  -X 'github.com/vitorynet/configbot/core/buildinfo.Commit=abcdef0' \
//	  -X 'github.com/vitorynet/configbot/core/buildinfo.Date=2026-08-31T12:00:00Z'"
//
// The zero-effort defaults identify a local development build.
package buildinfo

var (
	// Version is the release tag of the running binary.
	Version = "dev"
	// Commit is the VCS revision the binary was built from.
	Commit = "local"
	// Date is the RFC3339 build timestamp.
	Date = ""
)
