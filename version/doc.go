// Package version reports the build identity of the scribe binary.
//
// Version, commit, branch and build time are stamped at link time:
//
//	go build -ldflags "-X github.com/kbukum/interviewscribe/version.Version=1.4.0" ./cmd/scribe
//
// Unset fields fall back to the VCS settings recorded by the Go toolchain.
package version
