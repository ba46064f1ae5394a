// Package version reports build information for lifescope applications.
//
// Values set at link time take precedence over what the Go toolchain
// embeds in the binary:
//
//	go build -ldflags "-X github.com/kbukum/lifescope/version.Version=1.2.0"
package version
