// Package buildinfo provides build information for respkv-server.
//
// Version, Commit and BuildTime are injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/respkv/internal/infra/buildinfo.Version=1.0.0"
package buildinfo
