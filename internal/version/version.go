// Package version holds the build version, set with
// -ldflags "-X github.com/arbakker/pdok-services/internal/version.VERSION=v1.2.3".
package version

var VERSION = "dev"
