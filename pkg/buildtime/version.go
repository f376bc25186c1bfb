// Package buildtime holds values fixed at build time.
//
// Set them with ldflags:
//
//	go build -ldflags "-X github.com/opst/pipedeck/pkg/buildtime.version=v1.2.3 -X github.com/opst/pipedeck/pkg/buildtime.revision=$(git rev-parse HEAD)"
package buildtime

var (
	version  = "v0.0.0-dev"
	revision = "unknown"
)

// VERSION of pipedeck which is built.
func VERSION() string {
	return version
}

func GIT_REVISION() string {
	return revision
}

func VersionString() string {
	return version + " (commit: " + revision + ")"
}
