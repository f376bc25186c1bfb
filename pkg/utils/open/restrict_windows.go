//go:build windows

package open

import (
	"os"

	winacl "github.com/hectane/go-acl"
)

// restrict makes the file accessible only by its owner.
//
// WINDOWS: permission bits passed at creation are ignored. ACL should be set.
func restrict(path string) error {
	return winacl.Chmod(path, os.FileMode(0600))
}
