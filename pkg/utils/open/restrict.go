//go:build !windows

package open

import "os"

// restrict makes the file accessible only by its owner.
//
// The file may be left from the last failed write with other permission.
func restrict(path string) error {
	return os.Chmod(path, os.FileMode(0600))
}
