// Package open writes files which only the current user can access.
package open

import (
	"os"
	"path/filepath"
)

// WriteSafeFile replaces the file at path with content.
// The file is accessible only by the current user.
//
// content is written into a sibling file first, and then it is renamed to path.
// So readers see the old or the new content, never a half-written one.
func WriteSafeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), os.FileMode(0700)); err != nil {
		return err
	}

	tmp := path + ".new"
	f, err := os.OpenFile(tmp, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, os.FileMode(0600))
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	if err := restrict(tmp); err != nil {
		f.Close()
		return err
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
