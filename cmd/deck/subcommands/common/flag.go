package common

import (
	"os"
	"path/filepath"
	"strings"
)

// ProfileFile is the name of file which tells the profile name for a directory tree.
const ProfileFile = ".deckprofile"

const DefaultProfile = "default"

type CommonFlags struct {
	Profile      string `flag:"profile" help:"deck profile name to use"`
	ProfileStore string `flag:"profile-store" help:"path to deck profile store file"`
	History      string `flag:"history" help:"path to the file recording recently used items"`
}

type commonFlagDetection struct {
	home string
}

type CommonFlagDetectionOption func(*commonFlagDetection) *commonFlagDetection

func WithHome(home string) CommonFlagDetectionOption {
	return func(opt *commonFlagDetection) *commonFlagDetection {
		opt.home = home
		return opt
	}
}

// Flags detects default values of CommonFlags.
//
// The profile name is read from the first line of ProfileFile in from or the nearest ancestor of it.
// If there are no such files, it is DefaultProfile.
//
// Stores are placed in ~/.deck .
func Flags(from string, options ...CommonFlagDetectionOption) (CommonFlags, error) {
	det := &commonFlagDetection{}
	for _, opt := range options {
		det = opt(det)
	}

	home := det.home
	if home == "" {
		if h, err := os.UserHomeDir(); err == nil {
			home = h
		}
	}

	if abs, err := filepath.Abs(from); err == nil {
		from = abs
	}

	profile := DefaultProfile
	for searchpath := from; ; {
		candidate := filepath.Join(searchpath, ProfileFile)
		if s, err := os.Stat(candidate); err == nil && s.Mode().IsRegular() {
			content, err := os.ReadFile(candidate)
			if err != nil {
				return CommonFlags{}, err
			}
			first, _, _ := strings.Cut(string(content), "\n")
			if first = strings.TrimSpace(first); first != "" {
				profile = first
			}
			break
		}

		next := filepath.Dir(searchpath)
		if next == searchpath {
			break
		}
		searchpath = next
	}

	return CommonFlags{
		Profile:      profile,
		ProfileStore: filepath.Join(home, ".deck", "profile"),
		History:      filepath.Join(home, ".deck", "history"),
	}, nil
}
