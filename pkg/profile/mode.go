package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/coral-mesh/eosprofile/internal/constants"
)

// Mode selects what the registry does with its samples.
type Mode int

const (
	// ModeDisabled turns every probe operation into a no-op.
	ModeDisabled Mode = iota
	// ModeConsole prints a summary of every probe when the registry is drained.
	ModeConsole
	// ModeCapture writes every probe to a capture file when the registry is
	// drained.
	ModeCapture
)

func (m Mode) String() string {
	switch m {
	case ModeDisabled:
		return "disabled"
	case ModeConsole:
		return "console"
	case ModeCapture:
		return "capture"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

const capturePrefix = "capture"

// ParseMode interprets the value of the EOS_PROFILE environment variable.
// For capture mode it also returns the requested file, which is empty when
// the value carries no ":<path>" suffix.
func ParseMode(value string) (Mode, string) {
	if value == "" {
		return ModeDisabled, ""
	}
	if len(value) < len(capturePrefix) || !strings.EqualFold(value[:len(capturePrefix)], capturePrefix) {
		return ModeConsole, ""
	}

	rest := value[len(capturePrefix):]
	if path, ok := strings.CutPrefix(rest, ":"); ok {
		return ModeCapture, path
	}
	return ModeCapture, ""
}

// DefaultCapturePath returns the capture file used when none is requested:
// <user cache dir>/com.endlessm.Sdk.Profile/<program>-<pid>.db. The directory
// is created with mode 0700; when that fails the file goes to the current
// working directory instead.
func DefaultCapturePath(program string, pid int) string {
	name := fmt.Sprintf("%s-%d%s", program, pid, constants.CaptureExt)

	if cacheDir, err := os.UserCacheDir(); err == nil {
		dir := filepath.Join(cacheDir, constants.CaptureDirName)
		if err := os.MkdirAll(dir, constants.CaptureDirPerm); err == nil {
			return filepath.Join(dir, name)
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		return filepath.Join(cwd, name)
	}
	return name
}

func programName() string {
	if len(os.Args) == 0 || os.Args[0] == "" {
		return "program"
	}
	return filepath.Base(os.Args[0])
}
