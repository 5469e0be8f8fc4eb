package helpers

import (
	"fmt"
	"io"
	"os"

	"github.com/coral-mesh/eosprofile/internal/constants"
	cerrors "github.com/coral-mesh/eosprofile/internal/errors"
	"github.com/coral-mesh/eosprofile/internal/safe"
)

// IsStdout reports whether an --output value selects standard output.
func IsStdout(path string) bool {
	return path == "" || path == "-"
}

// WriteOutput writes data to stdout or to path. Files are first written to
// a temporary file and then moved into place, falling back to a copy when
// the temporary directory is on another device.
func WriteOutput(stdout io.Writer, path string, data []byte) (err error) {
	if IsStdout(path) {
		_, err = stdout.Write(data)
		return err
	}

	tmp, err := os.CreateTemp("", "eos-profile-output-*")
	if err != nil {
		return fmt.Errorf("unable to open output file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("unable to write output: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("unable to write output: %w", err)
	}

	cerrors.CloseInto(tmp, &err, "output file")
	if err != nil {
		return err
	}

	if err = os.Chmod(tmpName, constants.OutputFilePerm); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	if err = safe.MoveFile(tmpName, path, &safe.Options{DestPerm: constants.OutputFilePerm}); err != nil {
		return fmt.Errorf("unable to save output to '%s': %w", path, err)
	}
	return nil
}
