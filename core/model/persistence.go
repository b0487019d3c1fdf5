package model

import (
	"encoding/gob"
	"io"
	"os"
	"path/filepath"

	"github.com/Manda404/obesity-predictor/pkg/errors"
)

// WriteFileAtomic writes an artifact through a temporary file in the target
// directory and renames it into place only after a successful write and
// fsync. A crash mid-write therefore never leaves a truncated file visible
// at the final path.
func WriteFileAtomic(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating artifact directory %q", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "creating temporary artifact in %q", dir)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return errors.Wrapf(err, "writing artifact %q", path)
	}
	if err = tmp.Sync(); err != nil {
		return errors.Wrapf(err, "syncing artifact %q", path)
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, "closing artifact %q", path)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "publishing artifact %q", path)
	}
	return nil
}

// SaveGob atomically writes state to path in gob encoding.
func SaveGob(path string, state interface{}) error {
	return WriteFileAtomic(path, func(w io.Writer) error {
		return gob.NewEncoder(w).Encode(state)
	})
}

// LoadGob restores state from a gob artifact at path. A missing file yields
// ArtifactNotFoundError; a file that fails to decode yields
// CorruptArtifactError. The destination is only written on full success.
func LoadGob(path string, state interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewArtifactNotFoundError(path)
		}
		return errors.Wrapf(err, "opening artifact %q", path)
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(state); err != nil {
		return errors.NewCorruptArtifactError(path, err)
	}
	return nil
}
