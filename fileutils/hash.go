package fileutils

import (
	"errors"
	"io"
	"os"

	"github.com/cespare/xxhash"
)

// ComputeHash returns the hash of the reader.
// It reads the entire contents of the reader and does not close it.
func ComputeHash(r io.Reader) (uint64, error) {
	hash := xxhash.New()
	_, err := io.Copy(hash, r)
	if err != nil {
		return 0, err
	}
	return hash.Sum64(), nil
}

// ComputeFileHash returns the hash of the file at path.
func ComputeFileHash(path string) (uint64, error) {
	var err error
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}

	defer func() {
		closeErr := file.Close()
		err = errors.Join(err, closeErr)
	}()

	var hash uint64
	hash, err = ComputeHash(file)

	return hash, err
}

// SameContent reports whether both files hash to the same value.
func SameContent(a, b string) (bool, error) {
	ha, err := ComputeFileHash(a)
	if err != nil {
		return false, err
	}
	hb, err := ComputeFileHash(b)
	if err != nil {
		return false, err
	}
	return ha == hb, nil
}
