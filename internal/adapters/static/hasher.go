package static

import (
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"
)

// hashContent computes the XXHash of the file content and rewinds f.
func hashContent(f *os.File) (string, error) {
	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", zerr.Wrap(err, "failed to hash file content")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", zerr.Wrap(err, "failed to rewind file")
	}
	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}
