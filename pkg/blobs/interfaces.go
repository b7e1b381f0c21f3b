package blobs

import (
	"context"
	"encoding/hex"
	"fmt"
)

type BlobReader interface {
	// If no such object exists, Download should return an error for which errors.Is(err, os.ErrNotExist) is true.
	Download(ctx context.Context, info BlobInfo, destPath string) error
}

type Blobstore interface {
	BlobReader
	// Upload uploads the file at sourcePath to the blobstore, using the given hash as the object key.
	// If an object with the same hash already exists, Upload should do nothing and return no error.
	Upload(ctx context.Context, sourcePath string, info BlobInfo) error
}

// BlobInfo identifies a blob by the hex sha256 of its contents.
type BlobInfo struct {
	Hash string
}

// Validate checks that the hash is a lowercase hex sha256, which also makes
// it safe to use as a file name or object key.
func (i BlobInfo) Validate() error {
	if len(i.Hash) != 64 {
		return fmt.Errorf("blob hash %q has length %d, expected 64", i.Hash, len(i.Hash))
	}
	if _, err := hex.DecodeString(i.Hash); err != nil {
		return fmt.Errorf("blob hash %q is not hex: %w", i.Hash, err)
	}
	for _, c := range i.Hash {
		if c >= 'A' && c <= 'F' {
			return fmt.Errorf("blob hash %q must be lowercase", i.Hash)
		}
	}
	return nil
}
