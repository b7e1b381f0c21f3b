package blobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/klog/v2"
)

// DirBlobstore keeps blobs as files named by their hash in BaseDir.
type DirBlobstore struct {
	BaseDir string
}

var _ Blobstore = (*DirBlobstore)(nil)

func (s *DirBlobstore) path(info BlobInfo) string {
	return filepath.Join(s.BaseDir, info.Hash)
}

func (s *DirBlobstore) Upload(ctx context.Context, sourcePath string, info BlobInfo) error {
	log := klog.FromContext(ctx)

	if err := info.Validate(); err != nil {
		return err
	}

	destPath := s.path(info)
	if _, err := os.Stat(destPath); err == nil {
		log.V(2).Info("blob already exists", "path", destPath)
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking for blob %q: %w", destPath, err)
	}

	if err := os.MkdirAll(s.BaseDir, 0755); err != nil {
		return fmt.Errorf("creating blob directory %q: %w", s.BaseDir, err)
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("opening source file: %w", err)
	}
	defer src.Close()

	n, err := writeToFile(ctx, src, destPath)
	if err != nil {
		return fmt.Errorf("storing blob %q: %w", info.Hash, err)
	}
	log.Info("stored blob", "path", destPath, "bytes", n)
	return nil
}

func (s *DirBlobstore) Download(ctx context.Context, info BlobInfo, destPath string) error {
	if err := info.Validate(); err != nil {
		return err
	}

	src, err := os.Open(s.path(info))
	if err != nil {
		// os.Open errors already satisfy errors.Is(err, os.ErrNotExist).
		return fmt.Errorf("opening blob %q: %w", info.Hash, err)
	}
	defer src.Close()

	if _, err := writeToFile(ctx, src, destPath); err != nil {
		return fmt.Errorf("copying blob %q: %w", info.Hash, err)
	}
	return nil
}
