package main

import (
	"context"
	"errors"
	"os"
	"time"

	"k8s.io/examples/AI/lazytensor/pkg/blobs"
	"k8s.io/examples/AI/lazytensor/pkg/lazy"
	"k8s.io/examples/AI/lazytensor/pkg/seedstore"
	"k8s.io/klog/v2"
)

type SnapshotLoader struct {
	// reader is the interface to fetch blobs
	reader blobs.BlobReader

	// maxDownloadAttempts is the number of times to attempt a download before failing
	maxDownloadAttempts int

	// retryInterval is the wait between attempts; 5s if zero.
	retryInterval time.Duration
}

// Restore loads a seed snapshot into arena, retrying transient failures.
// A snapshot that does not exist is not retried.
func (l *SnapshotLoader) Restore(ctx context.Context, info blobs.BlobInfo, arena *lazy.Arena) error {
	log := klog.FromContext(ctx)

	retryInterval := l.retryInterval
	if retryInterval == 0 {
		retryInterval = 5 * time.Second
	}

	attempt := 0
	for {
		attempt++

		err := seedstore.Load(ctx, l.reader, info, arena)
		if err == nil {
			return nil
		}

		if attempt >= l.maxDownloadAttempts || errors.Is(err, os.ErrNotExist) {
			return err
		}

		log.Error(err, "loading seed snapshot, will retry", "info", info, "attempt", attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}
