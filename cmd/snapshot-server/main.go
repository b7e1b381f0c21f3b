package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"k8s.io/examples/AI/lazytensor/pkg/blobs"
	"k8s.io/klog/v2"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log := klog.FromContext(ctx)

	listen := ":8080"
	cacheDir := os.Getenv("CACHE_DIR")
	if cacheDir == "" {
		// We expect CACHE_DIR to be set when running on kubernetes, but default sensibly for local dev
		cacheDir = "~/.cache/snapshot-server/blobs"
	}
	cacheBucket := os.Getenv("CACHE_BUCKET")
	flag.StringVar(&listen, "listen", listen, "listen address")
	flag.StringVar(&cacheDir, "cache-dir", cacheDir, "cache directory")
	flag.StringVar(&cacheBucket, "cache-bucket", cacheBucket, "GCS bucket (gs://<bucketName>) to fetch snapshots missing from the cache")
	klog.InitFlags(nil)
	flag.Parse()

	if strings.HasPrefix(cacheDir, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("getting home directory: %w", err)
		}
		cacheDir = filepath.Join(homeDir, strings.TrimPrefix(cacheDir, "~/"))
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return fmt.Errorf("creating cache directory %q: %w", cacheDir, err)
	}

	cache := &blobCache{
		local: &blobs.DirBlobstore{BaseDir: cacheDir},
	}

	if cacheBucket != "" {
		if !strings.HasPrefix(cacheBucket, "gs://") {
			return fmt.Errorf("cache bucket must be a GCS bucket URL (gs://<bucketName>)")
		}
		bucket, prefix, _ := strings.Cut(strings.TrimPrefix(cacheBucket, "gs://"), "/")
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		log.Info("using GCS cache", "bucket", bucket, "prefix", prefix)

		gcs, err := blobs.NewGCSBlobstore(ctx, bucket, prefix)
		if err != nil {
			return err
		}
		defer gcs.Close()
		cache.upstream = gcs
	}

	s := &httpServer{blobCache: cache}

	log.Info("serving", "listen", listen)
	if err := http.ListenAndServe(listen, s); err != nil {
		return fmt.Errorf("serving on %q: %w", listen, err)
	}
	return nil
}

type httpServer struct {
	blobCache *blobCache
}

func (s *httpServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tokens := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if len(tokens) == 1 {
		if r.Method == http.MethodGet {
			s.serveGETBlob(w, r, blobs.BlobInfo{Hash: tokens[0]})
			return
		}
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	http.Error(w, "not found", http.StatusNotFound)
}

func (s *httpServer) serveGETBlob(w http.ResponseWriter, r *http.Request, info blobs.BlobInfo) {
	ctx := r.Context()
	log := klog.FromContext(ctx)

	f, err := s.blobCache.GetBlob(ctx, info)
	if err != nil {
		switch status.Code(err) {
		case codes.NotFound:
			http.Error(w, "not found", http.StatusNotFound)
		case codes.InvalidArgument:
			http.Error(w, "bad request", http.StatusBadRequest)
		default:
			log.Error(err, "error getting blob", "hash", info.Hash)
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}
	defer f.Close()

	log.V(2).Info("serving blob", "path", f.Name())
	http.ServeContent(w, r, info.Hash, fileModTime(f), f)
}

type blobCache struct {
	local    *blobs.DirBlobstore
	upstream blobs.BlobReader
}

func (c *blobCache) GetBlob(ctx context.Context, info blobs.BlobInfo) (*os.File, error) {
	if err := info.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	localPath := filepath.Join(c.local.BaseDir, info.Hash)
	f, err := os.Open(localPath)
	if err == nil {
		return f, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("opening blob %q: %w", info.Hash, err)
	}

	if c.upstream == nil {
		return nil, status.Errorf(codes.NotFound, "blob %q not found", info.Hash)
	}
	if err := c.upstream.Download(ctx, info, localPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, status.Errorf(codes.NotFound, "blob %q not found", info.Hash)
		}
		return nil, fmt.Errorf("fetching blob %q: %w", info.Hash, err)
	}
	return os.Open(localPath)
}

func fileModTime(f *os.File) time.Time {
	stat, err := f.Stat()
	if err != nil {
		return time.Time{}
	}
	return stat.ModTime()
}
