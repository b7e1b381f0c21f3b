package main

import (
	"cmp"
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"slices"
	"strings"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
	"k8s.io/examples/AI/lazytensor/pkg/blobs"
	"k8s.io/examples/AI/lazytensor/pkg/engine"
	"k8s.io/examples/AI/lazytensor/pkg/engine/fallback"
	"k8s.io/examples/AI/lazytensor/pkg/lazy"
	"k8s.io/examples/AI/lazytensor/pkg/metrics"
	"k8s.io/examples/AI/lazytensor/pkg/seedstore"
	"k8s.io/klog/v2"
)

func main() {
	ctx := context.Background()
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

type options struct {
	Devices        []engine.Device
	Seed           uint64
	SeedSet        bool
	Steps          int
	TensorsPerStep int

	SnapshotDir    string
	SnapshotBucket string
	SnapshotURL    string
	Restore        string
}

func run(ctx context.Context) error {
	var opt options

	devices := "CPU:0"
	snapshotDir := os.Getenv("SNAPSHOT_DIR")
	flag.StringVar(&devices, "devices", devices, "comma separated devices to run on, e.g. CPU:0,GPU:0")
	flag.Uint64Var(&opt.Seed, "seed", 0, "seed to set on every device before the first step")
	flag.IntVar(&opt.Steps, "steps", 3, "number of step barriers to cross")
	flag.IntVar(&opt.TensorsPerStep, "tensors", 4, "random tensors to create per device per step")
	flag.StringVar(&opt.SnapshotDir, "snapshot-dir", snapshotDir, "directory to save the final seed snapshot to")
	flag.StringVar(&opt.SnapshotBucket, "snapshot-bucket", "", "GCS bucket (gs://<bucketName>[/prefix]) to save the final seed snapshot to")
	flag.StringVar(&opt.SnapshotURL, "snapshot-url", "", "base url of a snapshot server to restore from")
	flag.StringVar(&opt.Restore, "restore", "", "hash of a seed snapshot to restore before the first step")

	klog.InitFlags(nil)
	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			opt.SeedSet = true
		}
	})

	var err error
	opt.Devices, err = engine.ParseDevices(devices)
	if err != nil {
		return err
	}
	if len(opt.Devices) == 0 {
		return fmt.Errorf("must specify at least one device")
	}

	arena := lazy.Get()

	counters := &metrics.Counters{}
	otelObserver, err := metrics.NewOTelObserver(otel.Meter("k8s.io/examples/AI/lazytensor"))
	if err != nil {
		return err
	}
	arena.SetObserver(lazy.Observers(counters, otelObserver, metrics.LogObserver{Verbosity: 4}))

	if err := prepareSeeds(ctx, arena, opt); err != nil {
		return err
	}

	if err := runSteps(ctx, arena, opt, os.Stdout); err != nil {
		return err
	}

	for _, state := range arena.SeedSnapshot() {
		fmt.Printf("final %v seed=%d running_seed=%d\n", state.Device, state.Seed, state.RunningSeed)
	}

	klog.FromContext(ctx).Info("workload finished",
		"created", counters.Created(), "destroyed", counters.Destroyed(), "transfers", fallback.Transfers())

	return saveSnapshot(ctx, arena, opt)
}

func prepareSeeds(ctx context.Context, arena *lazy.Arena, opt options) error {
	if opt.Restore != "" {
		reader, err := snapshotReader(ctx, opt)
		if err != nil {
			return err
		}
		loader := &SnapshotLoader{reader: reader, maxDownloadAttempts: 5}
		return loader.Restore(ctx, blobs.BlobInfo{Hash: opt.Restore}, arena)
	}

	if opt.SeedSet {
		for _, device := range opt.Devices {
			arena.SetRngSeed(device, opt.Seed)
		}
	}
	return nil
}

// runSteps creates random tensors on every device concurrently, evaluates
// the live ones at each barrier and then releases them.
func runSteps(ctx context.Context, arena *lazy.Arena, opt options, out io.Writer) error {
	log := klog.FromContext(ctx)

	for step := 0; step < opt.Steps; step++ {
		held := make([][]*lazy.Tensor, len(opt.Devices))

		g, _ := errgroup.WithContext(ctx)
		for i, device := range opt.Devices {
			g.Go(func() error {
				for n := 0; n < opt.TensorsPerStep; n++ {
					held[i] = append(held[i], arena.NewTensor(device, arena.GetRngSeed(device)))
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		live := arena.GetLiveTensors(nil)
		slices.SortFunc(live, func(x, y *lazy.Tensor) int {
			if c := x.Device().Compare(y.Device()); c != 0 {
				return c
			}
			return cmp.Compare(x.ID(), y.ID())
		})
		log.V(2).Info("step barrier", "step", step, "live", len(live))

		scopes := make(map[engine.Device]*fallback.CalculationScope)
		for _, t := range live {
			scope, ok := scopes[t.Device()]
			if !ok {
				scope = fallback.NewCalculationScope(t.Device())
				scopes[t.Device()] = scope
			}
			v, err := scope.Evaluate(t.Value())
			if err != nil {
				return fmt.Errorf("evaluating tensor %d: %w", t.ID(), err)
			}
			fmt.Fprintf(out, "step %d %v tensor %d value=%d\n", step, t.Device(), t.ID(), uint64(v))
		}

		for _, tensors := range held {
			for _, t := range tensors {
				arena.UnregisterTensor(t.Data())
			}
		}
		arena.MarkStepAll()
	}
	return nil
}

func snapshotReader(ctx context.Context, opt options) (blobs.BlobReader, error) {
	if opt.SnapshotURL != "" {
		u, err := url.Parse(opt.SnapshotURL)
		if err != nil {
			return nil, fmt.Errorf("parsing snapshot url %q: %w", opt.SnapshotURL, err)
		}
		return &blobs.HTTPBlobReader{BaseURL: u}, nil
	}
	store, err := snapshotStore(ctx, opt)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("-restore requires -snapshot-url, -snapshot-dir or -snapshot-bucket")
	}
	return store, nil
}

func snapshotStore(ctx context.Context, opt options) (blobs.Blobstore, error) {
	switch {
	case opt.SnapshotBucket != "":
		if !strings.HasPrefix(opt.SnapshotBucket, "gs://") {
			return nil, fmt.Errorf("snapshot bucket must be a GCS bucket URL (gs://<bucketName>)")
		}
		bucket, prefix, _ := strings.Cut(strings.TrimPrefix(opt.SnapshotBucket, "gs://"), "/")
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		return blobs.NewGCSBlobstore(ctx, bucket, prefix)
	case opt.SnapshotDir != "":
		return &blobs.DirBlobstore{BaseDir: opt.SnapshotDir}, nil
	default:
		return nil, nil
	}
}

func saveSnapshot(ctx context.Context, arena *lazy.Arena, opt options) error {
	store, err := snapshotStore(ctx, opt)
	if err != nil {
		return err
	}
	if store == nil {
		return nil
	}
	if gcs, ok := store.(*blobs.GCSBlobstore); ok {
		defer gcs.Close()
	}

	info, err := seedstore.Save(ctx, store, arena)
	if err != nil {
		return err
	}
	fmt.Printf("snapshot %s\n", info.Hash)
	return nil
}
