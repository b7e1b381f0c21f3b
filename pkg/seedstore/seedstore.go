// Package seedstore persists the seed state of an arena so a run can be
// resumed with the same random streams.
package seedstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
	"k8s.io/examples/AI/lazytensor/pkg/blobs"
	"k8s.io/examples/AI/lazytensor/pkg/engine"
	"k8s.io/examples/AI/lazytensor/pkg/lazy"
	"k8s.io/klog/v2"
)

const snapshotVersion = 1

type snapshot struct {
	Version int          `yaml:"version"`
	Devices []deviceSeed `yaml:"devices"`
}

// Seeds are written as decimal strings; YAML integers are signed 64 bit.
type deviceSeed struct {
	Device      string `yaml:"device"`
	Seed        string `yaml:"seed"`
	RunningSeed string `yaml:"runningSeed"`
}

// Encode serializes states, sorted by device, so equal states encode to equal bytes.
func Encode(states []lazy.SeedState) ([]byte, error) {
	sorted := slices.Clone(states)
	slices.SortFunc(sorted, func(x, y lazy.SeedState) int {
		return x.Device.Compare(y.Device)
	})

	doc := snapshot{Version: snapshotVersion}
	for _, state := range sorted {
		doc.Devices = append(doc.Devices, deviceSeed{
			Device:      state.Device.String(),
			Seed:        strconv.FormatUint(state.Seed, 10),
			RunningSeed: strconv.FormatUint(state.RunningSeed, 10),
		})
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("encoding seed snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding seed snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

func Decode(b []byte) ([]lazy.SeedState, error) {
	var doc snapshot
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decoding seed snapshot: %w", err)
	}
	if doc.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported seed snapshot version %d", doc.Version)
	}

	states := make([]lazy.SeedState, 0, len(doc.Devices))
	seen := make(map[engine.Device]bool)
	for _, d := range doc.Devices {
		device, err := engine.ParseDevice(d.Device)
		if err != nil {
			return nil, err
		}
		if seen[device] {
			return nil, fmt.Errorf("device %v appears more than once", device)
		}
		seen[device] = true

		seed, err := strconv.ParseUint(d.Seed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing seed of %v: %w", device, err)
		}
		runningSeed, err := strconv.ParseUint(d.RunningSeed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing running seed of %v: %w", device, err)
		}
		states = append(states, lazy.SeedState{Device: device, Seed: seed, RunningSeed: runningSeed})
	}
	return states, nil
}

func hashOf(b []byte) blobs.BlobInfo {
	sum := sha256.Sum256(b)
	return blobs.BlobInfo{Hash: hex.EncodeToString(sum[:])}
}

// Save uploads the seed state of arena and returns the blob it was stored as.
func Save(ctx context.Context, store blobs.Blobstore, arena *lazy.Arena) (blobs.BlobInfo, error) {
	log := klog.FromContext(ctx)

	b, err := Encode(arena.SeedSnapshot())
	if err != nil {
		return blobs.BlobInfo{}, err
	}
	info := hashOf(b)

	tempDir, err := os.MkdirTemp("", "seedstore")
	if err != nil {
		return blobs.BlobInfo{}, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	p := filepath.Join(tempDir, info.Hash)
	if err := os.WriteFile(p, b, 0644); err != nil {
		return blobs.BlobInfo{}, fmt.Errorf("writing snapshot: %w", err)
	}
	if err := store.Upload(ctx, p, info); err != nil {
		return blobs.BlobInfo{}, fmt.Errorf("uploading snapshot: %w", err)
	}

	log.Info("saved seed snapshot", "hash", info.Hash)
	return info, nil
}

// Load downloads the snapshot identified by info, checks its hash and
// restores it into arena.
func Load(ctx context.Context, reader blobs.BlobReader, info blobs.BlobInfo, arena *lazy.Arena) error {
	log := klog.FromContext(ctx)

	tempDir, err := os.MkdirTemp("", "seedstore")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	p := filepath.Join(tempDir, "snapshot.yaml")
	if err := reader.Download(ctx, info, p); err != nil {
		return fmt.Errorf("downloading snapshot: %w", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	if got := hashOf(b); got != info {
		return fmt.Errorf("snapshot hash mismatch: want %s, got %s", info.Hash, got.Hash)
	}

	states, err := Decode(b)
	if err != nil {
		return err
	}
	arena.RestoreSeeds(states)

	log.Info("restored seed snapshot", "hash", info.Hash, "devices", len(states))
	return nil
}
