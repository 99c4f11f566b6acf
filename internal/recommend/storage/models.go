// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// ErrModelNotFound is returned when no snapshot exists for a name/version.
var ErrModelNotFound = errors.New("model not found")

// ErrChecksumMismatch is returned when stored data does not match its
// recorded checksum.
var ErrChecksumMismatch = errors.New("model checksum mismatch")

const (
	modelKeyPrefix = "model:"
	metaKeyPrefix  = "meta:"
)

// ModelMetadata contains information about a stored model.
type ModelMetadata struct {
	// Name is the algorithm name (e.g., "als").
	Name string `json:"name"`

	// Version is the model version (monotonically increasing).
	Version int64 `json:"version"`

	// FittedAt is when the model was fitted.
	FittedAt time.Time `json:"fitted_at"`

	// SavedAt is when the model was saved.
	SavedAt time.Time `json:"saved_at"`

	// InteractionCount is the number of interactions used for fitting.
	InteractionCount int `json:"interaction_count"`

	// ItemCount is the number of unique items.
	ItemCount int `json:"item_count"`

	// UserCount is the number of unique users.
	UserCount int `json:"user_count"`

	// Checksum is the SHA-256 checksum of the uncompressed model data.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed model size in bytes.
	SizeBytes int64 `json:"size_bytes"`

	// TrainingDurationMS is how long fitting took.
	TrainingDurationMS int64 `json:"training_duration_ms"`
}

// Store persists versioned model snapshots in BadgerDB.
type Store struct {
	db     *badger.DB
	ownsDB bool
	now    func() time.Time
}

// Open opens (or creates) a model store at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("model store path is required")
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Suppress BadgerDB internal logs
	opts.SyncWrites = true
	// Snapshots are few and large; keep value log files small.
	opts.ValueLogFileSize = 64 << 20

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for models: %w", err)
	}
	return &Store{db: db, ownsDB: true, now: time.Now}, nil
}

// OpenInMemory opens a store that lives only for the process lifetime.
func OpenInMemory() (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open in-memory badger db: %w", err)
	}
	return &Store{db: db, ownsDB: true, now: time.Now}, nil
}

// NewStoreFromDB creates a store from an existing BadgerDB connection.
// Close does not close db.
func NewStoreFromDB(db *badger.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Close releases the underlying database if the store opened it.
func (s *Store) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

func modelKey(name string, version int64) []byte {
	return []byte(fmt.Sprintf("%s%s:v%010d", modelKeyPrefix, name, version))
}

func metaKey(name string, version int64) []byte {
	return []byte(fmt.Sprintf("%s%s:v%010d", metaKeyPrefix, name, version))
}

func metaPrefix(name string) []byte {
	return []byte(metaKeyPrefix + name + ":v")
}

// parseVersion extracts the version from a meta key.
func parseVersion(key []byte, prefix []byte) (int64, bool) {
	version, err := strconv.ParseInt(strings.TrimPrefix(string(key), string(prefix)), 10, 64)
	if err != nil {
		return 0, false
	}
	return version, true
}

// Save encodes data with gob, compresses it and writes it with its metadata
// in a single transaction. Name, Version, Checksum, SizeBytes and SavedAt in
// meta are filled in by Save.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *Store) Save(ctx context.Context, name string, version int64, data any, meta ModelMetadata) (*ModelMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" || strings.Contains(name, ":") {
		return nil, fmt.Errorf("invalid model name %q", name)
	}
	if version <= 0 {
		return nil, fmt.Errorf("model version must be positive, got %d", version)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(data); err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	rawData := buf.Bytes()

	hash := sha256.Sum256(rawData)
	meta.Checksum = hex.EncodeToString(hash[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(rawData); err != nil {
		return nil, fmt.Errorf("compress model: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("finalize compression: %w", err)
	}

	meta.Name = name
	meta.Version = version
	meta.SizeBytes = int64(compressed.Len())
	meta.SavedAt = s.now().UTC()

	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(modelKey(name, version), compressed.Bytes()); err != nil {
			return err
		}
		return txn.Set(metaKey(name, version), metaBytes)
	})
	if err != nil {
		return nil, fmt.Errorf("write model %s v%d: %w", name, version, err)
	}
	return &meta, nil
}

// Load decodes the model name at version into target. A version of 0 loads
// the latest version.
func (s *Store) Load(ctx context.Context, name string, version int64, target any) (*ModelMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if version == 0 {
		latest, ok, err := s.LatestVersion(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
		}
		version = latest
	}

	var meta ModelMetadata
	var compressed []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(name, version))
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		}); err != nil {
			return fmt.Errorf("decode metadata: %w", err)
		}

		item, err = txn.Get(modelKey(name, version))
		if err != nil {
			return err
		}
		compressed, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s v%d", ErrModelNotFound, name, version)
	}
	if err != nil {
		return nil, fmt.Errorf("read model %s v%d: %w", name, version, err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("decompress model: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	rawData, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(rawData)
	if checksum := hex.EncodeToString(hash[:]); checksum != meta.Checksum {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, meta.Checksum, checksum)
	}

	if err := gob.NewDecoder(bytes.NewReader(rawData)).Decode(target); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return &meta, nil
}

// versions returns the stored versions of name in ascending order.
func (s *Store) versions(name string) ([]int64, error) {
	prefix := metaPrefix(name)
	var out []int64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if v, ok := parseVersion(it.Item().Key(), prefix); ok {
				out = append(out, v)
			}
		}
		return nil
	})
	return out, err
}

// LatestVersion returns the highest stored version of name.
func (s *Store) LatestVersion(ctx context.Context, name string) (int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	vs, err := s.versions(name)
	if err != nil {
		return 0, false, fmt.Errorf("list versions: %w", err)
	}
	if len(vs) == 0 {
		return 0, false, nil
	}
	return vs[len(vs)-1], true, nil
}

// List returns metadata for every stored version of name, oldest first.
func (s *Store) List(ctx context.Context, name string) ([]ModelMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := metaPrefix(name)
	var out []ModelMetadata
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var meta ModelMetadata
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			}); err != nil {
				return fmt.Errorf("decode metadata %s: %w", it.Item().Key(), err)
			}
			out = append(out, meta)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return out, nil
}

// Delete removes one stored version.
func (s *Store) Delete(ctx context.Context, name string, version int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(metaKey(name, version)); err != nil {
			return err
		}
		if err := txn.Delete(modelKey(name, version)); err != nil {
			return err
		}
		return txn.Delete(metaKey(name, version))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s v%d", ErrModelNotFound, name, version)
	}
	if err != nil {
		return fmt.Errorf("delete model: %w", err)
	}
	return nil
}

// Prune removes old versions of name, keeping the newest keep versions.
// It returns the number of versions removed.
func (s *Store) Prune(ctx context.Context, name string, keep int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if keep < 1 {
		keep = 1
	}
	vs, err := s.versions(name)
	if err != nil {
		return 0, fmt.Errorf("list versions: %w", err)
	}
	if len(vs) <= keep {
		return 0, nil
	}

	stale := vs[:len(vs)-keep]
	err = s.db.Update(func(txn *badger.Txn) error {
		for _, v := range stale {
			if err := txn.Delete(modelKey(name, v)); err != nil {
				return err
			}
			if err := txn.Delete(metaKey(name, v)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("prune models: %w", err)
	}
	return len(stale), nil
}
