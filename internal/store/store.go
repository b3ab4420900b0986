// Package store implements the content store: a persistent, deduplicating,
// crash-safe mapping from content address to bytes on a local filesystem,
// sharded by address prefix, with on-read integrity checking.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"nebula/internal/address"
	"nebula/internal/chunk"
	"nebula/internal/nebulalog"
)

// ErrCorruption is returned by Get when the bytes on disk no longer hash to
// the address they are stored under.
type ErrCorruption struct {
	Expected address.Address
	Actual   address.Address
}

func (e *ErrCorruption) Error() string {
	return fmt.Sprintf("store: corruption detected: expected %s, got %s", e.Expected, e.Actual)
}

// ErrNotFound is returned by Get when no object exists at the given address.
type ErrNotFound struct {
	Address address.Address
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("store: not found: %s", e.Address)
}

// Config controls content store behavior.
type Config struct {
	// StoragePath is the store's root directory (objects/ and temp/ live
	// beneath it).
	StoragePath string
	// ChunkConfig configures the chunker used by PutBytes/PutFile.
	ChunkConfig chunk.Config
	// VerifyOnRead recomputes and checks each object's digest on Get.
	// Defaults to true.
	VerifyOnRead bool
}

// DefaultConfig returns sensible defaults rooted at path.
func DefaultConfig(path string) Config {
	return Config{
		StoragePath:  path,
		ChunkConfig:  chunk.DefaultConfig(),
		VerifyOnRead: true,
	}
}

// Store is a directory-sharded, content-addressed object store.
type Store struct {
	config     Config
	objectsDir string
	tempDir    string
	chunker    *chunk.Chunker

	mu     sync.RWMutex
	nonce  atomic.Uint64
	logger nebulalog.Logger
}

// New creates or opens a Store at config.StoragePath, creating the objects/
// and temp/ directories if absent.
func New(config Config) (*Store, error) {
	if config.ChunkConfig == (chunk.Config{}) {
		config.ChunkConfig = chunk.DefaultConfig()
	}
	chunker, err := chunk.New(config.ChunkConfig)
	if err != nil {
		return nil, fmt.Errorf("store: building chunker: %w", err)
	}

	objectsDir := filepath.Join(config.StoragePath, "objects")
	tempDir := filepath.Join(config.StoragePath, "temp")

	if err := os.MkdirAll(objectsDir, 0o755); err != nil {
		return nil, fmt.Errorf("store: creating objects dir: %w", err)
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("store: creating temp dir: %w", err)
	}

	return &Store{
		config:     config,
		objectsDir: objectsDir,
		tempDir:    tempDir,
		chunker:    chunker,
		logger:     nebulalog.Default(),
	}, nil
}

// Path returns the store's root directory.
func (s *Store) Path() string {
	return s.config.StoragePath
}

// chunkPath returns the on-disk path for addr: the first two characters of
// addr.String() (including the algorithm prefix) name the shard directory.
func (s *Store) chunkPath(addr address.Address) string {
	full := addr.String()
	shard := full[:2]
	rest := full[2:]
	return filepath.Join(s.objectsDir, shard, rest)
}

// Put stores data and returns its content address. If an object already
// exists at that address, no write occurs (deduplication).
func (s *Store) Put(data []byte) (address.Address, error) {
	addr := address.FromBytes(data)
	final := s.chunkPath(addr)

	if _, err := os.Stat(final); err == nil {
		return addr, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return address.Address{}, fmt.Errorf("store: stat %s: %w", final, err)
	}

	if err := os.MkdirAll(filepath.Dir(final), 0o755); err != nil {
		return address.Address{}, fmt.Errorf("store: creating shard dir: %w", err)
	}

	temp := filepath.Join(s.tempDir, fmt.Sprintf("tmp_%d_%d", os.Getpid(), s.nonce.Add(1)))
	if err := os.WriteFile(temp, data, 0o644); err != nil {
		return address.Address{}, fmt.Errorf("store: writing temp file: %w", err)
	}

	if err := os.Rename(temp, final); err != nil {
		// Another writer may have won the race for this address; accept its
		// result rather than leaving a partial file behind.
		if _, statErr := os.Stat(final); statErr == nil {
			os.Remove(temp)
			return addr, nil
		}
		os.Remove(temp)
		return address.Address{}, fmt.Errorf("store: renaming into place: %w", err)
	}

	s.logger.Debugf("store: put %s (%d bytes)", addr, len(data))
	return addr, nil
}

// Get retrieves the bytes stored at addr, verifying integrity unless
// VerifyOnRead is disabled.
func (s *Store) Get(addr address.Address) ([]byte, error) {
	path := s.chunkPath(addr)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ErrNotFound{Address: addr}
		}
		return nil, fmt.Errorf("store: reading %s: %w", path, err)
	}

	if s.verifyOnRead() {
		actual := address.FromBytesWithAlgorithm(data, addr.Algorithm())
		if !actual.Equal(addr) {
			s.logger.Warnf("store: corruption detected for %s", addr)
			return nil, &ErrCorruption{Expected: addr, Actual: actual}
		}
	}

	return data, nil
}

func (s *Store) verifyOnRead() bool {
	return s.config.VerifyOnRead
}

// Has reports whether an object exists at addr, without reading it.
func (s *Store) Has(addr address.Address) bool {
	_, err := os.Stat(s.chunkPath(addr))
	return err == nil
}

// PutBytes chunks data and stores each chunk, returning the ordered address
// list reflecting input order.
func (s *Store) PutBytes(data []byte) ([]address.Address, error) {
	chunks := s.chunker.Chunk(data)
	addresses := make([]address.Address, len(chunks))
	for i, c := range chunks {
		addr, err := s.Put(c.Data)
		if err != nil {
			return nil, fmt.Errorf("store: storing chunk %d: %w", i, err)
		}
		addresses[i] = addr
	}
	return addresses, nil
}

// GetBytes retrieves and concatenates the chunks named by addresses, in
// order.
func (s *Store) GetBytes(addresses []address.Address) ([]byte, error) {
	var out []byte
	for i, addr := range addresses {
		data, err := s.Get(addr)
		if err != nil {
			return nil, fmt.Errorf("store: retrieving chunk %d: %w", i, err)
		}
		out = append(out, data...)
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

// PutFile reads path and stores its contents as chunks.
func (s *Store) PutFile(path string) ([]address.Address, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("store: reading file %s: %w", path, err)
	}
	return s.PutBytes(data)
}

// GetFile reconstructs the bytes named by addresses and writes them to
// outputPath.
func (s *Store) GetFile(addresses []address.Address, outputPath string) error {
	data, err := s.GetBytes(addresses)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("store: writing output file %s: %w", outputPath, err)
	}
	return nil
}

// Remove deletes the object at addr, if present, reporting whether a
// deletion occurred.
func (s *Store) Remove(addr address.Address) (bool, error) {
	path := s.chunkPath(addr)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("store: removing %s: %w", path, err)
	}
	return true, nil
}

// Stats summarizes the object store's contents.
type Stats struct {
	TotalChunks int
	TotalSize   uint64
	StoragePath string
}

// Stats walks objects/ and reports chunk count, total size, and storage
// path.
func (s *Store) Stats() (Stats, error) {
	var stats Stats
	stats.StoragePath = s.config.StoragePath

	err := filepath.Walk(s.objectsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		stats.TotalChunks++
		stats.TotalSize += uint64(info.Size())
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("store: computing stats: %w", err)
	}
	return stats, nil
}

// Entry describes one stored object surfaced by List.
type Entry struct {
	Address        address.Address
	Size           int64
	CreatedAt      time.Time
	FilesystemPath string
}

// List walks objects/, reconstructing each entry's address from its shard
// directory name plus filename. Files whose name fails to parse as an
// address are skipped. Entries are sorted by CreatedAt descending.
func (s *Store) List() ([]Entry, error) {
	var entries []Entry

	shardDirs, err := os.ReadDir(s.objectsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entries, nil
		}
		return nil, fmt.Errorf("store: listing objects dir: %w", err)
	}

	for _, shard := range shardDirs {
		if !shard.IsDir() {
			continue
		}
		shardPath := filepath.Join(s.objectsDir, shard.Name())
		files, err := os.ReadDir(shardPath)
		if err != nil {
			return nil, fmt.Errorf("store: listing shard %s: %w", shard.Name(), err)
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			full := shard.Name() + f.Name()
			addr, err := address.Parse(full)
			if err != nil {
				continue
			}
			info, err := f.Info()
			if err != nil {
				return nil, fmt.Errorf("store: stat %s: %w", f.Name(), err)
			}
			entries = append(entries, Entry{
				Address:        addr,
				Size:           info.Size(),
				CreatedAt:      info.ModTime(),
				FilesystemPath: filepath.Join(shardPath, f.Name()),
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	return entries, nil
}
