// Package registry implements the file registry: a durable mapping from a
// 128-bit file identifier to the ordered chunk-address list, name, size and
// creation time that reconstruct a logical file.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"nebula/internal/address"
	"nebula/internal/nebulalog"
)

// ErrCorruptedRegistry is returned when the backing file exists but does not
// parse as a valid registry serialization.
var ErrCorruptedRegistry = errors.New("registry: backing file is corrupted")

// ErrFileNotFound is returned by operations that require an existing entry.
type ErrFileNotFound struct {
	ID uuid.UUID
}

func (e *ErrFileNotFound) Error() string {
	return fmt.Sprintf("registry: file not found: %s", e.ID)
}

// FileMetadata describes one registered logical file.
type FileMetadata struct {
	ID             uuid.UUID         `json:"id"`
	OriginalName   string            `json:"original_name"`
	ChunkAddresses []address.Address `json:"chunk_addresses"`
	TotalSize      uint64            `json:"total_size"`
	CreatedAt      uint64            `json:"created_at"`
	ChunkCount     int               `json:"chunk_count"`
}

// ShortID returns the first 8 hex characters of the file id with dashes
// removed. It is a convenience handle, not a uniqueness guarantee — 32 bits
// of collision resistance only.
func (m FileMetadata) ShortID() string {
	s := strings.ReplaceAll(m.ID.String(), "-", "")
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

// CreatedTime returns CreatedAt as a time.Time.
func (m FileMetadata) CreatedTime() time.Time {
	return time.Unix(int64(m.CreatedAt), 0)
}

// jsonMetadata is FileMetadata's on-disk shape: chunk addresses are encoded
// as their canonical "<alg>:<hex>" strings, matching the spec's JSON schema
// exactly rather than address.Address's unexported fields.
type jsonMetadata struct {
	ID             uuid.UUID `json:"id"`
	OriginalName   string    `json:"original_name"`
	ChunkAddresses []string  `json:"chunk_addresses"`
	TotalSize      uint64    `json:"total_size"`
	CreatedAt      uint64    `json:"created_at"`
	ChunkCount     int       `json:"chunk_count"`
}

func (m FileMetadata) MarshalJSON() ([]byte, error) {
	addrs := make([]string, len(m.ChunkAddresses))
	for i, a := range m.ChunkAddresses {
		addrs[i] = a.String()
	}
	return json.Marshal(jsonMetadata{
		ID:             m.ID,
		OriginalName:   m.OriginalName,
		ChunkAddresses: addrs,
		TotalSize:      m.TotalSize,
		CreatedAt:      m.CreatedAt,
		ChunkCount:     m.ChunkCount,
	})
}

func (m *FileMetadata) UnmarshalJSON(data []byte) error {
	var raw jsonMetadata
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	addrs := make([]address.Address, len(raw.ChunkAddresses))
	for i, s := range raw.ChunkAddresses {
		a, err := address.Parse(s)
		if err != nil {
			return fmt.Errorf("registry: parsing chunk address %q: %w", s, err)
		}
		addrs[i] = a
	}
	m.ID = raw.ID
	m.OriginalName = raw.OriginalName
	m.ChunkAddresses = addrs
	m.TotalSize = raw.TotalSize
	m.CreatedAt = raw.CreatedAt
	m.ChunkCount = raw.ChunkCount
	return nil
}

// Registry is a durable file_id -> FileMetadata map backed by a single JSON
// file, rewritten atomically after each mutation.
type Registry struct {
	mu     sync.RWMutex
	path   string
	files  map[uuid.UUID]FileMetadata
	nonce  atomic.Uint64
	logger nebulalog.Logger
}

// Open loads the registry backed by <storageDir>/file_registry.json. A
// missing or empty file is treated as an empty registry; a present but
// unparseable file is ErrCorruptedRegistry.
func Open(storageDir string) (*Registry, error) {
	path := filepath.Join(storageDir, "file_registry.json")

	files := make(map[uuid.UUID]FileMetadata)

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// empty registry
	case err != nil:
		return nil, fmt.Errorf("registry: reading %s: %w", path, err)
	default:
		if len(strings.TrimSpace(string(data))) > 0 {
			if jsonErr := json.Unmarshal(data, &files); jsonErr != nil {
				return nil, ErrCorruptedRegistry
			}
		}
	}

	return &Registry{path: path, files: files, logger: nebulalog.Default()}, nil
}

// Register creates a fresh file_id, records metadata, persists the full map,
// and returns the new entry.
func (r *Registry) Register(originalName string, chunkAddresses []address.Address, totalSize uint64) (FileMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	meta := FileMetadata{
		ID:             uuid.New(),
		OriginalName:   originalName,
		ChunkAddresses: chunkAddresses,
		TotalSize:      totalSize,
		CreatedAt:      uint64(time.Now().Unix()),
		ChunkCount:     len(chunkAddresses),
	}

	r.files[meta.ID] = meta
	if err := r.save(); err != nil {
		delete(r.files, meta.ID)
		return FileMetadata{}, err
	}

	r.logger.Infof("registry: registered %s (%s, %d chunks)", meta.ShortID(), meta.OriginalName, meta.ChunkCount)
	return meta, nil
}

// Get returns the metadata for file_id, if present.
func (r *Registry) Get(id uuid.UUID) (FileMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.files[id]
	return m, ok
}

// GetByShortID scans for the first entry (by map iteration order) whose
// ShortID matches s. Short ids carry only 32 bits of collision resistance;
// callers that need a guaranteed-unique handle should use the full id.
func (r *Registry) GetByShortID(s string) (FileMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.files {
		if m.ShortID() == s {
			return m, true
		}
	}
	return FileMetadata{}, false
}

// Remove deletes file_id from the registry, persisting the change if an
// entry was actually removed.
func (r *Registry) Remove(id uuid.UUID) (FileMetadata, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.files[id]
	if !ok {
		return FileMetadata{}, false, nil
	}

	delete(r.files, id)
	if err := r.save(); err != nil {
		r.files[id] = m
		return FileMetadata{}, false, err
	}
	return m, true, nil
}

// List returns every registered file's metadata. Iteration order is
// unspecified.
func (r *Registry) List() []FileMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]FileMetadata, 0, len(r.files))
	for _, m := range r.files {
		out = append(out, m)
	}
	return out
}

// Count returns the number of registered files.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.files)
}

// TotalSize sums TotalSize across every registered file.
func (r *Registry) TotalSize() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total uint64
	for _, m := range r.files {
		total += m.TotalSize
	}
	return total
}

// FindByName returns every entry whose OriginalName contains substr.
func (r *Registry) FindByName(substr string) []FileMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []FileMetadata
	for _, m := range r.files {
		if strings.Contains(m.OriginalName, substr) {
			out = append(out, m)
		}
	}
	return out
}

// save rewrites the entire backing file via temp-file-plus-rename, matching
// the content store's atomicity guarantee. The caller must hold r.mu.
func (r *Registry) save() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("registry: creating parent dir: %w", err)
	}

	data, err := json.MarshalIndent(r.files, "", "  ")
	if err != nil {
		return fmt.Errorf("registry: marshaling: %w", err)
	}

	tempPath := fmt.Sprintf("%s.tmp_%d_%d", r.path, os.Getpid(), r.nonce.Add(1))
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("registry: writing temp file: %w", err)
	}
	if err := os.Rename(tempPath, r.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("registry: renaming into place: %w", err)
	}
	return nil
}
