// Package node implements the Node Facade: the top-level composition of a
// Chunker, Content Store, and File Registry behind a small state machine and
// a user-facing set of verbs.
package node

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"nebula/internal/address"
	"nebula/internal/chunk"
	"nebula/internal/nebulalog"
	"nebula/internal/registry"
	"nebula/internal/store"
)

// State is a node's lifecycle state.
type State int

const (
	Stopped State = iota
	Starting
	Running
	Stopping
	Error
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Error:
		return "error"
	default:
		return "stopped"
	}
}

// ErrNotRunning is returned by mutating verbs when the node is not Running.
var ErrNotRunning = errors.New("node: not running")

// Identity is the node's persistent identity, stable across restarts.
type Identity struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt uint64    `json:"created_at"`
}

// Config controls node construction.
type Config struct {
	// HomeDir is the root under which node_metadata.json and per-node
	// storage roots live. Defaults to "<user home>/.nebula".
	HomeDir       string
	ListenAddress string
	ListenPort    int
	LogLevel      nebulalog.Level
	DaemonMode    bool
	ChunkConfig   chunk.Config
}

func defaultHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".nebula")
}

// Node composes a Chunker (via the Content Store), a Content Store, and a
// File Registry into the user-facing verbs described by the on-disk layout
// under <home>/.nebula/.
type Node struct {
	mu sync.RWMutex

	identity Identity
	config   Config
	state    State

	storageRoot string
	store       *store.Store
	registry    *registry.Registry
	logger      nebulalog.Logger
}

// New creates or loads a node rooted at config.HomeDir (or the default
// "<home>/.nebula"), constructing its per-node storage root, Content Store,
// and File Registry idempotently.
func New(config Config) (*Node, error) {
	if config.HomeDir == "" {
		config.HomeDir = defaultHomeDir()
	}
	logger := nebulalog.New(config.LogLevel)

	if err := os.MkdirAll(config.HomeDir, 0o755); err != nil {
		return nil, fmt.Errorf("node: creating home dir: %w", err)
	}

	identity, err := loadOrCreateIdentity(config.HomeDir)
	if err != nil {
		return nil, fmt.Errorf("node: resolving identity: %w", err)
	}

	storageRoot := filepath.Join(config.HomeDir, "node"+identity.ID.String())
	contentRoot := filepath.Join(storageRoot, "content")

	if err := os.MkdirAll(storageRoot, 0o755); err != nil {
		return nil, fmt.Errorf("node: creating storage root: %w", err)
	}

	storeConfig := store.DefaultConfig(contentRoot)
	if config.ChunkConfig != (chunk.Config{}) {
		storeConfig.ChunkConfig = config.ChunkConfig
	}
	contentStore, err := store.New(storeConfig)
	if err != nil {
		return nil, fmt.Errorf("node: opening content store: %w", err)
	}

	fileRegistry, err := registry.Open(storageRoot)
	if err != nil {
		return nil, fmt.Errorf("node: opening file registry: %w", err)
	}

	logger.Infof("node: loaded identity %s (storage at %s)", identity.ID, storageRoot)

	return &Node{
		identity:    identity,
		config:      config,
		state:       Stopped,
		storageRoot: storageRoot,
		store:       contentStore,
		registry:    fileRegistry,
		logger:      logger,
	}, nil
}

func loadOrCreateIdentity(homeDir string) (Identity, error) {
	path := filepath.Join(homeDir, "node_metadata.json")

	data, err := os.ReadFile(path)
	if err == nil {
		var id Identity
		if jsonErr := json.Unmarshal(data, &id); jsonErr != nil {
			return Identity{}, fmt.Errorf("parsing %s: %w", path, jsonErr)
		}
		return id, nil
	}
	if !os.IsNotExist(err) {
		return Identity{}, fmt.Errorf("reading %s: %w", path, err)
	}

	id := Identity{ID: uuid.New(), CreatedAt: uint64(time.Now().Unix())}
	data, err = json.MarshalIndent(id, "", "  ")
	if err != nil {
		return Identity{}, fmt.Errorf("marshaling identity: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Identity{}, fmt.Errorf("writing %s: %w", path, err)
	}
	return id, nil
}

// Identity returns the node's persistent identity.
func (n *Node) Identity() Identity {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.identity
}

// State returns the node's current lifecycle state.
func (n *Node) State() State {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state
}

// Start transitions Stopped -> Starting -> Running.
func (n *Node) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state = Starting
	n.state = Running
	n.logger.Infof("node: started")
	return nil
}

// Stop transitions Running -> Stopping -> Stopped.
func (n *Node) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state = Stopping
	n.state = Stopped
	n.logger.Infof("node: stopped")
	return nil
}

// IsRunning reports whether the node is in the Running state.
func (n *Node) IsRunning() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state == Running
}

func (n *Node) requireRunning() error {
	if n.state != Running {
		return ErrNotRunning
	}
	return nil
}

// PutFile reads path, stores its chunked contents, and registers the result
// under its base name. Rejected when the node is not Running.
func (n *Node) PutFile(path string) (registry.FileMetadata, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.requireRunning(); err != nil {
		return registry.FileMetadata{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return registry.FileMetadata{}, fmt.Errorf("node: stat %s: %w", path, err)
	}

	addresses, err := n.store.PutFile(path)
	if err != nil {
		return registry.FileMetadata{}, fmt.Errorf("node: storing file %s: %w", path, err)
	}

	meta, err := n.registry.Register(filepath.Base(path), addresses, uint64(info.Size()))
	if err != nil {
		return registry.FileMetadata{}, fmt.Errorf("node: registering file %s: %w", path, err)
	}

	n.logger.Infof("node: put file %s as %s (%s)", path, meta.ShortID(), humanize.Bytes(meta.TotalSize))
	return meta, nil
}

// GetFileByID reconstructs the file registered under id into outputPath.
func (n *Node) GetFileByID(id uuid.UUID, outputPath string) error {
	n.mu.RLock()
	defer n.mu.RUnlock()

	meta, ok := n.registry.Get(id)
	if !ok {
		return &registry.ErrFileNotFound{ID: id}
	}
	return n.store.GetFile(meta.ChunkAddresses, outputPath)
}

// GetFileByShortID reconstructs the file whose short id matches shortID into
// outputPath.
func (n *Node) GetFileByShortID(shortID, outputPath string) error {
	n.mu.RLock()
	defer n.mu.RUnlock()

	meta, ok := n.registry.GetByShortID(shortID)
	if !ok {
		return fmt.Errorf("node: no file with short id %q", shortID)
	}
	return n.store.GetFile(meta.ChunkAddresses, outputPath)
}

// GetFileByAddresses reconstructs bytes directly from a chunk-address list,
// bypassing the registry.
func (n *Node) GetFileByAddresses(addresses []address.Address, outputPath string) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.store.GetFile(addresses, outputPath)
}

// ListFiles returns the metadata of every registered file.
func (n *Node) ListFiles() []registry.FileMetadata {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.registry.List()
}

// ListFilesVerbose renders one human-readable line per registered file,
// including size and relative registration time.
func (n *Node) ListFilesVerbose() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	files := n.registry.List()
	lines := make([]string, len(files))
	for i, m := range files {
		lines[i] = fmt.Sprintf("%s  %-30s %10s  %d chunks  %s",
			m.ShortID(), m.OriginalName, humanize.Bytes(m.TotalSize), m.ChunkCount, humanize.Time(m.CreatedTime()))
	}
	return lines
}

// ListContent returns every stored chunk's address.
func (n *Node) ListContent() ([]address.Address, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	entries, err := n.store.List()
	if err != nil {
		return nil, err
	}
	addrs := make([]address.Address, len(entries))
	for i, e := range entries {
		addrs[i] = e.Address
	}
	return addrs, nil
}

// ListContentVerbose renders one human-readable line per stored chunk.
func (n *Node) ListContentVerbose() ([]string, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	entries, err := n.store.List()
	if err != nil {
		return nil, err
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = fmt.Sprintf("%s  %10s  %s", e.Address, humanize.Bytes(uint64(e.Size)), humanize.Time(e.CreatedAt))
	}
	return lines, nil
}

// Stats summarizes the node's content store and registry.
type Stats struct {
	StoreStats   store.Stats
	FileCount    int
	RegistrySize uint64
}

// Stats returns a combined snapshot of the store and registry.
func (n *Node) Stats() (Stats, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	storeStats, err := n.store.Stats()
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		StoreStats:   storeStats,
		FileCount:    n.registry.Count(),
		RegistrySize: n.registry.TotalSize(),
	}, nil
}

// DetailedStatus renders a human-readable multi-line status report.
func (n *Node) DetailedStatus() (string, error) {
	n.mu.RLock()
	identity := n.identity
	state := n.state
	n.mu.RUnlock()

	stats, err := n.Stats()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"node:     %s\nstate:    %s\nstorage:  %s\nchunks:   %d (%s)\nfiles:    %d (%s)\ncreated:  %s",
		identity.ID, state, n.storageRoot,
		stats.StoreStats.TotalChunks, humanize.Bytes(stats.StoreStats.TotalSize),
		stats.FileCount, humanize.Bytes(stats.RegistrySize),
		humanize.Time(time.Unix(int64(identity.CreatedAt), 0)),
	), nil
}

// RunCommand dispatches a single CLI-style verb by name, for callers that
// want a uniform entry point rather than calling typed methods directly.
func (n *Node) RunCommand(name string, args []string) (string, error) {
	switch name {
	case "start":
		return "", n.Start()
	case "stop":
		return "", n.Stop()
	case "status":
		return n.DetailedStatus()
	default:
		return "", fmt.Errorf("node: unknown command %q", name)
	}
}
