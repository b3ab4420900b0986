// Package chunk implements content-defined and fixed-size chunking: pure
// functions from a byte buffer to an ordered sequence of (address, bytes)
// chunks whose concatenation reproduces the input exactly.
package chunk

import (
	"errors"
	"fmt"
	"hash/crc32"

	"nebula/internal/address"
)

// Mode selects the chunking strategy.
type Mode string

const (
	// ContentDefined splits on rolling-hash boundaries (FastCDC family).
	// Local edits to the input shift boundaries only locally, which is what
	// makes deduplication effective against edit-heavy workloads.
	ContentDefined Mode = "content_defined"
	// Fixed splits into consecutive slices of exactly TargetSize bytes (the
	// final slice may be shorter).
	Fixed Mode = "fixed"
)

// Config bounds the chunker's output sizes.
type Config struct {
	MinSize    int
	TargetSize int
	MaxSize    int
	Mode       Mode
}

// DefaultConfig mirrors the original source's default ChunkConfig sizes.
func DefaultConfig() Config {
	return Config{
		MinSize:    256 * 1024,
		TargetSize: 512 * 1024,
		MaxSize:    1024 * 1024,
		Mode:       ContentDefined,
	}
}

// ErrInvalidConfig is returned when 0 < MinSize <= TargetSize <= MaxSize does
// not hold.
var ErrInvalidConfig = errors.New("chunk: invalid config: require 0 < min <= target <= max")

func (c Config) validate() error {
	if c.MinSize <= 0 || c.MinSize > c.TargetSize || c.TargetSize > c.MaxSize {
		return ErrInvalidConfig
	}
	return nil
}

// Chunk is one slice of a larger input, paired with its content address.
type Chunk struct {
	Data    []byte
	Address address.Address
	// Checksum is a CRC32 of Data, computed alongside the chunk for callers
	// that want a cheap equality pre-check before falling back to the full
	// cryptographic digest. It is never persisted to disk.
	Checksum uint32
}

// Chunker splits byte buffers into chunks per its Config.
type Chunker struct {
	config Config
	cdc    *cdcChunker
}

// New creates a Chunker with the given config, validating the size bounds.
func New(config Config) (*Chunker, error) {
	if config.Mode == "" {
		config.Mode = ContentDefined
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	c := &Chunker{config: config}
	if config.Mode == ContentDefined {
		c.cdc = newCDCChunker(config)
	}
	return c, nil
}

// Config returns the chunker's configuration.
func (c *Chunker) Config() Config {
	return c.config
}

// Chunk splits data into an ordered sequence of chunks. Concatenating
// Data across the result reproduces data exactly; empty input yields an
// empty, non-nil slice.
func (c *Chunker) Chunk(data []byte) []Chunk {
	if len(data) == 0 {
		return []Chunk{}
	}

	var slices [][]byte
	switch c.config.Mode {
	case Fixed:
		slices = splitFixed(data, c.config.TargetSize)
	default:
		slices = c.cdc.split(data)
	}

	chunks := make([]Chunk, len(slices))
	for i, s := range slices {
		chunks[i] = Chunk{Data: s, Address: address.FromBytes(s), Checksum: crc32.ChecksumIEEE(s)}
	}
	return chunks
}

// splitFixed partitions data into consecutive slices of exactly size bytes,
// with a possibly-shorter final slice.
func splitFixed(data []byte, size int) [][]byte {
	var out [][]byte
	for i := 0; i < len(data); i += size {
		end := i + size
		if end > len(data) {
			end = len(data)
		}
		out = append(out, data[i:end])
	}
	return out
}

// String renders the chunker's mode and bounds for logging.
func (c Config) String() string {
	return fmt.Sprintf("mode=%s min=%d target=%d max=%d", c.Mode, c.MinSize, c.TargetSize, c.MaxSize)
}
