package chunk

import (
	"bytes"
	"hash/crc32"
	"testing"

	"nebula/internal/address"
)

func concat(chunks []Chunk) []byte {
	var buf bytes.Buffer
	for _, c := range chunks {
		buf.Write(c.Data)
	}
	return buf.Bytes()
}

func TestChunkEmptyInput(t *testing.T) {
	c, err := New(Config{MinSize: 4, TargetSize: 8, MaxSize: 16, Mode: ContentDefined})
	if err != nil {
		t.Fatalf("new chunker: %v", err)
	}
	chunks := c.Chunk(nil)
	if len(chunks) != 0 {
		t.Errorf("expected zero chunks for empty input, got %d", len(chunks))
	}
}

func TestChunkRoundtripFixed(t *testing.T) {
	c, err := New(Config{MinSize: 10, TargetSize: 50, MaxSize: 100, Mode: Fixed})
	if err != nil {
		t.Fatalf("new chunker: %v", err)
	}
	data := bytes.Repeat([]byte{42}, 150)
	chunks := c.Chunk(data)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 fixed chunks of 50 bytes, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if len(ch.Data) != 50 {
			t.Errorf("chunk %d: expected 50 bytes, got %d", i, len(ch.Data))
		}
	}
	if !bytes.Equal(concat(chunks), data) {
		t.Errorf("concatenation does not reproduce input")
	}
}

func TestChunkRoundtripCDC(t *testing.T) {
	c, err := New(Config{MinSize: 32, TargetSize: 256, MaxSize: 1024, Mode: ContentDefined})
	if err != nil {
		t.Fatalf("new chunker: %v", err)
	}

	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 500)
	chunks := c.Chunk(data)

	if !bytes.Equal(concat(chunks), data) {
		t.Errorf("CDC concatenation does not reproduce input")
	}
	for i, ch := range chunks {
		if len(ch.Data) > 1024 {
			t.Errorf("chunk %d exceeds max size: %d", i, len(ch.Data))
		}
		if i < len(chunks)-1 && len(ch.Data) < 32 {
			t.Errorf("non-final chunk %d below min size: %d", i, len(ch.Data))
		}
		if !ch.Address.Equal(address.FromBytes(ch.Data)) {
			t.Errorf("chunk %d address does not match its data", i)
		}
	}
}

func TestChunkShorterThanMinSize(t *testing.T) {
	c, err := New(Config{MinSize: 1000, TargetSize: 2000, MaxSize: 4000, Mode: ContentDefined})
	if err != nil {
		t.Fatalf("new chunker: %v", err)
	}
	data := []byte("short input, well under min size")
	chunks := c.Chunk(data)
	if len(chunks) != 1 {
		t.Fatalf("expected exactly one chunk for sub-min-size input, got %d", len(chunks))
	}
	if !bytes.Equal(chunks[0].Data, data) {
		t.Errorf("single chunk should equal full input")
	}
}

func TestChunkDeterministic(t *testing.T) {
	c, err := New(Config{MinSize: 32, TargetSize: 256, MaxSize: 1024, Mode: ContentDefined})
	if err != nil {
		t.Fatalf("new chunker: %v", err)
	}
	data := bytes.Repeat([]byte("deterministic boundary content "), 300)

	run1 := c.Chunk(data)
	run2 := c.Chunk(data)

	if len(run1) != len(run2) {
		t.Fatalf("expected identical chunk counts across runs, got %d vs %d", len(run1), len(run2))
	}
	for i := range run1 {
		if !run1[i].Address.Equal(run2[i].Address) {
			t.Errorf("chunk %d boundary differs across runs", i)
		}
	}
}

// TestChunkCDCLocality exercises the invariant that inserting bytes in the
// middle of a large input only perturbs chunk boundaries locally: the total
// number of distinct chunks across {chunks(X), chunks(X')} stays bounded.
func TestChunkCDCLocality(t *testing.T) {
	c, err := New(Config{MinSize: 256, TargetSize: 1024, MaxSize: 4096, Mode: ContentDefined})
	if err != nil {
		t.Fatalf("new chunker: %v", err)
	}

	base := bytes.Repeat([]byte("0123456789abcdef"), 1<<20/16) // 1 MiB
	original := c.Chunk(base)

	insertion := bytes.Repeat([]byte("X"), 64)
	edited := make([]byte, 0, len(base)+len(insertion))
	edited = append(edited, base[:500000]...)
	edited = append(edited, insertion...)
	edited = append(edited, base[500000:]...)
	modified := c.Chunk(edited)

	seen := make(map[string]bool)
	for _, ch := range original {
		seen[ch.Address.String()] = true
	}
	for _, ch := range modified {
		seen[ch.Address.String()] = true
	}
	distinct := len(seen)

	if distinct > len(original)+3 {
		t.Errorf("insertion perturbed too many chunks: %d distinct across both vs %d originals", distinct, len(original))
	}
}

func TestChunkChecksum(t *testing.T) {
	c, err := New(Config{MinSize: 10, TargetSize: 50, MaxSize: 100, Mode: Fixed})
	if err != nil {
		t.Fatalf("new chunker: %v", err)
	}
	data := bytes.Repeat([]byte{7}, 50)
	chunks := c.Chunk(data)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	want := crc32.ChecksumIEEE(data)
	if chunks[0].Checksum != want {
		t.Errorf("expected checksum %d, got %d", want, chunks[0].Checksum)
	}
}

func TestInvalidConfig(t *testing.T) {
	_, err := New(Config{MinSize: 100, TargetSize: 50, MaxSize: 10})
	if err != ErrInvalidConfig {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
