package address

import "testing"

func TestFromBytesDeterministic(t *testing.T) {
	data := []byte("hello world")
	a1 := FromBytes(data)
	a2 := FromBytes(data)
	if !a1.Equal(a2) {
		t.Errorf("expected deterministic address, got %s != %s", a1, a2)
	}

	a3 := FromBytes([]byte("different data"))
	if a1.Equal(a3) {
		t.Errorf("expected different data to produce different address")
	}
}

func TestHexRoundtrip(t *testing.T) {
	data := []byte("test data for roundtrip")
	addr := FromBytes(data)

	parsed, err := Parse(addr.String())
	if err != nil {
		t.Fatalf("parsing address: %v", err)
	}
	if !parsed.Equal(addr) {
		t.Errorf("roundtrip mismatch: %s != %s", parsed, addr)
	}
}

func TestDifferentAlgorithms(t *testing.T) {
	data := []byte("algorithm test")

	sha := FromBytesWithAlgorithm(data, SHA256)
	b3 := FromBytesWithAlgorithm(data, Blake3)

	if sha.Equal(b3) {
		t.Errorf("same data under different algorithms should not be equal")
	}
	if sha.Algorithm() != SHA256 {
		t.Errorf("expected sha256 algorithm tag")
	}
	if b3.Algorithm() != Blake3 {
		t.Errorf("expected blake3 algorithm tag")
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"too short hash", "sha256:" + hex64()[:62], ErrInvalidHashLength},
		{"unknown algorithm", "unknown:" + hex64(), ErrUnsupportedAlgorithm},
		{"no colon", "noformat", ErrInvalidFormat},
		{"too many colons", "sha256:aa:bb", ErrInvalidFormat},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse(c.input)
			if err != c.wantErr {
				t.Fatalf("expected %v, got %v", c.wantErr, err)
			}
		})
	}
}

func TestInvalidHashLength(t *testing.T) {
	addr := FromBytes([]byte("x"))
	s := addr.String()
	// Truncate the hex portion by one character so it no longer decodes to
	// exactly 32 bytes.
	truncated := s[:len(s)-1]
	_, err := Parse(truncated)
	if err != ErrInvalidHex && err != ErrInvalidHashLength {
		t.Errorf("expected hex or length error, got %v", err)
	}
}

func hex64() string {
	b := make([]byte, 64)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}
