package nebulalog

import "testing"

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"error":   LevelError,
		"warn":    LevelWarn,
		"info":    LevelInfo,
		"debug":   LevelDebug,
		"trace":   LevelTrace,
		"bogus":   LevelInfo,
		"":        LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLevelString(t *testing.T) {
	if LevelError.String() != "error" {
		t.Errorf("LevelError.String() = %q, want %q", LevelError.String(), "error")
	}
	if LevelTrace.String() != "trace" {
		t.Errorf("LevelTrace.String() = %q, want %q", LevelTrace.String(), "trace")
	}
}

func TestNewReturnsWorkingLogger(t *testing.T) {
	l := New(LevelDebug)
	// Exercises every level once; slogLogger filters internally and must not
	// panic regardless of whether the message is emitted.
	l.Errorf("err %d", 1)
	l.Warnf("warn %d", 2)
	l.Infof("info %d", 3)
	l.Debugf("debug %d", 4)
	l.Tracef("trace %d", 5)
}

func TestDefaultIsNoop(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() returned nil")
	}
	// noopLogger must tolerate calls with no configured backend.
	Default().Infof("should be discarded")
}

func TestSetDefault(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	custom := New(LevelWarn)
	SetDefault(custom)
	if Default() != custom {
		t.Error("SetDefault did not update the package default")
	}
}
