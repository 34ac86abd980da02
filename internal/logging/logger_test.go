package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStartupLogger_SkipsEmptyResources(t *testing.T) {
	s := NewStartupLogger("test").
		Resource("dynamoTables", "sessions", "").
		Resource("s3Buckets", "storyboard", "bucket-a")

	if _, ok := s.resources["dynamoTables"]; ok {
		t.Error("expected empty resource name to be skipped")
	}
	if got := s.resources["s3Buckets"]["storyboard"]; got != "bucket-a" {
		t.Errorf("expected bucket-a, got %q", got)
	}
}
