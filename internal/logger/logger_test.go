package logger

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	flags := log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	quiet, verbose := Quiet, Verbose
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
		Quiet, Verbose = quiet, verbose
	})
	return &buf
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name           string
		quiet, verbose bool
		want           []string
		notWant        []string
	}{
		{"default", false, false, []string{"info 1", "error 3"}, []string{"debug 2"}},
		{"verbose", false, true, []string{"info 1", "debug: debug 2", "error 3"}, nil},
		{"quiet", true, true, []string{"error: error 3"}, []string{"info 1", "debug 2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t)
			Quiet, Verbose = tt.quiet, tt.verbose
			Info("info %d", 1)
			Debug("debug %d", 2)
			Error("error %d", 3)
			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, prefix) || !strings.Contains(out, w) {
					t.Errorf("output %q: want %q", out, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("output %q: unexpected %q", out, w)
				}
			}
		})
	}
}
