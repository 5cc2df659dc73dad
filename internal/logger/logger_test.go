package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"
)

func TestNew_WithValidConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "valid json config stdout",
			config:  Config{Level: "debug", Format: "json", Output: "stdout"},
			wantErr: false,
		},
		{
			name:    "valid text config stderr",
			config:  Config{Level: "info", Format: "text", Output: "stderr"},
			wantErr: false,
		},
		{
			name:    "valid json config file",
			config:  Config{Level: "warn", Format: "json", Output: filepath.Join(t.TempDir(), "logs", "bot.log")},
			wantErr: false,
		},
		{
			name:    "invalid level",
			config:  Config{Level: "invalid", Format: "json", Output: "stdout"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			config:  Config{Level: "debug", Format: "xml", Output: "stdout"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && log == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestLogger_ErrorCarriesErrorField(t *testing.T) {
	var buf bytes.Buffer
	log := &Logger{
		slog:  slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
		level: slog.LevelDebug,
	}

	log.Error("save failed", errTest("disk full"), Field{Key: "path", Value: "data/a.json"})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log line: %v", err)
	}
	if entry["error"] != "disk full" {
		t.Errorf("error field = %v, want disk full", entry["error"])
	}
	if entry["path"] != "data/a.json" {
		t.Errorf("path field = %v", entry["path"])
	}
}

func TestMaskID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+12035442924", "+12*******24"},
		{"12345", "*****"},
		{"", ""},
		{"+1234567", "+12***67"},
	}

	for _, tt := range tests {
		if got := MaskID(tt.in); got != tt.want {
			t.Errorf("MaskID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLogger_UserFieldMasking(t *testing.T) {
	debug, err := New(Config{Level: "debug", Format: "text", Output: "stdout"})
	if err != nil {
		t.Fatal(err)
	}
	info, err := New(Config{Level: "info", Format: "text", Output: "stdout"})
	if err != nil {
		t.Fatal(err)
	}

	if got := debug.User("+12035442924").Value; got != "+12035442924" {
		t.Errorf("debug logger masked id: %v", got)
	}
	if got := info.User("+12035442924").Value; got != "+12*******24" {
		t.Errorf("info logger did not mask id: %v", got)
	}
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	log.Info("dropped")
	if log.DebugEnabled() {
		t.Error("nop logger should not report debug enabled")
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
