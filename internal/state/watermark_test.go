package state

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_LoadMissing(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "watermark"))

	_, err := s.Load()
	if !errors.Is(err, ErrNoWatermark) {
		t.Fatalf("expected ErrNoWatermark, got %v", err)
	}
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "watermark")
	s := NewFileStore(path)

	if err := s.Save("2024-01-01T00:00:00Z"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save("2024-02-01T10:30:00Z"); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != "2024-02-01T10:30:00Z" {
		t.Errorf("expected latest watermark, got %q", got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected no temporary files to remain, found %d entries", len(entries))
	}
}

func TestFileStore_ModTime(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "watermark"))

	if _, err := s.ModTime(); !errors.Is(err, ErrNoWatermark) {
		t.Fatalf("expected ErrNoWatermark before the first save, got %v", err)
	}
	if err := s.Save("2024-01-01T00:00:00Z"); err != nil {
		t.Fatal(err)
	}
	mt, err := s.ModTime()
	if err != nil {
		t.Fatalf("ModTime failed: %v", err)
	}
	if mt.IsZero() {
		t.Error("expected a modification time")
	}
}

func TestFileStore_SaveRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watermark")
	s := NewFileStore(path)

	if err := s.Save("yesterday"); err == nil {
		t.Fatal("expected an error for a malformed timestamp")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected no file to be written, stat returned %v", err)
	}
}

func TestFileStore_LoadTolerance(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr error
		anyErr  bool
	}{
		{name: "trailing newline", content: "2024-01-01T00:00:00Z\n", want: "2024-01-01T00:00:00Z"},
		{name: "surrounding space", content: "  2024-01-01T00:00:00Z  ", want: "2024-01-01T00:00:00Z"},
		{name: "empty file", content: "\n", wantErr: ErrNoWatermark},
		{name: "garbage", content: "not a time", anyErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "watermark")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			got, err := NewFileStore(path).Load()
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
			case tt.anyErr:
				if err == nil {
					t.Error("expected an error")
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tt.want {
					t.Errorf("expected %q, got %q", tt.want, got)
				}
			}
		})
	}
}

func TestValidate(t *testing.T) {
	for _, ts := range []string{"2024-01-01T00:00:00Z", "2024-01-01T00:00:00+02:00"} {
		if err := Validate(ts); err != nil {
			t.Errorf("Validate(%q) = %v", ts, err)
		}
	}
	for _, ts := range []string{"", "2024-01-01", "20240101000000"} {
		if err := Validate(ts); err == nil {
			t.Errorf("Validate(%q) succeeded, expected error", ts)
		}
	}
}
