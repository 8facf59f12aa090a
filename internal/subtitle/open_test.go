package subtitle

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenSRTFile(t *testing.T) {
	content := `1
00:00:01,000 --> 00:00:04,000
Hello, world!

2
00:00:05,500 --> 00:00:08,200
This is a test.
With multiple lines.

broken block
`
	tmpDir := t.TempDir()
	srtPath := filepath.Join(tmpDir, "test.srt")
	if err := os.WriteFile(srtPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	doc, err := Open(srtPath)
	if err != nil {
		t.Fatalf("failed to open SRT file: %v", err)
	}

	if doc.Format != FormatSRT {
		t.Errorf("expected format SRT, got %s", doc.Format)
	}
	if len(doc.Cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(doc.Cues))
	}
	if doc.Skipped != 1 {
		t.Errorf("expected 1 skipped block, got %d", doc.Skipped)
	}
	if doc.Cues[1].Text != "This is a test.\nWith multiple lines." {
		t.Errorf("cue 1: got %q", doc.Cues[1].Text)
	}
}

func TestOpenVTTFile(t *testing.T) {
	content := "WEBVTT\n\n00:00:01.000 --> 00:00:04.000\nHello, world!\n\n"

	tmpDir := t.TempDir()
	vttPath := filepath.Join(tmpDir, "test.VTT")
	if err := os.WriteFile(vttPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	doc, err := Open(vttPath)
	if err != nil {
		t.Fatalf("failed to open VTT file: %v", err)
	}
	if doc.Format != FormatVTT {
		t.Errorf("expected format VTT, got %s", doc.Format)
	}
	if len(doc.Cues) != 1 || doc.Cues[0].Text != "Hello, world!" {
		t.Errorf("unexpected cues: %+v", doc.Cues)
	}
}

func TestOpenASSFile(t *testing.T) {
	tmpDir := t.TempDir()
	assPath := filepath.Join(tmpDir, "test.ass")

	cues := []Cue{
		{Start: 1, End: 4.5, Text: "Hello from ASS"},
		{Start: 5, End: 8.25, Text: "Second line"},
	}
	w, err := NewWriter(FormatASS)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Write(cues, assPath); err != nil {
		t.Fatalf("failed to write ASS file: %v", err)
	}

	doc, err := Open(assPath)
	if err != nil {
		t.Fatalf("failed to open ASS file: %v", err)
	}
	if doc.Format != FormatASS {
		t.Errorf("expected format ASS, got %s", doc.Format)
	}
	if len(doc.Cues) != len(cues) {
		t.Fatalf("expected %d cues, got %d", len(cues), len(doc.Cues))
	}
	for i := range cues {
		if doc.Cues[i].Text != cues[i].Text {
			t.Errorf("cue %d text: got %q, want %q", i, doc.Cues[i].Text, cues[i].Text)
		}
		// ASS stores centiseconds
		if math.Abs(doc.Cues[i].Start-cues[i].Start) > 0.01 || math.Abs(doc.Cues[i].End-cues[i].End) > 0.01 {
			t.Errorf("cue %d timing: got %v --> %v", i, doc.Cues[i].Start, doc.Cues[i].End)
		}
	}
}

func TestOpenUnsupportedFormat(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	_, err := Open(path)
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), ".txt") {
		t.Errorf("error should name the extension: %v", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.srt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRead(t *testing.T) {
	doc, err := Read(helloWorldSRT, FormatSRT)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(doc.Cues) != 2 {
		t.Errorf("expected 2 cues, got %d", len(doc.Cues))
	}

	if _, err := Read("[Script Info]", FormatASS); err == nil {
		t.Error("expected error for non-text format")
	}
}
