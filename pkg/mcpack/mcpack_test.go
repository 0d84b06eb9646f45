package mcpack_test

import (
	"archive/zip"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Fancyflame/mcsh/pkg/mcpack"
)

func TestPromptManifestGeneratesUUIDWhenBlank(t *testing.T) {
	in := strings.NewReader("My Pack\nA test pack\n\n")
	var out strings.Builder

	m, err := mcpack.PromptManifest(in, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Header.Name != "My Pack" {
		t.Errorf("name = %q, want %q", m.Header.Name, "My Pack")
	}
	if m.Header.Description != "A test pack" {
		t.Errorf("description = %q, want %q", m.Header.Description, "A test pack")
	}
	if m.Header.UUID == "" {
		t.Error("expected a generated UUID, got empty string")
	}
	if len(m.Modules) != 1 {
		t.Fatalf("expected exactly one module, got %d", len(m.Modules))
	}
	if m.Modules[0].UUID == m.Header.UUID {
		t.Error("module UUID must differ from header UUID")
	}
	if out.Len() == 0 {
		t.Error("expected prompts to be written to out")
	}
}

func TestPromptManifestKeepsSuppliedUUID(t *testing.T) {
	const wantID = "11111111-1111-1111-1111-111111111111"
	in := strings.NewReader("Pack\nDesc\n" + wantID + "\n")
	var out strings.Builder

	m, err := mcpack.PromptManifest(in, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Header.UUID != wantID {
		t.Errorf("uuid = %q, want %q", m.Header.UUID, wantID)
	}
}

func TestWriteManifestProducesValidJSON(t *testing.T) {
	dir := t.TempDir()
	m := mcpack.Manifest{
		FormatVersion: 2,
		Header: mcpack.ManifestHeader{
			Name:        "Pack",
			Description: "Desc",
			UUID:        "00000000-0000-0000-0000-000000000000",
			Version:     [3]int{1, 0, 0},
		},
		Modules: []mcpack.ManifestModule{
			{Type: "data", UUID: "00000000-0000-0000-0000-000000000001", Version: [3]int{1, 0, 0}},
		},
	}
	if err := mcpack.WriteManifest(dir, m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		t.Fatalf("expected manifest.json to exist: %v", err)
	}
	var roundTripped mcpack.Manifest
	if err := json.Unmarshal(data, &roundTripped); err != nil {
		t.Fatalf("manifest.json is not valid JSON: %v", err)
	}
	if roundTripped.Header.Name != "Pack" {
		t.Errorf("round-tripped name = %q, want %q", roundTripped.Header.Name, "Pack")
	}
}

func TestArchiveZipsDirectoryContents(t *testing.T) {
	srcDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(srcDir, "manifest.json"), []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(srcDir, "functions"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "functions", "test.mcfunction"), []byte("say hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	outFile := filepath.Join(t.TempDir(), "pack.mcpack")
	if err := mcpack.Archive(srcDir, outFile); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	zr, err := zip.OpenReader(outFile)
	if err != nil {
		t.Fatalf("expected a readable zip archive: %v", err)
	}
	defer zr.Close()

	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if !names["manifest.json"] {
		t.Errorf("expected manifest.json in archive, got %v", names)
	}
	if !names["functions/test.mcfunction"] {
		t.Errorf("expected functions/test.mcfunction in archive, got %v", names)
	}
}
