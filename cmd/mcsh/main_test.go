package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	if version == "" {
		t.Error("version should not be empty")
	}
}

func TestCommandsExist(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)

	for _, name := range []string{"simulate", "build"} {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
			}
		}
		if !found {
			t.Errorf("expected subcommand %q to exist", name)
		}
	}
}

func TestPersistentFlagsExist(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)

	for _, name := range []string{"word-width", "mem-size"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected persistent flag --%s to exist", name)
		}
	}
}

func TestSimulateEndToEnd(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "test.mcsh")
	if err := os.WriteFile(src, []byte(`
export fn answer() {
	return 40 + 2;
}
`), 0o644); err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"simulate", src, "answer"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("simulate failed: %v (stderr: %s)", err, errOut.String())
	}

	if !strings.Contains(out.String(), "answer() = 42") {
		t.Errorf("expected output to contain result line, got %q", out.String())
	}
}

func TestBuildWritesFunctionTree(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "test.mcsh")
	if err := os.WriteFile(src, []byte(`
export fn answer() {
	return 1;
}
`), 0o644); err != nil {
		t.Fatal(err)
	}
	outDirPath := filepath.Join(dir, "out")

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"build", src, "--out", outDirPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("build failed: %v (stderr: %s)", err, errOut.String())
	}

	if _, err := os.Stat(filepath.Join(outDirPath, "answer.mcfunction")); err != nil {
		t.Errorf("expected exported function file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDirPath, "mcsh_bootstrap.mcfunction")); err != nil {
		t.Errorf("expected bootstrap file: %v", err)
	}
}

func TestBasenameWithoutExt(t *testing.T) {
	cases := map[string]string{
		"foo.mcsh":          "foo",
		"/a/b/bar.mcsh":     "bar",
		"noext":             "noext",
	}
	for in, want := range cases {
		if got := basenameWithoutExt(in); got != want {
			t.Errorf("basenameWithoutExt(%q) = %q, want %q", in, got, want)
		}
	}
}
