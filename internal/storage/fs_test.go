package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func tempProtocols(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempProtocols(t)
	content := []byte("1. sketch\n2. refine [[1]]\n")
	if err := s.Write("chair.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("chair.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempProtocols(t)
	if err := s.Write("studio/2024/kettle.md", []byte("1. boil")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "studio", "2024", "kettle.md")); err != nil {
		t.Fatalf("stat: %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := tempProtocols(t)
	_ = s.Write("del.md", []byte("1. gone"))
	if err := s.Delete("del.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("del.md"); err == nil {
		t.Error("expected error reading deleted file")
	}
}

func TestList_OnlyProtocolFiles(t *testing.T) {
	s := tempProtocols(t)
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("sub/b.md", []byte("b"))
	_ = s.Write("notes.txt", []byte("not a protocol"))
	_ = os.WriteFile(filepath.Join(s.Root(), ".linkograph-tmp-123.md"), []byte("partial"), 0o644)

	files, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	got := map[string]string{}
	for _, f := range files {
		got[f.Path] = f.Checksum
	}
	if len(got) != 2 {
		t.Fatalf("listed %v, want a.md and sub/b.md", got)
	}
	if _, ok := got["sub/b.md"]; !ok {
		t.Errorf("sub/b.md missing from %v", got)
	}
	if got["a.md"] == "" {
		t.Error("checksum not populated")
	}
}

func TestTraversalRejected(t *testing.T) {
	s := tempProtocols(t)
	for _, p := range []string{"../escape.md", "a/../../escape.md", "/etc/passwd"} {
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("Write(%q) should fail", p)
		}
		if _, err := s.Read(p); err == nil {
			t.Errorf("Read(%q) should fail", p)
		}
	}
}

func TestIsProtocolFile(t *testing.T) {
	cases := map[string]bool{
		"a.md":              true,
		"dir/b.md":          true,
		".hidden.md":        false,
		"readme.txt":        false,
		".linkograph-tmp-1": false,
	}
	for name, want := range cases {
		if got := IsProtocolFile(name); got != want {
			t.Errorf("IsProtocolFile(%q) = %v, want %v", name, got, want)
		}
	}
}
