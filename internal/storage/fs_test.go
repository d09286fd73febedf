package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestFSStorePutGet(t *testing.T) {
	base := filepath.Join(t.TempDir(), "blobs")
	s, err := NewFSStore(base)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	key := UploadKey(7, "abc")
	if key != "uploads/course-7/abc.xlsx" {
		t.Fatalf("key = %q", key)
	}
	if err := s.Put(ctx, key, strings.NewReader("first")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, key, strings.NewReader("second")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	rc, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "second" {
		t.Fatalf("content = %q", b)
	}

	entries, _ := os.ReadDir(filepath.Join(base, "uploads", "course-7"))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestFSStoreRejectsEscapingKeys(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, key := range []string{"", ".", "../x", "/abs", "a/../../b"} {
		if err := s.Put(context.Background(), key, strings.NewReader("x")); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("Put(%q) err = %v", key, err)
		}
	}
	if _, err := s.Get(context.Background(), "missing.xlsx"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing err = %v", err)
	}
}
