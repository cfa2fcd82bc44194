package lock

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeLock(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Cargo.lock")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveVersions(t *testing.T) {
	path := writeLock(t, `
version = 3

[[package]]
name = "serde"
version = "1.0.203"

[[package]]
name = "tokio"
version = "1.38.0"
`)

	versions, err := Resolve(path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if versions["serde"] != "1.0.203" {
		t.Errorf("serde = %q, want 1.0.203", versions["serde"])
	}
	if versions["tokio"] != "1.38.0" {
		t.Errorf("tokio = %q, want 1.38.0", versions["tokio"])
	}
}

func TestResolveMissingFile(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "Cargo.lock"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestResolveMissingPackageArray(t *testing.T) {
	path := writeLock(t, "version = 3\n")
	_, err := Resolve(path)
	if err == nil || !strings.Contains(err.Error(), "[[package]]") {
		t.Fatalf("err = %v, want missing [[package]] array", err)
	}
}

func TestResolveDuplicateLastWins(t *testing.T) {
	path := writeLock(t, `
[[package]]
name = "syn"
version = "1.0.109"

[[package]]
name = "syn"
version = "2.0.66"
`)

	versions, err := Resolve(path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if versions["syn"] != "2.0.66" {
		t.Errorf("syn = %q, want 2.0.66 (last record wins)", versions["syn"])
	}
}

func TestResolveInvalidTOML(t *testing.T) {
	path := writeLock(t, "[[package\n")
	if _, err := Resolve(path); err == nil {
		t.Fatal("expected parse error")
	}
}
