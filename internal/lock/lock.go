// Package lock resolves crate versions from a Cargo.lock file.
package lock

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ErrNotFound is returned when the lock file does not exist.
var ErrNotFound = errors.New("Cargo.lock not found; run 'cargo build' first")

type lockFile struct {
	Package []packageRecord `toml:"package"`
}

type packageRecord struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Resolve reads a Cargo.lock file and returns a crate name to version map.
// When the lock file pins multiple versions of the same crate, the last
// record wins.
func Resolve(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var lf lockFile
	if err := toml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if lf.Package == nil {
		return nil, fmt.Errorf("parsing %s: missing [[package]] array", path)
	}

	versions := make(map[string]string, len(lf.Package))
	for _, pkg := range lf.Package {
		versions[pkg.Name] = pkg.Version
	}
	return versions, nil
}
