package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// indexEntry is the per-crate record in the machine-readable index.
type indexEntry struct {
	Name       string   `yaml:"name"`
	Version    string   `yaml:"version"`
	GitRef     string   `yaml:"git_ref"`
	IsFallback bool     `yaml:"is_fallback,omitempty"`
	SourceKind string   `yaml:"source_kind,omitempty"`
	Files      []string `yaml:"files"`
	AINotes    string   `yaml:"ai_notes,omitempty"`
}

type indexFile struct {
	GeneratedBy string       `yaml:"generated_by"`
	Crates      []indexEntry `yaml:"crates"`
}

// WriteIndex regenerates the cache index after a sync pass: _index.md
// for humans and agents browsing the tree, _index.yaml for tooling.
// Both cover exactly the crates present after the pass, sorted by name.
func (s *Store) WriteIndex(saved []SavedCrate) error {
	sorted := make([]SavedCrate, len(saved))
	copy(sorted, saved)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir %s: %w", s.Dir, err)
	}

	var md strings.Builder
	md.WriteString("# Rust crate documentation\n\n")
	md.WriteString("Version-pinned documentation synced by ai-fdocs. Do not edit by hand.\n\n")
	for _, crate := range sorted {
		fmt.Fprintf(&md, "## %s@%s\n\n", crate.Name, crate.Version)
		if crate.IsFallback {
			fmt.Fprintf(&md, "Fetched from branch `%s` (no matching version tag).\n\n", crate.GitRef)
		}
		if crate.AINotes != "" {
			fmt.Fprintf(&md, "%s\n\n", crate.AINotes)
		}
		for _, file := range crate.Files {
			fmt.Fprintf(&md, "- [%s](%s@%s/%s)\n", file, crate.Name, crate.Version, file)
		}
		md.WriteString("\n")
	}
	if err := os.WriteFile(filepath.Join(s.Dir, "_index.md"), []byte(md.String()), 0o644); err != nil {
		return fmt.Errorf("writing _index.md: %w", err)
	}

	entries := make([]indexEntry, 0, len(sorted))
	for _, crate := range sorted {
		entries = append(entries, indexEntry{
			Name:       crate.Name,
			Version:    crate.Version,
			GitRef:     crate.GitRef,
			IsFallback: crate.IsFallback,
			SourceKind: crate.SourceKind,
			Files:      crate.Files,
			AINotes:    crate.AINotes,
		})
	}
	data, err := yaml.Marshal(indexFile{GeneratedBy: "ai-fdocs", Crates: entries})
	if err != nil {
		return fmt.Errorf("encoding _index.yaml: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir, "_index.yaml"), data, 0o644); err != nil {
		return fmt.Errorf("writing _index.yaml: %w", err)
	}
	return nil
}
