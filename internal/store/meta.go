// Package store owns the on-disk documentation cache: one directory
// per crate@version under the rust output dir, with a metadata sidecar
// that records where the content came from.
package store

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// MetaFileName is the per-crate metadata sidecar. The leading dot keeps
// it out of the documentation file listing.
const MetaFileName = ".aifd-meta.toml"

// SchemaVersion is the newest metadata layout this build understands.
// Readers treat anything higher as written by a newer tool and refuse
// to interpret it.
const SchemaVersion = 1

// CrateMeta is the cache metadata sidecar for one crate@version
// directory.
type CrateMeta struct {
	SchemaVersion     int    `toml:"schema_version"`
	Version           string `toml:"version"`
	GitRef            string `toml:"git_ref"`
	FetchedAt         string `toml:"fetched_at"`
	IsFallback        bool   `toml:"is_fallback"`
	SourceKind        string `toml:"source_kind,omitempty"`
	UpstreamCheckedAt string `toml:"upstream_checked_at,omitempty"`
	Truncated         *bool  `toml:"truncated,omitempty"`
}

// MetaReadState distinguishes a missing or unreadable sidecar from one
// that exists but does not parse. Status reporting surfaces the two
// differently.
type MetaReadState int

const (
	MetaOK MetaReadState = iota
	MetaUnreadable
	MetaInvalid
)

// InspectMeta loads the metadata sidecar from a crate directory,
// reporting how far the read got. The caller still has to check
// SchemaVersion.
func InspectMeta(crateDir string) (CrateMeta, MetaReadState) {
	data, err := os.ReadFile(filepath.Join(crateDir, MetaFileName))
	if err != nil {
		return CrateMeta{}, MetaUnreadable
	}
	var meta CrateMeta
	if err := toml.Unmarshal(data, &meta); err != nil {
		return CrateMeta{}, MetaInvalid
	}
	return meta, MetaOK
}

// ReadMeta loads and parses the metadata sidecar from a crate
// directory. The bool reports whether a parseable sidecar existed.
func ReadMeta(crateDir string) (CrateMeta, bool) {
	meta, state := InspectMeta(crateDir)
	return meta, state == MetaOK
}

func writeMeta(crateDir string, meta CrateMeta) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(meta); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(crateDir, MetaFileName), buf.Bytes(), 0o644)
}

// DateFormat is the calendar-day resolution used for fetched_at and
// upstream_checked_at stamps.
const DateFormat = "2006-01-02"

// FreshWithin reports whether a fetched_at date stamp is younger than
// ttlHours, measuring from midnight UTC of the stamped day. Unparseable
// stamps count as stale.
func FreshWithin(fetchedAt string, ttlHours int, now time.Time) bool {
	day, err := time.ParseInLocation(DateFormat, fetchedAt, time.UTC)
	if err != nil {
		return false
	}
	return now.UTC().Sub(day) < time.Duration(ttlHours)*time.Hour
}
