package engine

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ai-fdocs/cargo-ai-fdocs/internal/config"
	"github.com/ai-fdocs/cargo-ai-fdocs/internal/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New(t.TempDir(), 200, log.New(io.Discard))
	s.Now = func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return s
}

func testConfig(crates ...string) *config.Config {
	cfg := &config.Config{
		Settings: config.Settings{
			OutputDir:       "unused",
			MaxFileSizeKB:   200,
			SyncConcurrency: 2,
			LatestTTLHours:  24,
		},
		Crates: map[string]config.CrateSpec{},
	}
	for _, name := range crates {
		cfg.Crates[name] = config.CrateSpec{Repo: "owner/" + name}
	}
	return cfg
}

func writeEntry(t *testing.T, s *store.Store, name, version, metaBody string) {
	t.Helper()
	dir := s.EntryDir(name, version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if metaBody != "" {
		if err := os.WriteFile(filepath.Join(dir, store.MetaFileName), []byte(metaBody), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func findStatus(t *testing.T, statuses []CrateStatus, name string) CrateStatus {
	t.Helper()
	for _, s := range statuses {
		if s.CrateName == name {
			return s
		}
	}
	t.Fatalf("no status for %s", name)
	return CrateStatus{}
}

func TestCollectStatusLockfileClassification(t *testing.T) {
	s := testStore(t)
	cfg := testConfig("ok", "fallback", "mismatch", "missing", "notinlock", "badtoml", "newschema", "noartifacts")

	writeEntry(t, s, "ok", "1.0.0",
		"schema_version = 1\nversion = \"1.0.0\"\ngit_ref = \"v1.0.0\"\nfetched_at = \"2024-06-01\"\nis_fallback = false\n")
	writeEntry(t, s, "fallback", "1.0.0",
		"schema_version = 1\nversion = \"1.0.0\"\ngit_ref = \"main\"\nfetched_at = \"2024-06-01\"\nis_fallback = true\n")
	writeEntry(t, s, "mismatch", "0.9.0",
		"schema_version = 1\nversion = \"0.9.0\"\ngit_ref = \"v0.9.0\"\nfetched_at = \"2024-06-01\"\nis_fallback = false\n")
	writeEntry(t, s, "missing", "1.0.0", "")
	writeEntry(t, s, "badtoml", "1.0.0", "schema_version = [broken\n")
	writeEntry(t, s, "newschema", "1.0.0",
		"schema_version = 2\nversion = \"1.0.0\"\ngit_ref = \"v1.0.0\"\nfetched_at = \"2024-06-01\"\nis_fallback = false\n")

	lockVersions := map[string]string{
		"ok": "1.0.0", "fallback": "1.0.0", "mismatch": "1.0.0",
		"missing": "1.0.0", "badtoml": "1.0.0", "newschema": "1.0.0",
		"noartifacts": "1.0.0",
	}

	statuses := CollectStatus(cfg, lockVersions, s)

	cases := []struct {
		name       string
		status     DocsStatus
		reasonCode string
	}{
		{"ok", StatusSynced, "lockfile_ok"},
		{"fallback", StatusSyncedFallback, "lockfile_fallback_branch"},
		{"mismatch", StatusOutdated, "lockfile_version_mismatch"},
		{"missing", StatusCorrupted, "meta_unreadable"},
		{"badtoml", StatusCorrupted, "meta_invalid_toml"},
		{"newschema", StatusCorrupted, "meta_schema_unsupported"},
		{"noartifacts", StatusMissing, "lockfile_missing_artifacts"},
		{"notinlock", StatusMissing, "lockfile_missing_crate"},
	}
	for _, c := range cases {
		got := findStatus(t, statuses, c.name)
		if got.Status != c.status || got.ReasonCode != c.reasonCode {
			t.Errorf("%s: got (%s, %s), want (%s, %s)", c.name, got.Status, got.ReasonCode, c.status, c.reasonCode)
		}
		if got.Mode != "lockfile" {
			t.Errorf("%s: mode = %q", c.name, got.Mode)
		}
	}

	if got := findStatus(t, statuses, "fallback"); got.SourceKind != "github_fallback" {
		t.Errorf("fallback source_kind = %q", got.SourceKind)
	}
}

func TestCollectStatusMetaVersionMismatch(t *testing.T) {
	s := testStore(t)
	cfg := testConfig("demo")

	// Directory named for the lock version, but metadata claims another.
	writeEntry(t, s, "demo", "1.0.0",
		"schema_version = 1\nversion = \"0.9.0\"\ngit_ref = \"v0.9.0\"\nfetched_at = \"2024-06-01\"\nis_fallback = false\n")

	statuses := CollectStatus(cfg, map[string]string{"demo": "1.0.0"}, s)
	got := findStatus(t, statuses, "demo")
	if got.Status != StatusOutdated || got.ReasonCode != "meta_version_mismatch" {
		t.Errorf("got (%s, %s)", got.Status, got.ReasonCode)
	}
	if got.DocsVersion != "0.9.0" {
		t.Errorf("docs version = %q, want 0.9.0", got.DocsVersion)
	}
}

func TestCollectStatusLatestClassification(t *testing.T) {
	s := testStore(t)
	cfg := testConfig("docsrs", "fallback", "absent")

	writeEntry(t, s, "docsrs", "1.0.0",
		"schema_version = 1\nversion = \"1.0.0\"\ngit_ref = \"https://docs.rs/crate/docsrs/1.0.0\"\nfetched_at = \"2024-06-01\"\nis_fallback = false\nsource_kind = \"docsrs\"\nupstream_checked_at = \"2024-06-01\"\n")
	writeEntry(t, s, "fallback", "1.0.0",
		"schema_version = 1\nversion = \"1.0.0\"\ngit_ref = \"main\"\nfetched_at = \"2024-06-01\"\nis_fallback = false\nsource_kind = \"github_fallback\"\n")

	statuses := CollectStatusLatest(context.Background(), cfg, s, nil)

	if got := findStatus(t, statuses, "docsrs"); got.Status != StatusSynced || got.ReasonCode != "latest_ok_docsrs" {
		t.Errorf("docsrs: got (%s, %s)", got.Status, got.ReasonCode)
	}
	if got := findStatus(t, statuses, "fallback"); got.Status != StatusSyncedFallback || got.ReasonCode != "latest_ok_fallback" {
		t.Errorf("fallback: got (%s, %s)", got.Status, got.ReasonCode)
	}
	if got := findStatus(t, statuses, "absent"); got.Status != StatusMissing || got.ReasonCode != "latest_missing_artifacts" {
		t.Errorf("absent: got (%s, %s)", got.Status, got.ReasonCode)
	}
	for _, item := range statuses {
		if item.Mode != "latest_docs" {
			t.Errorf("%s: mode = %q", item.CrateName, item.Mode)
		}
	}
}

func TestFormatStatusTableEmpty(t *testing.T) {
	table := FormatStatusTable(nil)

	for _, want := range []string{"Crate", "Lock Version", "Docs Version", "Status",
		"Total: 0 | Synced: 0 | Missing: 0 | Outdated: 0 | Corrupted: 0"} {
		if !strings.Contains(table, want) {
			t.Errorf("table missing %q:\n%s", want, table)
		}
	}
	if strings.Contains(table, "Hint:") {
		t.Error("healthy report should not print hints")
	}
}

func TestFormatStatusTableProblems(t *testing.T) {
	table := FormatStatusTable([]CrateStatus{
		{CrateName: "serde", LockVersion: "1.0.0", Status: StatusMissing, Reason: "no synced docs found for this crate", ReasonCode: "lockfile_missing_artifacts", Mode: "lockfile"},
	})

	if !strings.Contains(table, "Hint: run `ai-fdocs sync`") {
		t.Error("missing sync hint")
	}
	if !strings.Contains(table, "Problem details:") || !strings.Contains(table, "- serde [Missing]:") {
		t.Errorf("missing problem details:\n%s", table)
	}
}

func TestFormatStatusJSON(t *testing.T) {
	out, err := FormatStatusJSON([]CrateStatus{
		{CrateName: "axum", DocsVersion: "0.7.5", Status: StatusSynced, Reason: "up to date", ReasonCode: "lockfile_ok", Mode: "lockfile", SourceKind: "github"},
	})
	if err != nil {
		t.Fatalf("FormatStatusJSON: %v", err)
	}

	for _, want := range []string{
		`"crate_name": "axum"`,
		`"source_kind": "github"`,
		`"reason_code": "lockfile_ok"`,
		`"total": 1`,
		`"synced": 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("json missing %q:\n%s", want, out)
		}
	}
}

func TestSummarizeCountsFallbackAsSynced(t *testing.T) {
	summary := Summarize([]CrateStatus{
		{Status: StatusSynced},
		{Status: StatusSyncedFallback},
		{Status: StatusOutdated},
		{Status: StatusMissing},
		{Status: StatusCorrupted},
	})
	if summary.Synced != 2 || summary.Outdated != 1 || summary.Missing != 1 || summary.Corrupted != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if !summary.HasProblems() {
		t.Error("summary should report problems")
	}
}
