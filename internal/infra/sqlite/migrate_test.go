package sqlite

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/aerialtv/aerial/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newMigratedDB(t *testing.T) *DB {
	t.Helper()
	db := newTestDB(t)
	if err := db.Migrate(neverOnDisk); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func neverOnDisk(string) bool { return false }

func count(t *testing.T, db *DB, query string, args ...any) int {
	t.Helper()
	rows, err := db.Select(query, args...)
	if err != nil {
		t.Fatalf("count query: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("count query returned %d rows", len(rows))
	}
	for _, v := range rows[0] {
		return intValue(v)
	}
	return 0
}

func TestFreshStoreMigratesToCurrent(t *testing.T) {
	db := newMigratedDB(t)

	v, err := db.Version()
	if err != nil {
		t.Fatal(err)
	}
	if v.Compare(MaxSchemaVersion) != 0 {
		t.Fatalf("fresh store migrated to %s, want %s", v, MaxSchemaVersion)
	}

	for _, table := range []string{
		"db_version", "info", "history", "imdb_info",
		"tv_shows", "tv_episodes", "indexer_mapping", "migration_log",
	} {
		has, err := db.HasTable(table)
		if err != nil {
			t.Fatal(err)
		}
		if !has {
			t.Errorf("table %s missing after migration", table)
		}
	}

	// Columns added by the chain, not the base schema.
	for _, col := range []struct{ table, column string }{
		{"history", "proper_tags"},
		{"history", "info_hash"},
		{"history", "size"},
		{"tv_episodes", "manually_searched"},
		{"tv_shows", "plot"},
		{"db_version", "db_minor_version"},
	} {
		has, err := db.HasColumn(col.table, col.column)
		if err != nil {
			t.Fatal(err)
		}
		if !has {
			t.Errorf("column %s.%s missing after migration", col.table, col.column)
		}
	}
}

func TestMigrateWritesAuditLog(t *testing.T) {
	db := newMigratedDB(t)

	// Fresh stores start at the base schema, so only the steps past it run:
	// 43.0, 44.0, and 44.1 through 44.8.
	if n := count(t, db, "SELECT COUNT(*) FROM migration_log"); n != 10 {
		t.Fatalf("migration_log has %d rows, want 10", n)
	}
	if n := count(t, db,
		"SELECT COUNT(DISTINCT run_id) FROM migration_log"); n != 1 {
		t.Fatalf("one run should share one run_id, got %d", n)
	}
	if n := count(t, db,
		"SELECT COUNT(*) FROM migration_log WHERE from_version = '42.0' AND to_version = '43.0'"); n != 1 {
		t.Fatal("missing 42.0 -> 43.0 audit row")
	}
}

func TestMigrateIdempotent(t *testing.T) {
	db := newMigratedDB(t)

	before := count(t, db, "SELECT COUNT(*) FROM migration_log")
	if err := db.Migrate(neverOnDisk); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if after := count(t, db, "SELECT COUNT(*) FROM migration_log"); after != before {
		t.Fatalf("second migrate applied steps: %d -> %d audit rows", before, after)
	}
}

func TestMigrateResumesFromIntermediateVersion(t *testing.T) {
	db := newMigratedDB(t)

	// Rewind the ledger as if a run died after 44.1. The steps from 44.2 on
	// must re-apply cleanly against the already-migrated shape.
	err := db.Transaction(func(c *Conn) error {
		return setVersion(c, domain.DBVersion{Major: 44, Minor: 1})
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := db.Migrate(neverOnDisk); err != nil {
		t.Fatalf("resume migrate: %v", err)
	}

	v, err := db.Version()
	if err != nil {
		t.Fatal(err)
	}
	if v.Compare(MaxSchemaVersion) != 0 {
		t.Fatalf("resumed store at %s, want %s", v, MaxSchemaVersion)
	}
}

func TestMigrateAbortsWhenBackupFails(t *testing.T) {
	db := newMigratedDB(t)

	before := domain.DBVersion{Major: 44, Minor: 7}
	err := db.Transaction(func(c *Conn) error {
		return setVersion(c, before)
	})
	if err != nil {
		t.Fatal(err)
	}

	// Exhaust every backup name for this version so the snapshot cannot be
	// written.
	occupy := db.Path() + ".v" + before.String()
	if err := os.WriteFile(occupy, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 100; i++ {
		if err := os.WriteFile(fmt.Sprintf("%s.%d", occupy, i), nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	if err := db.Migrate(neverOnDisk); err == nil {
		t.Fatal("migration ran without a backup")
	}

	v, err := db.Version()
	if err != nil {
		t.Fatal(err)
	}
	if v.Compare(before) != 0 {
		t.Fatalf("ledger moved to %s after aborted run, want %s", v, before)
	}
}

func TestMigrateRefusesNewerStore(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.Action("CREATE TABLE db_version (db_version INTEGER)"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Action("INSERT INTO db_version (db_version) VALUES (45)"); err != nil {
		t.Fatal(err)
	}

	err := db.Migrate(neverOnDisk)
	if !errors.Is(err, domain.ErrVersionTooNew) {
		t.Fatalf("migrate on newer store: %v, want ErrVersionTooNew", err)
	}
}

func TestMigrateRefusesAncientStore(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.Action("CREATE TABLE db_version (db_version INTEGER)"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Action("INSERT INTO db_version (db_version) VALUES (39)"); err != nil {
		t.Fatal(err)
	}

	err := db.Migrate(neverOnDisk)
	if !errors.Is(err, domain.ErrVersionTooOld) {
		t.Fatalf("migrate on ancient store: %v, want ErrVersionTooOld", err)
	}
}

func TestMigrateBacksUpBeforeEachStep(t *testing.T) {
	db := newMigratedDB(t)

	// The first applied step starts from the base version, so its backup
	// carries that label.
	backup := db.Path() + ".v42.0"
	if _, err := os.Stat(backup); err != nil {
		t.Fatalf("missing pre-step backup %s: %v", backup, err)
	}

	matches, err := filepath.Glob(db.Path() + ".v*")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 10 {
		t.Fatalf("found %d backups, want one per applied step (10)", len(matches))
	}
}

func TestProperTagsExtraction(t *testing.T) {
	cases := []struct {
		resource string
		want     string
	}{
		{"Show.S01E01.PROPER.720p.HDTV.x264", "PROPER"},
		{"Show.S01E01.REPACK.720p", "REPACK"},
		{"Show.S01E01.REAL.PROPER.720p", "PROPER|REAL"},
		{"show.s01e01.repack.real.proper", "PROPER|REPACK|REAL"},
		{"Show.S01E01.720p.HDTV", ""},
	}
	for _, tc := range cases {
		if got := properTags(tc.resource); got != tc.want {
			t.Errorf("properTags(%q) = %q, want %q", tc.resource, got, tc.want)
		}
	}
}

func TestProperTagsBackfill(t *testing.T) {
	db := newTestDB(t)
	if err := db.createBaseSchema(); err != nil {
		t.Fatal(err)
	}

	// action ...2 is a snatch, which qualifies for backfill; action ...4 does
	// not. The malformed NULL resource row must not abort the step.
	inserts := []struct {
		action   int
		resource any
	}{
		{402, "Show.S01E01.PROPER.720p.HDTV"},
		{402, "Show.S01E02.REPACK.REAL.720p"},
		{404, "Show.S01E03.PROPER.720p"},
		{402, nil},
	}
	for _, in := range inserts {
		if _, err := db.Action(
			"INSERT INTO history (action, resource) VALUES (?, ?)", in.action, in.resource); err != nil {
			t.Fatal(err)
		}
	}

	err := db.Transaction(func(c *Conn) error {
		return addProperTags(c, neverOnDisk)
	})
	if err != nil {
		t.Fatalf("proper-tags step: %v", err)
	}

	if n := count(t, db,
		"SELECT COUNT(*) FROM history WHERE proper_tags = 'PROPER'"); n != 1 {
		t.Fatalf("PROPER backfill count = %d, want 1", n)
	}
	if n := count(t, db,
		"SELECT COUNT(*) FROM history WHERE proper_tags = 'PROPER|REPACK|REAL'"); n != 1 {
		t.Fatalf("multi-tag backfill count = %d, want 1", n)
	}
	// The download action row keeps an empty tag set.
	if n := count(t, db,
		"SELECT COUNT(*) FROM history WHERE action = 404 AND proper_tags = ''"); n != 1 {
		t.Fatal("non-qualifying action was backfilled")
	}
}

func TestRetypeShowFieldsReentrant(t *testing.T) {
	db := newTestDB(t)
	if err := db.createBaseSchema(); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Action(
		"INSERT INTO tv_shows (show_id, indexer_id, show_name) VALUES (1, 100, 'Show')"); err != nil {
		t.Fatal(err)
	}

	// A stale tmp table from an aborted earlier attempt must not wedge the
	// rebuild.
	if _, err := db.Action("CREATE TABLE tmp_tv_shows (junk TEXT)"); err != nil {
		t.Fatal(err)
	}

	err := db.Transaction(func(c *Conn) error {
		return retypeShowFields(c, neverOnDisk)
	})
	if err != nil {
		t.Fatalf("retype step with stale tmp table: %v", err)
	}

	if n := count(t, db, "SELECT COUNT(*) FROM tv_shows WHERE indexer_id = 100"); n != 1 {
		t.Fatalf("show row lost in rebuild, count = %d", n)
	}
}

func TestIndexerMappingPrimaryKeyDropsDuplicates(t *testing.T) {
	db := newTestDB(t)
	if err := db.createBaseSchema(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := db.Action(
			"INSERT INTO indexer_mapping VALUES (100, 1, 200, 2)"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := db.Action(
		"INSERT INTO indexer_mapping VALUES (101, 1, 201, 2)"); err != nil {
		t.Fatal(err)
	}

	err := db.Transaction(func(c *Conn) error {
		return indexerMappingPrimaryKey(c, neverOnDisk)
	})
	if err != nil {
		t.Fatal(err)
	}

	if n := count(t, db, "SELECT COUNT(*) FROM indexer_mapping"); n != 2 {
		t.Fatalf("mapping rows after keyed rebuild = %d, want 2", n)
	}
}

func TestVersionLedger(t *testing.T) {
	db := newTestDB(t)

	v, err := db.Version()
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsZero() {
		t.Fatalf("fresh store version = %s, want zero", v)
	}

	if err := db.createBaseSchema(); err != nil {
		t.Fatal(err)
	}
	v, err = db.Version()
	if err != nil {
		t.Fatal(err)
	}
	if v.Major != baseSchemaVersion || v.Minor != 0 {
		t.Fatalf("base store version = %s", v)
	}

	// Before the minor column exists the ledger cannot record a minor.
	err = db.Transaction(func(c *Conn) error {
		return setVersion(c, domain.DBVersion{Major: 44, Minor: 1})
	})
	if err == nil {
		t.Fatal("recording a minor version without the minor column should fail")
	}

	err = db.Transaction(func(c *Conn) error {
		if err := addMinorVersion(c, nil); err != nil {
			return err
		}
		return setVersion(c, domain.DBVersion{Major: 44, Minor: 1})
	})
	if err != nil {
		t.Fatal(err)
	}
	v, err = db.Version()
	if err != nil {
		t.Fatal(err)
	}
	if v.Major != 44 || v.Minor != 1 {
		t.Fatalf("ledger read back %s, want 44.1", v)
	}
}

func TestAddColumnIdempotent(t *testing.T) {
	db := newTestDB(t)
	if err := db.createBaseSchema(); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := db.AddColumn("tv_shows", "plot", "TEXT", nil); err != nil {
			t.Fatalf("AddColumn run %d: %v", i+1, err)
		}
	}
	has, err := db.HasColumn("tv_shows", "plot")
	if err != nil {
		t.Fatal(err)
	}
	if !has {
		t.Fatal("column not added")
	}
}
