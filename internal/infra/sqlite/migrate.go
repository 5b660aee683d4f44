package sqlite

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aerialtv/aerial/internal/domain"
	"github.com/aerialtv/aerial/internal/infra/backup"
	"github.com/aerialtv/aerial/internal/infra/metrics"
)

// step is one versioned transformation of the main store. Steps form a
// strict total order by target version; whether a step runs depends only on
// the ledger, so a partially failed run resumes deterministically.
type step struct {
	target domain.DBVersion
	name   string
	apply  func(c *Conn, fs domain.FileExists) error
}

// Order is important. Add new steps at the end of the list.
var mainSteps = []step{
	{domain.DBVersion{Major: 41}, "add-episode-versions", addEpisodeVersions},
	{domain.DBVersion{Major: 42}, "add-default-episode-status", addDefaultEpisodeStatus},
	{domain.DBVersion{Major: 43}, "retype-show-fields", retypeShowFields},
	{domain.DBVersion{Major: 44}, "add-minor-version", addMinorVersion},
	{domain.DBVersion{Major: 44, Minor: 1}, "add-proper-tags", addProperTags},
	{domain.DBVersion{Major: 44, Minor: 2}, "add-manually-searched", addManuallySearched},
	{domain.DBVersion{Major: 44, Minor: 3}, "add-info-hash", addInfoHash},
	{domain.DBVersion{Major: 44, Minor: 4}, "add-plot", addPlot},
	{domain.DBVersion{Major: 44, Minor: 5}, "add-resource-size", addResourceSize},
	{domain.DBVersion{Major: 44, Minor: 6}, "indexer-mapping-primary-key", indexerMappingPrimaryKey},
	{domain.DBVersion{Major: 44, Minor: 7}, "retype-episode-indexer", retypeEpisodeIndexer},
	{domain.DBVersion{Major: 44, Minor: 8}, "recode-archived-status", recodeArchivedStatus},
}

// Migrate brings the store from its current schema version to
// MaxSchemaVersion, one backed-up step at a time. Each step runs in its own
// transaction with the ledger update as its last action, so a crash mid-run
// resumes at the first unapplied step, never re-running a completed one.
//
// fs is the filesystem probe used by status-recoding steps. It is consulted
// fresh on every run.
func (d *DB) Migrate(fs domain.FileExists) error {
	v, err := d.Version()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if v.IsZero() {
		log.Printf("[migrate] fresh store, creating base schema")
		if err := d.createBaseSchema(); err != nil {
			return fmt.Errorf("create base schema: %w", err)
		}
		v = domain.DBVersion{Major: baseSchemaVersion}
	}

	if MaxSchemaVersion.Less(v) {
		return fmt.Errorf(
			"store schema version %s is past what this build supports (%s); "+
				"refusing to touch it: %w", v, MaxSchemaVersion, domain.ErrVersionTooNew)
	}
	if v.Major < MinSchemaVersion.Major {
		return fmt.Errorf(
			"store schema version %s predates the oldest supported version (%s); "+
				"upgrade with an intermediate build first: %w", v, MinSchemaVersion, domain.ErrVersionTooOld)
	}

	if _, err := d.Action(`CREATE TABLE IF NOT EXISTS migration_log (
		run_id TEXT, step TEXT, from_version TEXT, to_version TEXT,
		applied_at TIMESTAMP DEFAULT (datetime('now')))`); err != nil {
		return fmt.Errorf("create migration log: %w", err)
	}

	runID := uuid.NewString()
	start := time.Now()

	for _, s := range mainSteps {
		if !v.Less(s.target) {
			continue
		}

		if _, err := backup.VersionedCopy(d.path, v.String()); err != nil {
			metrics.MigrationFailures.WithLabelValues("main").Inc()
			return fmt.Errorf("backup before step %q: %w", s.name, err)
		}
		metrics.BackupsWritten.WithLabelValues("main").Inc()

		log.Printf("[migrate] run %s: applying %q (%s -> %s)", runID, s.name, v, s.target)

		from := v
		err := d.Transaction(func(c *Conn) error {
			if err := s.apply(c, fs); err != nil {
				return err
			}
			if err := setVersion(c, s.target); err != nil {
				return err
			}
			_, err := c.Action(
				"INSERT INTO migration_log (run_id, step, from_version, to_version) VALUES (?, ?, ?, ?)",
				runID, s.name, from.String(), s.target.String())
			return err
		})
		if err != nil {
			metrics.MigrationFailures.WithLabelValues("main").Inc()
			return fmt.Errorf("step %q: %w", s.name, err)
		}

		metrics.MigrationStepsApplied.WithLabelValues("main").Inc()
		v = s.target
	}

	metrics.MigrationDuration.WithLabelValues("main").Observe(time.Since(start).Seconds())
	log.Printf("[migrate] store is current at %s", v)
	return nil
}

// ─── Steps ──────────────────────────────────────────────────────────────────

// 40 -> 41: episode and history rows grow release-version bookkeeping.
func addEpisodeVersions(c *Conn, _ domain.FileExists) error {
	if err := c.AddColumn("tv_episodes", "version", "NUMERIC", -1); err != nil {
		return err
	}
	if err := c.AddColumn("tv_episodes", "release_group", "TEXT", ""); err != nil {
		return err
	}
	return c.AddColumn("history", "version", "NUMERIC", -1)
}

// 41 -> 42: shows carry a default status for newly discovered episodes.
func addDefaultEpisodeStatus(c *Conn, _ domain.FileExists) error {
	return c.AddColumn("tv_shows", "default_ep_status", "NUMERIC", -1)
}

// 42 -> 43: rebuild tv_shows with numeric field types. Re-entrant: a stale
// tmp table from an aborted attempt is dropped first.
func retypeShowFields(c *Conn, _ domain.FileExists) error {
	stmts := []string{
		"DROP TABLE IF EXISTS tmp_tv_shows",
		"ALTER TABLE tv_shows RENAME TO tmp_tv_shows",
		`CREATE TABLE tv_shows (show_id INTEGER PRIMARY KEY, indexer_id NUMERIC, indexer NUMERIC,
			show_name TEXT, location TEXT, network TEXT, genre TEXT, classification TEXT,
			runtime NUMERIC, quality NUMERIC, airs TEXT, status TEXT, flatten_folders NUMERIC,
			paused NUMERIC, startyear NUMERIC, air_by_date NUMERIC, lang TEXT, subtitles NUMERIC,
			notify_list TEXT, imdb_id TEXT, last_update_indexer NUMERIC, dvdorder NUMERIC,
			rls_require_words TEXT, rls_ignore_words TEXT, sports NUMERIC, anime NUMERIC,
			scene NUMERIC, default_ep_status NUMERIC)`,
		"INSERT INTO tv_shows SELECT * FROM tmp_tv_shows",
		"DROP TABLE tmp_tv_shows",
	}
	for _, stmt := range stmts {
		if _, err := c.Action(stmt); err != nil {
			return err
		}
	}
	return nil
}

// 43 -> 44: the ledger itself learns minor versions.
func addMinorVersion(c *Conn, _ domain.FileExists) error {
	return c.AddColumn("db_version", "db_minor_version", "NUMERIC", nil)
}

// 44.0 -> 44.1: history grows proper_tags, backfilled from release names for
// old snatch/proper actions. One malformed row never aborts the step.
func addProperTags(c *Conn, _ domain.FileExists) error {
	if err := c.AddColumn("history", "proper_tags", "TEXT", ""); err != nil {
		return err
	}

	rows, err := c.Select(`SELECT rowid, resource FROM history
		WHERE (proper_tags IS NULL OR proper_tags = '')
		AND (CAST(action AS TEXT) LIKE '%2' OR CAST(action AS TEXT) LIKE '%9')
		AND (resource LIKE '%REPACK%' OR resource LIKE '%PROPER%' OR resource LIKE '%REAL%')`)
	if err != nil {
		return err
	}

	for _, row := range rows {
		resource, ok := row["resource"].(string)
		if !ok {
			log.Printf("[migrate] skipping history row %v: resource is not text", row["rowid"])
			continue
		}
		tags := properTags(resource)
		if tags == "" {
			continue
		}
		if _, err := c.Action(
			"UPDATE history SET proper_tags = ? WHERE rowid = ?", tags, row["rowid"]); err != nil {
			return err
		}
	}
	return nil
}

// properTags extracts the proper tags from a release name in a fixed order
// so repeated backfills produce identical values.
func properTags(resource string) string {
	upper := strings.ToUpper(resource)
	var tags []string
	for _, tag := range []string{"PROPER", "REPACK", "REAL"} {
		if strings.Contains(upper, tag) {
			tags = append(tags, tag)
		}
	}
	return strings.Join(tags, "|")
}

// 44.1 -> 44.2.
func addManuallySearched(c *Conn, _ domain.FileExists) error {
	if err := c.AddColumn("history", "manually_searched", "NUMERIC", 0); err != nil {
		return err
	}
	return c.AddColumn("tv_episodes", "manually_searched", "NUMERIC", 0)
}

// 44.2 -> 44.3.
func addInfoHash(c *Conn, _ domain.FileExists) error {
	return c.AddColumn("history", "info_hash", "TEXT", nil)
}

// 44.3 -> 44.4.
func addPlot(c *Conn, _ domain.FileExists) error {
	if err := c.AddColumn("imdb_info", "plot", "TEXT", nil); err != nil {
		return err
	}
	return c.AddColumn("tv_shows", "plot", "TEXT", nil)
}

// 44.4 -> 44.5.
func addResourceSize(c *Conn, _ domain.FileExists) error {
	return c.AddColumn("history", "size", "NUMERIC", -1)
}

// 44.5 -> 44.6: indexer_mapping gains a compound primary key by rebuild.
// The full copy preserves every surviving row; a stale new_ table from an
// aborted attempt is dropped first.
func indexerMappingPrimaryKey(c *Conn, _ domain.FileExists) error {
	stmts := []string{
		"DROP TABLE IF EXISTS new_indexer_mapping",
		`CREATE TABLE new_indexer_mapping (indexer_id INTEGER, indexer INTEGER,
			mindexer_id INTEGER, mindexer INTEGER,
			PRIMARY KEY (indexer_id, indexer, mindexer))`,
		"INSERT OR IGNORE INTO new_indexer_mapping SELECT * FROM indexer_mapping",
		"DROP TABLE indexer_mapping",
		"ALTER TABLE new_indexer_mapping RENAME TO indexer_mapping",
	}
	for _, stmt := range stmts {
		if _, err := c.Action(stmt); err != nil {
			return err
		}
	}
	return nil
}

// 44.6 -> 44.7: rebuild tv_episodes with INTEGER indexer columns.
func retypeEpisodeIndexer(c *Conn, _ domain.FileExists) error {
	stmts := []string{
		"DROP TABLE IF EXISTS new_tv_episodes",
		`CREATE TABLE new_tv_episodes (episode_id INTEGER PRIMARY KEY, showid NUMERIC,
			indexerid INTEGER, indexer INTEGER, name TEXT, season NUMERIC, episode NUMERIC,
			description TEXT, airdate NUMERIC, hasnfo NUMERIC, hastbn NUMERIC, status NUMERIC,
			location TEXT, file_size NUMERIC, release_name TEXT, subtitles TEXT,
			subtitles_searchcount NUMERIC, subtitles_lastsearch TIMESTAMP, is_proper NUMERIC,
			scene_season NUMERIC, scene_episode NUMERIC, absolute_number NUMERIC,
			scene_absolute_number NUMERIC, version NUMERIC DEFAULT -1, release_group TEXT,
			manually_searched NUMERIC)`,
		"INSERT INTO new_tv_episodes SELECT * FROM tv_episodes",
		"DROP TABLE tv_episodes",
		"ALTER TABLE new_tv_episodes RENAME TO tv_episodes",
	}
	for _, stmt := range stmts {
		if _, err := c.Action(stmt); err != nil {
			return err
		}
	}
	return nil
}

// 44.7 -> 44.8: bare ARCHIVED statuses become composite. The quality half
// comes from the file on disk when it still exists; the probe runs fresh on
// every invocation since the answer may legitimately change between runs.
func recodeArchivedStatus(c *Conn, fs domain.FileExists) error {
	_, err := archivedToComposite(c, fs)
	return err
}
