package sqlite

import (
	"log"
	"time"

	"github.com/aerialtv/aerial/internal/domain"
	"github.com/aerialtv/aerial/internal/infra/metrics"
)

// sanityCheck is one idempotent detect-then-repair routine. Checks are
// independent: a failure in one is logged and the rest still run. Running a
// check twice against already-clean data repairs nothing the second time.
type sanityCheck struct {
	name string
	run  func(c *Conn, fs domain.FileExists) (fixed int, err error)
}

// The duplicate repairs must run before the index repair: idx_indexer_id is
// unique and cannot be built over duplicate shows.
var sanityChecks = []sanityCheck{
	{"duplicate-shows", fixDuplicateShows},
	{"duplicate-episodes", fixDuplicateEpisodes},
	{"orphan-episodes", fixOrphanEpisodes},
	{"missing-indexes", fixMissingIndexes},
	{"unaired-episodes", fixUnairedEpisodes},
	{"null-episode-status", fixNullEpisodeStatus},
	{"invalid-airdates", fixInvalidAirdates},
	{"show-lang", fixShowLang},
	{"show-status-strings", fixShowStatusStrings},
	{"archived-composite", fixArchivedComposite},
	{"subtitle-references", fixSubtitleReferences},
	{"null-indexer-mappings", fixNullIndexerMappings},
}

// CheckResult is the outcome of one sanity check.
type CheckResult struct {
	Name  string `json:"name"`
	Fixed int    `json:"fixed"`
	Error string `json:"error,omitempty"`
}

// SanityCheck runs every repair routine once and reports what each one did.
// It is not version-gated: integrity violations come from normal runtime
// behavior (crashes mid-write, files deleted externally), not only from
// schema evolution. Failures are best-effort cleanup, never fatal.
func (d *DB) SanityCheck(fs domain.FileExists) []CheckResult {
	results := make([]CheckResult, 0, len(sanityChecks))
	for _, chk := range sanityChecks {
		fixed, err := chk.run(d.Conn, fs)
		res := CheckResult{Name: chk.name, Fixed: fixed}
		if err != nil {
			res.Error = err.Error()
			metrics.SanityFailures.WithLabelValues(chk.name).Inc()
			log.Printf("[sanity] %s failed: %v", chk.name, err)
		} else if fixed > 0 {
			metrics.SanityFixes.WithLabelValues(chk.name).Add(float64(fixed))
			log.Printf("[sanity] %s repaired %d rows", chk.name, fixed)
		}
		results = append(results, res)
	}
	return results
}

// ─── Ordinal Dates ──────────────────────────────────────────────────────────

// Airdates are stored as proleptic Gregorian ordinals (day 1 = 0001-01-01).
// Ordinal 1 doubles as the "unknown airdate" sentinel.
const (
	unixEpochOrdinal = 719163   // ordinal of 1970-01-01
	maxOrdinal       = 3652059  // ordinal of 9999-12-31
	airdateUnknown   = 1
)

func dayOrdinal(t time.Time) int64 {
	return t.Unix()/86400 + unixEpochOrdinal
}

// ─── Checks ─────────────────────────────────────────────────────────────────

var requiredIndexes = []struct {
	name   string
	create string
}{
	{"idx_indexer_id", "CREATE UNIQUE INDEX idx_indexer_id ON tv_shows (indexer_id)"},
	{"idx_showid", "CREATE INDEX idx_showid ON tv_episodes (showid)"},
	{"idx_sta_epi_air", "CREATE INDEX idx_sta_epi_air ON tv_episodes (status, episode, airdate)"},
	{"idx_sta_epi_sta_air", "CREATE INDEX idx_sta_epi_sta_air ON tv_episodes (season, episode, status, airdate)"},
	{"idx_status", "CREATE INDEX idx_status ON tv_episodes (status, season, episode, airdate)"},
	{"idx_tv_episodes_showid_airdate", "CREATE INDEX idx_tv_episodes_showid_airdate ON tv_episodes (showid, airdate)"},
}

func fixMissingIndexes(c *Conn, _ domain.FileExists) (int, error) {
	fixed := 0
	for _, idx := range requiredIndexes {
		has, err := c.HasIndex(idx.name)
		if err != nil {
			return fixed, err
		}
		if has {
			continue
		}
		log.Printf("[sanity] missing index %s, creating", idx.name)
		if _, err := c.Action(idx.create); err != nil {
			return fixed, err
		}
		fixed++
	}
	return fixed, nil
}

// fixDuplicateShows deletes all but one row per indexer ID. The exemplar is
// the row with the highest show_id; the tie-break is fixed so repeated runs
// pick the same survivor.
func fixDuplicateShows(c *Conn, _ domain.FileExists) (int, error) {
	dupes, err := c.Select(`SELECT indexer_id, COUNT(*) AS count FROM tv_shows
		GROUP BY indexer_id HAVING count > 1`)
	if err != nil {
		return 0, err
	}

	fixed := 0
	for _, dupe := range dupes {
		log.Printf("[sanity] duplicate show detected, indexer_id: %v count: %v",
			dupe["indexer_id"], dupe["count"])
		// IS instead of = so a NULL-keyed duplicate group still matches.
		n, err := c.Action(`DELETE FROM tv_shows WHERE indexer_id IS ?
			AND show_id <> (SELECT MAX(show_id) FROM tv_shows WHERE indexer_id IS ?)`,
			dupe["indexer_id"], dupe["indexer_id"])
		if err != nil {
			return fixed, err
		}
		fixed += int(n)
	}
	return fixed, nil
}

// fixDuplicateEpisodes deletes all but one row per (show, season, episode),
// keeping the highest episode_id.
func fixDuplicateEpisodes(c *Conn, _ domain.FileExists) (int, error) {
	dupes, err := c.Select(`SELECT showid, season, episode, COUNT(*) AS count FROM tv_episodes
		GROUP BY showid, season, episode HAVING count > 1`)
	if err != nil {
		return 0, err
	}

	fixed := 0
	for _, dupe := range dupes {
		log.Printf("[sanity] duplicate episode detected, showid: %v season: %v episode: %v",
			dupe["showid"], dupe["season"], dupe["episode"])
		n, err := c.Action(`DELETE FROM tv_episodes WHERE showid = ? AND season = ? AND episode = ?
			AND episode_id <> (SELECT MAX(episode_id) FROM tv_episodes
				WHERE showid = ? AND season = ? AND episode = ?)`,
			dupe["showid"], dupe["season"], dupe["episode"],
			dupe["showid"], dupe["season"], dupe["episode"])
		if err != nil {
			return fixed, err
		}
		fixed += int(n)
	}
	return fixed, nil
}

// fixOrphanEpisodes deletes episodes whose show no longer exists. The LEFT
// JOIN form is deliberate: NOT IN over a set containing a NULL indexer_id
// matches nothing, and nothing stops a show row from carrying one.
func fixOrphanEpisodes(c *Conn, _ domain.FileExists) (int, error) {
	n, err := c.Action(`DELETE FROM tv_episodes WHERE episode_id IN (
		SELECT e.episode_id FROM tv_episodes e
		LEFT JOIN tv_shows s ON e.showid = s.indexer_id
		WHERE s.indexer_id IS NULL)`)
	return int(n), err
}

// fixUnairedEpisodes resets SKIPPED/WANTED statuses on episodes that have
// not aired yet (future or sentinel airdate).
func fixUnairedEpisodes(c *Conn, _ domain.FileExists) (int, error) {
	today := dayOrdinal(time.Now())
	n, err := c.Action(`UPDATE tv_episodes SET status = ?
		WHERE (airdate > ? OR airdate = ?) AND status IN (?, ?) AND season > 0`,
		domain.StatusUnaired, today, airdateUnknown,
		domain.StatusSkipped, domain.StatusWanted)
	return int(n), err
}

// fixNullEpisodeStatus replaces NULL statuses with UNKNOWN instead of
// deleting the row, preserving referential integrity for history.
func fixNullEpisodeStatus(c *Conn, _ domain.FileExists) (int, error) {
	n, err := c.Action(
		"UPDATE tv_episodes SET status = ? WHERE status IS NULL", domain.StatusUnknown)
	return int(n), err
}

// fixInvalidAirdates recomputes out-of-domain airdates to the sentinel
// rather than deleting the episode.
func fixInvalidAirdates(c *Conn, _ domain.FileExists) (int, error) {
	n, err := c.Action(
		"UPDATE tv_episodes SET airdate = ? WHERE airdate >= ? OR airdate < 1",
		airdateUnknown, maxOrdinal)
	return int(n), err
}

// fixShowLang clears the bogus '0' language some importers wrote.
func fixShowLang(c *Conn, _ domain.FileExists) (int, error) {
	n, err := c.Action("UPDATE tv_shows SET lang = '' WHERE lang = 0 OR lang = '0'")
	return int(n), err
}

// showStatusMap normalizes the free-form show status strings the various
// indexers report to the two canonical values. Matched case-insensitively;
// the map itself is frozen.
var showStatusMap = map[string]string{
	"returning series":  "Continuing",
	"canceled/ended":    "Ended",
	"tbd/on the bubble": "Continuing",
	"in development":    "Continuing",
	"new series":        "Continuing",
	"never aired":       "Ended",
	"final season":      "Continuing",
	"on hiatus":         "Continuing",
	"pilot ordered":     "Continuing",
	"pilot rejected":    "Ended",
	"canceled":          "Ended",
	"ended":             "Ended",
	"continuing":        "Continuing",
}

// fixShowStatusStrings rewrites indexer status strings to their canonical
// form. Rows already canonical are excluded so a clean store repairs zero.
func fixShowStatusStrings(c *Conn, _ domain.FileExists) (int, error) {
	fixed := 0
	for old, canonical := range showStatusMap {
		n, err := c.Action(
			"UPDATE tv_shows SET status = ? WHERE LOWER(status) = ? AND status <> ?",
			canonical, old, canonical)
		if err != nil {
			return fixed, err
		}
		fixed += int(n)
	}
	return fixed, nil
}

// fixArchivedComposite converts bare ARCHIVED statuses to the canonical
// composite form, reading quality from the on-disk file when present.
func fixArchivedComposite(c *Conn, fs domain.FileExists) (int, error) {
	return archivedToComposite(c, fs)
}

// archivedToComposite is shared between the sanity check and the final
// migration step: both must produce identical composites.
func archivedToComposite(c *Conn, fs domain.FileExists) (int, error) {
	rows, err := c.Select(`SELECT e.episode_id, e.location FROM tv_episodes e
		JOIN tv_shows s ON e.showid = s.indexer_id WHERE e.status = ?`,
		domain.StatusArchived)
	if err != nil {
		return 0, err
	}

	fixed := 0
	for _, row := range rows {
		location, _ := row["location"].(string)
		quality := domain.QualityUnknown
		if location != "" && fs(location) {
			quality = domain.QualityFromName(location)
		}
		status := domain.CompositeStatus(domain.StatusArchived, quality)
		log.Printf("[sanity] archiving episode %v at quality %d (location %q)",
			row["episode_id"], quality, location)
		if _, err := c.Action(
			"UPDATE tv_episodes SET status = ? WHERE episode_id = ?",
			status, row["episode_id"]); err != nil {
			return fixed, err
		}
		fixed++
	}
	return fixed, nil
}

// fixSubtitleReferences erases subtitle bookkeeping on episodes whose media
// file reference was deleted.
func fixSubtitleReferences(c *Conn, _ domain.FileExists) (int, error) {
	n, err := c.Action(`UPDATE tv_episodes
		SET subtitles = '', subtitles_searchcount = 0, subtitles_lastsearch = ''
		WHERE location = '' AND subtitles <> ''`)
	return int(n), err
}

// fixNullIndexerMappings removes mapping rows with an empty mapped ID.
func fixNullIndexerMappings(c *Conn, _ domain.FileExists) (int, error) {
	n, err := c.Action(
		"DELETE FROM indexer_mapping WHERE mindexer_id = '' OR mindexer_id IS NULL")
	return int(n), err
}
