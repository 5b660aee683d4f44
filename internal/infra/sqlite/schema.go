package sqlite

// Base schema for a brand-new store. Created at schema version 42.0; the
// step chain carries it the rest of the way to MaxSchemaVersion, so fresh
// and upgraded stores travel the same final path.
const baseSchemaVersion = 42

var baseSchema = []string{
	`CREATE TABLE db_version (db_version INTEGER)`,
	`CREATE TABLE info (last_backlog NUMERIC, last_indexer NUMERIC, last_proper_search NUMERIC)`,
	`CREATE TABLE history (action NUMERIC, date NUMERIC, showid NUMERIC, season NUMERIC,
		episode NUMERIC, quality NUMERIC, resource TEXT, provider TEXT, version NUMERIC DEFAULT -1)`,
	`CREATE TABLE imdb_info (indexer_id INTEGER PRIMARY KEY, imdb_id TEXT, title TEXT,
		year NUMERIC, akas TEXT, runtimes NUMERIC, genres TEXT, countries TEXT,
		country_codes TEXT, certificates TEXT, rating TEXT, votes INTEGER, last_update NUMERIC)`,
	`CREATE TABLE tv_shows (show_id INTEGER PRIMARY KEY, indexer_id NUMERIC, indexer NUMERIC,
		show_name TEXT, location TEXT, network TEXT, genre TEXT, classification TEXT,
		runtime NUMERIC, quality NUMERIC, airs TEXT, status TEXT, flatten_folders NUMERIC,
		paused NUMERIC, startyear NUMERIC, air_by_date NUMERIC, lang TEXT, subtitles NUMERIC,
		notify_list TEXT, imdb_id TEXT, last_update_indexer NUMERIC, dvdorder NUMERIC,
		rls_require_words TEXT, rls_ignore_words TEXT, sports NUMERIC, anime NUMERIC,
		scene NUMERIC, default_ep_status NUMERIC DEFAULT -1)`,
	`CREATE TABLE tv_episodes (episode_id INTEGER PRIMARY KEY, showid NUMERIC,
		indexerid INTEGER, indexer INTEGER, name TEXT, season NUMERIC, episode NUMERIC,
		description TEXT, airdate NUMERIC, hasnfo NUMERIC, hastbn NUMERIC, status NUMERIC,
		location TEXT, file_size NUMERIC, release_name TEXT, subtitles TEXT,
		subtitles_searchcount NUMERIC, subtitles_lastsearch TIMESTAMP, is_proper NUMERIC,
		scene_season NUMERIC, scene_episode NUMERIC, absolute_number NUMERIC,
		scene_absolute_number NUMERIC, version NUMERIC DEFAULT -1, release_group TEXT)`,
	`CREATE TABLE indexer_mapping (indexer_id INTEGER, indexer INTEGER,
		mindexer_id INTEGER, mindexer INTEGER)`,
	`CREATE UNIQUE INDEX idx_indexer_id ON tv_shows (indexer_id)`,
	`CREATE INDEX idx_showid ON tv_episodes (showid)`,
	`CREATE INDEX idx_sta_epi_air ON tv_episodes (status, episode, airdate)`,
	`CREATE INDEX idx_sta_epi_sta_air ON tv_episodes (season, episode, status, airdate)`,
	`CREATE INDEX idx_status ON tv_episodes (status, season, episode, airdate)`,
	`CREATE INDEX idx_tv_episodes_showid_airdate ON tv_episodes (showid, airdate)`,
}

// createBaseSchema builds the fresh-store schema and seeds the version
// ledger in one transaction.
func (d *DB) createBaseSchema() error {
	return d.Transaction(func(c *Conn) error {
		for _, stmt := range baseSchema {
			if _, err := c.Action(stmt); err != nil {
				return err
			}
		}
		_, err := c.Action("INSERT INTO db_version (db_version) VALUES (?)", baseSchemaVersion)
		return err
	})
}
