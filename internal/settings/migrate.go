package settings

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/aerialtv/aerial/internal/domain"
	"github.com/aerialtv/aerial/internal/infra/backup"
	"github.com/aerialtv/aerial/internal/infra/metrics"
	"github.com/aerialtv/aerial/internal/infra/sqlite"
	"github.com/aerialtv/aerial/internal/secrets"
)

// ConfigVersion is the config layout this build writes. The chain below
// carries any older layout forward; a newer layout aborts startup.
const ConfigVersion = 10

// configStep is one versioned transformation of the config store. Versions
// are a flat integer sequence: step N produces layout version N.
type configStep struct {
	version int
	name    string
	apply   func(m *migrator) error
}

var configSteps = []configStep{
	{1, "custom naming", (*migrator).migrateCustomNaming},
	{2, "sync backup number with version number", (*migrator).migrateNoop},
	{3, "rename omgwtfnzbs variables", (*migrator).migrateOmgwtfnzbs},
	{4, "add newznab cat_ids", (*migrator).migrateNewznabCatIDs},
	{5, "metadata update", (*migrator).migrateMetadataFormat},
	{6, "convert from XBMC to new KODI variables", (*migrator).migrateKodi},
	{7, "use version 2 for password encryption", (*migrator).migrateEncryptionV2},
	{8, "convert Plex setting keys", (*migrator).migratePlex},
	{9, "added setting enable_manualsearch for providers", (*migrator).migrateNoop},
	{10, "convert all csv config items to lists", (*migrator).migrateCSVToLists},
}

// migrator carries the mutable state of one config migration run: the file
// being upgraded and an optional main-store connection for steps that need a
// side lookup. No globals — every step reads and writes through here.
type migrator struct {
	file *File
	conn *sqlite.Conn
}

// MigrateFile runs every config migration step past the file's recorded
// version, backing the file up before each step and saving after. conn may
// be nil when the main store is not open (config-only runs); steps that
// need it degrade to their no-database behavior.
func MigrateFile(f *File, conn *sqlite.Conn) error {
	version := f.Int("General", "config_version", ConfigVersion)
	if version > ConfigVersion {
		return fmt.Errorf(
			"config version %d is past what this build supports (%d); "+
				"refusing to touch it: %w", version, ConfigVersion, domain.ErrVersionTooNew)
	}

	m := &migrator{file: f, conn: conn}

	for _, s := range configSteps {
		if s.version <= version {
			continue
		}

		if _, err := backup.VersionedCopy(f.path, strconv.Itoa(version)); err != nil {
			metrics.MigrationFailures.WithLabelValues("config").Inc()
			return fmt.Errorf("backup config before version %d: %w", s.version, err)
		}
		metrics.BackupsWritten.WithLabelValues("config").Inc()

		log.Printf("[settings] migrating config to version %d: %s", s.version, s.name)
		if err := s.apply(m); err != nil {
			metrics.MigrationFailures.WithLabelValues("config").Inc()
			return fmt.Errorf("config step %q: %w", s.name, err)
		}

		f.Set("General", "config_version", s.version)
		if err := f.Save(); err != nil {
			metrics.MigrationFailures.WithLabelValues("config").Inc()
			return fmt.Errorf("save config at version %d: %w", s.version, err)
		}

		metrics.MigrationStepsApplied.WithLabelValues("config").Inc()
		version = s.version
	}
	return nil
}

func (m *migrator) migrateNoop() error { return nil }

// ─── Version 1: Custom Naming ───────────────────────────────────────────────

// Episode-number tokens by legacy naming_ep_type index. The table is frozen:
// existing libraries were named with exactly these substitutions.
var namingEpTypeTokens = [4]string{"%Sx%0E", "s%0Se%0E", "S%0SE%0E", "%0Sx%0E"}

// Separator tokens by legacy naming_sep_type index.
var namingSepTokens = [2]string{" - ", " "}

const defaultABDPattern = "%SN - %A-D - %EN"

var whitespaceRe = regexp.MustCompile(`\s+`)

// migrateCustomNaming synthesizes a naming pattern string from the pile of
// legacy boolean/enum naming flags.
func (m *migrator) migrateCustomNaming() error {
	f := m.file

	pattern := m.nameToPattern(false)
	log.Printf("[settings] setting naming pattern from old settings: %s", pattern)

	customABD := f.Bool("General", "naming_dates", false)
	f.Set("General", "naming_custom_abd", customABD)
	if customABD {
		abd := m.nameToPattern(true)
		f.Set("General", "naming_abd_pattern", abd)
		log.Printf("[settings] adding custom air-by-date naming pattern: %s", abd)
	} else {
		f.Set("General", "naming_abd_pattern", defaultABDPattern)
	}

	f.Set("General", "naming_multi_ep", f.Int("General", "naming_multi_ep_type", 1))

	// Season folders: if any show kept them, fold the old season folder
	// format into the pattern; otherwise stop flattening everywhere.
	if m.conn != nil {
		rows, err := m.conn.Select(
			"SELECT indexer_id FROM tv_shows WHERE flatten_folders = 0 LIMIT 1")
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			oldFormat := f.Str("General", "season_folders_format", "Season %02d")
			if prefix, ok := seasonFormatToPattern(oldFormat); ok {
				log.Printf("[settings] prepending season folder format %q as %q", oldFormat, prefix)
				pattern = prefix + string(os.PathSeparator) + pattern
			} else {
				log.Printf("[settings] cannot convert season folder format %q", oldFormat)
			}
		} else {
			log.Printf("[settings] no shows were using season folders, disabling flattening on all shows")
			if _, err := m.conn.Action("UPDATE tv_shows SET flatten_folders = 0"); err != nil {
				return err
			}
		}
	}

	f.Set("General", "naming_pattern", pattern)
	f.Set("General", "naming_force_folders",
		strings.Contains(pattern, string(os.PathSeparator)))
	return nil
}

// nameToPattern concatenates the pattern from the legacy flags. With the
// period style every whitespace run collapses to a single dot.
func (m *migrator) nameToPattern(abd bool) string {
	f := m.file

	usePeriods := f.Bool("General", "naming_use_periods", false)
	epType := f.Int("General", "naming_ep_type", 0)
	sepType := f.Int("General", "naming_sep_type", 0)
	useQuality := f.Bool("General", "naming_quality", false)
	useShowName := f.Bool("General", "naming_show_name", true)
	useEpName := f.Bool("General", "naming_ep_name", true)

	if epType < 0 || epType >= len(namingEpTypeTokens) {
		log.Printf("[settings] naming_ep_type %d out of range, using 0", epType)
		epType = 0
	}
	if sepType < 0 || sepType >= len(namingSepTokens) {
		log.Printf("[settings] naming_sep_type %d out of range, using 0", sepType)
		sepType = 0
	}
	sep := namingSepTokens[sepType]

	showName, epName, epQuality, abdToken := "%SN", "%EN", "%QN", "%A-D"
	if usePeriods {
		showName, epName, epQuality, abdToken = "%S.N", "%E.N", "%Q.N", "%A.D"
	}

	epString := namingEpTypeTokens[epType]
	if abd {
		epString = abdToken
	}

	var b strings.Builder
	if useShowName {
		b.WriteString(showName)
		b.WriteString(sep)
	}
	b.WriteString(epString)
	if useEpName {
		b.WriteString(sep)
		b.WriteString(epName)
	}
	if useQuality {
		b.WriteString(sep)
		b.WriteString(epQuality)
	}

	pattern := b.String()
	if usePeriods {
		pattern = whitespaceRe.ReplaceAllString(pattern, ".")
	}
	return pattern
}

// seasonFormatToPattern converts a printf-style season folder format into
// pattern tokens by rendering it with season 9 and substituting back.
func seasonFormatToPattern(format string) (string, bool) {
	rendered := fmt.Sprintf(format, 9)
	if strings.Contains(rendered, "%!") {
		return "", false
	}
	rendered = strings.Replace(rendered, "09", "%0S", 1)
	rendered = strings.Replace(rendered, "9", "%S", 1)
	return rendered, true
}

// ─── Version 3: omgwtfnzbs Rename ───────────────────────────────────────────

func (m *migrator) migrateOmgwtfnzbs() error {
	f := m.file
	f.Set("omgwtfnzbs", "omgwtfnzbs_username", f.Str("omgwtfnzbs", "omgwtfnzbs_uid", ""))
	f.Set("omgwtfnzbs", "omgwtfnzbs_apikey", f.Str("omgwtfnzbs", "omgwtfnzbs_key", ""))
	return nil
}

// ─── Version 4: Newznab cat_ids ─────────────────────────────────────────────

// migrateNewznabCatIDs widens 4-field newznab descriptors with default
// category IDs. Entries with any other field count are logged and dropped —
// one malformed descriptor never aborts the step.
func (m *migrator) migrateNewznabCatIDs() error {
	old := m.file.Str("Newznab", "newznab_data", "")
	if old == "" {
		return nil
	}

	var upgraded []string
	for _, desc := range strings.Split(old, descriptorSep) {
		fields := strings.Split(desc, "|")
		if len(fields) != 4 {
			log.Printf("[settings] skipping newznab provider %q: incorrect format", desc)
			continue
		}
		p := NewznabProvider{
			Name: fields[0], URL: fields[1], Key: fields[2],
			Enabled: fields[3] == "1",
		}
		if p.Name == "Sick Beard Index" {
			p.Key = "0"
		}
		if p.Name == "NZBs.org" {
			p.CatIDs = "5030,5040,5060,5070,5090"
		} else {
			p.CatIDs = "5030,5040,5060"
		}
		upgraded = append(upgraded, p.Encode())
	}

	m.file.Set("Newznab", "newznab_data", strings.Join(upgraded, descriptorSep))
	return nil
}

// ─── Version 5: Metadata Format ─────────────────────────────────────────────

// metadataSlots is the new fixed width. Slot meanings, new layout:
// show meta, episode meta, fanart, poster, banner, episode thumb,
// season poster, season banner, season all poster, season all banner.
const metadataSlots = 10

var metadataKeys = []struct {
	key     string
	display string
}{
	{"metadata_xbmc", "XBMC"},
	{"metadata_xbmc_12plus", "XBMC 12+"},
	{"metadata_mediabrowser", "MediaBrowser"},
	{"metadata_ps3", "PS3"},
	{"metadata_wdtv", "WDTV"},
	{"metadata_tivo", "TIVO"},
	{"metadata_mede8er", "Mede8er"},
}

func (m *migrator) migrateMetadataFormat() error {
	useBanner := m.file.Bool("General", "use_banner", false)
	for _, mk := range metadataKeys {
		old := m.file.Str("General", mk.key, "0|0|0|0|0|0")
		m.file.Set("General", mk.key, upgradeMetadata(old, mk.display, useBanner))
	}
	return nil
}

// upgradeMetadata converts a 6-slot metadata string to the 10-slot layout:
// a zero slot is inserted at position 5 (banner) and three zero slots are
// appended, then the fanart and poster slots swap places. For the XBMC
// flavor only, a set use_banner flag moves the poster value into the banner
// slot — the documented literal behavior, kept as-is even though it encodes
// a historical workaround for one viewer.
//
// A 10-slot value passes through unchanged. Any other width is corrupt and
// is replaced with the all-zero default; that data loss is deliberate and
// logged.
func upgradeMetadata(value, display string, useBanner bool) string {
	slots := strings.Split(value, "|")
	switch len(slots) {
	case 6:
		log.Printf("[settings] upgrading %s metadata, old value: %s", display, value)
		slots = append(slots[:4], append([]string{"0"}, slots[4:]...)...)
		slots = append(slots, "0", "0", "0")
		slots[2], slots[3] = slots[3], slots[2]
		if display == "XBMC" && useBanner {
			slots[4], slots[3] = slots[3], "0"
		}
		upgraded := strings.Join(slots, "|")
		log.Printf("[settings] upgraded %s metadata, new value: %s", display, upgraded)
		return upgraded

	case metadataSlots:
		log.Printf("[settings] keeping %s metadata, value: %s", display, value)
		return value

	default:
		fallback := strings.TrimSuffix(strings.Repeat("0|", metadataSlots), "|")
		log.Printf("[settings] replacing corrupt %s metadata %q with %s", display, value, fallback)
		return fallback
	}
}

// ─── Version 6: XBMC to KODI ────────────────────────────────────────────────

func (m *migrator) migrateKodi() error {
	f := m.file
	f.Set("KODI", "use_kodi", f.Bool("XBMC", "use_xbmc", false))
	f.Set("KODI", "kodi_always_on", f.Bool("XBMC", "xbmc_always_on", true))
	f.Set("KODI", "kodi_notify_onsnatch", f.Bool("XBMC", "xbmc_notify_onsnatch", false))
	f.Set("KODI", "kodi_notify_ondownload", f.Bool("XBMC", "xbmc_notify_ondownload", false))
	f.Set("KODI", "kodi_update_library", f.Bool("XBMC", "xbmc_update_library", false))
	f.Set("KODI", "kodi_update_full", f.Bool("XBMC", "xbmc_update_full", false))
	f.Set("KODI", "kodi_update_onlyfirst", f.Bool("XBMC", "xbmc_update_onlyfirst", false))
	f.Set("KODI", "kodi_host", f.Str("XBMC", "xbmc_host", ""))
	f.Set("KODI", "kodi_username", f.Str("XBMC", "xbmc_username", ""))
	f.setStr("KODI", "kodi_password", f.Str("XBMC", "xbmc_password", ""))

	zero := strings.TrimSuffix(strings.Repeat("0|", metadataSlots), "|")
	f.Set("General", "metadata_kodi", f.Str("General", "metadata_xbmc", zero))
	f.Set("General", "metadata_kodi_12plus", f.Str("General", "metadata_xbmc_12plus", zero))
	return nil
}

// ─── Version 7: Encryption v2 ───────────────────────────────────────────────

// migrateEncryptionV2 re-encrypts every password key from the recorded
// encryption version to version 2. A value that fails to decrypt is left
// alone and logged rather than destroyed.
func (m *migrator) migrateEncryptionV2() error {
	f := m.file
	for _, section := range f.SectionNames() {
		for key, value := range f.sections[section] {
			if !isPasswordKey(key) {
				continue
			}
			raw, ok := value.(string)
			if !ok {
				continue
			}
			plain, err := secrets.Decrypt(raw, f.encryptionVersion)
			if err != nil {
				log.Printf("[settings] cannot re-encrypt [%s] %s: %v", section, key, err)
				continue
			}
			enc, err := secrets.Encrypt(plain, secrets.VersionPrivate)
			if err != nil {
				return err
			}
			f.Set(section, key, enc)
		}
	}

	f.encryptionVersion = secrets.VersionPrivate
	f.Set("General", "encryption_version", secrets.VersionPrivate)
	return nil
}

// ─── Version 8: Plex Key Split ──────────────────────────────────────────────

func (m *migrator) migratePlex() error {
	f := m.file
	f.Set("Plex", "plex_client_host", f.Str("Plex", "plex_host", ""))
	f.Set("Plex", "plex_server_username", f.Str("Plex", "plex_username", ""))
	f.setStr("Plex", "plex_server_password", f.Str("Plex", "plex_password", ""))
	f.Set("Plex", "use_plex_server", f.Bool("Plex", "use_plex", false))
	return nil
}

// ─── Version 10: CSV to Lists ───────────────────────────────────────────────

// migrateCSVToLists converts every delimited-string config item to a native
// list value, and the legacy bang-delimited provider descriptor strings to
// structured, deduplicated provider entries.
func (m *migrator) migrateCSVToLists() error {
	f := m.file

	for _, key := range []string{
		"allowed_extensions", "sync_files", "ignore_words", "preferred_words",
		"undesired_words", "trackers_list", "require_words", "ignored_subs_list",
		"broken_providers", "extra_scripts", "git_reset_branches",
	} {
		m.convertCSV("General", key, ",")
	}
	m.convertCSV("General", "provider_order", " ")
	m.convertCSV("General", "root_dirs", "|")

	for _, mk := range metadataKeys {
		m.convertCSV("General", mk.key, "|")
	}
	m.convertCSV("General", "metadata_kodi", "|")
	m.convertCSV("General", "metadata_kodi_12plus", "|")

	m.convertCSV("Subtitles", "subtitles_languages", ",")
	m.convertCSV("KODI", "kodi_host", ",")
	m.convertCSV("Plex", "plex_server_host", ",")
	m.convertCSV("Plex", "plex_client_host", ",")
	m.convertCSV("Email", "email_list", ",")

	// Torrent-RSS providers: parse the piped descriptors into structured
	// entries (first occurrence of a name wins), store the canonical
	// re-encoding plus the derived provider IDs.
	if f.HasSection("TorrentRss") {
		providers := ParseTorrentRSSProviders(f.Str("TorrentRss", "torrentrss_data", ""))
		encoded := make([]string, len(providers))
		ids := make([]string, len(providers))
		for i, p := range providers {
			encoded[i] = p.Encode()
			ids[i] = ProviderID(p.Name)
		}
		f.Set("TorrentRss", "torrentrss_data", encoded)
		f.Set("TorrentRss", "torrentrss_providers", ids)
	}

	if f.HasSection("Newznab") {
		providers := ParseNewznabProviders(f.Str("Newznab", "newznab_data", ""))
		encoded := make([]string, len(providers))
		ids := make([]string, len(providers))
		for i, p := range providers {
			encoded[i] = p.Encode()
			ids[i] = ProviderID(p.Name)
		}
		f.Set("Newznab", "newznab_data", encoded)
		f.Set("Newznab", "newznab_providers", ids)
	}

	return nil
}

// convertCSV rewrites a delimited string value as a native list. Values that
// are already lists (or sections that never existed) pass through untouched.
func (m *migrator) convertCSV(section, key, delim string) {
	raw, err := m.file.lookup(section, key)
	if err != nil {
		return
	}
	s, ok := raw.(string)
	if !ok {
		return
	}
	if s == "" {
		m.file.Set(section, key, []string{})
		return
	}
	m.file.Set(section, key, strings.Split(s, delim))
}
