package settings

import (
	"github.com/aerialtv/aerial/internal/infra/sqlite"
	"github.com/aerialtv/aerial/internal/secrets"
)

// Settings is the typed view of the config store after migration. Fields
// cover the keys the daemon itself consumes; everything else stays in the
// File for callers that need raw access.
type Settings struct {
	ConfigVersion     int
	EncryptionVersion int

	WebPort     int
	WebHost     string
	LaunchWhole bool

	NamingPattern      string
	NamingCustomABD    bool
	NamingABDPattern   string
	NamingMultiEp      int
	NamingForceFolders bool

	RootDirs          []string
	AllowedExtensions []string
	IgnoreWords       []string
	RequireWords      []string
	SyncFiles         []string
	ExtraScripts      []string
	ProviderOrder     []string

	MetadataKodi         []int
	MetadataKodi12Plus   []int
	MetadataMediaBrowser []int
	MetadataPS3          []int
	MetadataWDTV         []int
	MetadataTivo         []int
	MetadataMede8er      []int

	UseKodi  bool
	KodiHost []string

	UsePlexServer      bool
	PlexServerUsername string
	PlexServerPassword string
	PlexServerHost     []string
	PlexClientHost     []string

	TorrentRSSProviders []TorrentRSSProvider
	NewznabProviders    []NewznabProvider
}

// Load opens the config store at path, migrates it to the current layout,
// and reads the typed settings. conn may be nil when the main store is not
// open. Defaults substituted during the read are written back so the next
// load sees a fully populated file.
func Load(path string, conn *sqlite.Conn) (*Settings, *File, error) {
	f, err := OpenFile(path)
	if err != nil {
		return nil, nil, err
	}

	// The per-install encryption key must exist before any password key is
	// touched, whether by migration or by the read below.
	if key := f.Str("General", "encryption_secret", ""); key != "" {
		secrets.SetInstallKey(key)
	} else {
		secrets.SetInstallKey(secrets.NewInstallKey())
		f.setStr("General", "encryption_secret", secrets.InstallKey())
	}

	if err := MigrateFile(f, conn); err != nil {
		return nil, nil, err
	}

	s := readSettings(f)
	if err := f.Save(); err != nil {
		return nil, nil, err
	}
	return s, f, nil
}

// readSettings pulls the typed fields out of a migrated file. Every getter
// substitutes and writes back its default, so a fresh file round-trips to a
// complete one.
func readSettings(f *File) *Settings {
	zeroMeta := make([]int, metadataSlots)

	s := &Settings{
		ConfigVersion:     f.Int("General", "config_version", ConfigVersion),
		EncryptionVersion: f.rawInt("General", "encryption_version", 0),

		WebPort:     f.Int("General", "web_port", 8081),
		WebHost:     f.Str("General", "web_host", "0.0.0.0"),
		LaunchWhole: f.Bool("General", "launch_browser", true),

		NamingPattern:      f.Str("General", "naming_pattern", "%SN - %Sx%0E - %EN"),
		NamingCustomABD:    f.Bool("General", "naming_custom_abd", false),
		NamingABDPattern:   f.Str("General", "naming_abd_pattern", defaultABDPattern),
		NamingMultiEp:      f.Int("General", "naming_multi_ep", 1),
		NamingForceFolders: f.Bool("General", "naming_force_folders", false),

		RootDirs:          f.StrList("General", "root_dirs", nil),
		AllowedExtensions: f.StrList("General", "allowed_extensions", []string{"srt", "nfo", "sub", "idx"}),
		IgnoreWords:       f.StrList("General", "ignore_words", nil),
		RequireWords:      f.StrList("General", "require_words", nil),
		SyncFiles:         f.StrList("General", "sync_files", []string{"!sync", "lftp-pget-status", "part", "bts", "!qb"}),
		ExtraScripts:      f.StrList("General", "extra_scripts", nil),
		ProviderOrder:     f.StrList("General", "provider_order", nil),

		MetadataKodi:         f.IntList("General", "metadata_kodi", zeroMeta),
		MetadataKodi12Plus:   f.IntList("General", "metadata_kodi_12plus", zeroMeta),
		MetadataMediaBrowser: f.IntList("General", "metadata_mediabrowser", zeroMeta),
		MetadataPS3:          f.IntList("General", "metadata_ps3", zeroMeta),
		MetadataWDTV:         f.IntList("General", "metadata_wdtv", zeroMeta),
		MetadataTivo:         f.IntList("General", "metadata_tivo", zeroMeta),
		MetadataMede8er:      f.IntList("General", "metadata_mede8er", zeroMeta),

		UseKodi:  f.Bool("KODI", "use_kodi", false),
		KodiHost: f.StrList("KODI", "kodi_host", nil),

		UsePlexServer:      f.Bool("Plex", "use_plex_server", false),
		PlexServerUsername: f.Str("Plex", "plex_server_username", ""),
		PlexServerPassword: f.Str("Plex", "plex_server_password", ""),
		PlexServerHost:     f.StrList("Plex", "plex_server_host", nil),
		PlexClientHost:     f.StrList("Plex", "plex_client_host", nil),
	}

	s.TorrentRSSProviders = parseProviderList(
		f.StrList("TorrentRss", "torrentrss_data", nil), ParseTorrentRSSProvider)
	s.NewznabProviders = parseProviderList(
		f.StrList("Newznab", "newznab_data", nil), ParseNewznabProvider)

	return s
}

// parseProviderList parses a native list of canonical descriptors. Entries
// that fail to parse were already reported by the parser's caller during
// migration; here they simply drop.
func parseProviderList[T any](descs []string, parse func(string) (*T, error)) []T {
	var out []T
	for _, desc := range descs {
		p, err := parse(desc)
		if err != nil {
			continue
		}
		out = append(out, *p)
	}
	return out
}
