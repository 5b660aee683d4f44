package settings

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/aerialtv/aerial/internal/domain"
)

// Legacy provider descriptors are pipe-delimited fields, with whole entries
// joined by "!!!". Field counts vary by vintage: torrent-RSS descriptors
// were observed with 8, 9, or 10 fields as options accreted.

const descriptorSep = "!!!"

// TorrentRSSProvider is a structured torrent-RSS provider entry.
type TorrentRSSProvider struct {
	Name               string
	URL                string
	Cookies            string
	TitleTag           string
	Enabled            bool
	SearchMode         string
	SearchFallback     bool
	EnableDaily        bool
	EnableBacklog      bool
	EnableManualSearch bool
}

// ParseTorrentRSSProvider parses one legacy descriptor. Layouts by field
// count:
//
//	 8: name|url|cookies|enabled|search_mode|search_fallback|daily|backlog
//	 9: name|url|cookies|title_tag|enabled|search_mode|search_fallback|daily|backlog
//	10: 9-field layout plus enable_manualsearch
//
// Any other count falls back to the positional minimum (name, url, enabled)
// when at least 5 fields are present, and is malformed otherwise.
func ParseTorrentRSSProvider(desc string) (*TorrentRSSProvider, error) {
	if desc == "" {
		return nil, fmt.Errorf("empty descriptor: %w", domain.ErrInvalidFormat)
	}

	p := &TorrentRSSProvider{
		TitleTag:   "title",
		SearchMode: "eponly",
	}

	fields := strings.Split(desc, "|")
	var enabled string
	switch len(fields) {
	case 8:
		p.Name, p.URL, p.Cookies = fields[0], fields[1], fields[2]
		enabled = fields[3]
		p.SearchMode = fields[4]
		p.SearchFallback = fields[5] == "1"
		p.EnableDaily = fields[6] == "1"
		p.EnableBacklog = fields[7] == "1"
	case 9, 10:
		p.Name, p.URL, p.Cookies, p.TitleTag = fields[0], fields[1], fields[2], fields[3]
		enabled = fields[4]
		p.SearchMode = fields[5]
		p.SearchFallback = fields[6] == "1"
		p.EnableDaily = fields[7] == "1"
		p.EnableBacklog = fields[8] == "1"
		if len(fields) == 10 {
			p.EnableManualSearch = fields[9] == "1"
		}
	default:
		if len(fields) < 5 {
			return nil, fmt.Errorf("descriptor %q has %d fields: %w",
				desc, len(fields), domain.ErrInvalidFormat)
		}
		p.Name, p.URL = fields[0], fields[1]
		enabled = fields[4]
	}

	p.Enabled = enabled == "1"
	return p, nil
}

// Encode renders the canonical 10-field descriptor.
func (p *TorrentRSSProvider) Encode() string {
	return strings.Join([]string{
		p.Name, p.URL, p.Cookies, p.TitleTag,
		boolField(p.Enabled), p.SearchMode, boolField(p.SearchFallback),
		boolField(p.EnableDaily), boolField(p.EnableBacklog), boolField(p.EnableManualSearch),
	}, "|")
}

// ParseTorrentRSSProviders parses a bang-delimited descriptor list,
// deduplicating by name: the first occurrence wins, later duplicates are
// dropped silently. Malformed entries are logged and skipped.
func ParseTorrentRSSProviders(data string) []TorrentRSSProvider {
	var out []TorrentRSSProvider
	seen := make(map[string]bool)

	for _, desc := range strings.Split(data, descriptorSep) {
		if desc == "" {
			continue
		}
		p, err := ParseTorrentRSSProvider(desc)
		if err != nil {
			log.Printf("[settings] skipping torrent-RSS provider %q: %v", desc, err)
			continue
		}
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		out = append(out, *p)
	}
	return out
}

// NewznabProvider is a structured newznab provider entry.
type NewznabProvider struct {
	Name    string
	URL     string
	Key     string
	CatIDs  string
	Enabled bool
}

// ParseNewznabProvider parses a 4-field (pre cat_ids) or 5-field descriptor.
func ParseNewznabProvider(desc string) (*NewznabProvider, error) {
	fields := strings.Split(desc, "|")
	switch len(fields) {
	case 4:
		return &NewznabProvider{
			Name: fields[0], URL: fields[1], Key: fields[2],
			Enabled: fields[3] == "1",
		}, nil
	case 5:
		return &NewznabProvider{
			Name: fields[0], URL: fields[1], Key: fields[2], CatIDs: fields[3],
			Enabled: fields[4] == "1",
		}, nil
	default:
		return nil, fmt.Errorf("descriptor %q has %d fields: %w",
			desc, len(fields), domain.ErrInvalidFormat)
	}
}

// Encode renders the canonical 5-field descriptor.
func (p *NewznabProvider) Encode() string {
	return strings.Join([]string{
		p.Name, p.URL, p.Key, p.CatIDs, boolField(p.Enabled),
	}, "|")
}

// ParseNewznabProviders parses a bang-delimited list, first occurrence wins.
func ParseNewznabProviders(data string) []NewznabProvider {
	var out []NewznabProvider
	seen := make(map[string]bool)

	for _, desc := range strings.Split(data, descriptorSep) {
		if desc == "" {
			continue
		}
		p, err := ParseNewznabProvider(desc)
		if err != nil {
			log.Printf("[settings] skipping newznab provider %q: %v", desc, err)
			continue
		}
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		out = append(out, *p)
	}
	return out
}

var nonWordRe = regexp.MustCompile(`[^\w]`)

// ProviderID derives the stable settings-section ID for a provider name:
// trimmed, uppercased, non-word runs replaced by underscores.
func ProviderID(name string) string {
	if name == "" {
		return ""
	}
	return nonWordRe.ReplaceAllString(strings.ToUpper(strings.TrimSpace(name)), "_")
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
