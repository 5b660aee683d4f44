package settings

import "testing"

func TestParseTorrentRSSProviderLayouts(t *testing.T) {
	// 8-field: no title_tag, no manual search.
	p, err := ParseTorrentRSSProvider("Rarbg|https://example/rss|uid=1|1|eponly|0|1|1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Rarbg" || p.TitleTag != "title" || !p.Enabled || !p.EnableDaily {
		t.Fatalf("8-field parse = %+v", p)
	}

	// 9-field adds title_tag before enabled.
	p, err = ParseTorrentRSSProvider("Feed|https://example/rss|c=1|item|0|sponly|1|0|1")
	if err != nil {
		t.Fatal(err)
	}
	if p.TitleTag != "item" || p.Enabled || p.SearchMode != "sponly" || !p.SearchFallback {
		t.Fatalf("9-field parse = %+v", p)
	}

	// 10-field adds enable_manualsearch.
	p, err = ParseTorrentRSSProvider("Feed|https://example/rss|c=1|item|1|eponly|0|1|1|1")
	if err != nil {
		t.Fatal(err)
	}
	if !p.EnableManualSearch {
		t.Fatalf("10-field parse = %+v", p)
	}
}

func TestParseTorrentRSSProviderMalformed(t *testing.T) {
	if _, err := ParseTorrentRSSProvider("Name|url"); err == nil {
		t.Fatal("2-field descriptor should be malformed")
	}
	if _, err := ParseTorrentRSSProvider(""); err == nil {
		t.Fatal("empty descriptor should be malformed")
	}
}

func TestTorrentRSSProviderEncodeCanonical(t *testing.T) {
	p, err := ParseTorrentRSSProvider("Rarbg|https://example/rss|uid=1|1|eponly|0|1|1")
	if err != nil {
		t.Fatal(err)
	}
	want := "Rarbg|https://example/rss|uid=1|title|1|eponly|0|1|1|0"
	if got := p.Encode(); got != want {
		t.Fatalf("Encode() = %q, want %q", got, want)
	}

	// Canonical form parses back to the same provider.
	q, err := ParseTorrentRSSProvider(p.Encode())
	if err != nil {
		t.Fatal(err)
	}
	if *q != *p {
		t.Fatalf("canonical round trip changed provider: %+v != %+v", q, p)
	}
}

func TestParseNewznabProvidersDeduplicates(t *testing.T) {
	providers := ParseNewznabProviders("A|url1|k|1!!!A|url2|k|1")
	if len(providers) != 1 {
		t.Fatalf("got %d providers, want 1", len(providers))
	}
	// First occurrence wins.
	if providers[0].URL != "url1" {
		t.Fatalf("survivor URL = %q, want url1", providers[0].URL)
	}
}

func TestParseTorrentRSSProvidersSkipsMalformed(t *testing.T) {
	data := "Good|https://example/rss|c|1|eponly|0|1|1" +
		"!!!broken" +
		"!!!Other|https://example/rss2|c|item|1|eponly|0|1|1|0"
	providers := ParseTorrentRSSProviders(data)
	if len(providers) != 2 {
		t.Fatalf("got %d providers, want 2", len(providers))
	}
	if providers[0].Name != "Good" || providers[1].Name != "Other" {
		t.Fatalf("providers = %+v", providers)
	}
}

func TestProviderID(t *testing.T) {
	cases := []struct{ name, want string }{
		{"NZBs.org", "NZBS_ORG"},
		{"  my feed  ", "MY_FEED"},
		{"plain", "PLAIN"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ProviderID(tc.name); got != tc.want {
			t.Errorf("ProviderID(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
