package domain

import "testing"

func TestCompositeStatusRoundTrip(t *testing.T) {
	composite := CompositeStatus(StatusArchived, QualityHDTV)
	if composite != 406 {
		t.Fatalf("CompositeStatus(ARCHIVED, HDTV) = %d, want 406", composite)
	}

	status, quality := SplitCompositeStatus(composite)
	if status != StatusArchived || quality != QualityHDTV {
		t.Fatalf("SplitCompositeStatus(%d) = (%d, %d), want (%d, %d)",
			composite, status, quality, StatusArchived, QualityHDTV)
	}
}

func TestSplitCompositeStatusBare(t *testing.T) {
	status, quality := SplitCompositeStatus(StatusWanted)
	if status != StatusWanted || quality != QualityNone {
		t.Fatalf("bare status split = (%d, %d), want (%d, %d)",
			status, quality, StatusWanted, QualityNone)
	}
}

func TestCompositeStatusUnknownQuality(t *testing.T) {
	composite := CompositeStatus(StatusArchived, QualityUnknown)
	status, quality := SplitCompositeStatus(composite)
	if status != StatusArchived || quality != QualityUnknown {
		t.Fatalf("unknown-quality composite %d split = (%d, %d)", composite, status, quality)
	}
}

func TestQualityFromName(t *testing.T) {
	cases := []struct {
		path string
		want int
	}{
		{"/tv/Show.S01E01.1080p.BluRay.x264.mkv", QualityFullHDBlray},
		{"/tv/Show.S01E01.720p.BluRay.mkv", QualityHDBluray},
		{"/tv/Show.S01E01.1080p.WEB-DL.mkv", QualityFullHDWebDL},
		{"/tv/Show.S01E01.720p.WEBRip.mkv", QualityHDWebDL},
		{"/tv/Show.S01E01.1080p.HDTV.mkv", QualityFullHDTV},
		{"/tv/Show.S01E01.720p.HDTV.mkv", QualityHDTV},
		{"/tv/Show.S01E01.DVDRip.avi", QualitySDDVD},
		{"/tv/Show.S01E01.HDTV.XviD.avi", QualitySDTV},
		{"/tv/Show.S01E01.mkv", QualityUnknown},
		{"", QualityUnknown},
	}
	for _, tc := range cases {
		if got := QualityFromName(tc.path); got != tc.want {
			t.Errorf("QualityFromName(%q) = %d, want %d", tc.path, got, tc.want)
		}
	}
}

func TestDBVersionCompare(t *testing.T) {
	cases := []struct {
		a, b DBVersion
		want int
	}{
		{DBVersion{44, 2}, DBVersion{44, 10}, -1},
		{DBVersion{44, 10}, DBVersion{45, 0}, -1},
		{DBVersion{44, 8}, DBVersion{44, 8}, 0},
		{DBVersion{45, 0}, DBVersion{44, 9}, 1},
	}
	for _, tc := range cases {
		if got := tc.a.Compare(tc.b); got != tc.want {
			t.Errorf("%s.Compare(%s) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}

	if !(DBVersion{}).IsZero() {
		t.Error("zero version should report IsZero")
	}
	if (DBVersion{Major: 44, Minor: 8}).String() != "44.8" {
		t.Error("String format changed")
	}
}
