package domain

import (
	"path/filepath"
	"strings"
)

// ─── Episode Statuses ───────────────────────────────────────────────────────

// Episode status codes as stored in tv_episodes.status. A stored status is
// either one of these bare codes or a composite (see CompositeStatus).
const (
	StatusUnknown    = -1
	StatusUnaired    = 1
	StatusSnatched   = 2
	StatusWanted     = 3
	StatusDownloaded = 4
	StatusSkipped    = 5
	StatusArchived   = 6
	StatusIgnored    = 7
)

// ─── Quality Flags ──────────────────────────────────────────────────────────

// Quality flags. QualityUnknown is deliberately a high bit so composite
// statuses built from it stay out of the bare-status range.
const (
	QualityNone        = 0
	QualitySDTV        = 1
	QualitySDDVD       = 1 << 1
	QualityHDTV        = 1 << 2
	QualityFullHDTV    = 1 << 4
	QualityHDWebDL     = 1 << 5
	QualityFullHDWebDL = 1 << 6
	QualityHDBluray    = 1 << 7
	QualityFullHDBlray = 1 << 8
	QualityUnknown     = 1 << 15
)

// CompositeStatus encodes a coarse status together with a quality into the
// single stored value: status + quality*100.
func CompositeStatus(status, quality int) int {
	return status + quality*100
}

// SplitCompositeStatus is the inverse of CompositeStatus.
func SplitCompositeStatus(composite int) (status, quality int) {
	if composite < 100 {
		return composite, QualityNone
	}
	return composite % 100, composite / 100
}

// QualityFromName guesses the quality of a media file from its name.
// Unrecognized names map to QualityUnknown, never an error: this feeds
// repairs that must always produce a valid composite status.
func QualityFromName(path string) int {
	name := strings.ToLower(filepath.Base(path))

	contains := func(tokens ...string) bool {
		for _, tok := range tokens {
			if strings.Contains(name, tok) {
				return true
			}
		}
		return false
	}

	switch {
	case contains("1080p") && contains("bluray", "blu-ray"):
		return QualityFullHDBlray
	case contains("720p") && contains("bluray", "blu-ray"):
		return QualityHDBluray
	case contains("1080p") && contains("web-dl", "webdl", "webrip"):
		return QualityFullHDWebDL
	case contains("720p") && contains("web-dl", "webdl", "webrip"):
		return QualityHDWebDL
	case contains("1080p"):
		return QualityFullHDTV
	case contains("720p"):
		return QualityHDTV
	case contains("dvdrip", "bdrip", "dvd"):
		return QualitySDDVD
	case contains("hdtv", "pdtv", "sdtv", "dsr"):
		return QualitySDTV
	default:
		return QualityUnknown
	}
}
