package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// LanguageVersion is a Python language version encoded as major*100+minor.
type LanguageVersion int

const (
	VersionNone LanguageVersion = 0
	Version24   LanguageVersion = 204
	Version25   LanguageVersion = 205
	Version26   LanguageVersion = 206
	Version27   LanguageVersion = 207
	Version30   LanguageVersion = 300
	Version31   LanguageVersion = 301
	Version32   LanguageVersion = 302
	Version33   LanguageVersion = 303
	Version34   LanguageVersion = 304
	Version35   LanguageVersion = 305
	Version36   LanguageVersion = 306
	Version37   LanguageVersion = 307
	Version38   LanguageVersion = 308
	Version39   LanguageVersion = 309
	Version310  LanguageVersion = 310
	Version311  LanguageVersion = 311
	Version312  LanguageVersion = 312
	Version313  LanguageVersion = 313

	LatestVersion = Version313
)

var knownVersions = []LanguageVersion{
	Version24, Version25, Version26, Version27,
	Version30, Version31, Version32, Version33, Version34, Version35,
	Version36, Version37, Version38, Version39, Version310, Version311,
	Version312, Version313,
}

func (v LanguageVersion) Major() int { return int(v) / 100 }
func (v LanguageVersion) Minor() int { return int(v) % 100 }

func (v LanguageVersion) Is2x() bool { return v.Major() == 2 }
func (v LanguageVersion) Is3x() bool { return v.Major() == 3 }

func (v LanguageVersion) AtLeast(other LanguageVersion) bool {
	return v >= other
}

func (v LanguageVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
}

// ParseVersion parses "3.8" style version strings.
func ParseVersion(s string) (LanguageVersion, error) {
	s = strings.TrimSpace(s)
	major, minor, ok := strings.Cut(s, ".")
	if !ok {
		return VersionNone, fmt.Errorf("invalid language version %q", s)
	}
	ma, err := strconv.Atoi(major)
	if err != nil {
		return VersionNone, fmt.Errorf("invalid language version %q: %w", s, err)
	}
	mi, err := strconv.Atoi(minor)
	if err != nil {
		return VersionNone, fmt.Errorf("invalid language version %q: %w", s, err)
	}
	v := LanguageVersion(ma*100 + mi)
	for _, known := range knownVersions {
		if known == v {
			return v, nil
		}
	}
	return VersionNone, fmt.Errorf("unsupported language version %q", s)
}

// KnownVersions lists every version the grammar engine understands.
func KnownVersions() []LanguageVersion {
	result := make([]LanguageVersion, len(knownVersions))
	copy(result, knownVersions)
	return result
}
