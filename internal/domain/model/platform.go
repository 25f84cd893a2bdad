// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// Platform identifies a social platform a metrics record came from.
type Platform string

// Known platforms.
const (
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
	PlatformFacebook  Platform = "facebook"
)

// extractionRule describes how a platform's raw metric bag maps onto the
// canonical views/engagement pair. Platforms that report saves count them
// toward engagement; platforms that report reactions use them in place of
// likes.
type extractionRule struct {
	countsSaves   bool
	usesReactions bool
}

var extractionRules = map[Platform]extractionRule{
	PlatformTikTok:    {countsSaves: true},
	PlatformInstagram: {countsSaves: true},
	PlatformYouTube:   {},
	PlatformFacebook:  {usesReactions: true},
}

// ParsePlatform normalizes and validates a platform name.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown platform %q", ErrValidation, s)
	}
	return p, nil
}

// Valid reports whether the platform is a known enum value.
func (p Platform) Valid() bool {
	_, ok := extractionRules[p]
	return ok
}

func (p Platform) String() string {
	return string(p)
}

// Platforms returns all known platforms.
func Platforms() []Platform {
	return []Platform{PlatformTikTok, PlatformInstagram, PlatformYouTube, PlatformFacebook}
}
