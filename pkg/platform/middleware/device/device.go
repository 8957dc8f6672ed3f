// Package device turns a User-Agent header into a short description that is
// recorded when a session is opened.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// Describe returns e.g. "Chrome 120 on Windows 10 (desktop)". An empty or
// unparseable header yields "unknown".
func Describe(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return "unknown"
	}
	ua := useragent.New(userAgent)
	if ua.Bot() {
		name, _ := ua.Browser()
		return "bot " + name
	}

	name, version := ua.Browser()
	if major, _, ok := strings.Cut(version, "."); ok {
		version = major
	}
	var b strings.Builder
	b.WriteString(strings.TrimSpace(name + " " + version))
	if os := ua.OS(); os != "" {
		b.WriteString(" on ")
		b.WriteString(os)
	}
	if ua.Mobile() {
		b.WriteString(" (mobile)")
	} else {
		b.WriteString(" (desktop)")
	}
	return b.String()
}
