// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package origin

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/danielhkuo/pollcast/middleware"
	"github.com/danielhkuo/pollcast/models"
)

// MaxUserAgentLength caps the user agent stored with a vote.
const MaxUserAgentLength = 512

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	if ip == "" {
		return ""
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// First 16 hex chars (64 bits) are enough to tell voters apart
	return hex.EncodeToString(sum[:8])
}

// FromRequest captures the audit metadata stored with a vote: the salted
// client IP hash and a truncated user agent. The raw IP is never kept.
func FromRequest(r *http.Request, salt string) models.Origin {
	return models.Origin{
		IPHash:    HashIP(middleware.GetClientIP(r), salt),
		UserAgent: truncate(strings.TrimSpace(r.UserAgent()), MaxUserAgentLength),
	}
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
