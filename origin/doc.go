// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package origin captures privacy-preserving audit metadata for votes.

# IP Hashing

Raw client IPs are never stored. HashIP produces a salted HMAC-SHA256
digest truncated to 64 bits:

	hash := origin.HashIP("203.0.113.7", cfg.IPHashSalt)

The salt comes from IP_HASH_SALT. Rotating it makes old and new hashes
incomparable.

# Request Metadata

FromRequest resolves the client IP the same way middleware.GetClientIP does
(X-Forwarded-For, X-Real-IP, then RemoteAddr) and pairs its hash with the
User-Agent header, truncated to MaxUserAgentLength bytes.

Origin metadata is kept in the vote ledger for abuse review only. It is
never returned by any endpoint and plays no part in duplicate detection.
*/
package origin
