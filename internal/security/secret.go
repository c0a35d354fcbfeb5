// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

// Package security holds helpers for handling credentials such as the Discord
// bot token and database URLs without leaking them into logs.
package security

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// Secret wraps sensitive bytes. Formatting and JSON marshaling always print
// a placeholder so a Secret can be passed to loggers safely.
type Secret []byte

const redacted = "[SECRET]"

// String redacts the secret for fmt.Print* convenience.
func (s Secret) String() string { return redacted }

// Format implements fmt.Formatter so %v, %#v and %s are redacted too.
func (s Secret) Format(f fmt.State, c rune) {
	_, _ = io.WriteString(f, redacted)
}

// Reveal returns the plaintext. Call sites are limited to the places that
// hand the credential to a client library.
func (s Secret) Reveal() string { return string(s) }

// Empty reports whether no secret was configured.
func (s Secret) Empty() bool { return len(s) == 0 }

// Zero overwrites the underlying byte slice with zeros.
func (s *Secret) Zero() {
	if s == nil || *s == nil {
		return
	}
	for i := range *s {
		(*s)[i] = 0
	}
}

// Bytes returns a copy of the underlying bytes.
func (s Secret) Bytes() []byte {
	out := make([]byte, len(s))
	copy(out, s)
	return out
}

// MarshalJSON redacts secrets in JSON marshaling.
func (s Secret) MarshalJSON() ([]byte, error) { return json.Marshal(redacted) }

// MarshalText redacts secrets for text encoding.
func (s Secret) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// FromString creates a Secret from a string.
func FromString(in string) Secret { return Secret([]byte(in)) }

// MaskURL hides the password of a connection URL, e.g. a DATABASE_URL.
// Inputs that do not parse as URLs are fully masked.
func MaskURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return "***"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

// IsSensitiveKey reports whether a structured logging key names a credential.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, marker := range []string{"token", "secret", "password", "passwd", "dsn", "database_url", "authorization", "api_key"} {
		if strings.Contains(k, marker) {
			return true
		}
	}
	return false
}
