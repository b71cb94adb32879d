// Package redact masks sensitive values before they reach user-facing output.
//
// Two kinds of data are masked: secret-looking key/value pairs (API tokens that may
// turn up in editor extension state) and the user's home directory, which must not
// appear in top-level error summaries.
package redact

import (
	"os"
	"path/filepath"
	"strings"
)

// SecretKeyPatterns contains substrings that indicate a key likely contains sensitive data.
// Keys are matched case-insensitively.
var SecretKeyPatterns = []string{
	"TOKEN",
	"KEY",
	"SECRET",
	"PASSWORD",
	"AUTH",
	"CREDENTIAL",
	"PRIVATE",
}

// TokenPrefixes contains known API token prefixes that indicate sensitive values
// regardless of key name.
var TokenPrefixes = []string{
	"ghp_", // GitHub personal access token
	"gho_", // GitHub OAuth token
	"ghs_", // GitHub server-to-server token
	"sk-",  // OpenAI/Anthropic keys
	"AKIA", // AWS access key prefix
	"xoxb-",
	"xoxp-",
}

// MaskValue masks a potentially sensitive string value.
// Values with 4 or fewer characters are fully masked as "********".
// Longer values show the last 4 characters: "****xxxx".
func MaskValue(value string) string {
	if len(value) <= 4 {
		return "********"
	}
	return "****" + value[len(value)-4:]
}

// ShouldMask returns true if the key name suggests it contains sensitive data.
func ShouldMask(key string) bool {
	upper := strings.ToUpper(key)
	for _, pattern := range SecretKeyPatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}

// ContainsTokenPrefix returns true if the value starts with a known token prefix.
func ContainsTokenPrefix(value string) bool {
	for _, prefix := range TokenPrefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}

// HomeIn replaces every occurrence of home in s with "~".
// Only whole path prefixes are replaced: "/home/al" does not match inside "/home/alice".
func HomeIn(s, home string) string {
	home = filepath.Clean(home)
	if home == "" || home == "." || home == string(filepath.Separator) {
		return s
	}

	var b strings.Builder
	for {
		i := strings.Index(s, home)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		end := i + len(home)
		b.WriteString(s[:i])
		if end == len(s) || s[end] == filepath.Separator || !isPathByte(s[end]) {
			b.WriteString("~")
		} else {
			b.WriteString(home)
		}
		s = s[end:]
	}
}

// Home replaces the current user's home directory in s with "~".
func Home(s string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return s
	}
	return HomeIn(s, home)
}

func isPathByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '.', c == '-', c == '_', c == ' ':
		return true
	}
	return false
}
