package telemetry

import (
	"encoding/json"
	"regexp"
	"strings"
)

const (
	// Sanitisation thresholds
	minTokenLength    = 20 // Minimum length for alphanumeric strings to be considered tokens
	tokenPrefixLength = 8  // Length of prefix to show for redacted tokens
)

var (
	// API key patterns that should never appear in trace attributes
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|token|secret|password|passwd|pwd|auth|authorization)[\s:=]+["']?([^\s"']+)`)

	// Argument keys whose values are always redacted
	secretKeys = map[string]bool{
		"api_key":       true,
		"apikey":        true,
		"token":         true,
		"secret":        true,
		"password":      true,
		"passwd":        true,
		"pwd":           true,
		"auth":          true,
		"authorization": true,
		"client_secret": true,
		"oauth_token":   true,
		"access_token":  true,
		"refresh_token": true,
		"private_key":   true,
		"credentials":   true,
	}

	// Argument keys that carry Sheets identifiers. Spreadsheet IDs are
	// long random-looking strings that would otherwise trip the token
	// heuristic, but they are addresses, not secrets.
	identifierKeys = map[string]bool{
		"file_id":        true,
		"spreadsheet_id": true,
		"sheet_id":       true,
		"sheet_name":     true,
		"range":          true,
		"ranges":         true,
		"title":          true,
		"formula":        true,
	}
)

// SanitiseArguments redacts secret-looking values from tool arguments and
// returns them as a JSON string for span attributes.
func SanitiseArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}

	sanitised := make(map[string]any)
	for key, value := range args {
		keyLower := strings.ToLower(key)

		if isSecretKey(keyLower) {
			sanitised[key] = "[REDACTED]"
			continue
		}

		switch v := value.(type) {
		case map[string]any:
			sanitised[key] = sanitiseMap(v)
		case string:
			if identifierKeys[keyLower] {
				sanitised[key] = v
			} else {
				sanitised[key] = sanitiseString(v)
			}
		default:
			sanitised[key] = value
		}
	}

	jsonBytes, err := json.Marshal(sanitised)
	if err != nil {
		return "{\"error\": \"failed to serialise arguments\"}"
	}

	return string(jsonBytes)
}

func isSecretKey(keyLower string) bool {
	if identifierKeys[keyLower] {
		return false
	}
	return secretKeys[keyLower] ||
		strings.Contains(keyLower, "key") ||
		strings.Contains(keyLower, "token") ||
		strings.Contains(keyLower, "secret") ||
		strings.Contains(keyLower, "password")
}

// sanitiseMap recursively sanitises nested maps
func sanitiseMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}

	sanitised := make(map[string]any)
	for key, value := range m {
		keyLower := strings.ToLower(key)

		if isSecretKey(keyLower) {
			sanitised[key] = "[REDACTED]"
			continue
		}

		switch v := value.(type) {
		case map[string]any:
			sanitised[key] = sanitiseMap(v)
		case string:
			if identifierKeys[keyLower] {
				sanitised[key] = v
			} else {
				sanitised[key] = sanitiseString(v)
			}
		default:
			sanitised[key] = value
		}
	}

	return sanitised
}

// sanitiseString removes sensitive patterns from strings
func sanitiseString(s string) string {
	if s == "" {
		return s
	}

	if apiKeyPattern.MatchString(s) {
		return apiKeyPattern.ReplaceAllString(s, "$1=[REDACTED]")
	}

	// A long unbroken alphanumeric string might be a token; show only a
	// prefix.
	if len(s) > minTokenLength && isAlphanumeric(s) {
		if len(s) > tokenPrefixLength {
			return s[:4] + "..." + "[REDACTED]"
		}
		return "[REDACTED]"
	}

	return s
}

// isAlphanumeric checks if a string contains only alphanumeric characters and common token characters
func isAlphanumeric(s string) bool {
	for _, char := range s {
		isValid := (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' || char == '.'
		if !isValid {
			return false
		}
	}
	return true
}

// TruncateString truncates a string to a maximum length with ellipsis
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
