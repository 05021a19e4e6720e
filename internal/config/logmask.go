// SPDX-License-Identifier: MIT

package config

import "strings"

const maskedValue = "***"

// sensitiveKeywords contains keywords that indicate sensitive keys.
var sensitiveKeywords = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"apikey",
	"credential",
}

// IsSensitiveKey reports whether a config or env key names a secret.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, kw := range sensitiveKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
