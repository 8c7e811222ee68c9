package services

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// cacheKeyPrefixLen is how much of a cache key analytics rows may retain.
const cacheKeyPrefixLen = 12

// DeriveCacheKey returns the SHA-256 hex fingerprint of a lookup.
//
// With a non-empty patient context the raw prompt is hashed together with
// the model and context, so otherwise-identical prompts stay unique per
// patient. Without a context the prompt is normalized first to maximize
// the hit rate on generic queries.
func DeriveCacheKey(prompt, model, patientContext string) string {
	if patientContext != "" {
		return hashKey(model + ":" + prompt + ":" + patientContext)
	}
	return hashKey(model + ":" + NormalizePrompt(prompt) + ":")
}

// NormalizePrompt lower-cases the prompt, collapses internal whitespace
// runs to single spaces and trims the ends. Idempotent.
func NormalizePrompt(prompt string) string {
	return strings.Join(strings.Fields(strings.ToLower(prompt)), " ")
}

// CacheKeyPrefix truncates a cache key for analytics storage.
func CacheKeyPrefix(key string) string {
	if len(key) <= cacheKeyPrefixLen {
		return key
	}
	return key[:cacheKeyPrefixLen]
}

func hashKey(material string) string {
	h := sha256.Sum256([]byte(material))
	return fmt.Sprintf("%x", h)
}
