package memcached

import (
	"fmt"
	"net/url"
)

// prepareKey returns the key as it is sent to the server.
func (c *Client) prepareKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty key", ErrMalformedKey)
	}
	if c.sanitizeKeys {
		key = sanitizeKey(key)
	}
	if !legalKey(key) {
		return "", fmt.Errorf("%w. Invalid key - %v", ErrMalformedKey, key)
	}
	return key, nil
}

// sanitizeKey escapes the key so it contains no spaces or control characters.
// Distinct keys give distinct results.
func sanitizeKey(key string) string {
	return url.QueryEscape(key)
}

func legalKey(key string) bool {
	if len(key) > maxKeyLength {
		return false
	}
	for i := 0; i < len(key); i++ {
		if key[i] <= ' ' || key[i] == 0x7f {
			return false
		}
	}
	return true
}
