package utils

// apiKeyPrefix makes leaked keys easy to grep for.
const apiKeyPrefix = "bk_"

// NewAPIKey returns a fresh raw API key and its storage hash.  The raw
// key is shown once to the admin who issued it.
func NewAPIKey() (raw, hash string, err error) {
	body, err := randomHex(32)
	if err != nil {
		return "", "", err
	}
	raw = apiKeyPrefix + body
	return raw, HashSecret(raw), nil
}
