package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// ValidSignature checks the X-Line-Signature header: base64 of the
// HMAC-SHA256 of the raw body under the channel secret. Comparison is
// constant time.
func ValidSignature(channelSecret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
