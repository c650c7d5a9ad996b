package domain

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifyMerchantKey reports whether the caller-supplied credential matches
// the hex-encoded HMAC-SHA256 of the caller id under the shared secret. The
// comparison is constant-time so credential guessing cannot be assisted by
// response timing. Any empty input fails immediately without computing the
// digest against garbage.
func VerifyMerchantKey(secret, callerID, provided string) bool {
	if secret == "" || callerID == "" || provided == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(callerID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(provided))
}
