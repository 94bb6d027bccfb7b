// Package signature implements the shared-secret request signing scheme used
// by Genuka for OAuth callbacks and webhooks.
//
// Callback params are canonicalized like standard form encoding: signed field
// names sorted lexicographically, keys and values percent-encoded, joined as
// key=value pairs with "&". The HMAC-SHA256 of that string, rendered as
// lowercase hex, must match the hmac query param.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultMaxAge is the freshness window applied to callback timestamps.
const DefaultMaxAge = 5 * time.Minute

// Validator verifies HMAC signatures computed with the Genuka client secret.
type Validator struct {
	secret []byte

	// now is overridable in tests.
	now func() time.Time
}

// NewValidator creates a Validator keyed on the shared client secret.
func NewValidator(clientSecret string) *Validator {
	return &Validator{
		secret: []byte(clientSecret),
		now:    time.Now,
	}
}

// Compute returns the lowercase hex HMAC-SHA256 over the canonicalized params.
// Exposed so tests and outbound tooling can produce valid signatures.
func (v *Validator) Compute(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, encode(k)+"="+encode(params[k]))
	}
	canonical := strings.Join(pairs, "&")

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether received matches the signature computed over params.
// The contract is lowercase hex, compared byte for byte; an uppercase digest
// does not verify. Comparison is constant-time to avoid leaking the expected
// digest.
func (v *Validator) Verify(params map[string]string, received string) bool {
	expected := v.Compute(params)
	return hmac.Equal([]byte(expected), []byte(received))
}

// ComputeRaw returns the lowercase hex HMAC-SHA256 of body as-is, without
// canonicalization. Used for webhook payloads where the body itself is signed.
func (v *Validator) ComputeRaw(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyRaw reports whether received matches the HMAC-SHA256 of body, under
// the same lowercase-hex byte equality as Verify.
func (v *Validator) VerifyRaw(body []byte, received string) bool {
	expected := v.ComputeRaw(body)
	return hmac.Equal([]byte(expected), []byte(received))
}

// IsFresh reports whether a string-encoded Unix timestamp is within maxAge of
// now. Both stale and future-dated timestamps are rejected; a malformed
// timestamp is never fresh.
func (v *Validator) IsFresh(timestamp string, maxAge time.Duration) bool {
	secs, err := strconv.ParseInt(strings.TrimSpace(timestamp), 10, 64)
	if err != nil {
		return false
	}
	age := v.now().Sub(time.Unix(secs, 0))
	return age >= 0 && age <= maxAge
}

// encode percent-encodes following encodeURIComponent semantics: spaces become
// %20, not "+", so both sides of the integration canonicalize identically.
func encode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
