package sumsub

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

// Signer produces the per-request HMAC signature the provider requires on
// every API call. The signed message is ts + METHOD + pathWithQuery + body,
// and the body must be the exact bytes transmitted: signing a re-serialized
// variant of the payload produces a provider-side 401.
type Signer struct {
	appToken  string
	secretKey string
	now       func() time.Time
}

// NewSigner builds a signer over the app token and secret key. Credentials
// are validated per call, not here, since they may be injected late.
func NewSigner(appToken, secretKey string) *Signer {
	return &Signer{appToken: appToken, secretKey: secretKey, now: time.Now}
}

// Signature is the header triple accompanying every outbound request.
type Signature struct {
	AppToken  string
	Timestamp string
	Value     string
}

// Sign computes the signature for one request. method must already be
// upper-cased, pathWithQuery includes the query string, and body is the raw
// request body (nil for bodyless requests).
func (s *Signer) Sign(method, pathWithQuery string, body []byte) (Signature, error) {
	if s.appToken == "" || s.secretKey == "" {
		return Signature{}, configErr("sign", errors.New("app token or secret key unset"))
	}

	ts := strconv.FormatInt(s.now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(s.secretKey))
	mac.Write([]byte(ts))
	mac.Write([]byte(method))
	mac.Write([]byte(pathWithQuery))
	mac.Write(body)

	return Signature{
		AppToken:  s.appToken,
		Timestamp: ts,
		Value:     hex.EncodeToString(mac.Sum(nil)),
	}, nil
}

// VerifyWebhookDigest checks the HMAC digest the provider attaches to webhook
// deliveries against the raw payload bytes.
func VerifyWebhookDigest(secret string, payload []byte, digestHex string) bool {
	if secret == "" || digestHex == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	want, err := hex.DecodeString(digestHex)
	if err != nil {
		return false
	}
	return hmac.Equal(mac.Sum(nil), want)
}
