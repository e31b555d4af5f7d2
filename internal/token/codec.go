// Package token implements the signed action tokens behind email approval
// links: a compact, time-boxed capability naming one actor, one document and
// one action, verifiable without any server-side state.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Payload is the claim set inside a token. It is never persisted; it only
// exists inside the signed envelope.
type Payload struct {
	DocumentID           string `json:"documentId"`
	ActorID              string `json:"actorId"`
	ActorRole            string `json:"actorRole"`
	ActorEmail           string `json:"actorEmail"`
	Action               Action `json:"action"`
	ExpiresAtEpochMillis int64  `json:"expiresAtEpochMillis"`
}

var (
	ErrInvalidToken = errors.New("invalid action token")
	ErrExpiredToken = errors.New("expired action token")
)

// DefaultTTL is how long an emailed action link stays usable.
const DefaultTTL = 24 * time.Hour

// Codec signs and verifies action tokens. It is stateless and pure; single
// use is enforced elsewhere (see ConsumedTokens).
type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret []byte) *Codec {
	return &Codec{secret: secret, now: time.Now}
}

// Mint returns the opaque signed form "base64url(json).base64url(hmac)".
// A non-positive ttl falls back to DefaultTTL.
func (c *Codec) Mint(p Payload, ttl time.Duration) (string, error) {
	if p.DocumentID == "" || p.ActorID == "" {
		return "", fmt.Errorf("mint token: missing document or actor id")
	}
	if p.Action != ActionApprove && p.Action != ActionReject {
		return "", fmt.Errorf("mint token: unknown action %q", p.Action)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if p.ExpiresAtEpochMillis == 0 {
		p.ExpiresAtEpochMillis = c.now().Add(ttl).UnixMilli()
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal token payload: %w", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(b)
	return payload + "." + c.sign(payload), nil
}

// Verify checks the signature, shape and expiry of tok. Any tampering with
// the payload invalidates the signature.
func (c *Codec) Verify(tok string) (Payload, error) {
	parts := strings.Split(tok, ".")
	if len(parts) != 2 {
		return Payload{}, ErrInvalidToken
	}
	payload, signature := parts[0], parts[1]

	expected := c.sign(payload)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return Payload{}, ErrInvalidToken
	}

	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return Payload{}, ErrInvalidToken
	}
	var p Payload
	if err := json.Unmarshal(decoded, &p); err != nil {
		return Payload{}, ErrInvalidToken
	}
	if p.DocumentID == "" || p.ActorID == "" || p.ExpiresAtEpochMillis == 0 {
		return Payload{}, ErrInvalidToken
	}
	if p.Action != ActionApprove && p.Action != ActionReject {
		return Payload{}, ErrInvalidToken
	}
	if c.now().UnixMilli() > p.ExpiresAtEpochMillis {
		return Payload{}, ErrExpiredToken
	}
	return p, nil
}

func (c *Codec) sign(payload string) string {
	mac := hmac.New(sha256.New, c.secret)
	_, _ = mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Fingerprint is the stable server-side identifier of a token; the raw token
// itself never gets stored.
func Fingerprint(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}
