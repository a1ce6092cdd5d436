// Package envelope implements the signed message envelope that wraps every
// agent-to-server request: HMAC-SHA256 over a pipe-delimited signing string,
// with a UUID nonce for anti-replay.
package envelope

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Envelope is the signed wrapper placed around every outbound message.
type Envelope struct {
	AgentID string          `json:"agent_id"`
	Ts      int64           `json:"ts"`
	Nonce   string          `json:"nonce"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	HMAC    string          `json:"hmac"`
}

// NewNonce returns a fresh anti-replay nonce.
func NewNonce() string {
	return uuid.NewString()
}

// SigningString builds the exact pipe-delimited string that gets HMAC-signed:
// "{agent_id}|{ts}|{nonce}|{type}|{payload_json}". payload must be the
// identical bytes that are placed on the wire.
func SigningString(agentID string, ts int64, nonce, msgType string, payload json.RawMessage) string {
	return fmt.Sprintf("%s|%d|%s|%s|%s", agentID, ts, nonce, msgType, string(payload))
}

// Sign computes the hex-encoded HMAC-SHA256 of the signing string using secret.
func Sign(secret, agentID string, ts int64, nonce, msgType string, payload json.RawMessage) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(SigningString(agentID, ts, nonce, msgType, payload)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Seal builds and signs a complete Envelope for msgType carrying payload.
func Seal(secret, agentID string, ts int64, msgType string, payload any) (Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("envelope: marshal payload: %w", err)
	}
	nonce := NewNonce()
	return Envelope{
		AgentID: agentID,
		Ts:      ts,
		Nonce:   nonce,
		Type:    msgType,
		Payload: body,
		HMAC:    Sign(secret, agentID, ts, nonce, msgType, body),
	}, nil
}

// Verify recomputes the HMAC over env's fields and reports whether it
// matches env.HMAC. Uses constant-time comparison.
func Verify(secret string, env Envelope) bool {
	want := Sign(secret, env.AgentID, env.Ts, env.Nonce, env.Type, env.Payload)
	return hmac.Equal([]byte(want), []byte(env.HMAC))
}
