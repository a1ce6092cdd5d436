package envelope

import (
	"encoding/json"
	"testing"
)

func TestSigningStringFormat(t *testing.T) {
	got := SigningString("A1", 1700000000, "00000000-0000-0000-0000-000000000001", "heartbeat", json.RawMessage(`{"status":"online"}`))
	want := `A1|1700000000|00000000-0000-0000-0000-000000000001|heartbeat|{"status":"online"}`
	if got != want {
		t.Fatalf("signing string = %q, want %q", got, want)
	}
}

func TestSignDeterministic(t *testing.T) {
	payload := json.RawMessage(`{"status":"online"}`)
	a := Sign("secret", "A1", 1700000000, "nonce-1", "heartbeat", payload)
	b := Sign("secret", "A1", 1700000000, "nonce-1", "heartbeat", payload)
	if a != b {
		t.Fatalf("HMAC not deterministic: %q vs %q", a, b)
	}
}

func TestSealVerifyRoundTrip(t *testing.T) {
	env, err := Seal("secret", "A1", 1700000000, "heartbeat", map[string]string{"status": "online"})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if !Verify("secret", env) {
		t.Fatal("Verify rejected a freshly sealed envelope")
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	env, err := Seal("secret", "A1", 1700000000, "heartbeat", map[string]string{"status": "online"})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	env.Payload = json.RawMessage(`{"status":"offline"}`)
	if Verify("secret", env) {
		t.Fatal("Verify accepted a tampered payload")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	env, err := Seal("secret", "A1", 1700000000, "heartbeat", map[string]string{"status": "online"})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if Verify("other-secret", env) {
		t.Fatal("Verify accepted a mismatched secret")
	}
}

func TestNoncesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n := NewNonce()
		if seen[n] {
			t.Fatalf("duplicate nonce generated: %s", n)
		}
		seen[n] = true
	}
}
