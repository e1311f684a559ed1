package bitcoin

import (
	"encoding/json"
	"testing"
)

// TestPublicKeyJSONRoundTrip confirms a PublicKey embedded in a struct survives a JSON
// marshal/unmarshal cycle unchanged, exercising its MarshalJSON/UnmarshalJSON pair together
// rather than in isolation.
func TestPublicKeyJSONRoundTrip(t *testing.T) {
	key, err := GenerateKey(MainNet)
	if err != nil {
		t.Fatalf("generate key : %s", err)
	}
	pubKey := key.PublicKey()

	type wrapper struct {
		PubKey PublicKey `json:"pubkey"`
	}

	encoded, err := json.Marshal(wrapper{PubKey: pubKey})
	if err != nil {
		t.Fatalf("json marshal : %s", err)
	}

	var decoded wrapper
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("json unmarshal : %s", err)
	}

	if !decoded.PubKey.Equal(pubKey) {
		t.Fatalf("unmarshalled public key doesn't match original : got %s, want %s",
			decoded.PubKey.String(), pubKey.String())
	}
}

func TestPublicKeyStringRoundTrip(t *testing.T) {
	key, err := GenerateKey(TestNet)
	if err != nil {
		t.Fatalf("generate key : %s", err)
	}
	pubKey := key.PublicKey()

	var parsed PublicKey
	if err := parsed.SetString(pubKey.String()); err != nil {
		t.Fatalf("SetString : %s", err)
	}

	if !parsed.Equal(pubKey) {
		t.Fatalf("parsed public key doesn't match original")
	}
}

func TestPublicKeyBytesRoundTrip(t *testing.T) {
	key, err := GenerateKey(MainNet)
	if err != nil {
		t.Fatalf("generate key : %s", err)
	}
	pubKey := key.PublicKey()

	var parsed PublicKey
	if err := parsed.SetBytes(pubKey.Bytes()); err != nil {
		t.Fatalf("SetBytes : %s", err)
	}

	if !parsed.Equal(pubKey) {
		t.Fatalf("parsed public key doesn't match original")
	}
}
