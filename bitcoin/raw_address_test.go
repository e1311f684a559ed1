package bitcoin

import "testing"

func TestRawAddressPublicKeyRoundTrip(t *testing.T) {
	key, err := GenerateKey(MainNet)
	if err != nil {
		t.Fatalf("generate key : %s", err)
	}
	publicKey := key.PublicKey()

	address, err := NewRawAddressPublicKey(publicKey)
	if err != nil {
		t.Fatalf("NewRawAddressPublicKey : %s", err)
	}

	if address.Type() != ScriptTypePK {
		t.Fatalf("wrong script type : got %d, want %d", address.Type(), ScriptTypePK)
	}

	recovered, err := address.GetPublicKey()
	if err != nil {
		t.Fatalf("GetPublicKey : %s", err)
	}
	if !recovered.Equal(publicKey) {
		t.Fatalf("recovered public key mismatch : got %s, want %s", recovered.String(),
			publicKey.String())
	}

	lockingScript, err := address.LockingScript()
	if err != nil {
		t.Fatalf("LockingScript : %s", err)
	}

	parsed, err := RawAddressFromLockingScript(lockingScript)
	if err != nil {
		t.Fatalf("RawAddressFromLockingScript : %s", err)
	}
	if !address.Equal(parsed) {
		t.Fatalf("parsed address mismatch : got %x, want %x", parsed.Bytes(), address.Bytes())
	}
}

// TestRawAddressPKHRoundTrip exercises the P2PKH side of the raw address family, the template
// txbuilder signs against.
func TestRawAddressPKHRoundTrip(t *testing.T) {
	key, err := GenerateKey(TestNet)
	if err != nil {
		t.Fatalf("generate key : %s", err)
	}
	publicKey := key.PublicKey()
	pkh := Hash160(publicKey.Bytes())

	address, err := NewRawAddressPKH(pkh)
	if err != nil {
		t.Fatalf("NewRawAddressPKH : %s", err)
	}

	if address.Type() != ScriptTypePKH {
		t.Fatalf("wrong script type : got %d, want %d", address.Type(), ScriptTypePKH)
	}

	hash, err := address.GetPublicKeyHash()
	if err != nil {
		t.Fatalf("GetPublicKeyHash : %s", err)
	}
	if hash.String() == "" {
		t.Fatalf("expected non-empty public key hash string")
	}

	lockingScript, err := address.LockingScript()
	if err != nil {
		t.Fatalf("LockingScript : %s", err)
	}

	parsed, err := RawAddressFromLockingScript(lockingScript)
	if err != nil {
		t.Fatalf("RawAddressFromLockingScript : %s", err)
	}
	if !address.Equal(parsed) {
		t.Fatalf("parsed address mismatch : got %x, want %x", parsed.Bytes(), address.Bytes())
	}
}
