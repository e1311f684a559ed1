package bitcoin

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcutil"
)

type keyWIFFixture struct {
	number string
	net    Network
	wif    string
}

var keyWIFFixtures = []keyWIFFixture{
	{
		number: "619c335025c7f4012e556c2a58b2506e30b8511b53ade95ea316fd8c3286feb9",
		net:    TestNet,
		wif:    "92KuV1Mtf9jTttTrw1yawobsa9uCZGbfpambH8H1Y7KfdDxxc4d",
	},
	{
		number: "0C28FCA386C7A227600B2FE50B7CAE11EC86D3BF1FBE471BE89827E19D72AA1D",
		net:    MainNet,
		wif:    "5HueCGU8rMjxEXxiPuD5BDku4MkFqeZyd4dZ1jvhTVqvbTLvyTJ",
	},
}

func TestKeyFromNumberEncodesExpectedWIF(t *testing.T) {
	for _, fixture := range keyWIFFixtures {
		data, err := hex.DecodeString(fixture.number)
		if err != nil {
			t.Fatalf("decode fixture number : %s", err)
		}

		key, err := KeyFromNumber(data, fixture.net)
		if err != nil {
			t.Fatalf("KeyFromNumber : %s", err)
		}

		if got := key.String(); got != fixture.wif {
			t.Errorf("%s : WIF mismatch : got %s, want %s", fixture.number, got, fixture.wif)
		}
	}
}

// TestKeyWIFInteropsWithBtcutil confirms the external btcsuite/btcutil WIF decoder reads each
// fixture WIF back to the same private key scalar this package's fixtures carry.
func TestKeyWIFInteropsWithBtcutil(t *testing.T) {
	for _, fixture := range keyWIFFixtures {
		data, err := hex.DecodeString(fixture.number)
		if err != nil {
			t.Fatalf("decode fixture number : %s", err)
		}

		extWIF, err := btcutil.DecodeWIF(fixture.wif)
		if err != nil {
			t.Fatalf("btcutil.DecodeWIF : %s", err)
		}
		if !bytes.Equal(extWIF.PrivKey.Serialize(), data) {
			t.Errorf("%s : btcutil decoded number mismatch : got %x, want %x",
				fixture.wif, extWIF.PrivKey.Serialize(), data)
		}
	}
}

func TestKeyFromStrRoundTripsWithKeyFromNumber(t *testing.T) {
	for _, fixture := range keyWIFFixtures {
		data, err := hex.DecodeString(fixture.number)
		if err != nil {
			t.Fatalf("decode fixture number : %s", err)
		}

		key, err := KeyFromNumber(data, fixture.net)
		if err != nil {
			t.Fatalf("KeyFromNumber : %s", err)
		}

		parsed, err := KeyFromStr(fixture.wif)
		if err != nil {
			t.Fatalf("KeyFromStr : %s", err)
		}

		if parsed.Network() != fixture.net {
			t.Errorf("%s : wrong network decoded", fixture.wif)
		}
		if !bytes.Equal(parsed.Bytes(), key.Bytes()) {
			t.Errorf("%s : key mismatch : got %x, want %x", fixture.wif, parsed.Bytes(), key.Bytes())
		}
	}
}
