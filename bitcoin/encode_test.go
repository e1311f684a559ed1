package bitcoin

import (
	"bytes"
	"testing"
)

func TestBase58RoundTrip(t *testing.T) {
	tests := [][]byte{
		{0x00},
		{0x00, 0x01, 0x02, 0x03},
		{0xff, 0xff, 0xff, 0xff},
		[]byte("hello bitcoin"),
	}

	for _, tt := range tests {
		t.Run(string(tt), func(t *testing.T) {
			encoded := Base58(tt)
			decoded := Base58Decode(encoded)
			if !bytes.Equal(decoded, tt) {
				t.Errorf("Wrong round trip : got %x, want %x", decoded, tt)
			}
		})
	}
}

func TestBase64RoundTrip(t *testing.T) {
	tests := [][]byte{
		{0x00},
		{0x00, 0x01, 0x02, 0x03},
		[]byte("hello bitcoin"),
	}

	for _, tt := range tests {
		t.Run(string(tt), func(t *testing.T) {
			encoded := Base64(tt)
			decoded, err := Base64Decode(encoded)
			if err != nil {
				t.Fatalf("Failed to decode : %s", err)
			}
			if !bytes.Equal(decoded, tt) {
				t.Errorf("Wrong round trip : got %x, want %x", decoded, tt)
			}
		})
	}
}
