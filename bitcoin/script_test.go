package bitcoin

import (
	"bytes"
	"encoding/hex"
	"testing"
)

var pushDataSizeVectors = []struct {
	size   uint64
	prefix []byte
}{
	// Bare length byte
	{0, []byte{0}},
	{10, []byte{10}},
	{0x4b, []byte{0x4b}},

	// OP_PUSHDATA1
	{0x4c, []byte{0x4c, 0x4c}},
	{0x50, []byte{0x4c, 0x50}},
	{0xff, []byte{0x4c, 0xff}},

	// OP_PUSHDATA2
	{0x100, []byte{0x4d, 0x00, 0x01}},
	{0x1050, []byte{0x4d, 0x50, 0x10}},
	{0xffff, []byte{0x4d, 0xff, 0xff}},

	// OP_PUSHDATA4
	{0x10000, []byte{0x4e, 0x00, 0x00, 0x01, 0x00}},
	{0x0010ff50, []byte{0x4e, 0x50, 0xff, 0x10, 0x00}},
}

func TestPushDataSizePrefixes(t *testing.T) {
	for _, tt := range pushDataSizeVectors {
		if got := PushDataScriptSize(tt.size); !bytes.Equal(got, tt.prefix) {
			t.Errorf("size %d : got %x, want %x", tt.size, got, tt.prefix)
		}

		parsed, err := ParsePushDataScriptSize(bytes.NewReader(tt.prefix))
		if err != nil {
			t.Fatalf("size %d : parse : %s", tt.size, err)
		}
		if parsed != tt.size {
			t.Errorf("size %d : parsed back %d", tt.size, parsed)
		}
	}
}

func TestWriteThenParsePushData(t *testing.T) {
	for _, tt := range pushDataSizeVectors {
		if tt.size > 0x10000 {
			continue // skip the largest allocation
		}

		data := make([]byte, tt.size)
		for i := range data {
			data[i] = byte(i)
		}

		buf := &bytes.Buffer{}
		if err := WritePushDataScript(buf, data); err != nil {
			t.Fatalf("size %d : write : %s", tt.size, err)
		}

		if !bytes.Equal(buf.Bytes()[:len(tt.prefix)], tt.prefix) {
			t.Errorf("size %d : wrong prefix %x", tt.size, buf.Bytes()[:len(tt.prefix)])
		}

		_, parsed, err := ParsePushDataScript(bytes.NewReader(buf.Bytes()))
		if err != nil && err != ErrNotPushOp {
			t.Fatalf("size %d : parse : %s", tt.size, err)
		}
		if !bytes.Equal(parsed, data) {
			t.Errorf("size %d : parsed data doesn't round trip", tt.size)
		}
	}
}

func TestParseScriptRejectsTruncatedPush(t *testing.T) {
	// Declares a 5 byte push but only carries 2 bytes.
	_, err := ParseScript(bytes.NewReader([]byte{0x05, 0x01, 0x02}))
	if err == nil {
		t.Fatalf("expected truncated push to fail")
	}
}

func TestScriptTextRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		text string
		hex  string
	}{
		{
			name: "PKH",
			text: "OP_DUP OP_HASH160 0x999ac355257736dfa1ad9652fcb51c7136fc27f9 OP_EQUALVERIFY OP_CHECKSIG",
			hex:  "76a914999ac355257736dfa1ad9652fcb51c7136fc27f988ac",
		},
		{
			name: "Text",
			text: "OP_0 OP_RETURN \"test text\"",
			hex:  "006a09746573742074657874",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := hex.DecodeString(tt.hex)
			if err != nil {
				t.Fatalf("decode hex : %s", err)
			}

			if got := ScriptToString(raw); got != tt.text {
				t.Fatalf("wrong text :\ngot  : %s\nwant : %s", got, tt.text)
			}

			script, err := StringToScript(tt.text)
			if err != nil {
				t.Fatalf("string to script : %s", err)
			}
			if !script.Equal(raw) {
				t.Fatalf("wrong bytes :\ngot  : %x\nwant : %x", script, raw)
			}
		})
	}
}

func TestScriptTemplates(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		template Template
		count    uint32
		required uint32
	}{
		{
			name:     "PKH",
			text:     "OP_DUP OP_HASH160 0x999ac355257736dfa1ad9652fcb51c7136fc27f9 OP_EQUALVERIFY OP_CHECKSIG",
			template: PKHTemplate,
			count:    1,
			required: 1,
		},
		{
			name:     "PK",
			text:     "0x029ac355257736dfa1ad9652fcb51c7136fc27f9ad9652fcb51c7136fc27f95257 OP_CHECKSIG",
			template: PKTemplate,
			count:    1,
			required: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, err := StringToScript(tt.text)
			if err != nil {
				t.Fatalf("decode script : %s", err)
			}

			if !script.MatchesTemplate(tt.template) {
				t.Fatalf("expected script to match template %s", tt.template)
			}
			if got := script.PubKeyCount(); got != tt.count {
				t.Errorf("wrong pub key count : got %d, want %d", got, tt.count)
			}

			required, err := script.RequiredSignatures()
			if err != nil {
				t.Fatalf("required signatures : %s", err)
			}
			if required != tt.required {
				t.Errorf("wrong required signature count : got %d, want %d", required, tt.required)
			}
		})
	}
}

func TestLockingScriptFromKey(t *testing.T) {
	key, err := GenerateKey(MainNet)
	if err != nil {
		t.Fatalf("generate key : %s", err)
	}

	lockingScript, err := key.LockingScript()
	if err != nil {
		t.Fatalf("locking script : %s", err)
	}

	if !lockingScript.IsP2PKH() {
		t.Fatalf("locking script from key isn't P2PKH : %s", lockingScript)
	}
	if lockingScript.IsP2PK() {
		t.Fatalf("locking script from key shouldn't match P2PK")
	}

	// The pushed hash must be the HASH160 of the compressed public key.
	items, err := ParseScriptItems(bytes.NewReader(lockingScript), -1)
	if err != nil {
		t.Fatalf("parse : %s", err)
	}
	if !bytes.Equal(items[2].Data, Hash160(key.PublicKey().Bytes())) {
		t.Fatalf("locking script doesn't push the key's hash")
	}
}
