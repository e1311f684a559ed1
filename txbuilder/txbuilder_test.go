package txbuilder

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/tokenized/txsigner/bitcoin"
	"github.com/tokenized/txsigner/wire"
)

// TestTransactionEmptyRoundTrip: a version
// 1 transaction with no inputs or outputs round trips byte for byte and yields a stable id.
func TestTransactionEmptyRoundTrip(t *testing.T) {
	const rawHex = "01000000000000000000"

	tx, err := NewTransactionFromHex(rawHex)
	if err != nil {
		t.Fatalf("NewTransactionFromHex failed : %s", err)
	}

	b, err := tx.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed : %s", err)
	}

	if hex.EncodeToString(b) != rawHex {
		t.Fatalf("round trip mismatch : got %s, want %s", hex.EncodeToString(b), rawHex)
	}

	if len(tx.InputSupplements) != 0 || len(tx.OutputSupplements) != 0 {
		t.Fatalf("expected empty supplement slices")
	}

	id := tx.ID()
	if id.String() == "" {
		t.Fatalf("expected non-empty transaction id")
	}
}

func TestTransactionFromBytesMatchesFromHex(t *testing.T) {
	const rawHex = "01000000000000000000"

	b, err := hex.DecodeString(rawHex)
	if err != nil {
		t.Fatalf("decode hex : %s", err)
	}

	tx, err := NewTransactionFromBytes(b)
	if err != nil {
		t.Fatalf("NewTransactionFromBytes failed : %s", err)
	}

	got, err := tx.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed : %s", err)
	}
	if !bytes.Equal(got, b) {
		t.Fatalf("round trip mismatch : got %x, want %x", got, b)
	}
}

func TestTransactionFromBytesFailsOnTruncatedInput(t *testing.T) {
	_, err := NewTransactionFromBytes([]byte{0x01, 0x00, 0x00})
	if err == nil {
		t.Fatalf("expected error for truncated transaction bytes")
	}
	if !IsErrorCode(err, ErrorCodeDeserialize) {
		t.Fatalf("expected ErrorCodeDeserialize, got %v", err)
	}
}

func TestTransactionFromHexFailsOnOddLength(t *testing.T) {
	_, err := NewTransactionFromHex("abc")
	if err == nil {
		t.Fatalf("expected error for odd-length hex")
	}
}

// TestAddInputAndOutputKeepSupplementsAligned covers the pairing invariant: each
// input/output addition keeps the corresponding supplement slice the same length as the wire
// slice it shadows.
func TestAddInputAndOutputKeepSupplementsAligned(t *testing.T) {
	tx := NewTransaction()

	var prevHash bitcoin.Hash32
	for i := range prevHash {
		prevHash[i] = 0x03
	}

	tx.AddInput(&wire.OutPoint{Hash: prevHash, Index: 0}, wire.MaxTxInSequenceNum,
		&InputSupplement{Value: 1000})
	tx.AddOutput(900, []byte{0x76, 0xa9, 0x14}, &OutputSupplement{})

	if len(tx.Tx.TxIn) != len(tx.InputSupplements) {
		t.Fatalf("input supplement slice out of alignment : %d txins, %d supplements",
			len(tx.Tx.TxIn), len(tx.InputSupplements))
	}
	if len(tx.Tx.TxOut) != len(tx.OutputSupplements) {
		t.Fatalf("output supplement slice out of alignment : %d txouts, %d supplements",
			len(tx.Tx.TxOut), len(tx.OutputSupplements))
	}

	if err := tx.SetInputSupplement(0, &InputSupplement{Value: 1500}); err != nil {
		t.Fatalf("SetInputSupplement failed : %s", err)
	}
	if tx.InputSupplements[0].Value != 1500 {
		t.Fatalf("SetInputSupplement did not update value")
	}

	if err := tx.SetInputSupplement(5, &InputSupplement{Value: 1}); err == nil {
		t.Fatalf("expected error setting supplement out of range")
	} else if !IsErrorCode(err, ErrorCodeIndex) {
		t.Fatalf("expected ErrorCodeIndex, got %v", err)
	}
}

// TestSetOutputValueInvalidatesOutputsHash goes through the Transaction
// wrapper.
func TestSetOutputValueInvalidatesOutputsHash(t *testing.T) {
	tx := NewTransaction()
	tx.AddOutput(1000, []byte{0x76, 0xa9, 0x14}, &OutputSupplement{})

	before := tx.Tx.HashOutputs()
	beforeCopy := append([]byte(nil), before...)

	if err := tx.SetOutputValue(0, 2000); err != nil {
		t.Fatalf("SetOutputValue failed : %s", err)
	}

	if bytes.Equal(beforeCopy, tx.Tx.HashOutputs()) {
		t.Fatalf("expected outputs hash to change after SetOutputValue")
	}
}

// TestSignP2PKHInputRoundTrip builds a one-input, one-output transaction spending a P2PKH output,
// signs it, and verifies the embedded unlocking script recovers the signing public key.
func TestSignP2PKHInputRoundTrip(t *testing.T) {
	key, err := bitcoin.GenerateKey(bitcoin.MainNet)
	if err != nil {
		t.Fatalf("generate key : %s", err)
	}

	lockingScript, err := key.LockingScript()
	if err != nil {
		t.Fatalf("locking script : %s", err)
	}

	var prevHash bitcoin.Hash32
	for i := range prevHash {
		prevHash[i] = 0x04
	}

	tx := NewTransaction()
	tx.AddInput(&wire.OutPoint{Hash: prevHash, Index: 0}, wire.MaxTxInSequenceNum,
		&InputSupplement{LockingScript: lockingScript, Value: 2000, KeyID: "m/0/0"})

	outLockingScript, err := bitcoin.StringToScript(
		"OP_DUP OP_HASH160 0x0000000000000000000000000000000000000000 OP_EQUALVERIFY OP_CHECKSIG")
	if err != nil {
		t.Fatalf("build output locking script : %s", err)
	}
	tx.AddOutput(1800, outLockingScript, &OutputSupplement{})

	if tx.InputIsSigned(0) {
		t.Fatalf("expected unsigned input before SignP2PKHInput")
	}
	if tx.AllInputsAreSigned() {
		t.Fatalf("expected AllInputsAreSigned to be false")
	}

	if err := tx.SignP2PKHInput(0, key, DefaultSigHashType); err != nil {
		t.Fatalf("SignP2PKHInput failed : %s", err)
	}

	if !tx.InputIsSigned(0) {
		t.Fatalf("expected input to be signed")
	}
	if !tx.AllInputsAreSigned() {
		t.Fatalf("expected AllInputsAreSigned to be true")
	}

	pubKey, err := bitcoin.PubKeyFromP2PKHSigScript(tx.Tx.TxIn[0].UnlockingScript)
	if err != nil {
		t.Fatalf("parse unlocking script : %s", err)
	}
	if !bytes.Equal(pubKey, key.PublicKey().Bytes()) {
		t.Fatalf("wrong public key embedded : got %x, want %x", pubKey, key.PublicKey().Bytes())
	}

	fee, err := tx.GetFee()
	if err != nil {
		t.Fatalf("GetFee failed : %s", err)
	}
	if fee != 200 {
		t.Fatalf("wrong fee : got %d, want 200", fee)
	}
}

// TestPendingSignatureAppliesLater exercises the detached-signature workflow: a
// co-signer computes a PendingSignature without mutating the transaction, and applying it later
// embeds an unlocking script that carries the signer's public key.
func TestPendingSignatureAppliesLater(t *testing.T) {
	key, err := bitcoin.GenerateKey(bitcoin.MainNet)
	if err != nil {
		t.Fatalf("generate key : %s", err)
	}

	lockingScript, err := key.LockingScript()
	if err != nil {
		t.Fatalf("locking script : %s", err)
	}

	var prevHash bitcoin.Hash32
	for i := range prevHash {
		prevHash[i] = 0x05
	}

	tx := NewTransaction()
	tx.AddInput(&wire.OutPoint{Hash: prevHash, Index: 0}, wire.MaxTxInSequenceNum,
		&InputSupplement{LockingScript: lockingScript, Value: 2000})
	tx.AddOutput(1800, []byte{0x76, 0xa9, 0x14}, &OutputSupplement{})

	pending, err := tx.MakePendingTransactionSignature(0, key, DefaultSigHashType)
	if err != nil {
		t.Fatalf("MakePendingTransactionSignature failed : %s", err)
	}

	if tx.InputIsSigned(0) {
		t.Fatalf("expected MakePendingTransactionSignature not to mutate the transaction")
	}

	if err := tx.ApplyPendingSignature(pending); err != nil {
		t.Fatalf("ApplyPendingSignature failed : %s", err)
	}

	if !tx.InputIsSigned(0) {
		t.Fatalf("expected input to be signed after ApplyPendingSignature")
	}

	pubKey, err := bitcoin.PubKeyFromP2PKHSigScript(tx.Tx.TxIn[0].UnlockingScript)
	if err != nil {
		t.Fatalf("parse unlocking script : %s", err)
	}
	if !bytes.Equal(pubKey, key.PublicKey().Bytes()) {
		t.Fatalf("wrong public key embedded : got %x, want %x", pubKey, key.PublicKey().Bytes())
	}
}

// TestSignSkipsInputsWithoutMatchingKey covers the co-signing workflow where Sign is called with
// a partial key set: inputs owned by other signers are left untouched rather than erroring.
func TestSignSkipsInputsWithoutMatchingKey(t *testing.T) {
	key1, err := bitcoin.GenerateKey(bitcoin.MainNet)
	if err != nil {
		t.Fatalf("generate key : %s", err)
	}
	key2, err := bitcoin.GenerateKey(bitcoin.MainNet)
	if err != nil {
		t.Fatalf("generate key : %s", err)
	}

	lockingScript1, err := key1.LockingScript()
	if err != nil {
		t.Fatalf("locking script : %s", err)
	}
	lockingScript2, err := key2.LockingScript()
	if err != nil {
		t.Fatalf("locking script : %s", err)
	}

	var hash1, hash2 bitcoin.Hash32
	for i := range hash1 {
		hash1[i] = 0x06
		hash2[i] = 0x07
	}

	tx := NewTransaction()
	tx.AddInput(&wire.OutPoint{Hash: hash1, Index: 0}, wire.MaxTxInSequenceNum,
		&InputSupplement{LockingScript: lockingScript1, Value: 1000})
	tx.AddInput(&wire.OutPoint{Hash: hash2, Index: 0}, wire.MaxTxInSequenceNum,
		&InputSupplement{LockingScript: lockingScript2, Value: 2000})
	tx.AddOutput(2500, []byte{0x76, 0xa9, 0x14}, &OutputSupplement{})

	if err := tx.Sign([]bitcoin.Key{key1}, DefaultSigHashType); err != nil {
		t.Fatalf("Sign failed : %s", err)
	}

	if !tx.InputIsSigned(0) {
		t.Fatalf("expected input 0 to be signed by key1")
	}
	if tx.InputIsSigned(1) {
		t.Fatalf("expected input 1 to remain unsigned without key2")
	}
	if tx.AllInputsAreSigned() {
		t.Fatalf("expected AllInputsAreSigned to be false")
	}
}
