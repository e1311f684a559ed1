package wire

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestMsgTxEmptyRoundTrip(t *testing.T) {
	const rawHex = "01000000000000000000"

	b, err := hex.DecodeString(rawHex)
	if err != nil {
		t.Fatalf("decode hex : %s", err)
	}

	tx := &MsgTx{}
	if err := tx.Deserialize(bytes.NewReader(b)); err != nil {
		t.Fatalf("deserialize : %s", err)
	}

	if tx.Version != 1 {
		t.Errorf("wrong version : got %d, want %d", tx.Version, 1)
	}
	if len(tx.TxIn) != 0 {
		t.Errorf("wrong input count : got %d, want 0", len(tx.TxIn))
	}
	if len(tx.TxOut) != 0 {
		t.Errorf("wrong output count : got %d, want 0", len(tx.TxOut))
	}
	if tx.LockTime != 0 {
		t.Errorf("wrong lock time : got %d, want 0", tx.LockTime)
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		t.Fatalf("serialize : %s", err)
	}

	if !bytes.Equal(buf.Bytes(), b) {
		t.Fatalf("round trip mismatch : got %x, want %x", buf.Bytes(), b)
	}

	id := tx.TxHash()
	if id.String() == "" {
		t.Fatalf("expected non-empty tx id")
	}
}

func TestMsgTxOutputsHashInvalidatedBySetTxOutValue(t *testing.T) {
	tx := NewMsgTx(1)
	tx.AddTxOut(NewTxOut(1000, []byte{0x76, 0xa9, 0x14}))

	before := tx.HashOutputs()
	beforeCopy := make([]byte, len(before))
	copy(beforeCopy, before)

	if err := tx.SetTxOutValue(0, 2000); err != nil {
		t.Fatalf("SetTxOutValue failed : %s", err)
	}

	after := tx.HashOutputs()
	if bytes.Equal(beforeCopy, after) {
		t.Fatalf("expected outputs hash to change after SetTxOutValue")
	}

	fresh := NewMsgTx(1)
	fresh.AddTxOut(NewTxOut(2000, []byte{0x76, 0xa9, 0x14}))
	if !bytes.Equal(after, fresh.HashOutputs()) {
		t.Fatalf("mutated hash doesn't match freshly built transaction's hash")
	}
}

func TestMsgTxPrevOutsAndSequenceInvalidatedByAddTxIn(t *testing.T) {
	tx := NewMsgTx(1)
	tx.AddTxIn(&TxIn{Sequence: MaxTxInSequenceNum})

	prevOuts1 := tx.HashPrevOuts()
	sequence1 := tx.HashSequence()

	tx.AddTxIn(&TxIn{Sequence: 0})

	prevOuts2 := tx.HashPrevOuts()
	sequence2 := tx.HashSequence()

	if bytes.Equal(prevOuts1, prevOuts2) {
		t.Fatalf("expected prev-outs hash to change after adding an input")
	}
	if bytes.Equal(sequence1, sequence2) {
		t.Fatalf("expected sequence hash to change after adding an input")
	}
}
