package txbuilder

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/tokenized/txsigner/bitcoin"
	"github.com/tokenized/txsigner/wire"

	"github.com/pkg/errors"
)

// SigHashType represents the hash type bits carried in the low byte of a signature's trailing
// sighash-type byte, plus the FORKID and ANYONECANPAY flag bits that ride alongside them in the
// four-byte preimage tail.
type SigHashType uint32

const (
	SigHashAll          SigHashType = 0x01 // Sign all inputs, all outputs.
	SigHashNone         SigHashType = 0x02 // Sign all inputs, no outputs.
	SigHashSingle       SigHashType = 0x03 // Sign all inputs, only the output at the same index.
	SigHashForkID       SigHashType = 0x40 // BSV/BCH fork marker selecting the BIP-143 preimage.
	SigHashAnyOneCanPay SigHashType = 0x80 // Sign only this input.

	// sigHashMask extracts the ALL/NONE/SINGLE selector, discarding FORKID and ANYONECANPAY.
	sigHashMask SigHashType = 0x1f

	// DefaultSigHashType is used whenever a caller doesn't specify one.
	DefaultSigHashType = SigHashAll | SigHashForkID
)

var zeroHash32 bitcoin.Hash32

// SigHash computes the BIP-143/FORKID signature hash digest for the input at index. lockingScript
// and value describe the previous output being spent -- the caller supplies them because neither
// lives on the wire transaction itself. A zero sigHashType defaults to SigHashAll|SigHashForkID.
func SigHash(tx *wire.MsgTx, index int, lockingScript []byte, value uint64,
	sigHashType SigHashType) (*bitcoin.Hash32, error) {

	if index < 0 || index >= len(tx.TxIn) {
		return nil, newError(ErrorCodeIndex, fmt.Sprintf("input %d of %d", index, len(tx.TxIn)))
	}

	if sigHashType == 0 {
		sigHashType = DefaultSigHashType
	}

	preimage, err := SigHashPreimageBytes(tx, index, lockingScript, value, sigHashType)
	if err != nil {
		return nil, errors.Wrap(err, "preimage")
	}

	hash := bitcoin.DoubleSha256Hash32(preimage)
	return &hash, nil
}

// SigHashPreimageBytes builds the exact byte sequence that is double-SHA256'd to produce the
// signature hash: version, P, S, prev-hash, prev-index, locking script, value,
// sequence, O, locktime, type. The three substitutable digests P/S/O are resolved by an
// exhaustive decision table over the ANYONECANPAY/ALL/NONE/SINGLE flag combinations, so the
// SINGLE-with-out-of-range-input edge case is an explicit branch.
func SigHashPreimageBytes(tx *wire.MsgTx, index int, lockingScript []byte, value uint64,
	sigHashType SigHashType) ([]byte, error) {

	if index < 0 || index >= len(tx.TxIn) {
		return nil, newError(ErrorCodeIndex, fmt.Sprintf("input %d of %d", index, len(tx.TxIn)))
	}

	anyoneCanPay := sigHashType&SigHashAnyOneCanPay != 0
	masked := sigHashType & sigHashMask

	var buf bytes.Buffer

	if err := binary.Write(&buf, binary.LittleEndian, tx.Version); err != nil {
		return nil, err
	}

	// P: prev-outs digest. Zeroed under ANYONECANPAY so altering a sibling input's outpoint
	// doesn't invalidate a signature that only covers this input.
	if anyoneCanPay {
		buf.Write(zeroHash32.Bytes())
	} else {
		buf.Write(tx.HashPrevOuts())
	}

	// S: sequence digest. Zeroed under ANYONECANPAY, SINGLE, or NONE.
	if anyoneCanPay || masked == SigHashSingle || masked == SigHashNone {
		buf.Write(zeroHash32.Bytes())
	} else {
		buf.Write(tx.HashSequence())
	}

	if err := tx.TxIn[index].PreviousOutPoint.Serialize(&buf); err != nil {
		return nil, err
	}

	if err := wire.WriteVarBytes(&buf, lockingScript); err != nil {
		return nil, err
	}

	if err := binary.Write(&buf, binary.LittleEndian, value); err != nil {
		return nil, err
	}

	if err := binary.Write(&buf, binary.LittleEndian, tx.TxIn[index].Sequence); err != nil {
		return nil, err
	}

	// O: outputs digest. ALL covers every output; SINGLE covers only the output at this input's
	// own index, or zero if none exists at that index; NONE covers nothing.
	switch {
	case masked != SigHashSingle && masked != SigHashNone:
		buf.Write(tx.HashOutputs())
	case masked == SigHashSingle && index < len(tx.TxOut):
		var outBuf bytes.Buffer
		if err := tx.TxOut[index].Serialize(&outBuf); err != nil {
			return nil, err
		}
		buf.Write(bitcoin.DoubleSha256(outBuf.Bytes()))
	default:
		buf.Write(zeroHash32.Bytes())
	}

	if err := binary.Write(&buf, binary.LittleEndian, tx.LockTime); err != nil {
		return nil, err
	}

	if err := binary.Write(&buf, binary.LittleEndian, uint32(sigHashType)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
