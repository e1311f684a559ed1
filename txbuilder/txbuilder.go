package txbuilder

import (
	"bytes"
	"fmt"

	"github.com/tokenized/txsigner/bitcoin"
	"github.com/tokenized/txsigner/wire"

	"github.com/pkg/errors"
)

// DefaultVersion is the transaction version used by NewTransaction.
const DefaultVersion = int32(1)

// Transaction pairs a wire.MsgTx with the off-wire input and output supplements that
// the sighash and accounting operations need but that are never serialized on the wire.
// InputSupplements and OutputSupplements are kept aligned 1:1 with Tx.TxIn and Tx.TxOut by the
// mutators below; any operation that reads a supplement fails with an AlignmentError if a caller
// has bypassed them and let the slices drift apart.
type Transaction struct {
	Tx *wire.MsgTx

	InputSupplements  []*InputSupplement
	OutputSupplements []*OutputSupplement
}

// NewTransaction returns an empty transaction with the default version and zero lock time.
func NewTransaction() *Transaction {
	return &Transaction{Tx: wire.NewMsgTx(DefaultVersion)}
}

// NewTransactionFromWire wraps an already-parsed wire.MsgTx, initializing empty, aligned
// supplement slices the caller fills in with SetInputSupplement/SetOutputSupplement.
func NewTransactionFromWire(tx *wire.MsgTx) *Transaction {
	return &Transaction{
		Tx:                tx,
		InputSupplements:  make([]*InputSupplement, len(tx.TxIn)),
		OutputSupplements: make([]*OutputSupplement, len(tx.TxOut)),
	}
}

// NewTransactionFromBytes parses a wire-format transaction from raw bytes.
func NewTransactionFromBytes(b []byte) (*Transaction, error) {
	tx := &wire.MsgTx{}
	if err := tx.Deserialize(bytes.NewReader(b)); err != nil {
		return nil, newError(ErrorCodeDeserialize, err.Error())
	}

	return NewTransactionFromWire(tx), nil
}

// NewTransactionFromHex parses a hex-encoded wire-format transaction.
func NewTransactionFromHex(s string) (*Transaction, error) {
	r, err := wire.NewReaderFromHex(s)
	if err != nil {
		return nil, newError(ErrorCodeType, err.Error())
	}

	tx := &wire.MsgTx{}
	if err := tx.Deserialize(r); err != nil {
		return nil, newError(ErrorCodeDeserialize, err.Error())
	}

	return NewTransactionFromWire(tx), nil
}

// AddInput appends an input spending outpoint, attaching supplement at the same index so
// InputSupplements stays aligned with Tx.TxIn. supplement may be nil if it will be attached
// later with SetInputSupplement.
func (tx *Transaction) AddInput(outpoint *wire.OutPoint, sequence uint32,
	supplement *InputSupplement) {

	tx.Tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: *outpoint,
		Sequence:         sequence,
	})
	tx.InputSupplements = append(tx.InputSupplements, supplement)
}

// AddOutput appends an output paying value to lockingScript, attaching supplement at the same
// index so OutputSupplements stays aligned with Tx.TxOut.
func (tx *Transaction) AddOutput(value uint64, lockingScript bitcoin.Script,
	supplement *OutputSupplement) {

	tx.Tx.AddTxOut(&wire.TxOut{Value: value, LockingScript: lockingScript})
	tx.OutputSupplements = append(tx.OutputSupplements, supplement)
}

// SetInputSupplement attaches supplement data to an already-present input.
func (tx *Transaction) SetInputSupplement(index int, supplement *InputSupplement) error {
	if index < 0 || index >= len(tx.InputSupplements) {
		return newError(ErrorCodeIndex, fmt.Sprintf("input %d of %d", index,
			len(tx.InputSupplements)))
	}

	tx.InputSupplements[index] = supplement
	return nil
}

// SetOutputSupplement attaches supplement data to an already-present output.
func (tx *Transaction) SetOutputSupplement(index int, supplement *OutputSupplement) error {
	if index < 0 || index >= len(tx.OutputSupplements) {
		return newError(ErrorCodeIndex, fmt.Sprintf("output %d of %d", index,
			len(tx.OutputSupplements)))
	}

	tx.OutputSupplements[index] = supplement
	return nil
}

// SetOutputValue updates the value of the output at index, invalidating the memoized outputs
// prehash via wire.MsgTx.SetTxOutValue.
func (tx *Transaction) SetOutputValue(index int, value uint64) error {
	return tx.Tx.SetTxOutValue(index, value)
}

// Bytes returns the wire encoding of the transaction. Supplements are never serialized.
func (tx *Transaction) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := tx.Tx.Serialize(&buf); err != nil {
		return nil, errors.Wrap(err, "serialize")
	}
	return buf.Bytes(), nil
}

// ID returns the transaction id: sha256d of the wire encoding.
func (tx *Transaction) ID() *bitcoin.Hash32 {
	return tx.Tx.TxHash()
}

func (tx *Transaction) String() string {
	return tx.Tx.String()
}
