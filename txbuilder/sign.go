package txbuilder

import (
	"encoding/hex"
	"fmt"

	"github.com/tokenized/txsigner/bitcoin"

	"github.com/pkg/errors"
)

// PendingSignature is a signature that has been computed for an input but not yet embedded into
// the transaction's unlocking script. It carries the hash type separately because the detached
// DER encoding doesn't append the trailing sighash-type byte the way an embedded push-data does.
type PendingSignature struct {
	InputIndex  int         `json:"input_index"`
	Signature   string      `json:"signature"` // hex-encoded DER
	SigHashType SigHashType `json:"sig_hash_type"`
	PublicKey   string      `json:"public_key"` // hex-encoded compressed public key
}

// InputIsSigned returns true if the input at index already has an unlocking script.
func (tx *Transaction) InputIsSigned(index int) bool {
	if index < 0 || index >= len(tx.Tx.TxIn) {
		return false
	}

	return len(tx.Tx.TxIn[index].UnlockingScript) > 0
}

// AllInputsAreSigned returns true if every input has an unlocking script.
func (tx *Transaction) AllInputsAreSigned() bool {
	for _, input := range tx.Tx.TxIn {
		if len(input.UnlockingScript) == 0 {
			return false
		}
	}
	return true
}

// SignP2PKHInput signs input index with key and embeds the resulting P2PKH unlocking script
// (<sig+type><pubkey>) directly into tx.Tx.TxIn[index].UnlockingScript. The locking script and
// value of the output being spent are read from tx.InputSupplements[index]; use
// SetInputSupplement first if it hasn't been populated.
func (tx *Transaction) SignP2PKHInput(index int, key bitcoin.Key, sigHashType SigHashType) error {
	if index < 0 || index >= len(tx.Tx.TxIn) {
		return newError(ErrorCodeIndex, fmt.Sprintf("input %d of %d", index, len(tx.Tx.TxIn)))
	}

	if len(tx.InputSupplements) != len(tx.Tx.TxIn) {
		return newError(ErrorCodeAlignment, fmt.Sprintf("input supplements %d, inputs %d",
			len(tx.InputSupplements), len(tx.Tx.TxIn)))
	}

	if index >= len(tx.InputSupplements) || tx.InputSupplements[index] == nil {
		return newError(ErrorCodeMissingSupplements, fmt.Sprintf("input %d", index))
	}

	supplement := tx.InputSupplements[index]

	if sigHashType == 0 {
		sigHashType = DefaultSigHashType
	}

	hash, err := SigHash(tx.Tx, index, supplement.LockingScript, supplement.Value, sigHashType)
	if err != nil {
		return errors.Wrap(err, "sig hash")
	}

	signature, err := key.Sign(*hash)
	if err != nil {
		return errors.Wrap(err, "sign")
	}

	unlockingScript, err := p2pkhUnlockingScript(signature, sigHashType, key.PublicKey())
	if err != nil {
		return errors.Wrap(err, "unlocking script")
	}

	tx.Tx.TxIn[index].UnlockingScript = unlockingScript
	return nil
}

// MakePendingTransactionSignature computes the signature for input index without mutating the
// transaction, for workflows where multiple co-signers produce signatures against the same
// unsigned transaction before any of them are embedded.
func (tx *Transaction) MakePendingTransactionSignature(index int, key bitcoin.Key,
	sigHashType SigHashType) (*PendingSignature, error) {

	if index < 0 || index >= len(tx.Tx.TxIn) {
		return nil, newError(ErrorCodeIndex, fmt.Sprintf("input %d of %d", index, len(tx.Tx.TxIn)))
	}

	if len(tx.InputSupplements) != len(tx.Tx.TxIn) {
		return nil, newError(ErrorCodeAlignment, fmt.Sprintf("input supplements %d, inputs %d",
			len(tx.InputSupplements), len(tx.Tx.TxIn)))
	}

	if index >= len(tx.InputSupplements) || tx.InputSupplements[index] == nil {
		return nil, newError(ErrorCodeMissingSupplements, fmt.Sprintf("input %d", index))
	}

	supplement := tx.InputSupplements[index]

	if sigHashType == 0 {
		sigHashType = DefaultSigHashType
	}

	hash, err := SigHash(tx.Tx, index, supplement.LockingScript, supplement.Value, sigHashType)
	if err != nil {
		return nil, errors.Wrap(err, "sig hash")
	}

	signature, err := key.Sign(*hash)
	if err != nil {
		return nil, errors.Wrap(err, "sign")
	}

	return &PendingSignature{
		InputIndex:  index,
		Signature:   hex.EncodeToString(signature.Bytes()),
		SigHashType: sigHashType,
		PublicKey:   hex.EncodeToString(key.PublicKey().Bytes()),
	}, nil
}

// ApplyPendingSignature embeds a previously computed PendingSignature into the transaction's
// unlocking script for its input.
func (tx *Transaction) ApplyPendingSignature(pending *PendingSignature) error {
	index := pending.InputIndex
	if index < 0 || index >= len(tx.Tx.TxIn) {
		return newError(ErrorCodeIndex, fmt.Sprintf("input %d of %d", index, len(tx.Tx.TxIn)))
	}

	sigBytes, err := hex.DecodeString(pending.Signature)
	if err != nil {
		return newError(ErrorCodeType, "signature hex: "+err.Error())
	}

	pubKeyBytes, err := hex.DecodeString(pending.PublicKey)
	if err != nil {
		return newError(ErrorCodeType, "public key hex: "+err.Error())
	}

	publicKey, err := bitcoin.PublicKeyFromBytes(pubKeyBytes)
	if err != nil {
		return errors.Wrap(err, "public key")
	}

	signature, err := bitcoin.SignatureFromBytes(sigBytes)
	if err != nil {
		return errors.Wrap(err, "signature")
	}

	unlockingScript, err := p2pkhUnlockingScript(signature, pending.SigHashType, publicKey)
	if err != nil {
		return errors.Wrap(err, "unlocking script")
	}

	tx.Tx.TxIn[index].UnlockingScript = unlockingScript
	return nil
}

// p2pkhUnlockingScript builds <push(sig DER || type byte)><push(pubkey)>, the standard P2PKH
// unlocking script.
func p2pkhUnlockingScript(signature bitcoin.Signature, sigHashType SigHashType,
	publicKey bitcoin.PublicKey) (bitcoin.Script, error) {

	sigWithType := append(signature.Bytes(), byte(sigHashType))

	items := bitcoin.ScriptItems{
		bitcoin.NewPushDataScriptItem(sigWithType),
		bitcoin.NewPushDataScriptItem(publicKey.Bytes()),
	}

	return items.Script()
}

// Sign signs every input whose supplement locking script matches one of keys, leaving any other
// input untouched so co-signers can fill in the rest.
func (tx *Transaction) Sign(keys []bitcoin.Key, sigHashType SigHashType) error {
	if len(tx.InputSupplements) != len(tx.Tx.TxIn) {
		return newError(ErrorCodeAlignment, fmt.Sprintf("input supplements %d, inputs %d",
			len(tx.InputSupplements), len(tx.Tx.TxIn)))
	}

	for i := range tx.Tx.TxIn {
		if i >= len(tx.InputSupplements) || tx.InputSupplements[i] == nil {
			continue
		}

		key, err := tx.findKeyForInput(i, keys)
		if err != nil {
			return errors.Wrapf(err, "input %d", i)
		}
		if key == nil {
			continue
		}

		if err := tx.SignP2PKHInput(i, *key, sigHashType); err != nil {
			return errors.Wrapf(err, "input %d", i)
		}
	}

	return nil
}

// findKeyForInput returns the key whose P2PKH locking script matches input index's supplement, or
// nil if none of keys can unlock it.
func (tx *Transaction) findKeyForInput(index int, keys []bitcoin.Key) (*bitcoin.Key, error) {
	supplement := tx.InputSupplements[index]

	for i := range keys {
		lockingScript, err := keys[i].LockingScript()
		if err != nil {
			return nil, errors.Wrap(err, "locking script")
		}

		if lockingScript.Equal(supplement.LockingScript) {
			return &keys[i], nil
		}
	}

	return nil, nil
}
