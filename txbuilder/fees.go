package txbuilder

import "fmt"

// GetFee returns the difference between the sum of input values and the sum of output values.
// Every input supplement must be populated -- a transaction with unresolved inputs has no
// meaningful fee, so this fails fast with ErrorCodeMissingSupplements rather than silently
// treating a missing input as contributing zero.
func (tx *Transaction) GetFee() (uint64, error) {
	if len(tx.InputSupplements) != len(tx.Tx.TxIn) {
		return 0, newError(ErrorCodeAlignment, fmt.Sprintf("input supplements %d, inputs %d",
			len(tx.InputSupplements), len(tx.Tx.TxIn)))
	}
	if len(tx.OutputSupplements) != len(tx.Tx.TxOut) {
		return 0, newError(ErrorCodeAlignment, fmt.Sprintf("output supplements %d, outputs %d",
			len(tx.OutputSupplements), len(tx.Tx.TxOut)))
	}

	var inputTotal uint64
	for i, supplement := range tx.InputSupplements {
		if supplement == nil {
			return 0, newError(ErrorCodeMissingSupplements, fmt.Sprintf("input %d", i))
		}
		inputTotal += supplement.Value
	}

	var outputTotal uint64
	for _, output := range tx.Tx.TxOut {
		outputTotal += output.Value
	}

	if outputTotal > inputTotal {
		return 0, newError(ErrorCodeMissingSupplements, "outputs exceed inputs")
	}

	return inputTotal - outputTotal, nil
}

// GetSpendAmount returns the net satoshis this signer spends: the sum of input values whose
// supplement carries a non-empty KeyID (inputs this signer owns), minus the sum of output values
// whose supplement carries a non-empty KeyID (outputs returning change to this signer). Any nil
// output supplement fails the whole calculation with ErrorCodeMissingSupplements, since an output
// with unknown ownership makes the net amount unknowable; a nil or empty-KeyID input supplement
// simply contributes zero, since spending nothing of this signer's is a valid and common case.
func (tx *Transaction) GetSpendAmount() (int64, error) {
	if len(tx.InputSupplements) != len(tx.Tx.TxIn) {
		return 0, newError(ErrorCodeAlignment, fmt.Sprintf("input supplements %d, inputs %d",
			len(tx.InputSupplements), len(tx.Tx.TxIn)))
	}
	if len(tx.OutputSupplements) != len(tx.Tx.TxOut) {
		return 0, newError(ErrorCodeAlignment, fmt.Sprintf("output supplements %d, outputs %d",
			len(tx.OutputSupplements), len(tx.Tx.TxOut)))
	}

	var spent int64

	for _, supplement := range tx.InputSupplements {
		if supplement == nil || len(supplement.KeyID) == 0 {
			continue
		}
		spent += int64(supplement.Value)
	}

	for i, output := range tx.Tx.TxOut {
		if tx.OutputSupplements[i] == nil {
			return 0, newError(ErrorCodeMissingSupplements, fmt.Sprintf("output %d", i))
		}

		if len(tx.OutputSupplements[i].KeyID) > 0 {
			spent -= int64(output.Value)
		}
	}

	return spent, nil
}
