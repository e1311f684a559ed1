package txbuilder

import (
	"github.com/tokenized/txsigner/bitcoin"
)

// InputSupplement carries the off-wire data needed to account for and sign an input: the value
// and locking script of the output it spends, neither of which is present in the wire input
// itself. KeyID optionally marks the input as owned by this signer, for spend-amount accounting.
type InputSupplement struct {
	LockingScript bitcoin.Script `json:"locking_script"`
	Value         uint64         `json:"value"`
	KeyID         string         `json:"key_id,omitempty"`
}

// OutputSupplement carries off-wire metadata about a transaction output. KeyID optionally marks
// the output as change returning to this signer.
type OutputSupplement struct {
	KeyID string `json:"key_id,omitempty"`
}
