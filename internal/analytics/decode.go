package analytics

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"vaultspark/internal/ledger/models"
	dErrors "vaultspark/pkg/domain-errors"
)

// DecodeTransactions reads an exported ledger: a JSON array of transaction
// objects. Anything other than an array of objects is rejected with
// CodeAggregationInputInvalid. Missing or null amounts decode as absent and
// count as zero.
func DecodeTransactions(r io.Reader) ([]models.Transaction, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, invalidInput(err, "ledger is not valid JSON")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, dErrors.New(dErrors.CodeAggregationInputInvalid, "ledger must be a JSON array")
	}

	txs := make([]models.Transaction, 0)
	for dec.More() {
		var tx models.Transaction
		if err := dec.Decode(&tx); err != nil {
			return nil, invalidInput(err, fmt.Sprintf("ledger entry %d is malformed", len(txs)))
		}
		txs = append(txs, tx)
	}
	if _, err := dec.Token(); err != nil {
		return nil, invalidInput(err, "ledger array is not terminated")
	}
	return txs, nil
}

func invalidInput(err error, msg string) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return dErrors.Wrap(err, dErrors.CodeAggregationInputInvalid, msg)
}
