package balances

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/passbook-dev/passbook/internal/model"
)

// Header is the CSV header for balances.csv.
const Header = "name,balance"

const (
	numFields  = 2
	colName    = 0
	colBalance = 1
)

// ReadBalances reads balances.csv. Unparseable rows (the header included)
// are skipped.
func ReadBalances(r io.Reader) ([]model.BalanceRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var records []model.BalanceRecord
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading balances CSV: %w", err)
		}

		b, err := UnmarshalBalance(rec)
		if err != nil {
			continue
		}
		records = append(records, b)
	}
	return records, nil
}

// WriteBalances writes balances.csv in the order given, header first.
func WriteBalances(w io.Writer, records []model.BalanceRecord) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, b := range records {
		if err := cw.Write(MarshalBalance(b)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalBalance converts a BalanceRecord to a CSV row.
func MarshalBalance(b model.BalanceRecord) []string {
	row := make([]string, numFields)
	row[colName] = b.Name
	row[colBalance] = b.Balance.StringFixed(2)
	return row
}

// UnmarshalBalance converts a CSV row to a BalanceRecord.
func UnmarshalBalance(record []string) (model.BalanceRecord, error) {
	if len(record) < numFields {
		return model.BalanceRecord{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	bal, err := decimal.NewFromString(record[colBalance])
	if err != nil {
		return model.BalanceRecord{}, fmt.Errorf("parsing balance %q: %w", record[colBalance], err)
	}
	return model.BalanceRecord{Name: record[colName], Balance: bal}, nil
}
