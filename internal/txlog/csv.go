package txlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/passbook-dev/passbook/internal/model"
)

// Header is the CSV header for transactions.csv.
const Header = "id,name,kind,amount,balance,counterparty,timestamp"

const (
	numFields    = 7
	colID        = 0
	colName      = 1
	colKind      = 2
	colAmount    = 3
	colBalance   = 4
	colCparty    = 5
	colTimestamp = 6
)

// ReadRecords reads transactions.csv in file order. Unparseable rows (the
// header included) are skipped.
func ReadRecords(r io.Reader) ([]model.TransactionRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var records []model.TransactionRecord
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
			return nil, fmt.Errorf("reading transactions CSV: %w", err)
		}

		txr, err := UnmarshalRecord(rec)
		if err != nil {
			continue
		}
		records = append(records, txr)
	}
	return records, nil
}

// WriteRecords writes transactions.csv in the order given, header first.
func WriteRecords(w io.Writer, records []model.TransactionRecord) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, r := range records {
		if err := cw.Write(MarshalRecord(r)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// AppendRecords writes rows without a header, for appending to an existing
// file.
func AppendRecords(w io.Writer, records []model.TransactionRecord) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	for i, r := range records {
		if err := cw.Write(MarshalRecord(r)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	return cw.Error()
}

// MarshalRecord converts a TransactionRecord to a CSV row.
func MarshalRecord(r model.TransactionRecord) []string {
	row := make([]string, numFields)
	row[colID] = r.ID.String()
	row[colName] = r.Name
	row[colKind] = string(r.Kind)
	row[colAmount] = r.Amount.StringFixed(2)
	row[colBalance] = r.Balance.StringFixed(2)
	row[colCparty] = r.Counterparty
	row[colTimestamp] = r.Timestamp.Format(time.RFC3339)
	return row
}

// UnmarshalRecord converts a CSV row to a TransactionRecord. Rows may omit
// the counterparty and timestamp columns.
func UnmarshalRecord(record []string) (model.TransactionRecord, error) {
	if len(record) < colCparty {
		return model.TransactionRecord{}, fmt.Errorf("expected at least %d fields, got %d", colCparty, len(record))
	}

	id, err := uuid.Parse(record[colID])
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("parsing id %q: %w", record[colID], err)
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	balance, err := decimal.NewFromString(record[colBalance])
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("parsing balance %q: %w", record[colBalance], err)
	}

	var cparty string
	if len(record) > colCparty {
		cparty = record[colCparty]
	}

	var ts time.Time
	if len(record) > colTimestamp && record[colTimestamp] != "" {
		ts, err = time.Parse(time.RFC3339, record[colTimestamp])
		if err != nil {
			return model.TransactionRecord{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
		}
	}

	return model.TransactionRecord{
		ID:           id,
		Name:         record[colName],
		Kind:         model.Kind(record[colKind]),
		Amount:       amount,
		Balance:      balance,
		Counterparty: cparty,
		Timestamp:    ts,
	}, nil
}
