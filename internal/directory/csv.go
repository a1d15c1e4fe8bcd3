package directory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/passbook-dev/passbook/internal/model"
)

// Header is the CSV header for accounts.csv.
const Header = "name,id,gender,age,pin,status"

const (
	numFields = 6
	colName   = 0
	colID     = 1
	colGender = 2
	colAge    = 3
	colPIN    = 4
	colStatus = 5
)

// ReadAccounts reads accounts.csv. A row that cannot be parsed is skipped
// rather than aborting the load; a row missing the status field defaults to
// Enabled. The header row falls out as a skipped row.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var accounts []model.Account
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
			return nil, fmt.Errorf("reading accounts CSV: %w", err)
		}

		acct, err := UnmarshalAccount(rec)
		if err != nil {
			continue
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes accounts.csv in the order given, header first.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colName] = acct.Name
	row[colID] = acct.ID
	row[colGender] = string(acct.Gender)
	row[colAge] = strconv.Itoa(acct.Age)
	row[colPIN] = acct.PIN
	row[colStatus] = string(acct.Status)
	return row
}

// UnmarshalAccount converts a CSV row to an Account. Rows may omit trailing
// fields from the status column on; anything shorter is malformed.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) < colStatus {
		return model.Account{}, fmt.Errorf("expected at least %d fields, got %d", colStatus, len(record))
	}

	age, err := strconv.Atoi(record[colAge])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing age %q: %w", record[colAge], err)
	}

	status := model.StatusEnabled
	if len(record) > colStatus && record[colStatus] != "" {
		status = model.Status(record[colStatus])
	}

	return model.Account{
		Name:   record[colName],
		ID:     record[colID],
		Gender: model.Gender(record[colGender]),
		Age:    age,
		PIN:    record[colPIN],
		Status: status,
	}, nil
}
