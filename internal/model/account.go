package model

// Status is the administrative state of an account.
type Status string

const (
	StatusEnabled  Status = "Enabled"
	StatusDisabled Status = "Disabled"
)

// Gender is the self-reported gender recorded at registration.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// Account represents a row in accounts.csv. The name is the natural key;
// the ID is a 3-digit string with pairwise-distinct digits.
type Account struct {
	Name   string
	ID     string
	Gender Gender
	Age    int
	PIN    string // 4 digits, stored in the clear (see DESIGN.md)
	Status Status
}

// Enabled reports whether the account may log in or receive transfers.
func (a Account) Enabled() bool {
	return a.Status != StatusDisabled
}
