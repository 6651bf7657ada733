package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Weekly  Cadence = "weekly"
	Monthly Cadence = "monthly"
	Yearly  Cadence = "yearly"
	Custom  Cadence = "custom"
)

const (
	KindIncome  CategoryKind = "income"
	KindExpense CategoryKind = "expense"
)

type (
	// Cadence is the rule generating successive occurrence dates.
	Cadence string

	// CategoryKind tags a category as income or expense.
	CategoryKind string

	// Date is a pure calendar date. The embedded time.Time always holds
	// midnight UTC; only (year, month, day) carry meaning.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Category struct {
		ID   string
		Name string
		Kind CategoryKind
	}

	// Subscription is a recurring obligation: a commitment charged once per
	// occurrence of its cadence. LastLogged is the anchor advanced by
	// reconciliation and stays zero until the first occurrence is logged.
	Subscription struct {
		ID           string
		Name         string
		Amount       Money
		Cadence      Cadence
		IntervalDays int // only meaningful when Cadence == Custom
		CategoryID   string
		StartDate    Date
		LastLogged   Date // zero: nothing reconciled yet
		EndDate      Date // zero: open-ended
	}

	// LedgerEntry records one reconciled occurrence. Entries are append-only.
	LedgerEntry struct {
		ID             string
		Date           Date
		Amount         Money
		Category       string
		Description    string
		SubscriptionID string
		CreatedAt      time.Time
	}
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidDate    = errors.New("invalid date")
	ErrEmptyName      = errors.New("empty name")
	ErrInvalidCadence = errors.New("invalid cadence")
)

// NewDate creates a Date from year, month, day. Out-of-range components are
// normalized by time.Date (e.g. month 13 rolls into the next year).
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String renders the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// Day returns the day of the month.
func (d Date) Day() int { return d.Time.Day() }

// Month returns the month as an int in 1..12.
func (d Date) Month() int { return int(d.Time.Month()) }

// Year returns the year.
func (d Date) Year() int { return d.Time.Year() }

func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (c Cadence) Valid() bool {
	switch c {
	case Weekly, Monthly, Yearly, Custom:
		return true
	}
	return false
}

func (k CategoryKind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Kind.Valid() {
		return errors.New("category kind must be income or expense")
	}
	return nil
}

func (s Subscription) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if len(s.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if err := s.Amount.Validate(); err != nil {
		return err
	}
	if !s.Cadence.Valid() {
		return ErrInvalidCadence
	}
	if s.Cadence == Custom && s.IntervalDays <= 0 {
		return errors.New("custom cadence requires a positive interval in days")
	}
	if strings.TrimSpace(s.CategoryID) == "" {
		return errors.New("missing category reference")
	}
	if s.StartDate.IsZero() {
		return errors.New("missing start date")
	}
	if !s.EndDate.IsZero() && s.EndDate.Before(s.StartDate) {
		return errors.New("end date must not precede start date")
	}
	if !s.LastLogged.IsZero() {
		if s.LastLogged.Before(s.StartDate) {
			return errors.New("last logged date precedes start date")
		}
		if !s.EndDate.IsZero() && s.LastLogged.After(s.EndDate) {
			return errors.New("last logged date exceeds end date")
		}
	}
	return nil
}

func (e LedgerEntry) Validate() error {
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Description) == "" {
		return errors.New("empty description")
	}
	if strings.TrimSpace(e.Category) == "" {
		return errors.New("empty category")
	}
	return nil
}
