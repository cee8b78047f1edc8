package expenses

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrShortRow        = errors.New("row has too few columns")
	ErrBadMonth        = errors.New("invalid month")
	ErrBadAmount       = errors.New("invalid amount")
	ErrUnknownCategory = errors.New("unknown category")
	ErrTooFewFields    = errors.New("form has too few required fields")
	ErrUnknownLayout   = errors.New("unknown layout")
)

// InputError is a problem with the contents of a single row.
type InputError struct {
	Kind  error
	Value string
}

func (e InputError) Error() string {
	return fmt.Sprintf("%s: %q", e.Kind.Error(), e.Value)
}

func (e InputError) Unwrap() error {
	return e.Kind
}

// Reason is the message shown to the operator in the final report.
func (e InputError) Reason() string {
	switch e.Kind {
	case ErrShortRow:
		return fmt.Sprintf("Za mało kolumn (%s)", e.Value)
	case ErrBadMonth:
		return fmt.Sprintf("Nieprawidłowy format miesiąca: %s", e.Value)
	case ErrBadAmount:
		return fmt.Sprintf("Nieprawidłowa kwota: '%s'", e.Value)
	case ErrUnknownCategory:
		return fmt.Sprintf("Nieznana kategoria: '%s'", e.Value)
	case ErrTooFewFields:
		return fmt.Sprintf("Formularz ma za mało pól (%s)", e.Value)
	}
	return e.Error()
}

// Reason renders any error for the final report.
func Reason(err error) string {
	var input InputError
	if errors.As(err, &input) {
		return input.Reason()
	}
	return err.Error()
}

// ParseAmount accepts Polish formatted amounts ("1 234,50"), spaces
// (including non-breaking ones) are dropped and the comma is the decimal
// separator. The result is rounded to grosze.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(s)
	cleaned = strings.TrimSpace(cleaned)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, InputError{Kind: ErrBadAmount, Value: s}
	}
	return d.Round(2), nil
}

// amount is ParseAmount in the shape the form expects.
func amount(s string) (float64, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// amountOrZero treats an empty cell as 0.
func amountOrZero(s string) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return amount(s)
}

// Date turns a CSV date into the timestamp format of the form's date fields.
func Date(s string) string {
	return strings.TrimSpace(s) + "T00:00:00"
}

// Month is a calendar month, 0 stands for "no month" in layouts that are
// not split by month.
type Month int

var monthNames = [...]string{
	"Styczeń", "Luty", "Marzec", "Kwiecień", "Maj", "Czerwiec",
	"Lipiec", "Sierpień", "Wrzesień", "Październik", "Listopad", "Grudzień",
}

func (m Month) Valid() bool {
	return m >= 1 && m <= 12
}

// Code is the two digit form, ex. "09".
func (m Month) Code() string {
	if !m.Valid() {
		return "all"
	}
	return fmt.Sprintf("%02d", int(m))
}

// Name is the Polish month name shown in the settlement grid.
func (m Month) Name() string {
	if !m.Valid() {
		return ""
	}
	return monthNames[m-1]
}

func (m Month) String() string {
	if !m.Valid() {
		return "all"
	}
	return fmt.Sprintf("%s (%s)", m.Name(), m.Code())
}

// ParseMonth accepts "1".."12" with or without a leading zero.
func ParseMonth(s string) (Month, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || len(trimmed) > 2 || strings.Trim(trimmed, "0123456789") != "" {
		return 0, InputError{Kind: ErrBadMonth, Value: s}
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil || !Month(n).Valid() {
		return 0, InputError{Kind: ErrBadMonth, Value: s}
	}
	return Month(n), nil
}

// AllMonths lists 01..12 in calendar order.
func AllMonths() []Month {
	out := make([]Month, 0, 12)
	for m := Month(1); m <= 12; m++ {
		out = append(out, m)
	}
	return out
}
