// Package money provides the fixed-point amount type used throughout Easyplit.
//
// Amounts are held as integer minor units (cents). Conversion to and from
// decimal text only happens at boundaries: JSON, CLI input and display.
package money

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in cents.
type Amount int64

// Zero is the zero amount.
const Zero Amount = 0

// maxUnits bounds parsed amounts well inside int64 so sums over a group
// cannot overflow.
var maxUnits = decimal.New(1, 15)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrSubCent       = errors.New("amount has more than 2 decimal places")
	ErrInvalidCount  = errors.New("participant count must be positive")
)

// Cents builds an Amount from an integer number of cents.
func Cents(c int64) Amount { return Amount(c) }

// Parse converts a decimal string such as "12.30" into an Amount.
// Values with a non-zero third decimal are rejected rather than rounded.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return fromExactDecimal(d)
}

func fromExactDecimal(d decimal.Decimal) (Amount, error) {
	units := d.Shift(2)
	if !units.Equal(units.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s", ErrSubCent, d.String())
	}
	if units.Abs().GreaterThanOrEqual(maxUnits) {
		return 0, fmt.Errorf("%w: %s out of range", ErrInvalidAmount, d.String())
	}
	return Amount(units.IntPart()), nil
}

// FromDecimal converts d to cents, truncating toward zero.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount(d.Shift(2).Truncate(0).IntPart())
}

// PositiveTruncated renders a balance as a positive amount truncated (never
// rounded up) to two decimal places: floor(|d| * 100) / 100.
func PositiveTruncated(d decimal.Decimal) Amount {
	return FromDecimal(d.Abs())
}

// Split divides total into n equal shares. share is the truncated per-person
// amount and remainder the cents left over (0 <= remainder < n for
// non-negative totals).
func Split(total Amount, n int) (share, remainder Amount, err error) {
	if n <= 0 {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}
	share = total / Amount(n)
	remainder = total - share*Amount(n)
	return share, remainder, nil
}

// Decimal returns the amount as a decimal in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -2)
}

// Abs returns the absolute value.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}

// String formats the amount with exactly two decimals.
func (a Amount) String() string {
	return a.Decimal().StringFixed(2)
}

// MarshalJSON encodes the amount as a bare JSON number, e.g. 12.30.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	s := string(bytes.Trim(data, `"`))
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Value stores the amount as an integer number of cents.
func (a Amount) Value() (driver.Value, error) {
	return int64(a), nil
}

// Scan reads an integer number of cents.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*a = Amount(v)
	case nil:
		*a = 0
	default:
		return fmt.Errorf("%w: cannot scan %T into Amount", ErrInvalidAmount, src)
	}
	return nil
}
