// Package nationalid decodes 14-digit Egyptian national identifiers into the
// attributes the portal derives from them: birth date, gender and governorate.
package nationalid

import (
	"errors"
	"fmt"
)

// Length is the exact number of digits in a national ID.
const Length = 14

var (
	// ErrInvalidFormat indicates the input is not exactly 14 ASCII digits.
	ErrInvalidFormat = errors.New("national id must be exactly 14 digits")
	// ErrUnknownCentury indicates the leading digit is not a known century code.
	ErrUnknownCentury = errors.New("unknown century code")
	// ErrInvalidDate indicates the month or day field is out of range.
	ErrInvalidDate = errors.New("invalid birth date")
	// ErrUnknownGovernorate indicates digits 7-8 are not an enumerated governorate code.
	ErrUnknownGovernorate = errors.New("unknown governorate code")
)

// DecodeError carries the failing rule and the offending input.
type DecodeError struct {
	Kind  error
	Input string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode national id: %v", e.Kind)
}

// Unwrap lets errors.Is match the sentinel kinds.
func (e *DecodeError) Unwrap() error {
	return e.Kind
}

// Century is the leading digit of a national ID.
type Century int

const (
	Century1800 Century = 1
	Century1900 Century = 2
	Century2000 Century = 3
	Century2100 Century = 4
)

// BaseYear returns the first year of the century, or 0 for an unknown code.
func (c Century) BaseYear() int {
	switch c {
	case Century1800:
		return 1800
	case Century1900:
		return 1900
	case Century2000:
		return 2000
	case Century2100:
		return 2100
	default:
		return 0
	}
}

// Gender is derived from the parity of digit 12.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// Date is a range-checked birth date. It is not calendar-normalised: 31 February
// is representable because the identifier rules only check month and day ranges.
type Date struct {
	Year  int
	Month int
	Day   int
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// DecodedID holds every attribute derived from a valid national ID.
type DecodedID struct {
	Raw         string
	Century     Century
	BirthDate   Date
	Governorate Governorate
	Gender      Gender
}

// Decode parses raw into its derived attributes. Either every field validates
// or an error is returned; partial results are never exposed.
func Decode(raw string) (DecodedID, error) {
	if err := ValidateFormat(raw); err != nil {
		return DecodedID{}, err
	}

	century := Century(digit(raw, 0))
	base := century.BaseYear()
	if base == 0 {
		return DecodedID{}, &DecodeError{Kind: ErrUnknownCentury, Input: raw}
	}

	month := number(raw, 3, 5)
	day := number(raw, 5, 7)
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return DecodedID{}, &DecodeError{Kind: ErrInvalidDate, Input: raw}
	}

	gov := Governorate(raw[7:9])
	if !gov.Known() {
		return DecodedID{}, &DecodeError{Kind: ErrUnknownGovernorate, Input: raw}
	}

	return DecodedID{
		Raw:     raw,
		Century: century,
		BirthDate: Date{
			Year:  base + number(raw, 1, 3),
			Month: month,
			Day:   day,
		},
		Governorate: gov,
		Gender:      genderFromDigit(digit(raw, 12)),
	}, nil
}

// ValidateFormat checks only that raw is exactly 14 ASCII digits.
func ValidateFormat(raw string) error {
	if len(raw) != Length {
		return &DecodeError{Kind: ErrInvalidFormat, Input: raw}
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return &DecodeError{Kind: ErrInvalidFormat, Input: raw}
		}
	}
	return nil
}

// GenderOf validates the format and returns the gender without decoding the
// other fields. Login uses this narrower check.
func GenderOf(raw string) (Gender, error) {
	if err := ValidateFormat(raw); err != nil {
		return "", err
	}
	return genderFromDigit(digit(raw, 12)), nil
}

// Mask hides everything but the last four characters, for logs.
func Mask(raw string) string {
	if len(raw) <= 4 {
		return raw
	}
	masked := make([]byte, len(raw))
	for i := range masked {
		masked[i] = '*'
	}
	copy(masked[len(raw)-4:], raw[len(raw)-4:])
	return string(masked)
}

func genderFromDigit(d int) Gender {
	if d%2 == 1 {
		return Male
	}
	return Female
}

func digit(raw string, i int) int {
	return int(raw[i] - '0')
}

func number(raw string, from, to int) int {
	n := 0
	for i := from; i < to; i++ {
		n = n*10 + digit(raw, i)
	}
	return n
}
