// Package eligibility applies the recruitment admission rules to a decoded national ID.
// Everything here is pure: no I/O, and the evaluation time is always passed in.
package eligibility

import (
	"fmt"
	"time"

	"github.com/hongminglow/recruit-portal/internal/nationalid"
)

// Reason identifies a failed admission rule.
type Reason string

const (
	ReasonNotMale            Reason = "not_male"
	ReasonUnderage           Reason = "underage"
	ReasonOverage            Reason = "overage"
	ReasonUnknownGovernorate Reason = "unknown_governorate"
)

const (
	DefaultMinAge = 18
	DefaultMaxAge = 35
)

// Policy holds the inclusive age window applicants must fall in.
type Policy struct {
	MinAge int
	MaxAge int
}

// DefaultPolicy returns the 18-35 window.
func DefaultPolicy() Policy {
	return Policy{MinAge: DefaultMinAge, MaxAge: DefaultMaxAge}
}

// Result is the outcome of Check. Reasons is empty when Eligible is true.
type Result struct {
	Eligible bool
	Age      int
	Reasons  []Reason
}

// Message renders a user-facing sentence for a reason under this policy.
func (p Policy) Message(r Reason) string {
	switch r {
	case ReasonNotMale:
		return "Only male applicants are eligible for recruitment"
	case ReasonUnderage:
		return fmt.Sprintf("Applicants must be at least %d years old", p.MinAge)
	case ReasonOverage:
		return fmt.Sprintf("Applicants must be at most %d years old", p.MaxAge)
	case ReasonUnknownGovernorate:
		return "National ID governorate code is not recognised"
	default:
		return string(r)
	}
}

// Check evaluates every rule and collects all failures instead of stopping at the first.
func (p Policy) Check(decoded nationalid.DecodedID, asOf time.Time) Result {
	age := AgeAt(decoded.BirthDate, asOf)
	var reasons []Reason

	if decoded.Gender != nationalid.Male {
		reasons = append(reasons, ReasonNotMale)
	}
	if age < p.MinAge {
		reasons = append(reasons, ReasonUnderage)
	}
	if age > p.MaxAge {
		reasons = append(reasons, ReasonOverage)
	}
	if !decoded.Governorate.Known() {
		reasons = append(reasons, ReasonUnknownGovernorate)
	}

	return Result{Eligible: len(reasons) == 0, Age: age, Reasons: reasons}
}

// Check applies the default policy.
func Check(decoded nationalid.DecodedID, asOf time.Time) Result {
	return DefaultPolicy().Check(decoded, asOf)
}

// CheckLogin is the narrower login-time check: format and gender only. Age is
// not re-evaluated for returning users.
func CheckLogin(raw string) ([]Reason, error) {
	gender, err := nationalid.GenderOf(raw)
	if err != nil {
		return nil, err
	}
	if gender != nationalid.Male {
		return []Reason{ReasonNotMale}, nil
	}
	return nil, nil
}

// AgeAt returns the whole years elapsed between birth and asOf.
func AgeAt(birth nationalid.Date, asOf time.Time) int {
	age := asOf.Year() - birth.Year
	month := int(asOf.Month())
	if month < birth.Month || (month == birth.Month && asOf.Day() < birth.Day) {
		age--
	}
	return age
}
