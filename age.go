package nanitws

import (
	"fmt"

	"github.com/samber/lo"
)

type AgeUnit int

const (
	AgeMonths AgeUnit = iota
	AgeYears
)

func (u AgeUnit) String() string {
	return lo.Ternary(u == AgeYears, "years", "months")
}

// AgeInfo is the age shown on the birthday screen.
type AgeInfo struct {
	Value int
	Unit  AgeUnit
}

// CalculateAge counts whole calendar months between birthDate and today. Under a year the
// age is in months, otherwise in whole years rounded down. Future birth dates yield zero
// months.
func CalculateAge(birthDate, today Date) AgeInfo {
	if birthDate.After(today) {
		return AgeInfo{Value: 0, Unit: AgeMonths}
	}

	months := (today.Year-birthDate.Year)*12 + int(today.Month-birthDate.Month)
	if today.Day < birthDate.Day {
		months--
	}

	switch {
	case months < 0:
		return AgeInfo{Value: 0, Unit: AgeMonths}
	case months < 12:
		return AgeInfo{Value: months, Unit: AgeMonths}
	default:
		return AgeInfo{Value: months / 12, Unit: AgeYears}
	}
}

// DisplayText is the caption next to the number, e.g. "MONTHS OLD!".
func (a AgeInfo) DisplayText() string {
	if a.Unit == AgeYears {
		return lo.Ternary(a.Value == 1, "YEAR OLD!", "YEARS OLD!")
	}
	return lo.Ternary(a.Value == 1, "MONTH OLD!", "MONTHS OLD!")
}

func (a AgeInfo) String() string {
	return fmt.Sprintf("%d %s", a.Value, a.Unit)
}
