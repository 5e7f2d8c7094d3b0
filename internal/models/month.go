package models

import (
	"fmt"
	"strconv"
)

// Month is a reporting period rendered as a YYYY-MM column label.
type Month struct {
	Year  int
	Month int
}

// ParseMonth accepts exactly the YYYY-MM shape used for sales column labels.
func ParseMonth(label string) (Month, error) {
	if len(label) != 7 || label[4] != '-' {
		return Month{}, fmt.Errorf("month label %q: want YYYY-MM", label)
	}
	for i, r := range label {
		if i != 4 && (r < '0' || r > '9') {
			return Month{}, fmt.Errorf("month label %q: want YYYY-MM", label)
		}
	}

	year, _ := strconv.Atoi(label[:4])
	month, _ := strconv.Atoi(label[5:])
	if month < 1 || month > 12 {
		return Month{}, fmt.Errorf("month label %q: month out of range", label)
	}

	return Month{Year: year, Month: month}, nil
}

// IsMonthLabel reports whether label names a sales column.
func IsMonthLabel(label string) bool {
	_, err := ParseMonth(label)
	return err == nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

// AddMonths shifts m by n calendar months, crossing year boundaries.
func (m Month) AddMonths(n int) Month {
	idx := m.Year*12 + (m.Month - 1) + n
	return Month{Year: idx / 12, Month: idx%12 + 1}
}

// PriorYear is the same month one year earlier.
func (m Month) PriorYear() Month {
	return Month{Year: m.Year - 1, Month: m.Month}
}
