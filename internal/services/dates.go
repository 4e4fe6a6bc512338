package services

import (
	"fmt"
	"strconv"
	"time"
)

// excelEpochOffset is the number of days between the Excel serial-date
// epoch (1899-12-30) and 1970-01-01.
const excelEpochOffset = 25569

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
}

// ParseCellDate normalizes a spreadsheet date cell to UTC midnight. The
// cell may hold a calendar date in one of the accepted layouts or an
// Excel serial day number.
func ParseCellDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		unix := (serial - excelEpochOffset) * 86400
		t := time.Unix(int64(unix), 0).UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
