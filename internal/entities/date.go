package entities

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"time"
)

// DateLayout is the wire and storage format of a civil date.
const DateLayout = "2006-01-02"

var dateFormat = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Date is a civil date stored as "YYYY-MM-DD". Keeping it a string makes
// ordering, equality and month prefix matching behave the same on every
// supported database.
type Date string

// DateOf returns the civil date of t in t's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// IsWellFormed reports whether s has the YYYY-MM-DD shape. Calendar validity
// is not checked.
func IsWellFormed(s string) bool {
	return dateFormat.MatchString(s)
}

func (d Date) String() string {
	return string(d)
}

func (d Date) Time() (time.Time, error) {
	return time.Parse(DateLayout, string(d))
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) (Date, error) {
	t, err := d.Time()
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", d, err)
	}
	return DateOf(t.AddDate(0, 0, n)), nil
}

// DaysSince returns the number of whole days from d to to. The result is
// negative when to is before d.
func (d Date) DaysSince(to Date) (int, error) {
	from, err := d.Time()
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", d, err)
	}
	end, err := to.Time()
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", to, err)
	}
	return int(end.Sub(from).Hours() / 24), nil
}

// MonthPrefix is the LIKE prefix matching every date in the given month.
func MonthPrefix(year, month int) string {
	return fmt.Sprintf("%04d-%02d-", year, month)
}

// Scan implements sql.Scanner. Drivers that hand back a time for date-like
// columns are normalised to the civil date.
func (d *Date) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*d = ""
	case string:
		*d = Date(v)
	case []byte:
		*d = Date(v)
	case time.Time:
		*d = DateOf(v)
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return string(d), nil
}
