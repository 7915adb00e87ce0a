package core

import (
	"bytes"
	"database/sql/driver"
	"time"

	"github.com/pkg/errors"
)

const dateLayout = "2006-01-02"

var jsonNull = []byte("null")

// Date is a nullable calendar date (no time component). It marshals to/from
// JSON as "YYYY-MM-DD" or null, and maps to a SQL DATE column.
type Date struct {
	Time  time.Time
	Valid bool
}

func DateFrom(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), Valid: true}
}

func (d Date) String() string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return jsonNull, nil
	}
	return []byte(`"` + d.Time.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, jsonNull) || bytes.Equal(data, []byte(`""`)) {
		d.Time, d.Valid = time.Time{}, false
		return nil
	}
	t, err := time.Parse(`"`+dateLayout+`"`, string(data))
	if err != nil {
		return errors.Wrap(err, "parsing date")
	}
	d.Time, d.Valid = t, true
	return nil
}

// UnmarshalParam binds a "YYYY-MM-DD" query or path parameter.
func (d *Date) UnmarshalParam(param string) error {
	if param == "" {
		d.Time, d.Valid = time.Time{}, false
		return nil
	}
	return d.scanString(param)
}

func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		d.Time, d.Valid = time.Time{}, false
	case time.Time:
		d.Time, d.Valid = v, true
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	default:
		return errors.Errorf("incompatible type %T for Date", value)
	}
	return nil
}

func (d *Date) scanString(s string) error {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return errors.Wrap(err, "scanning date")
	}
	d.Time, d.Valid = t, true
	return nil
}

func (d Date) Value() (driver.Value, error) {
	if !d.Valid {
		return nil, nil
	}
	return d.Time, nil
}
