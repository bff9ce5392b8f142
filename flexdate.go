package docstract

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// flexibleDateLayouts are the date layouts accepted by FlexibleDate, tried
// in order. Identity documents print dates as "DD MM YYYY"; invoices tend
// to use slashes or dashes; models occasionally normalize to ISO.
var flexibleDateLayouts = []string{
	"02 01 2006",
	"02/01/2006",
	"02-01-2006",
	"2006-01-02",
}

// FlexibleDate is a date field that unmarshals from the formats documents
// actually carry. Years outside 1900..2100 are rejected as misreads.
type FlexibleDate struct {
	time.Time
}

// ParseFlexibleDate parses s against the accepted layouts.
func ParseFlexibleDate(s string) (FlexibleDate, error) {
	s = strings.TrimSpace(s)
	for _, layout := range flexibleDateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() < 1900 || t.Year() > 2100 {
			return FlexibleDate{}, fmt.Errorf("date %q: year %d out of range 1900..2100", s, t.Year())
		}
		return FlexibleDate{t}, nil
	}
	return FlexibleDate{}, fmt.Errorf("invalid date format %q, accepted layouts: %s", s, strings.Join(flexibleDateLayouts, ", "))
}

// UnmarshalJSON implements json.Unmarshaler. A JSON null leaves the date at
// its zero value.
func (d *FlexibleDate) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == nil {
		*d = FlexibleDate{}
		return nil
	}
	parsed, err := ParseFlexibleDate(*s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON implements json.Marshaler, emitting ISO dates.
func (d FlexibleDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format("2006-01-02"))
}
