package helper_util

import (
	"fmt"
	"time"
)

// ParseTime parses the RFC3339 timestamps the DAOs store audit fields as.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// ParseNullableTime converts an optional timestamp property read from the
// graph. Soft-delete and class schedule dates are absent on most records, so
// nil maps to nil rather than an error. Neo4j returns temporal properties as
// time.Time; values written as strings are parsed as RFC3339.
func ParseNullableTime(value interface{}) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}

	switch v := value.(type) {
	case time.Time:
		return &v, nil
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, err
		}
		return &t, nil
	default:
		return nil, fmt.Errorf("unsupported type for time parsing: %T", value)
	}
}
