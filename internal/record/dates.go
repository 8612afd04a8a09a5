package record

import (
	"fmt"
	"time"
)

// apiDateLayouts are the shapes the backend emits dates in.
var apiDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseAPIDate(s string) (time.Time, error) {
	for _, layout := range apiDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}
