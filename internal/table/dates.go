package table

import "time"

// acceptedDateLayouts are tried in order when parsing a date cell value.
var acceptedDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
}

func parseDate(raw string) (time.Time, error) {
	var (
		parsed time.Time
		err    error
	)

	for _, layout := range acceptedDateLayouts {
		parsed, err = time.Parse(layout, raw)
		if err == nil {
			return parsed, nil
		}
	}

	return time.Time{}, err
}
