package repository

import (
	"encoding/json"
	"strings"
)

const dateLayout = "2006-01-02"

// clock trims a TIME value ("07:30:00") to hours and minutes ("07:30").
func clock(t string) string {
	t = strings.TrimSpace(t)
	if len(t) >= 5 && t[2] == ':' {
		return t[:5]
	}
	return t
}

// decodeStringList decodes a JSON array column.  NULL and empty values
// yield an empty, non-nil slice so responses render [] instead of null.
func decodeStringList(raw []byte) ([]string, error) {
	out := []string{}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
