package syncer

import (
	"strings"
	"time"
)

// Sanitize strips untrusted remote fields: nil values and anything with a
// reserved underscore prefix. Nested objects and arrays are walked too.
func Sanitize(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}

	clean := make(map[string]interface{}, len(data))
	for k, v := range data {
		if v == nil || strings.HasPrefix(k, "_") {
			continue
		}
		switch tv := v.(type) {
		case map[string]interface{}:
			clean[k] = Sanitize(tv)
		case []interface{}:
			items := make([]interface{}, 0, len(tv))
			for _, item := range tv {
				if m, ok := item.(map[string]interface{}); ok {
					items = append(items, Sanitize(m))
				} else {
					items = append(items, item)
				}
			}
			clean[k] = items
		default:
			clean[k] = v
		}
	}
	return clean
}

// timestampField reports whether a key conventionally holds a timestamp.
func timestampField(key string) bool {
	return strings.HasSuffix(key, "At") || key == "since"
}

// NormalizeTimestamps rewrites every timestamp representation the remote
// store may emit into canonical RFC3339 UTC strings: RFC3339 variants, unix
// seconds or milliseconds, and {seconds, nanoseconds} objects.
func NormalizeTimestamps(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}

	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		switch tv := v.(type) {
		case map[string]interface{}:
			if ts, ok := structuredTimestamp(tv); ok {
				out[k] = ts.UTC().Format(time.RFC3339)
				continue
			}
			out[k] = NormalizeTimestamps(tv)
		case []interface{}:
			items := make([]interface{}, 0, len(tv))
			for _, item := range tv {
				if m, ok := item.(map[string]interface{}); ok {
					items = append(items, NormalizeTimestamps(m))
				} else {
					items = append(items, item)
				}
			}
			out[k] = items
		case float64:
			if timestampField(k) {
				out[k] = unixTimestamp(tv).UTC().Format(time.RFC3339)
				continue
			}
			out[k] = v
		case string:
			if timestampField(k) {
				if t, ok := parseTimestamp(tv); ok {
					out[k] = t.UTC().Format(time.RFC3339)
					continue
				}
			}
			out[k] = v
		default:
			out[k] = v
		}
	}
	return out
}

// structuredTimestamp recognizes {seconds, nanoseconds} maps.
func structuredTimestamp(m map[string]interface{}) (time.Time, bool) {
	secs, ok := m["seconds"].(float64)
	if !ok {
		return time.Time{}, false
	}
	var nanos float64
	if n, ok := m["nanoseconds"].(float64); ok {
		nanos = n
	} else if n, ok := m["nanos"].(float64); ok {
		nanos = n
	}
	return time.Unix(int64(secs), int64(nanos)), true
}

// unixTimestamp interprets a numeric timestamp, treating large magnitudes as
// milliseconds.
func unixTimestamp(v float64) time.Time {
	n := int64(v)
	if n > 1e12 {
		return time.UnixMilli(n)
	}
	return time.Unix(n, 0)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
