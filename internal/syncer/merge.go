package syncer

import "time"

// FieldRule decides which side of a local/remote conflict wins a field.
type FieldRule int

const (
	// LocalWins keeps the device-entered value.
	LocalWins FieldRule = iota
	// RemoteWins takes the server value when the server has one.
	RemoteWins
	// NewestWins compares the records' updatedAt stamps and takes the newer
	// side's value; remote wins ties.
	NewestWins
)

// MergePolicy maps field names to rules. Fields without a rule follow the
// default local-overlay-on-remote behavior of MergeData.
type MergePolicy map[string]FieldRule

// MergeData shallow-merges two documents with remote as the base and local
// keys overlaid when defined (non-nil). Nested plain objects are merged
// recursively; arrays are taken wholesale from the local side, never
// element-wise.
func MergeData(local, remote map[string]interface{}) map[string]interface{} {
	if remote == nil && local == nil {
		return nil
	}

	merged := make(map[string]interface{}, len(remote)+len(local))
	for k, v := range remote {
		merged[k] = v
	}

	for k, lv := range local {
		if lv == nil {
			continue
		}
		if lm, lok := lv.(map[string]interface{}); lok {
			if rm, rok := merged[k].(map[string]interface{}); rok {
				merged[k] = MergeData(lm, rm)
				continue
			}
		}
		merged[k] = lv
	}

	return merged
}

// MergeWithPolicy merges local over remote, then applies per-field rules on
// top of the default overlay.
func MergeWithPolicy(local, remote map[string]interface{}, policy MergePolicy) map[string]interface{} {
	merged := MergeData(local, remote)
	if len(policy) == 0 {
		return merged
	}

	localNewer := docTime(local, "updatedAt").After(docTime(remote, "updatedAt"))

	for field, rule := range policy {
		switch rule {
		case RemoteWins:
			if rv, ok := remote[field]; ok && rv != nil {
				merged[field] = rv
			}
		case LocalWins:
			if lv, ok := local[field]; ok && lv != nil {
				merged[field] = lv
			}
		case NewestWins:
			if localNewer {
				if lv, ok := local[field]; ok && lv != nil {
					merged[field] = lv
				}
			} else {
				if rv, ok := remote[field]; ok && rv != nil {
					merged[field] = rv
				}
			}
		}
	}

	return merged
}

// docTime reads an RFC3339 timestamp field from a document. The zero time is
// returned when the field is absent or malformed.
func docTime(doc map[string]interface{}, field string) time.Time {
	if doc == nil {
		return time.Time{}
	}
	raw, ok := doc[field].(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

// DocTime is the exported form used by the full-sync reconciliation.
func DocTime(doc map[string]interface{}, field string) time.Time {
	return docTime(doc, field)
}
