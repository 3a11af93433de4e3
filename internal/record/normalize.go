package record

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// timestampLayouts are the device time formats accepted, tried in order.
// Layouts without a zone are interpreted in the configured local timezone.
var timestampLayouts = []string{
	Layout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"02-01-2006 15:04:05",
	"2006-01-02",
}

// Normalize maps one raw device record to its canonical form.
//
// Field resolution order: positional slot 0 then key "uid"; slot 1 then key
// "id"; slot 2 (numeric, else treated absent) then key "status"; slot 3
// then keys "timestamp", "time". A record lacking a resolvable user id or
// timestamp is rejected (ok=false) rather than stored with placeholders.
//
// Identifier strings are NFC-normalized so that byte-wise distinct but
// canonically equal exports of the same event hit the same dedup key.
func Normalize(raw Raw, loc *time.Location) (Record, bool) {
	if raw == nil {
		return Record{}, false
	}

	uid, ok := stringField(resolve(raw, 0, "uid"))
	if !ok || uid == "" {
		return Record{}, false
	}

	employeeID, ok := stringField(resolve(raw, 1, "id"))
	if !ok {
		employeeID = ""
	}

	status := statusField(raw)

	ts, ok := resolve(raw, 3, "timestamp", "time")
	if !ok {
		return Record{}, false
	}

	return Record{
		UID:        canonical(uid),
		EmployeeID: canonical(employeeID),
		Status:     status,
		Timestamp:  normalizeTimestamp(ts, loc),
		RawPayload: marshalRaw(raw),
	}, true
}

// resolve looks a field up positionally first, then under named keys.
func resolve(raw Raw, slot int, names ...string) (any, bool) {
	if v, ok := raw.pos(slot); ok {
		return v, true
	}
	for _, name := range names {
		if v, ok := raw.key(name); ok {
			return v, true
		}
	}
	return nil, false
}

// statusField resolves the status code. A non-numeric positional value is
// treated as absent, falling through to the named key.
func statusField(raw Raw) *int64 {
	if v, ok := raw.pos(2); ok {
		if n, ok := numericValue(v); ok {
			return &n
		}
	}
	if v, ok := raw.key("status"); ok {
		if n, ok := numericValue(v); ok {
			return &n
		}
	}
	return nil
}

// normalizeTimestamp renders the raw value as canonical local time. An
// unparseable string passes through verbatim; the record is still accepted
// and deduplication keys on the literal string.
func normalizeTimestamp(v any, loc *time.Location) string {
	switch t := v.(type) {
	case time.Time:
		return t.In(loc).Format(Layout)
	case int:
		return time.Unix(int64(t), 0).In(loc).Format(Layout)
	case int64:
		return time.Unix(t, 0).In(loc).Format(Layout)
	case float64:
		return time.Unix(int64(t), 0).In(loc).Format(Layout)
	}

	s := strings.TrimSpace(stringValue(v))
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc).Format(Layout)
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
		return time.Unix(n, 0).In(loc).Format(Layout)
	}
	return s
}

// canonical trims and NFC-normalizes an identifier string.
func canonical(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func stringField(v any, ok bool) (string, bool) {
	if !ok {
		return "", false
	}
	return stringValue(v), true
}

// stringValue renders scalar field values the way terminals mean them:
// numeric ids come back without an exponent or trailing zeros.
func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return strings.Trim(jsonScalar(v), `"`)
	}
}

// jsonScalar is the fallback rendering for unrecognized field types.
func jsonScalar(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func numericValue(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
