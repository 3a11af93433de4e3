package record

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Raw is one attendance event as exported by a terminal, before
// normalization. Terminal firmwares disagree about shape: some export
// positional tuples, some keyed maps, and native drivers hand over typed
// events. Each variant answers positional and keyed lookups; Normalize
// resolves fields through both, positional first.
type Raw interface {
	// pos returns the value at positional slot i, if the variant carries one.
	pos(i int) (any, bool)
	// key returns the value under a named key, if the variant carries one.
	key(name string) (any, bool)
}

// Tuple is the positional export shape:
// slot 0 user id, slot 1 employee id, slot 2 status, slot 3 timestamp.
type Tuple []any

func (t Tuple) pos(i int) (any, bool) {
	if i < 0 || i >= len(t) || t[i] == nil {
		return nil, false
	}
	return t[i], true
}

func (t Tuple) key(string) (any, bool) {
	return nil, false
}

// Map is the keyed export shape. Recognized keys: "uid", "id", "status",
// "timestamp", "time".
type Map map[string]any

func (m Map) pos(int) (any, bool) {
	return nil, false
}

func (m Map) key(name string) (any, bool) {
	v, ok := m[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Event is the typed shape produced by native device drivers.
type Event struct {
	UID       string `json:"uid"`
	ID        string `json:"id,omitempty"`
	Status    *int64 `json:"status,omitempty"`
	Timestamp any    `json:"timestamp,omitempty"`
	Time      any    `json:"time,omitempty"`
}

func (e Event) pos(int) (any, bool) {
	return nil, false
}

func (e Event) key(name string) (any, bool) {
	switch name {
	case "uid":
		if e.UID != "" {
			return e.UID, true
		}
	case "id":
		if e.ID != "" {
			return e.ID, true
		}
	case "status":
		if e.Status != nil {
			return *e.Status, true
		}
	case "timestamp":
		if e.Timestamp != nil {
			return e.Timestamp, true
		}
	case "time":
		if e.Time != nil {
			return e.Time, true
		}
	}
	return nil, false
}

// DecodeRaw parses one JSON-encoded device record. Arrays decode to Tuple,
// objects to Map. Anything else is an error.
func DecodeRaw(data []byte) (Raw, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("decode raw record: empty input")
	}
	switch trimmed[0] {
	case '[':
		var t Tuple
		if err := json.Unmarshal(trimmed, &t); err != nil {
			return nil, fmt.Errorf("decode raw record: %w", err)
		}
		return t, nil
	case '{':
		var m Map
		if err := json.Unmarshal(trimmed, &m); err != nil {
			return nil, fmt.Errorf("decode raw record: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("decode raw record: neither array nor object")
	}
}

// marshalRaw serializes the raw variant verbatim for the forensic payload
// column. Serialization failure degrades to an empty payload rather than
// rejecting the record.
func marshalRaw(raw Raw) string {
	data, err := json.Marshal(raw)
	if err != nil {
		return ""
	}
	return string(data)
}
