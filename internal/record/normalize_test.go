package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Tehran")
	require.NoError(t, err)
	return loc
}

func TestNormalize_Tuple(t *testing.T) {
	loc := testLocation(t)

	rec, ok := Normalize(Tuple{"U1", "E1", 0, "2024-01-01 08:00:00"}, loc)
	require.True(t, ok)

	assert.Equal(t, "U1", rec.UID)
	assert.Equal(t, "E1", rec.EmployeeID)
	require.NotNil(t, rec.Status)
	assert.Equal(t, int64(0), *rec.Status)
	assert.Equal(t, "2024-01-01 08:00:00", rec.Timestamp)
	assert.Nil(t, rec.ServerID)
	assert.JSONEq(t, `["U1","E1",0,"2024-01-01 08:00:00"]`, rec.RawPayload)
}

func TestNormalize_Map(t *testing.T) {
	loc := testLocation(t)

	rec, ok := Normalize(Map{
		"uid":       "42",
		"id":        "EMP-42",
		"status":    float64(1), // JSON decoding yields float64
		"timestamp": "2024-06-15 17:30:00",
	}, loc)
	require.True(t, ok)

	assert.Equal(t, "42", rec.UID)
	assert.Equal(t, "EMP-42", rec.EmployeeID)
	require.NotNil(t, rec.Status)
	assert.Equal(t, int64(1), *rec.Status)
	assert.Equal(t, "2024-06-15 17:30:00", rec.Timestamp)
}

func TestNormalize_Map_TimeKeyFallback(t *testing.T) {
	loc := testLocation(t)

	rec, ok := Normalize(Map{"uid": "7", "time": "2024-03-01 09:15:00"}, loc)
	require.True(t, ok)
	assert.Equal(t, "2024-03-01 09:15:00", rec.Timestamp)
}

func TestNormalize_Event(t *testing.T) {
	loc := testLocation(t)
	status := int64(4)

	rec, ok := Normalize(Event{
		UID:       "U9",
		ID:        "E9",
		Status:    &status,
		Timestamp: time.Date(2024, 1, 1, 4, 30, 0, 0, time.UTC),
	}, loc)
	require.True(t, ok)

	assert.Equal(t, "U9", rec.UID)
	require.NotNil(t, rec.Status)
	assert.Equal(t, int64(4), *rec.Status)
	// 04:30 UTC is 08:00 in Tehran (+03:30).
	assert.Equal(t, "2024-01-01 08:00:00", rec.Timestamp)
}

func TestNormalize_RejectsMissingUID(t *testing.T) {
	loc := testLocation(t)

	_, ok := Normalize(Map{"timestamp": "2024-01-01 08:00:00"}, loc)
	assert.False(t, ok)

	_, ok = Normalize(Tuple{nil, "E1", 0, "2024-01-01 08:00:00"}, loc)
	assert.False(t, ok)

	// Empty positional uid does not fall through to the named key.
	_, ok = Normalize(Tuple{"", "E1", 0, "2024-01-01 08:00:00"}, loc)
	assert.False(t, ok)
}

func TestNormalize_RejectsMissingTimestamp(t *testing.T) {
	loc := testLocation(t)

	_, ok := Normalize(Map{"uid": "U1"}, loc)
	assert.False(t, ok)

	_, ok = Normalize(Tuple{"U1", "E1", 0}, loc)
	assert.False(t, ok)
}

func TestNormalize_UnparseableTimestampPassesThrough(t *testing.T) {
	loc := testLocation(t)

	rec, ok := Normalize(Tuple{"U1", "E1", 0, "not-a-time"}, loc)
	require.True(t, ok)
	assert.Equal(t, "not-a-time", rec.Timestamp)
}

func TestNormalize_EpochTimestamp(t *testing.T) {
	loc := testLocation(t)

	// 2024-01-01 04:30:00 UTC as epoch seconds.
	rec, ok := Normalize(Tuple{"U1", "E1", 0, float64(1704083400)}, loc)
	require.True(t, ok)
	assert.Equal(t, "2024-01-01 08:00:00", rec.Timestamp)
}

func TestNormalize_NonNumericStatusFallsThrough(t *testing.T) {
	loc := testLocation(t)

	// Positional status is junk; the named key supplies the value.
	rec, ok := Normalize(rawBoth{
		Tuple: Tuple{"U1", "E1", "junk", "2024-01-01 08:00:00"},
		named: map[string]any{"status": 2},
	}, loc)
	require.True(t, ok)
	require.NotNil(t, rec.Status)
	assert.Equal(t, int64(2), *rec.Status)

	// No named fallback: status is simply absent.
	rec, ok = Normalize(Tuple{"U1", "E1", "junk", "2024-01-01 08:00:00"}, loc)
	require.True(t, ok)
	assert.Nil(t, rec.Status)
}

func TestNormalize_PositionalWinsOverNamed(t *testing.T) {
	loc := testLocation(t)

	rec, ok := Normalize(rawBoth{
		Tuple: Tuple{"POS", nil, nil, "2024-01-01 08:00:00"},
		named: map[string]any{"uid": "NAMED", "id": "E-NAMED"},
	}, loc)
	require.True(t, ok)
	assert.Equal(t, "POS", rec.UID)
	assert.Equal(t, "E-NAMED", rec.EmployeeID)
}

func TestNormalize_NFCStability(t *testing.T) {
	loc := testLocation(t)

	// "é" as precomposed U+00E9 vs combining sequence U+0065 U+0301.
	precomposed := "René"
	combining := "René"

	a, ok := Normalize(Tuple{precomposed, "", 0, "2024-01-01 08:00:00"}, loc)
	require.True(t, ok)
	b, ok := Normalize(Tuple{combining, "", 0, "2024-01-01 08:00:00"}, loc)
	require.True(t, ok)

	assert.Equal(t, a.UID, b.UID, "canonically equal uids must share a dedup key")
}

func TestNormalize_NumericUIDRendering(t *testing.T) {
	loc := testLocation(t)

	rec, ok := Normalize(Tuple{float64(1023), float64(7), 0, "2024-01-01 08:00:00"}, loc)
	require.True(t, ok)
	assert.Equal(t, "1023", rec.UID)
	assert.Equal(t, "7", rec.EmployeeID)
}

// rawBoth mixes positional and named lookups in one record, as some
// firmware exports do.
type rawBoth struct {
	Tuple
	named map[string]any
}

func (r rawBoth) key(name string) (any, bool) {
	v, ok := r.named[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}
