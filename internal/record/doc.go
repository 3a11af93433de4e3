// Package record defines the canonical attendance record and the
// normalization of heterogeneous raw terminal exports into it.
//
// A terminal export arrives in one of several shapes (positional tuple,
// keyed map, or a typed driver event). Normalize resolves the four
// canonical fields in a fixed order, renders the event time in the
// configured local timezone, and rejects records that lack a user id or
// timestamp rather than storing placeholders that would defeat
// deduplication downstream.
package record
