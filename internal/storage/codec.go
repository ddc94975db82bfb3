package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pfrederiksen/datebook/internal/event"
)

// bucketShape is the decoded variant of one date's persisted value.
type bucketShape int

const (
	shapeEmpty bucketShape = iota
	shapeLegacyNames
	shapeRecords
)

func (s bucketShape) String() string {
	switch s {
	case shapeLegacyNames:
		return "legacy-names"
	case shapeRecords:
		return "records"
	default:
		return "empty"
	}
}

// detectShape looks only at the first element: a JSON string means the whole
// bucket is a legacy list of names.
func detectShape(items []json.RawMessage) bucketShape {
	if len(items) == 0 {
		return shapeEmpty
	}
	first := bytes.TrimSpace(items[0])
	if len(first) > 0 && first[0] == '"' {
		return shapeLegacyNames
	}
	return shapeRecords
}

// persistedRecord is the on-disk event object. Missing fields decode as "".
type persistedRecord struct {
	Name   string `json:"name"`
	Detail string `json:"detail"`
}

// Decode parses a data file body into buckets, normalizing legacy buckets.
// Empty buckets are dropped. Any malformed key or value fails the whole
// decode.
func Decode(data []byte) (event.Buckets, error) {
	// Keys are parsed by event.Date's UnmarshalText.
	var raw map[event.Date]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding top-level object: %w", err)
	}
	if raw == nil {
		// A literal null decodes without error but has no mapping.
		return nil, fmt.Errorf("decoding top-level object: expected object, got null")
	}

	buckets := make(event.Buckets, len(raw))
	for date, value := range raw {
		recs, err := decodeBucket(value)
		if err != nil {
			return nil, fmt.Errorf("bucket %s: %w", date, err)
		}
		if len(recs) == 0 {
			continue
		}
		buckets[date] = recs
	}
	return buckets, nil
}

func decodeBucket(value json.RawMessage) ([]event.Record, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(value, &items); err != nil {
		return nil, fmt.Errorf("expected array: %w", err)
	}

	var recs []event.Record
	shape := detectShape(items)
	switch shape {
	case shapeEmpty:
		return nil, nil
	case shapeLegacyNames:
		for i, item := range items {
			var name string
			if err := json.Unmarshal(item, &name); err != nil {
				return nil, fmt.Errorf("element %d in %s bucket: %w", i, shape, err)
			}
			recs = append(recs, event.Record{Name: name})
		}
	case shapeRecords:
		for i, item := range items {
			var pr persistedRecord
			if err := json.Unmarshal(item, &pr); err != nil {
				return nil, fmt.Errorf("element %d in %s bucket: %w", i, shape, err)
			}
			recs = append(recs, event.Record{Name: pr.Name, Detail: pr.Detail})
		}
	}

	for i, rec := range recs {
		if strings.TrimSpace(rec.Name) == "" {
			return nil, fmt.Errorf("element %d: empty name", i)
		}
	}
	return recs, nil
}

// Encode renders buckets as the current file format: date keys in ascending
// order, two-space indentation, non-ASCII and HTML characters left unescaped.
func Encode(b event.Buckets) ([]byte, error) {
	out := make(map[event.Date][]persistedRecord, len(b))
	for date, recs := range b {
		if len(recs) == 0 {
			continue
		}
		prs := make([]persistedRecord, len(recs))
		for i, rec := range recs {
			prs[i] = persistedRecord{Name: rec.Name, Detail: rec.Detail}
		}
		out[date] = prs
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encoding events: %w", err)
	}
	return buf.Bytes(), nil
}
