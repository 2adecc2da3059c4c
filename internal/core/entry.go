package core

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultCategory is assigned to entries that arrive without one.
const DefaultCategory = "Inne"

// Entry is one expense record. The JSON shape is the durable storage
// and export/import contract and must not change.
type Entry struct {
	ID       string  `json:"id"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	Date     string  `json:"date"` // YYYY-MM-DD, always 10 characters
	Note     string  `json:"note"`
}

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrNotArray      = errors.New("top-level JSON value is not an array")
)

// ParseAmount parses an interactively entered amount. It accepts both
// dot (12.34) and comma (12,34) decimal separators and requires a
// finite value greater than zero. This is the strict counterpart of
// the lenient coercion applied to imported data.
func ParseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !isFinite(v) || v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// Normalize coerces an entry into its canonical form: non-finite
// amounts become 0, the date is defaulted to today or truncated to
// YYYY-MM-DD, the category falls back to DefaultCategory and a missing
// id is minted. It never fails and is idempotent.
func Normalize(e Entry) Entry {
	if !isFinite(e.Amount) {
		e.Amount = 0
	}
	if e.Date == "" {
		e.Date = Today()
	} else if len(e.Date) > 10 {
		e.Date = e.Date[:10]
	}
	if e.Category == "" {
		e.Category = DefaultCategory
	}
	if e.ID == "" {
		e.ID = NewID()
	}
	return e
}

// DecodeEntries parses a JSON document whose top-level value must be
// an array and normalizes every element. Element-level problems are
// defaulted away; only a non-array top level or malformed JSON is an
// error, and the whole document is then rejected.
func DecodeEntries(data []byte) ([]Entry, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		var probe any
		if json.Unmarshal(data, &probe) == nil {
			return nil, ErrNotArray
		}
		return nil, err
	}
	if raws == nil {
		// "null" parses into a nil slice without error.
		return nil, ErrNotArray
	}
	entries := make([]Entry, 0, len(raws))
	for _, r := range raws {
		entries = append(entries, normalizeRaw(r))
	}
	return entries, nil
}

// normalizeRaw coerces a single foreign JSON element field by field,
// tolerating missing keys, numeric ids and string amounts.
func normalizeRaw(data json.RawMessage) Entry {
	var fields map[string]json.RawMessage
	_ = json.Unmarshal(data, &fields)
	return Normalize(Entry{
		ID:       asString(fields["id"]),
		Amount:   asAmount(fields["amount"]),
		Category: asString(fields["category"]),
		Date:     asString(fields["date"]),
		Note:     asString(fields["note"]),
	})
}

func asString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n float64
	if json.Unmarshal(raw, &n) == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

func asAmount(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if json.Unmarshal(raw, &n) == nil {
		return n
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
		if err == nil && isFinite(v) {
			return v
		}
	}
	return 0
}

// NewID mints a short opaque identifier from a cryptographically
// sourced 32-bit value rendered in base 36. No uniqueness check is
// performed against existing entries; the value space is large
// relative to expected collection sizes.
func NewID() string {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return strconv.FormatUint(uint64(binary.BigEndian.Uint32(buf[:])), 36)
}

// Today returns the current date in the stored YYYY-MM-DD form.
func Today() string {
	return time.Now().Format("2006-01-02")
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
