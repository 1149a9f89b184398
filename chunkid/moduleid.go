// Package chunkid implements the runtime module id format shared by every
// chunking context: a tagged union of a numeric id or a string id,
// serialized untagged (a bare JSON number or JSON string).
package chunkid

import (
	"encoding/json"
	"strconv"
)

// ModuleId is a stable runtime identifier for a module. It is either a
// Number or a String; never both. The zero value is the Number 0.
type ModuleId struct {
	str    string
	num    uint32
	isText bool
}

// Number constructs a numeric ModuleId.
func Number(n uint32) ModuleId {
	return ModuleId{num: n}
}

// String constructs a string ModuleId.
func String(s string) ModuleId {
	return ModuleId{str: s, isText: true}
}

// Parse mirrors the original parser: if id parses as an unsigned 32-bit
// integer, it becomes a Number; otherwise it becomes a String.
func Parse(id string) ModuleId {
	if n, err := strconv.ParseUint(id, 10, 32); err == nil {
		return Number(uint32(n))
	}
	return String(id)
}

// IsString reports whether the id is the String variant.
func (m ModuleId) IsString() bool { return m.isText }

// Uint32 returns the numeric value and true when m is the Number variant.
func (m ModuleId) Uint32() (uint32, bool) {
	if m.isText {
		return 0, false
	}
	return m.num, true
}

// String returns the display form: the literal numeric or string value.
func (m ModuleId) String() string {
	if m.isText {
		return m.str
	}
	return strconv.FormatUint(uint64(m.num), 10)
}

// MarshalJSON emits a bare JSON number or JSON string, matching the
// untagged wire format.
func (m ModuleId) MarshalJSON() ([]byte, error) {
	if m.isText {
		return json.Marshal(m.str)
	}
	return json.Marshal(m.num)
}

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (m *ModuleId) UnmarshalJSON(data []byte) error {
	var asNumber uint32
	if err := json.Unmarshal(data, &asNumber); err == nil {
		*m = Number(asNumber)
		return nil
	}
	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return err
	}
	*m = String(asString)
	return nil
}
