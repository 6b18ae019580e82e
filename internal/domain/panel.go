package domain

import (
	"bytes"
	"encoding/json"
)

// RawLabs is the lab mapping as received from a caller, before any
// validation. Numbers decoded from JSON arrive as json.Number.
type RawLabs map[string]any

// UnmarshalJSON accepts any JSON value. Anything but an object decodes
// to an empty mapping, which the analysis treats as "no labs".
func (r *RawLabs) UnmarshalJSON(data []byte) error {
	*r = decodeObject(data)
	return nil
}

// decodeObject decodes a JSON object keeping numbers as json.Number, so a
// value out of float64 range stays one bad entry instead of failing the
// whole object. It returns nil for anything that is not an object.
func decodeObject(data []byte) map[string]any {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil
	}
	return raw
}

// LabPanel holds the normalized assay values of one request.
// A present value is always finite and strictly positive; anything
// else has already collapsed to absent. The zero value is an empty panel.
type LabPanel struct {
	values map[Assay]float64
}

// NewLabPanel builds a panel from already validated values.
// The map is copied so the panel stays immutable.
func NewLabPanel(values map[Assay]float64) LabPanel {
	copied := make(map[Assay]float64, len(values))
	for a, v := range values {
		copied[a] = v
	}
	return LabPanel{values: copied}
}

// Value returns the assay value and whether it is present.
func (p LabPanel) Value(a Assay) (float64, bool) {
	v, ok := p.values[a]
	return v, ok
}

// Has reports whether the assay is present.
func (p LabPanel) Has(a Assay) bool {
	_, ok := p.values[a]
	return ok
}

// HasAny reports whether at least one of the assays is present.
func (p LabPanel) HasAny(assays ...Assay) bool {
	for _, a := range assays {
		if p.Has(a) {
			return true
		}
	}
	return false
}

// Count returns how many of the given assays are present.
func (p LabPanel) Count(assays ...Assay) int {
	n := 0
	for _, a := range assays {
		if p.Has(a) {
			n++
		}
	}
	return n
}

// Len returns the number of present assays.
func (p LabPanel) Len() int {
	return len(p.values)
}

// Values returns a copy of the present values keyed by assay name.
func (p LabPanel) Values() map[string]float64 {
	out := make(map[string]float64, len(p.values))
	for a, v := range p.values {
		out[string(a)] = v
	}
	return out
}
