package service

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/lab-report-server/internal/domain"
)

// NormalizeLabs filters a raw lab mapping down to a LabPanel.
// A recognized assay survives only if its value converts to a finite
// number strictly greater than zero; missing, malformed and non-positive
// values are all treated as absent. Unrecognized keys are ignored.
func NormalizeLabs(raw domain.RawLabs) domain.LabPanel {
	values := make(map[domain.Assay]float64, len(raw))
	for key, v := range raw {
		assay, ok := domain.ParseAssay(key)
		if !ok {
			continue
		}
		if f, ok := toPositiveFloat(v); ok {
			values[assay] = f
		}
	}
	return domain.NewLabPanel(values)
}

// UnknownLabKeys returns the raw keys that are not part of the assay
// vocabulary, for diagnostics.
func UnknownLabKeys(raw domain.RawLabs) []string {
	var unknown []string
	for key := range raw {
		if _, ok := domain.ParseAssay(key); !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}

func toPositiveFloat(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case int32:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, ok := parseDecimal(val)
		if !ok {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	return f, true
}

// parseDecimal parses a decimal numeric string. Hex floats such as
// "0x1p4", which strconv would accept, are rejected.
func parseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	unsigned := strings.ToLower(strings.TrimLeft(s, "+-"))
	if strings.HasPrefix(unsigned, "0x") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
