package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PatientInfo carries the identity lines printed in a report header.
// Fields are free-form display strings and are never validated; an empty
// field is rendered as the report language's "not specified" placeholder.
type PatientInfo struct {
	Name   string `json:"Name,omitempty"`
	Age    string `json:"Age,omitempty"`
	Gender string `json:"Gender,omitempty"`
}

// UnmarshalJSON accepts any JSON object and converts scalar values to
// display strings, so {"Age": 34} and {"Age": "34"} are equivalent.
// A payload that is not an object yields an empty PatientInfo.
func (p *PatientInfo) UnmarshalJSON(data []byte) error {
	*p = PatientInfoFromMap(decodeObject(data))
	return nil
}

// PatientInfoFromMap builds PatientInfo from a loosely typed mapping.
// Name falls back to FullName when absent.
func PatientInfoFromMap(raw map[string]any) PatientInfo {
	name := displayValue(raw["Name"])
	if name == "" {
		name = displayValue(raw["FullName"])
	}
	return PatientInfo{
		Name:   name,
		Age:    displayValue(raw["Age"]),
		Gender: displayValue(raw["Gender"]),
	}
}

func displayValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
