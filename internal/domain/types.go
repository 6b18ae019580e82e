// Package domain contains the core entities for blood panel analysis:
// the assay vocabulary, normalized lab panels, patient display metadata,
// the verdict produced by the rule engine and the request/response shapes
// exchanged with callers.
package domain

import (
	"errors"
)

// Assay names a single laboratory measurement in the fixed vocabulary.
type Assay string

const (
	WBC  Assay = "WBC"
	RBC  Assay = "RBC"
	HGB  Assay = "HGB"
	HCT  Assay = "HCT"
	MCV  Assay = "MCV"
	MCH  Assay = "MCH"
	MCHC Assay = "MCHC"
	PLT  Assay = "PLT"

	Creatinine     Assay = "Creatinine"
	Urea           Assay = "Urea"
	ALT            Assay = "ALT"
	AST            Assay = "AST"
	ALP            Assay = "ALP"
	FastingGlucose Assay = "FastingGlucose"
	HDL            Assay = "HDL"
)

// CBCAssays is the complete blood count group.
var CBCAssays = []Assay{WBC, RBC, HGB, HCT, MCV, MCH, MCHC, PLT}

// OtherAssays is the chemistry group (kidney, liver, glycemic, lipid).
var OtherAssays = []Assay{Creatinine, Urea, ALT, AST, ALP, FastingGlucose, HDL}

// AllAssays returns every recognized assay, CBC group first.
func AllAssays() []Assay {
	all := make([]Assay, 0, len(CBCAssays)+len(OtherAssays))
	all = append(all, CBCAssays...)
	return append(all, OtherAssays...)
}

// ParseAssay resolves a raw lab key to a recognized assay.
// Keys are matched exactly, as submitted by the front-end.
func ParseAssay(key string) (Assay, bool) {
	a := Assay(key)
	if a.IsValid() {
		return a, true
	}
	return "", false
}

// IsValid reports whether the assay belongs to the fixed vocabulary.
func (a Assay) IsValid() bool {
	switch a {
	case WBC, RBC, HGB, HCT, MCV, MCH, MCHC, PLT,
		Creatinine, Urea, ALT, AST, ALP, FastingGlucose, HDL:
		return true
	default:
		return false
	}
}

// String returns the assay name.
func (a Assay) String() string {
	return string(a)
}

// Finding is a classification message produced by the rule engine.
// The constant value is the English wording, which is also what the
// verdict carries on the wire.
type Finding string

// String returns the English wording of the finding.
func (f Finding) String() string {
	return string(f)
}

const (
	// FindingNoData is the sentinel used for every prediction when no
	// assay in the panel is usable.
	FindingNoData Finding = "No data"

	FindingIronDeficiency   Finding = "Likely iron deficiency (microcytic anemia)"
	FindingMacrocyticAnemia Finding = "Possible vitamin B12 / folate deficiency (macrocytic anemia)"
	FindingNormocyticAnemia Finding = "Normocytic anemia (needs further evaluation)"
	FindingNoAnemia         Finding = "No obvious anemia by Hb"
	FindingInsufficientCBC  Finding = "Insufficient CBC data for anemia assessment"

	FindingKidneyHighCreatinine Finding = "Possible impaired kidney function (high creatinine)"
	FindingKidneyHighUrea       Finding = "Possible impaired kidney function (high urea)"
	FindingKidneyNormal         Finding = "No clear evidence of CKD from current labs"
	FindingNoKidneyLabs         Finding = "No kidney labs provided"

	FindingLiverElevated  Finding = "Possible liver enzyme elevation (requires clinical correlation)"
	FindingLiverNormal    Finding = "No clear liver enzyme abnormality"
	FindingNoLiverEnzymes Finding = "No liver enzymes provided"

	FindingDiabeticRange    Finding = "Fasting glucose in diabetic range"
	FindingPreDiabetes      Finding = "Impaired fasting glucose (pre-diabetes range)"
	FindingGlucoseNormal    Finding = "Fasting glucose in normal range"
	FindingNoFastingGlucose Finding = "No fasting glucose provided"

	// FindingHeartNotImplemented is returned whether or not HDL is present.
	FindingHeartNotImplemented Finding = "Cardiac risk assessment not implemented"

	FindingWBCHigh   Finding = "High WBC – may suggest acute infection or inflammation"
	FindingWBCLow    Finding = "Low WBC – may suggest bone marrow suppression or viral illness"
	FindingWBCNormal Finding = "WBC within usual reference range"
	FindingNoWBC     Finding = "No WBC value provided"
)

// Language selects the wording of a rendered report.
type Language string

const (
	Arabic  Language = "ar"
	English Language = "en"
)

// IsValid reports whether the language has a report phrasebook.
func (l Language) IsValid() bool {
	return l == Arabic || l == English
}

// Sentinel errors surfaced by the plumbing around the engine.
var (
	ErrNotFound        = errors.New("not found")
	ErrHistoryDisabled = errors.New("analysis history is disabled")
	ErrInvalidRequest  = errors.New("invalid analysis request")
)
