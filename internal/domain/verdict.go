package domain

// Verdict is the language-independent result of evaluating one lab panel.
// It is built once by the rule engine and never mutated afterwards.
// JSON keys follow the field names the web front-end already consumes.
type Verdict struct {
	HasValidLabs  bool `json:"hasValidLabs"`
	ValidLabCount int  `json:"validLabCount"`

	HasCBC           bool      `json:"hasCBC"`
	AnemiaPrediction []Finding `json:"AnemiaPrediction"`

	HasKidney     bool    `json:"hasKidney"`
	CKDPrediction Finding `json:"CKD_Prediction"`

	HasLiver        bool    `json:"hasLiver"`
	LiverPrediction Finding `json:"Liver_Prediction"`

	HasDiabetes        bool    `json:"hasDiabetes"`
	DiabetesPrediction Finding `json:"Diabetes_Prediction"`

	HasHeart        bool    `json:"hasHeart"`
	HeartPrediction Finding `json:"Heart_Prediction"`

	HasInfection        bool      `json:"hasInfection"`
	WBCValue            *float64  `json:"WBC_Value"`
	InfectionPrediction []Finding `json:"Infection_Prediction"`
}

// NoDataVerdict is the terminal result for a panel without a single
// usable assay: every subsystem is absent and every prediction is the
// no-data sentinel.
func NoDataVerdict() *Verdict {
	return &Verdict{
		AnemiaPrediction:    []Finding{FindingNoData},
		CKDPrediction:       FindingNoData,
		LiverPrediction:     FindingNoData,
		DiabetesPrediction:  FindingNoData,
		HeartPrediction:     FindingNoData,
		InfectionPrediction: []Finding{FindingNoData},
	}
}

// FirstInfectionFinding returns the first infection finding, or "" when
// the list is empty.
func (v *Verdict) FirstInfectionFinding() Finding {
	if v == nil || len(v.InfectionPrediction) == 0 {
		return ""
	}
	return v.InfectionPrediction[0]
}
