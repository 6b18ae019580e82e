package service

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/lab-report-server/internal/domain"
)

// Adult cutoffs used by the subsystem rules.
const (
	anemiaHGBCutoff      = 13.0  // g/dL, below is anemic
	microcyticMCVCutoff  = 80.0  // fL, below is microcytic
	macrocyticMCVCutoff  = 100.0 // fL, above is macrocytic
	creatinineHighCutoff = 1.3   // mg/dL
	ureaHighCutoff       = 45.0  // mg/dL
	altHighCutoff        = 40.0  // U/L
	astHighCutoff        = 40.0  // U/L
	alpHighCutoff        = 130.0 // U/L
	diabeticGlucose      = 126.0 // mg/dL, fasting
	preDiabeticGlucose   = 100.0 // mg/dL, fasting
	wbcHighCutoff        = 11.0  // x10^3/uL
	wbcLowCutoff         = 4.0   // x10^3/uL
)

// RuleEngine classifies a normalized lab panel into a Verdict.
// Each subsystem is an independent pure function over the panel; the
// engine holds no state besides its logger and is safe for concurrent use.
type RuleEngine struct {
	logger *logrus.Logger
}

// NewRuleEngine creates a new rule engine
func NewRuleEngine(logger *logrus.Logger) *RuleEngine {
	if logger == nil {
		logger = newDiscardLogger()
	}
	return &RuleEngine{logger: logger}
}

// Evaluate produces the verdict for one panel. It never fails: an empty
// or entirely invalid panel takes the no-data branch.
func (e *RuleEngine) Evaluate(panel domain.LabPanel) *domain.Verdict {
	cbcCount := panel.Count(domain.CBCAssays...)
	otherCount := panel.Count(domain.OtherAssays...)
	validCount := cbcCount + otherCount

	if validCount == 0 {
		e.logger.Debug("No valid lab values, skipping subsystem rules")
		return domain.NoDataVerdict()
	}

	hasCBC, anemia := assessAnemia(panel)
	hasKidney, kidney := assessKidney(panel)
	hasLiver, liver := assessLiver(panel)
	hasDiabetes, diabetes := assessDiabetes(panel)
	hasHeart, heart := assessHeart(panel)
	hasInfection, wbc, infection := assessInfection(panel)

	verdict := &domain.Verdict{
		HasValidLabs:        true,
		ValidLabCount:       validCount,
		HasCBC:              hasCBC,
		AnemiaPrediction:    anemia,
		HasKidney:           hasKidney,
		CKDPrediction:       kidney,
		HasLiver:            hasLiver,
		LiverPrediction:     liver,
		HasDiabetes:         hasDiabetes,
		DiabetesPrediction:  diabetes,
		HasHeart:            hasHeart,
		HeartPrediction:     heart,
		HasInfection:        hasInfection,
		WBCValue:            wbc,
		InfectionPrediction: infection,
	}

	e.logger.WithFields(logrus.Fields{
		"valid_labs":    validCount,
		"cbc_labs":      cbcCount,
		"other_labs":    otherCount,
		"has_cbc":       hasCBC,
		"has_kidney":    hasKidney,
		"has_liver":     hasLiver,
		"has_diabetes":  hasDiabetes,
		"has_heart":     hasHeart,
		"has_infection": hasInfection,
	}).Debug("Completed lab panel evaluation")

	return verdict
}

// assessAnemia classifies hemoglobin, using MCV to type an anemia.
func assessAnemia(p domain.LabPanel) (bool, []domain.Finding) {
	present := p.HasAny(domain.HGB, domain.RBC, domain.MCV)

	hgb, ok := p.Value(domain.HGB)
	if !ok {
		return present, []domain.Finding{domain.FindingInsufficientCBC}
	}
	if hgb >= anemiaHGBCutoff {
		return present, []domain.Finding{domain.FindingNoAnemia}
	}

	mcv, hasMCV := p.Value(domain.MCV)
	switch {
	case hasMCV && mcv < microcyticMCVCutoff:
		return present, []domain.Finding{domain.FindingIronDeficiency}
	case hasMCV && mcv > macrocyticMCVCutoff:
		return present, []domain.Finding{domain.FindingMacrocyticAnemia}
	default:
		return present, []domain.Finding{domain.FindingNormocyticAnemia}
	}
}

// assessKidney checks creatinine before urea; the first elevated marker wins.
func assessKidney(p domain.LabPanel) (bool, domain.Finding) {
	creatinine, hasCreatinine := p.Value(domain.Creatinine)
	urea, hasUrea := p.Value(domain.Urea)

	switch {
	case !hasCreatinine && !hasUrea:
		return false, domain.FindingNoKidneyLabs
	case hasCreatinine && creatinine > creatinineHighCutoff:
		return true, domain.FindingKidneyHighCreatinine
	case hasUrea && urea > ureaHighCutoff:
		return true, domain.FindingKidneyHighUrea
	default:
		return true, domain.FindingKidneyNormal
	}
}

func assessLiver(p domain.LabPanel) (bool, domain.Finding) {
	if !p.HasAny(domain.ALT, domain.AST, domain.ALP) {
		return false, domain.FindingNoLiverEnzymes
	}
	if above(p, domain.ALT, altHighCutoff) || above(p, domain.AST, astHighCutoff) || above(p, domain.ALP, alpHighCutoff) {
		return true, domain.FindingLiverElevated
	}
	return true, domain.FindingLiverNormal
}

func assessDiabetes(p domain.LabPanel) (bool, domain.Finding) {
	glucose, ok := p.Value(domain.FastingGlucose)
	switch {
	case !ok:
		return false, domain.FindingNoFastingGlucose
	case glucose >= diabeticGlucose:
		return true, domain.FindingDiabeticRange
	case glucose >= preDiabeticGlucose:
		return true, domain.FindingPreDiabetes
	default:
		return true, domain.FindingGlucoseNormal
	}
}

// assessHeart only records whether HDL was supplied. The HDL value does
// not feed any classification yet.
func assessHeart(p domain.LabPanel) (bool, domain.Finding) {
	return p.Has(domain.HDL), domain.FindingHeartNotImplemented
}

func assessInfection(p domain.LabPanel) (bool, *float64, []domain.Finding) {
	wbc, ok := p.Value(domain.WBC)
	if !ok {
		return false, nil, []domain.Finding{domain.FindingNoWBC}
	}

	finding := domain.FindingWBCNormal
	switch {
	case wbc > wbcHighCutoff:
		finding = domain.FindingWBCHigh
	case wbc < wbcLowCutoff:
		finding = domain.FindingWBCLow
	}
	return true, &wbc, []domain.Finding{finding}
}

func above(p domain.LabPanel, a domain.Assay, cutoff float64) bool {
	v, ok := p.Value(a)
	return ok && v > cutoff
}

func newDiscardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
