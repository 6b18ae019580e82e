package service

import (
	"strings"
	"time"

	"github.com/lab-report-server/internal/domain"
)

const (
	reportSeparator  = "----------------------------------------"
	reportTimeLayout = "02-01-2006 15:04"
)

// ReportLocation is the fixed UTC+03:00 zone report dates are printed in.
var ReportLocation = time.FixedZone("UTC+03:00", 3*60*60)

// phrasebook holds every fixed fragment of a report in one language.
// The line structure lives in ReportSynthesizer.Render, so languages can
// only differ in wording.
type phrasebook struct {
	title        string
	notSpecified string

	nameLabel   string
	ageLabel    string
	genderLabel string
	dateLabel   string

	anemiaLabel    string
	kidneyLabel    string
	liverLabel     string
	diabetesLabel  string
	infectionLabel string

	noValidLabs string
	cbcAdvisory string
	disclaimer  [2]string

	listSeparator string

	// findings localizes rule engine findings; nil means the English
	// wording is used as is.
	findings map[domain.Finding]string
}

func (pb *phrasebook) finding(f domain.Finding) string {
	if f == "" {
		return ""
	}
	if text, ok := pb.findings[f]; ok {
		return text
	}
	return string(f)
}

func (pb *phrasebook) joinFindings(findings []domain.Finding) string {
	parts := make([]string, 0, len(findings))
	for _, f := range findings {
		parts = append(parts, pb.finding(f))
	}
	return strings.Join(parts, pb.listSeparator)
}

func (pb *phrasebook) orPlaceholder(value string) string {
	if strings.TrimSpace(value) == "" {
		return pb.notSpecified
	}
	return value
}

var englishPhrases = &phrasebook{
	title:        "Blood Test Report",
	notSpecified: "Not specified",

	nameLabel:   "Patient name    : ",
	ageLabel:    "Age             : ",
	genderLabel: "Gender          : ",
	dateLabel:   "Report date     : ",

	anemiaLabel:    "Hematology / Anemia: ",
	kidneyLabel:    "Kidney status       : ",
	liverLabel:     "Liver status        : ",
	diabetesLabel:  "Diabetes risk       : ",
	infectionLabel: "Infection/Inflammation index: ",

	noValidLabs: "No valid lab values were provided, so no assessment could be made.",
	cbcAdvisory: "Note: Elevated CBC indices have been linked in cohort studies to a higher long-term " +
		"risk of cardiovascular disease and type 2 diabetes; please discuss these results with your physician.",
	disclaimer: [2]string{
		"Disclaimer: This report is produced by simplified rule-based logic.",
		"It is not a medical diagnosis and does not replace a consultation with a physician.",
	},

	listSeparator: ", ",
}

var arabicPhrases = &phrasebook{
	title:        "تقرير تحاليل الدم",
	notSpecified: "غير مذكور",

	nameLabel:   "اسم المريض      : ",
	ageLabel:    "العمر           : ",
	genderLabel: "الجنس           : ",
	dateLabel:   "تاريخ التقرير   : ",

	anemiaLabel:    "• حالة الدم/الأنيميا: ",
	kidneyLabel:    "• الكلى: ",
	liverLabel:     "• الكبد: ",
	diabetesLabel:  "• السكري: ",
	infectionLabel: "• مؤشر العدوى/الالتهاب: ",

	noValidLabs: "لم يتم إدخال أي قيم تحاليل صالحة، لذلك لا يمكن إجراء أي تقييم.",
	cbcAdvisory: "ملاحظة: ارتبط ارتفاع مؤشرات صورة الدم الكاملة في الدراسات الطولية بزيادة خطر الإصابة " +
		"بأمراض القلب والأوعية الدموية والسكري من النوع الثاني على المدى الطويل؛ يرجى مناقشة النتائج مع الطبيب.",
	disclaimer: [2]string{
		"تنبيه: هذا التقرير ناتج عن قواعد مبسطة،",
		"وليس تشخيصًا طبيًا ولا يغني عن مراجعة الطبيب.",
	},

	listSeparator: "، ",

	findings: map[domain.Finding]string{
		domain.FindingNoData: "لا توجد بيانات",

		domain.FindingIronDeficiency:   "غالبًا فقر دم بسبب نقص الحديد (أنيميا صغيرة الكريات)",
		domain.FindingMacrocyticAnemia: "احتمال نقص فيتامين B12 / حمض الفوليك (أنيميا كبيرة الكريات)",
		domain.FindingNormocyticAnemia: "أنيميا سوية الكريات (تحتاج إلى تقييم إضافي)",
		domain.FindingNoAnemia:         "لا توجد أنيميا واضحة حسب الهيموغلوبين",
		domain.FindingInsufficientCBC:  "بيانات صورة الدم غير كافية لتقييم الأنيميا",

		domain.FindingKidneyHighCreatinine: "احتمال ضعف في وظائف الكلى (ارتفاع الكرياتينين)",
		domain.FindingKidneyHighUrea:       "احتمال ضعف في وظائف الكلى (ارتفاع اليوريا)",
		domain.FindingKidneyNormal:         "لا يوجد دليل واضح على مرض الكلى المزمن من التحاليل الحالية",
		domain.FindingNoKidneyLabs:         "لم يتم إدخال تحاليل الكلى",

		domain.FindingLiverElevated:  "احتمال ارتفاع إنزيمات الكبد (يتطلب ربطًا سريريًا)",
		domain.FindingLiverNormal:    "لا يوجد خلل واضح في إنزيمات الكبد",
		domain.FindingNoLiverEnzymes: "لم يتم إدخال إنزيمات الكبد",

		domain.FindingDiabeticRange:    "سكر الصائم ضمن نطاق مرض السكري",
		domain.FindingPreDiabetes:      "اختلال سكر الصائم (نطاق ما قبل السكري)",
		domain.FindingGlucoseNormal:    "سكر الصائم ضمن النطاق الطبيعي",
		domain.FindingNoFastingGlucose: "لم يتم إدخال سكر الصائم",

		domain.FindingHeartNotImplemented: "تقييم خطر القلب غير مفعّل حاليًا",

		domain.FindingWBCHigh:   "ارتفاع كريات الدم البيضاء – قد يشير إلى عدوى حادة أو التهاب",
		domain.FindingWBCLow:    "انخفاض كريات الدم البيضاء – قد يشير إلى تثبيط نخاع العظم أو عدوى فيروسية",
		domain.FindingWBCNormal: "كريات الدم البيضاء ضمن النطاق المرجعي المعتاد",
		domain.FindingNoWBC:     "لم يتم إدخال قيمة كريات الدم البيضاء",
	},
}

func phrasesFor(lang domain.Language) *phrasebook {
	if lang == domain.Arabic {
		return arabicPhrases
	}
	return englishPhrases
}

// ReportSynthesizer renders verdicts as narrative text reports.
type ReportSynthesizer struct {
	location *time.Location
}

// NewReportSynthesizer creates a synthesizer printing dates in ReportLocation.
func NewReportSynthesizer() *ReportSynthesizer {
	return &ReportSynthesizer{location: ReportLocation}
}

// Synthesize renders both language reports from the same verdict,
// patient and timestamp.
func (s *ReportSynthesizer) Synthesize(v *domain.Verdict, p domain.PatientInfo, at time.Time) domain.Reports {
	return domain.Reports{
		Arabic:  s.Render(domain.Arabic, v, p, at),
		English: s.Render(domain.English, v, p, at),
	}
}

// Render produces one report. Unknown languages fall back to English and
// a nil verdict renders as the no-valid-labs report.
func (s *ReportSynthesizer) Render(lang domain.Language, v *domain.Verdict, p domain.PatientInfo, at time.Time) string {
	pb := phrasesFor(lang)

	lines := []string{
		pb.title,
		reportSeparator,
		pb.nameLabel + pb.orPlaceholder(p.Name),
		pb.ageLabel + pb.orPlaceholder(p.Age),
		pb.genderLabel + pb.orPlaceholder(p.Gender),
		pb.dateLabel + FormatReportTime(at, s.location),
		reportSeparator,
	}

	if v == nil || !v.HasValidLabs {
		lines = append(lines, pb.noValidLabs, reportSeparator, pb.disclaimer[0], pb.disclaimer[1])
		return strings.Join(lines, "\n")
	}

	lines = append(lines, pb.anemiaLabel+pb.joinFindings(v.AnemiaPrediction))
	if v.HasKidney {
		lines = append(lines, pb.kidneyLabel+pb.finding(v.CKDPrediction))
	}
	if v.HasLiver {
		lines = append(lines, pb.liverLabel+pb.finding(v.LiverPrediction))
	}
	if v.HasDiabetes {
		lines = append(lines, pb.diabetesLabel+pb.finding(v.DiabetesPrediction))
	}
	lines = append(lines, pb.infectionLabel+pb.finding(v.FirstInfectionFinding()))
	if v.HasCBC {
		lines = append(lines, pb.cbcAdvisory)
	}

	lines = append(lines, reportSeparator, pb.disclaimer[0], pb.disclaimer[1])
	return strings.Join(lines, "\n")
}

// FormatReportTime formats t as DD-MM-YYYY HH:MM in loc.
func FormatReportTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = ReportLocation
	}
	return t.In(loc).Format(reportTimeLayout)
}
