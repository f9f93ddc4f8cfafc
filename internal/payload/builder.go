// Package payload maps exam forms onto the request shapes the generation
// backend accepts.
package payload

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type PatternMode string

const (
	PatternSimple    PatternMode = "simple"
	PatternBlueprint PatternMode = "blueprint"
	PatternMatrix    PatternMode = "matrix"
)

// Section is one blueprint section or marking-matrix row.
type Section struct {
	Title            string `json:"title,omitempty"`
	MarksPerQuestion int    `json:"marksPerQuestion"`
	Count            int    `json:"count"`
}

type RefFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// FormValues is the detailed exam form. Pointer fields distinguish "unset"
// from an explicit false or zero.
type FormValues struct {
	Board            string         `json:"board"`
	ClassNum         int            `json:"classNum"`
	Subject          string         `json:"subject"`
	Topics           []string       `json:"topics,omitempty"`
	Subtopics        []string       `json:"subtopics,omitempty"`
	QuestionType     string         `json:"questionType,omitempty"`
	Mode             string         `json:"mode,omitempty"`
	Difficulty       string         `json:"difficulty,omitempty"`
	Mix              map[string]int `json:"mix,omitempty"`
	PatternMode      PatternMode    `json:"patternMode"`
	QCount           int            `json:"qCount,omitempty"`
	MarksPerQuestion int            `json:"marksPerQuestion,omitempty"`
	Sections         []Section      `json:"sections,omitempty"`
	MarkingMatrix    []Section      `json:"markingMatrix,omitempty"`
	Language         string         `json:"language,omitempty"`
	SolutionStyle    string         `json:"solutionStyle,omitempty"`
	IncludeAnswerKey *bool          `json:"includeAnswerKey,omitempty"`
	NegativeMarking  *float64       `json:"negativeMarking,omitempty"`
	ShuffleQuestions *bool          `json:"shuffleQuestions,omitempty"`
	ShuffleOptions   *bool          `json:"shuffleOptions,omitempty"`
	Notes            string         `json:"notes,omitempty"`
	OutputFormat     string         `json:"outputFormat,omitempty"`
	Watermark        *bool          `json:"watermark,omitempty"`
	WatermarkText    string         `json:"watermarkText,omitempty"`
	UseLogo          *bool          `json:"useLogo,omitempty"`
}

type DifficultyMix struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

// SectionSpec is one entry of the compact sectioned encoding.
type SectionSpec struct {
	ID               string        `json:"id"`
	MarksPerQuestion int           `json:"marksPerQuestion"`
	Count            int           `json:"count"`
	DifficultyMix    DifficultyMix `json:"difficultyMix"`
}

// EdgePayload carries both encodings of an exam. Every legacy field is always
// populated; SectionsJSON is present only when the sectioned path applies.
type EdgePayload struct {
	RequestID          string         `json:"requestId"`
	UserID             string         `json:"userId"`
	Board              string         `json:"board"`
	ClassNum           int            `json:"classNum"`
	Subject            string         `json:"subject"`
	Topics             []string       `json:"topics"`
	Subtopics          []string       `json:"subtopics"`
	QuestionType       string         `json:"questionType"`
	Mode               string         `json:"mode"`
	Difficulty         string         `json:"difficulty"`
	Mix                map[string]int `json:"mix,omitempty"`
	PatternMode        PatternMode    `json:"patternMode"`
	QCount             int            `json:"qCount"`
	MarksPerQuestion   int            `json:"marksPerQuestion"`
	Sections           []Section      `json:"sections"`
	MarkingMatrix      []Section      `json:"markingMatrix"`
	Language           string         `json:"language"`
	SolutionStyle      string         `json:"solutionStyle"`
	IncludeAnswerKey   bool           `json:"includeAnswerKey"`
	NegativeMarking    float64        `json:"negativeMarking"`
	ShuffleQuestions   bool           `json:"shuffleQuestions"`
	ShuffleOptions     bool           `json:"shuffleOptions"`
	Notes              string         `json:"notes"`
	OutputFormat       string         `json:"outputFormat"`
	Watermark          bool           `json:"watermark"`
	WatermarkText      string         `json:"watermarkText"`
	UseLogo            bool           `json:"useLogo"`
	Institute          string         `json:"institute"`
	TeacherName        string         `json:"teacherName,omitempty"`
	ExamTitle          string         `json:"examTitle"`
	ExamDate           string         `json:"examDate,omitempty"`
	SectionsJSON       string         `json:"sectionsJSON,omitempty"`
	ComputedTotalMarks string         `json:"computedTotalMarks"`
	RefFiles           []RefFile      `json:"ref_files"`
}

const (
	defaultSubject      = "General"
	defaultInstitute    = "a4ai"
	defaultOutputFormat = "PDF"
)

var defaultDifficultyMix = DifficultyMix{Easy: 40, Medium: 40, Hard: 20}

// BuildEdgePayload maps form values onto the dual-encoded payload. It is pure:
// ids and files are supplied by the caller.
func BuildEdgePayload(f FormValues, userID, requestID string, refFiles []RefFile) EdgePayload {
	subject := collapseSpaces(f.Subject)
	if subject == "" {
		subject = defaultSubject
	}

	p := EdgePayload{
		RequestID:          requestID,
		UserID:             userID,
		Board:              f.Board,
		ClassNum:           f.ClassNum,
		Subject:            subject,
		Topics:             nonNil(f.Topics),
		Subtopics:          nonNil(f.Subtopics),
		QuestionType:       f.QuestionType,
		Mode:               f.Mode,
		Difficulty:         f.Difficulty,
		Mix:                f.Mix,
		PatternMode:        f.PatternMode,
		QCount:             f.QCount,
		MarksPerQuestion:   f.MarksPerQuestion,
		Sections:           nonNilSections(f.Sections),
		MarkingMatrix:      nonNilSections(f.MarkingMatrix),
		Language:           f.Language,
		SolutionStyle:      f.SolutionStyle,
		IncludeAnswerKey:   boolOr(f.IncludeAnswerKey, true),
		NegativeMarking:    floatOr(f.NegativeMarking, 0),
		ShuffleQuestions:   boolOr(f.ShuffleQuestions, true),
		ShuffleOptions:     boolOr(f.ShuffleOptions, true),
		Notes:              f.Notes,
		OutputFormat:       strOr(f.OutputFormat, defaultOutputFormat),
		Watermark:          boolOr(f.Watermark, false),
		WatermarkText:      f.WatermarkText,
		UseLogo:            boolOr(f.UseLogo, true),
		Institute:          defaultInstitute,
		ExamTitle:          fmt.Sprintf("%s • Class %d • %s", subject, f.ClassNum, f.Board),
		ComputedTotalMarks: computedTotalMarks(f),
		RefFiles:           refFiles,
	}
	if p.RefFiles == nil {
		p.RefFiles = []RefFile{}
	}

	if specs := sectionSpecs(f); len(specs) > 0 {
		data, err := json.Marshal(specs)
		if err == nil {
			p.SectionsJSON = string(data)
		}
	}

	return p
}

// CanUseSectionedMarks reports whether marks-per-question fits the sectioned
// encoding.
func CanUseSectionedMarks(marks int) bool {
	return marks >= 1 && marks <= 4
}

func sectionSpecs(f FormValues) []SectionSpec {
	var rows []Section
	switch f.PatternMode {
	case PatternBlueprint:
		rows = f.Sections
	case PatternMatrix:
		rows = f.MarkingMatrix
	default:
		return nil
	}

	if len(rows) == 0 {
		return nil
	}
	for _, r := range rows {
		if !CanUseSectionedMarks(r.MarksPerQuestion) {
			return nil
		}
	}

	specs := make([]SectionSpec, 0, len(rows))
	for _, r := range rows {
		if f.PatternMode == PatternMatrix && r.Count <= 0 {
			continue
		}
		specs = append(specs, SectionSpec{
			ID:               sectionID(len(specs)),
			MarksPerQuestion: r.MarksPerQuestion,
			Count:            r.Count,
			DifficultyMix:    defaultDifficultyMix,
		})
	}
	return specs
}

// sectionID returns A, B, … Z, then AA, AB, ….
func sectionID(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return sectionID(i/26-1) + string(rune('A'+i%26))
}

func computedTotalMarks(f FormValues) string {
	total := 0
	switch f.PatternMode {
	case PatternBlueprint:
		total = sectionTotal(f.Sections)
	case PatternMatrix:
		total = sectionTotal(f.MarkingMatrix)
	default:
		total = f.QCount * f.MarksPerQuestion
	}
	return strconv.Itoa(total)
}

func sectionTotal(rows []Section) int {
	total := 0
	for _, r := range rows {
		total += r.Count * r.MarksPerQuestion
	}
	return total
}

var spacesRe = regexp.MustCompile(`\s+`)

func collapseSpaces(s string) string {
	return strings.TrimSpace(spacesRe.ReplaceAllString(s, " "))
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func strOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilSections(s []Section) []Section {
	if s == nil {
		return []Section{}
	}
	return s
}
