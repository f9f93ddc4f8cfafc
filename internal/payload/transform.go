package payload

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/a4ai/testgen/internal/generator"
	"github.com/a4ai/testgen/internal/models"
)

const (
	defaultClassNum = 10
	defaultQCount   = 5
	anonymousUser   = "anon"
)

// SimpleRow is one line of the simple-mode table.
type SimpleRow struct {
	Topic      string `json:"topic"`
	Subtopic   string `json:"subtopic,omitempty"`
	Quantity   int    `json:"quantity"`
	Difficulty string `json:"difficulty"`
}

// SimpleForm is the simple-mode exam form.
type SimpleForm struct {
	ExamTitle        string      `json:"examTitle"`
	Board            string      `json:"board"`
	ClassGrade       string      `json:"classGrade"`
	Subject          string      `json:"subject"`
	EnableWatermark  bool        `json:"enableWatermark"`
	ShuffleQuestions bool        `json:"shuffleQuestions"`
	Rows             []SimpleRow `json:"simpleData"`
	UseNCERT         bool        `json:"useNCERT"`
	NCERTChapters    []string    `json:"ncertChapters"`
	NCERTWeight      float64     `json:"ncertWeight,omitempty"`
	AvoidDuplicates  *bool       `json:"avoidDuplicates,omitempty"`
	UserID           string      `json:"userId,omitempty"`
}

var newRequestID = uuid.NewString

var digitsRe = regexp.MustCompile(`\d+`)

// ExtractClassNumber reads the first number in a grade label such as
// "Class 10", defaulting to 10.
func ExtractClassNumber(grade string) int {
	m := digitsRe.FindString(grade)
	if m == "" {
		return defaultClassNum
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return defaultClassNum
	}
	return n
}

// TransformForm converts a simple-mode form to a GenerationRequest. Each table
// row becomes one mcq bucket of 1-mark understand questions. The request gets
// a fresh id; the form is not otherwise interpreted, so Validate still applies.
func TransformForm(f SimpleForm) models.GenerationRequest {
	classNum := ExtractClassNumber(f.ClassGrade)

	total := 0
	var rowTopics []string
	buckets := make([]models.Bucket, 0, len(f.Rows))
	for _, row := range f.Rows {
		total += row.Quantity

		topic := strings.TrimSpace(row.Topic)
		var topics []string
		if topic != "" {
			rowTopics = append(rowTopics, topic)
			topics = []string{topic}
		}

		buckets = append(buckets, models.Bucket{
			Type:       models.TypeMCQ,
			Difficulty: rowDifficulty(row.Difficulty),
			Cognitive:  models.CognitiveUnderstand,
			Count:      row.Quantity,
			Marks:      1,
			Topics:     topics,
		})
	}

	qCount := total
	if qCount == 0 {
		qCount = defaultQCount
	}

	chapters := f.NCERTChapters
	if len(chapters) == 0 {
		chapters = rowTopics
	}
	chapters = append([]string(nil), chapters...)

	userID := f.UserID
	if userID == "" {
		userID = anonymousUser
	}

	avoid := true
	if f.AvoidDuplicates != nil {
		avoid = *f.AvoidDuplicates
	}

	return models.GenerationRequest{
		RequestID:       newRequestID(),
		UserID:          userID,
		ExamTitle:       f.ExamTitle,
		Subject:         f.Subject,
		Board:           f.Board,
		ClassNum:        classNum,
		Topic:           strings.Join(rowTopics, ", "),
		Buckets:         buckets,
		NCERTWeight:     f.NCERTWeight,
		AvoidDuplicates: avoid,
		UseNCERT:        f.UseNCERT,
		NCERTChapters:   chapters,
		QCount:          qCount,
		Watermark:       f.EnableWatermark,
		Shuffle:         f.ShuffleQuestions,
		OutputFormat:    defaultOutputFormat,
	}
}

// rowDifficulty lowercases the table value. "Mixed" and empty have no
// single-level equivalent and map to the default difficulty.
func rowDifficulty(s string) models.Difficulty {
	d := models.Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if d == "" || d == "mixed" {
		return models.DefaultDifficulty
	}
	return d
}

// ToTestRequest converts a structured request into the single-call wire
// request understood by the orchestrator. Uniform buckets keep their type and
// difficulty; otherwise "mixed" is sent and the bucket plan is spelled out in
// the additional requirements.
func ToTestRequest(req models.GenerationRequest, outputFormat string) models.GenerateTestRequest {
	count := req.TotalQuestions()
	if count == 0 {
		count = req.QCount
	}

	topic := req.Topic
	if topic == "" {
		topic = strings.Join(req.NCERTChapters, ", ")
	}

	return models.GenerateTestRequest{
		Subject:                req.Subject,
		Topic:                  topic,
		Difficulty:             uniformOrMixed(req.Buckets, func(b models.Bucket) string { return string(b.Difficulty.OrDefault()) }),
		QuestionType:           uniformOrMixed(req.Buckets, func(b models.Bucket) string { return string(b.Type) }),
		QuestionCount:          &count,
		OutputFormat:           outputFormat,
		AdditionalRequirements: generator.BucketRequirements(req),
	}
}

func uniformOrMixed(buckets []models.Bucket, field func(models.Bucket) string) string {
	if len(buckets) == 0 {
		return "mixed"
	}
	first := field(buckets[0])
	for _, b := range buckets[1:] {
		if field(b) != first {
			return "mixed"
		}
	}
	return first
}
