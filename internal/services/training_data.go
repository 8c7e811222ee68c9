package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/clinscribe/backend/internal/models"
	"gorm.io/gorm"
)

// Category is the enumerated documentation category supplied at capture
// time. Unknown values yield no tags rather than a guess.
type Category string

const (
	CategoryDiagnosis        Category = "diagnosis"
	CategoryTreatmentPlan    Category = "treatment_plan"
	CategorySubjectiveExam   Category = "subjective_examination"
	CategoryObjectiveExam    Category = "objective_examination"
	CategoryProgressNote     Category = "progress_note"
	CategoryPatientEducation Category = "patient_education"
)

// categoryTags maps each category to its dataset tags.
var categoryTags = map[Category][]string{
	CategoryDiagnosis:        {"diagnosis", "clinical_reasoning"},
	CategoryTreatmentPlan:    {"treatment_plan", "clinical_reasoning"},
	CategorySubjectiveExam:   {"subjective_examination", "assessment"},
	CategoryObjectiveExam:    {"objective_examination", "assessment"},
	CategoryProgressNote:     {"progress_note"},
	CategoryPatientEducation: {"patient_education"},
}

// TagsFor returns the dataset tags for a category; nil for unknown ones.
func TagsFor(category Category) []string {
	return categoryTags[category]
}

// ExportFormat selects the output shape of a dataset export.
type ExportFormat string

const (
	FormatChatML ExportFormat = "chatml" // structured chat-turn triples
	FormatPairs  ExportFormat = "pairs"  // flat prompt/response objects
	FormatCSV    ExportFormat = "csv"    // tabular rows
)

const exportSystemPrompt = "You are a clinical documentation assistant for physiotherapy practices."

// ExportFilter narrows the examples included in an export. Tags use AND
// semantics: an example must carry every listed tag.
type ExportFilter struct {
	Tags         []string
	ReviewedOnly bool
}

// ChatTurn is one message of a chatml export record.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatMLRecord is a system/user/assistant triple.
type ChatMLRecord struct {
	Messages []ChatTurn `json:"messages"`
}

// PairRecord is a flat prompt/response pair.
type PairRecord struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
	Model    string `json:"model"`
}

// TrainingDataService captures deidentified (prompt, response) pairs on
// the cache write path and exports them as curated datasets.
type TrainingDataService struct {
	db *gorm.DB
}

func NewTrainingDataService(db *gorm.DB) *TrainingDataService {
	return &TrainingDataService{db: db}
}

// Capture stores one training example. Patient context never reaches this
// path; only the generic prompt and response are persisted.
func (s *TrainingDataService) Capture(prompt, response, model, metadata string, category Category, userID uint) error {
	tagsJSON := ""
	if tags := TagsFor(category); len(tags) > 0 {
		raw, err := json.Marshal(tags)
		if err != nil {
			return fmt.Errorf("failed to marshal tags: %w", err)
		}
		tagsJSON = string(raw)
	}

	example := models.TrainingExample{
		Prompt:   prompt,
		Response: response,
		Model:    model,
		Metadata: metadata,
		Tags:     tagsJSON,
		UserID:   userID,
	}
	if err := s.db.Create(&example).Error; err != nil {
		return fmt.Errorf("failed to store training example: %w", err)
	}
	return nil
}

// ProcessCaptureTask adapts Capture to the task-queue processor signature.
func (s *TrainingDataService) ProcessCaptureTask(task *CaptureTask) error {
	return s.Capture(task.Prompt, task.Response, task.Model, task.Metadata, task.Category, task.UserID)
}

// selectExamples applies the filter; shared by every export format.
func (s *TrainingDataService) selectExamples(filter ExportFilter) ([]models.TrainingExample, error) {
	query := s.db.Model(&models.TrainingExample{}).Order("created_at ASC")
	if filter.ReviewedOnly {
		query = query.Where("reviewed = ?", true)
	}
	// Tags are stored as a JSON array string; AND semantics via one LIKE
	// per required tag.
	for _, tag := range filter.Tags {
		query = query.Where("tags LIKE ?", "%\""+tag+"\"%")
	}

	var examples []models.TrainingExample
	if err := query.Find(&examples).Error; err != nil {
		return nil, err
	}
	return examples, nil
}

// ExportChatML returns the filtered examples as chat-turn triples.
func (s *TrainingDataService) ExportChatML(filter ExportFilter) ([]ChatMLRecord, error) {
	examples, err := s.selectExamples(filter)
	if err != nil {
		return nil, err
	}

	records := make([]ChatMLRecord, 0, len(examples))
	for _, ex := range examples {
		records = append(records, ChatMLRecord{Messages: []ChatTurn{
			{Role: "system", Content: exportSystemPrompt},
			{Role: "user", Content: ex.Prompt},
			{Role: "assistant", Content: ex.Response},
		}})
	}
	return records, nil
}

// ExportPairs returns the filtered examples as flat prompt/response pairs.
func (s *TrainingDataService) ExportPairs(filter ExportFilter) ([]PairRecord, error) {
	examples, err := s.selectExamples(filter)
	if err != nil {
		return nil, err
	}

	records := make([]PairRecord, 0, len(examples))
	for _, ex := range examples {
		records = append(records, PairRecord{Prompt: ex.Prompt, Response: ex.Response, Model: ex.Model})
	}
	return records, nil
}

// ExportCSV returns the filtered examples as tabular rows, header first.
func (s *TrainingDataService) ExportCSV(filter ExportFilter) ([][]string, error) {
	examples, err := s.selectExamples(filter)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(examples)+1)
	rows = append(rows, []string{"prompt", "response", "model", "tags"})
	for _, ex := range examples {
		rows = append(rows, []string{ex.Prompt, ex.Response, ex.Model, ex.Tags})
	}
	return rows, nil
}

// Export dispatches on format; the selection logic is format-independent.
func (s *TrainingDataService) Export(format ExportFormat, filter ExportFilter) (interface{}, error) {
	switch format {
	case FormatChatML:
		return s.ExportChatML(filter)
	case FormatPairs:
		return s.ExportPairs(filter)
	case FormatCSV:
		return s.ExportCSV(filter)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// SetQualityScore records a human-assigned quality score.
func (s *TrainingDataService) SetQualityScore(id uint, score float64) error {
	return s.db.Model(&models.TrainingExample{}).Where("id = ?", id).
		Update("quality_score", score).Error
}

// MarkReviewed flags an example as human-reviewed.
func (s *TrainingDataService) MarkReviewed(id uint) error {
	return s.db.Model(&models.TrainingExample{}).Where("id = ?", id).
		Update("reviewed", true).Error
}

// ParseCategory validates a caller-supplied category string.
func ParseCategory(raw string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := categoryTags[c]
	return c, ok
}
