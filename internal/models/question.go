package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	QuestionMCQ QuestionType = "mcq"
	QuestionSPR QuestionType = "spr"
)

// Question origins distinguish which vendor API generation a record came from.
const (
	OriginSATOfficial    = "sat_official"
	OriginSATOfficialIBN = "sat_official_ibn"
)

// AnswerOption is one entry of the answer_options jsonb array.
type AnswerOption struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	IsCorrect bool   `json:"is_correct"`
}

// Question is the canonical record persisted to the questions table.
// Exactly one of SATExternalID / SATIBN is set; it is also the upsert
// conflict column.
type Question struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	Origin string `json:"origin" gorm:"not null;size:32" validate:"required"`

	SATExternalID *string `json:"sat_external_id" gorm:"column:sat_external_id;uniqueIndex;size:64"`
	SATIBN        *string `json:"sat_ibn" gorm:"column:sat_ibn;uniqueIndex;size:64"`

	QuestionText string       `json:"question_text" gorm:"not null;type:text"`
	Stimulus     *string      `json:"stimulus" gorm:"type:text"`
	QuestionType QuestionType `json:"question_type" gorm:"not null;size:16;default:mcq" validate:"required,oneof=mcq spr"`

	SkillID   string `json:"skill_id" gorm:"not null;size:64;index" validate:"required"`
	DomainID  string `json:"domain_id" gorm:"not null;size:64;index" validate:"required"`
	SubjectID string `json:"subject_id" gorm:"not null;size:32" validate:"required"`

	DifficultyBand   int     `json:"difficulty_band" gorm:"default:3"`
	DifficultyLetter *string `json:"difficulty_letter" gorm:"size:4"`
	SATProgram       string  `json:"sat_program" gorm:"column:sat_program;size:32;default:SAT"`

	AnswerOptions  datatypes.JSON `json:"answer_options" gorm:"type:jsonb"`
	CorrectAnswers datatypes.JSON `json:"correct_answers" gorm:"type:jsonb"`
	Explanation    *string        `json:"explanation" gorm:"type:text"`

	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}

// IdentityColumn returns the conflict-resolution column for this record.
func (q *Question) IdentityColumn() string {
	if q.SATIBN != nil {
		return "sat_ibn"
	}
	return "sat_external_id"
}

// IdentityValue returns the vendor identifier backing IdentityColumn.
func (q *Question) IdentityValue() string {
	if q.SATIBN != nil {
		return *q.SATIBN
	}
	if q.SATExternalID != nil {
		return *q.SATExternalID
	}
	return ""
}
