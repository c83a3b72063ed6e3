// Package validator checks canonical question records before they reach the
// persistence sink: struct tags first, then the business rules the schema
// cannot express.
package validator

import (
	"github.com/go-playground/validator/v10"

	"github.com/openprep/sat-import-service/internal/models"
)

type Validator struct {
	structValidator *validator.Validate
}

func New() *Validator {
	return &Validator{
		structValidator: validator.New(),
	}
}

// ValidateQuestion performs complete validation of a canonical record.
func (v *Validator) ValidateQuestion(q *models.Question) error {
	if err := v.structValidator.Struct(q); err != nil {
		return err
	}

	if errs := v.businessRules(q); len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *Validator) businessRules(q *models.Question) ValidationErrors {
	var errs ValidationErrors

	// Exactly one identity key, matching the upsert conflict column.
	hasExternal := q.SATExternalID != nil && *q.SATExternalID != ""
	hasIBN := q.SATIBN != nil && *q.SATIBN != ""
	switch {
	case !hasExternal && !hasIBN:
		errs = append(errs, ValidationError{
			Field:   "sat_external_id",
			Message: "record needs a vendor identity (external id or ibn)",
		})
	case hasExternal && hasIBN:
		errs = append(errs, ValidationError{
			Field:   "sat_ibn",
			Message: "record must not carry both identity keys",
			Value:   *q.SATIBN,
		})
	}

	// answer_options is populated if and only if the question is mcq.
	hasOptions := hasJSONItems(q.AnswerOptions)
	if q.QuestionType == models.QuestionMCQ && !hasOptions {
		errs = append(errs, ValidationError{
			Field:   "answer_options",
			Message: "mcq question has no answer options",
		})
	}
	if q.QuestionType != models.QuestionMCQ && hasOptions {
		errs = append(errs, ValidationError{
			Field:   "answer_options",
			Message: "non-mcq question must not carry answer options",
			Value:   string(q.QuestionType),
		})
	}

	return errs
}

func hasJSONItems(raw []byte) bool {
	switch string(raw) {
	case "", "null", "[]":
		return false
	}
	return true
}
