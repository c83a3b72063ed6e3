// Package normalize turns raw vendor question payloads into the canonical
// content fields, one normalization path per API generation.
package normalize

import (
	"errors"
	"sort"
	"strings"

	"github.com/openprep/sat-import-service/internal/models"
	"github.com/openprep/sat-import-service/internal/qbank"
)

var ErrUnknownFormat = errors.New("unknown detail format")

// Content holds the normalized display fields of one question.
type Content struct {
	QuestionText   string
	Stimulus       *string
	Explanation    *string
	QuestionType   models.QuestionType
	AnswerOptions  []models.AnswerOption
	CorrectAnswers []string
}

// mfenced is emitted by the vendor's MathML but unsupported by several
// renderers; it is rewritten to the equivalent <mo> pair. Applying the
// rewrite twice is a no-op since the output contains no mfenced tags.
var mathMLReplacer = strings.NewReplacer(
	"<mfenced>", "<mo>(</mo>",
	"</mfenced>", "<mo>)</mo>",
)

// FixMathML rewrites mfenced grouping tags into operator open/close tags.
func FixMathML(text string) string {
	if text == "" {
		return text
	}
	return mathMLReplacer.Replace(text)
}

// FromDetail dispatches on the detail variant.
func FromDetail(detail *qbank.Detail) (*Content, error) {
	if detail == nil {
		return nil, ErrUnknownFormat
	}
	switch detail.Format {
	case qbank.FormatNew:
		if detail.New == nil {
			return nil, ErrUnknownFormat
		}
		return fromNew(detail.New), nil
	case qbank.FormatLegacy:
		if detail.Legacy == nil {
			return nil, ErrUnknownFormat
		}
		return fromLegacy(detail.Legacy), nil
	}
	return nil, ErrUnknownFormat
}

func fromNew(d *qbank.NewFormatDetail) *Content {
	questionType := models.QuestionType(d.Type)
	if questionType == "" {
		questionType = models.QuestionMCQ
	}

	content := &Content{
		QuestionText:   FixMathML(d.Stem),
		Stimulus:       optional(FixMathML(d.Stimulus)),
		Explanation:    optional(d.Rationale),
		QuestionType:   questionType,
		CorrectAnswers: d.Keys,
	}

	if questionType == models.QuestionMCQ && len(d.AnswerOptions) > 0 {
		keys := make(map[string]bool, len(d.Keys))
		for _, k := range d.Keys {
			keys[k] = true
		}
		for _, opt := range d.AnswerOptions {
			content.AnswerOptions = append(content.AnswerOptions, models.AnswerOption{
				ID:        string(opt.ID),
				Content:   FixMathML(opt.Content),
				IsCorrect: keys[string(opt.ID)],
			})
		}
	}
	return content
}

func fromLegacy(d *qbank.LegacyFormatDetail) *Content {
	content := &Content{
		QuestionText: FixMathML(d.Prompt),
		Stimulus:     optional(FixMathML(d.Body)),
		Explanation:  optional(d.Answer.Rationale),
	}

	// SPR questions have no choices and no predefined correct answer.
	if d.Answer.Style == "SPR" {
		content.QuestionType = models.QuestionSPR
		return content
	}

	content.QuestionType = models.QuestionMCQ
	correct := strings.ToUpper(d.Answer.CorrectChoice)

	keys := make([]string, 0, len(d.Answer.Choices))
	for key := range d.Answer.Choices {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		id := strings.ToUpper(key)
		content.AnswerOptions = append(content.AnswerOptions, models.AnswerOption{
			ID:        id,
			Content:   FixMathML(d.Answer.Choices[key].Body),
			IsCorrect: correct != "" && id == correct,
		})
	}
	if correct != "" {
		content.CorrectAnswers = []string{correct}
	}
	return content
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
