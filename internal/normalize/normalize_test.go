package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openprep/sat-import-service/internal/models"
	"github.com/openprep/sat-import-service/internal/qbank"
)

func TestFixMathMLRewritesFencedTags(t *testing.T) {
	assert.Equal(t, "<mo>(</mo>x<mo>)</mo>", FixMathML("<mfenced>x</mfenced>"))
}

func TestFixMathMLIsIdempotent(t *testing.T) {
	inputs := []string{
		"<mfenced>x</mfenced>",
		"plain text",
		"",
		"<math><mfenced><mn>2</mn></mfenced></math>",
	}
	for _, in := range inputs {
		once := FixMathML(in)
		assert.Equal(t, once, FixMathML(once), "input %q", in)
	}
}

func TestFromDetailNewFormatMCQ(t *testing.T) {
	detail := &qbank.Detail{
		Format: qbank.FormatNew,
		New: &qbank.NewFormatDetail{
			Type:     "mcq",
			Stem:     "Solve <mfenced>x</mfenced>",
			Stimulus: "graph of <mfenced>y</mfenced>",
			AnswerOptions: []qbank.NewAnswerOption{
				{ID: "1", Content: "<mfenced>2</mfenced>"},
				{ID: "2", Content: "three"},
			},
			Keys:      qbank.StringList{"A"},
			Rationale: "because",
		},
	}

	content, err := FromDetail(detail)
	require.NoError(t, err)

	assert.Equal(t, models.QuestionMCQ, content.QuestionType)
	assert.Equal(t, "Solve <mo>(</mo>x<mo>)</mo>", content.QuestionText)
	require.NotNil(t, content.Stimulus)
	assert.Equal(t, "graph of <mo>(</mo>y<mo>)</mo>", *content.Stimulus)
	require.NotNil(t, content.Explanation)
	assert.Equal(t, "because", *content.Explanation)

	require.Len(t, content.AnswerOptions, 2)
	assert.Equal(t, "<mo>(</mo>2<mo>)</mo>", content.AnswerOptions[0].Content)
	// Keys reference option letters, not these numeric ids, so no flag is set.
	assert.False(t, content.AnswerOptions[0].IsCorrect)
	assert.Equal(t, []string{"A"}, content.CorrectAnswers)
}

func TestFromDetailNewFormatDefaultsToMCQ(t *testing.T) {
	content, err := FromDetail(&qbank.Detail{
		Format: qbank.FormatNew,
		New:    &qbank.NewFormatDetail{Stem: "stem only"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.QuestionMCQ, content.QuestionType)
	assert.Nil(t, content.AnswerOptions)
	assert.Nil(t, content.Stimulus)
	assert.Nil(t, content.Explanation)
}

func TestFromDetailNewFormatSPRHasNoOptions(t *testing.T) {
	content, err := FromDetail(&qbank.Detail{
		Format: qbank.FormatNew,
		New: &qbank.NewFormatDetail{
			Type: "spr",
			Stem: "Enter a value",
			Keys: qbank.StringList{"12", "3/4"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.QuestionSPR, content.QuestionType)
	assert.Nil(t, content.AnswerOptions)
	assert.Equal(t, []string{"12", "3/4"}, content.CorrectAnswers)
}

func TestFromDetailLegacyMCQ(t *testing.T) {
	content, err := FromDetail(&qbank.Detail{
		Format: qbank.FormatLegacy,
		Legacy: &qbank.LegacyFormatDetail{
			Prompt: "Pick one",
			Body:   "passage",
			Answer: qbank.LegacyAnswer{
				Style: "Multiple Choice",
				Choices: map[string]qbank.LegacyChoice{
					"b": {Body: "second"},
					"a": {Body: "<mfenced>1</mfenced>"},
				},
				CorrectChoice: "b",
				Rationale:     "rationale",
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.QuestionMCQ, content.QuestionType)
	require.Len(t, content.AnswerOptions, 2)
	// Choice keys are uppercased and ordered.
	assert.Equal(t, "A", content.AnswerOptions[0].ID)
	assert.Equal(t, "<mo>(</mo>1<mo>)</mo>", content.AnswerOptions[0].Content)
	assert.False(t, content.AnswerOptions[0].IsCorrect)
	assert.Equal(t, "B", content.AnswerOptions[1].ID)
	assert.True(t, content.AnswerOptions[1].IsCorrect)
	assert.Equal(t, []string{"B"}, content.CorrectAnswers)
}

func TestFromDetailLegacySPR(t *testing.T) {
	content, err := FromDetail(&qbank.Detail{
		Format: qbank.FormatLegacy,
		Legacy: &qbank.LegacyFormatDetail{
			Prompt: "Grid in the answer",
			Answer: qbank.LegacyAnswer{Style: "SPR"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.QuestionSPR, content.QuestionType)
	assert.Nil(t, content.AnswerOptions)
	assert.Nil(t, content.CorrectAnswers)
}

func TestFromDetailRejectsMalformedVariants(t *testing.T) {
	_, err := FromDetail(nil)
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = FromDetail(&qbank.Detail{Format: qbank.FormatNew})
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = FromDetail(&qbank.Detail{Format: qbank.FormatLegacy})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
