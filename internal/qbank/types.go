package qbank

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OverviewItem is the per-question summary returned by the vendor's listing
// call. Exactly one of ExternalID / IBN is expected to be populated,
// depending on the API generation that produced the partition.
type OverviewItem struct {
	ExternalID string     `json:"external_id"`
	IBN        string     `json:"ibn"`
	SkillCode  string     `json:"skill_cd"`
	Difficulty string     `json:"difficulty"`
	ScoreBand  int        `json:"score_band_range_cd"`
	Program    string     `json:"program"`
	UpdateDate FlexString `json:"update_date"`
}

// Identifier returns the vendor identifier of the item and whether it is a
// legacy ibn. Both return values are zero when the item carries neither key.
func (o OverviewItem) Identifier() (id string, legacy bool) {
	if o.ExternalID != "" {
		return o.ExternalID, false
	}
	if o.IBN != "" {
		return o.IBN, true
	}
	return "", false
}

// DetailFormat tags which vendor API generation a Detail came from.
type DetailFormat int

const (
	FormatNew DetailFormat = iota
	FormatLegacy
)

// Detail is the tagged union over the two detail payload shapes. The variant
// is selected at fetch time by which identifier the overview item carried.
type Detail struct {
	Format DetailFormat
	New    *NewFormatDetail
	Legacy *LegacyFormatDetail
}

// NewFormatDetail is the external_id-keyed payload of the current API.
type NewFormatDetail struct {
	Type          string            `json:"type"`
	Stem          string            `json:"stem"`
	Stimulus      string            `json:"stimulus"`
	AnswerOptions []NewAnswerOption `json:"answerOptions"`
	Keys          StringList        `json:"keys"`
	Rationale     string            `json:"rationale"`
}

type NewAnswerOption struct {
	ID      FlexString `json:"id"`
	Content string     `json:"content"`
}

// LegacyFormatDetail is one element of the ibn-keyed static-asset payload,
// which arrives as a single-element array.
type LegacyFormatDetail struct {
	Prompt string       `json:"prompt"`
	Body   string       `json:"body"`
	Answer LegacyAnswer `json:"answer"`
}

type LegacyAnswer struct {
	Style         string                  `json:"style"`
	Choices       map[string]LegacyChoice `json:"choices"`
	CorrectChoice string                  `json:"correct_choice"`
	Rationale     string                  `json:"rationale"`
}

type LegacyChoice struct {
	Body string `json:"body"`
}

// FlexString decodes JSON strings and numbers alike; the vendor is not
// consistent about option id types across administrations.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flex string: %w", err)
	}
	*s = FlexString(n.String())
	return nil
}

// StringList decodes either a JSON array of strings or a bare string into a
// slice; the vendor emits "keys" both ways.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*l = StringList{v}
		return nil
	}
	var vs []FlexString
	if err := json.Unmarshal(data, &vs); err != nil {
		return fmt.Errorf("string list: %w", err)
	}
	out := make(StringList, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	*l = out
	return nil
}
