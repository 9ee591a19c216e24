package grading

import (
	"bytes"
	"encoding/json"
)

// Answer is a decoded learner payload. Which fields matter depends on the
// question type.
type Answer struct {
	SelectedOptionIDs []string
	Text              string
	Blanks            []BlankAnswer
	Matches           []MatchPair
}

type BlankAnswer struct {
	BlankIndex int    `json:"blankIndex"`
	Answer     string `json:"answer"`
}

type MatchPair struct {
	OptionID  string `json:"optionId"`
	MatchWith string `json:"matchWith"`
}

// wireAnswer keeps JSON values untyped so the validator can tell a missing
// field from one of the wrong type.
type wireAnswer struct {
	SelectedOptionIDs []any `json:"selectedOptionIds"`
	Text              any   `json:"text"`
	Blanks            []struct {
		BlankIndex *int `json:"blankIndex"`
		Answer     any  `json:"answer"`
	} `json:"blanks"`
	Matches []struct {
		OptionID  any `json:"optionId"`
		MatchWith any `json:"matchWith"`
	} `json:"matches"`
}

func decodeWire(raw json.RawMessage) (wireAnswer, error) {
	var w wireAnswer
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return w, errEmptyPayload
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return w, err
	}
	return w, nil
}

// ParseAnswer decodes a payload leniently: values of the wrong JSON type are
// dropped instead of failing. Scoring uses this; validation is stricter.
func ParseAnswer(raw json.RawMessage) (Answer, error) {
	w, err := decodeWire(raw)
	if err != nil {
		return Answer{}, err
	}
	var a Answer
	for _, v := range w.SelectedOptionIDs {
		if s, ok := v.(string); ok {
			a.SelectedOptionIDs = append(a.SelectedOptionIDs, s)
		}
	}
	if s, ok := w.Text.(string); ok {
		a.Text = s
	}
	for _, b := range w.Blanks {
		s, ok := b.Answer.(string)
		if !ok || b.BlankIndex == nil {
			continue
		}
		a.Blanks = append(a.Blanks, BlankAnswer{BlankIndex: *b.BlankIndex, Answer: s})
	}
	for _, m := range w.Matches {
		id, ok1 := m.OptionID.(string)
		with, ok2 := m.MatchWith.(string)
		if ok1 && ok2 {
			a.Matches = append(a.Matches, MatchPair{OptionID: id, MatchWith: with})
		}
	}
	return a, nil
}
