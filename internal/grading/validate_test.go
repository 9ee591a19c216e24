package grading_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-assess/internal/exam"
	"github.com/mind-engage/mindengage-assess/internal/grading"
)

func TestValidate(t *testing.T) {
	essay := exam.Question{ID: "e1", Type: exam.QuestionEssay, Params: exam.QuestionParams{MinLength: 3, MaxLength: 10}}

	cases := []struct {
		name    string
		q       exam.Question
		payload string
		rule    string // empty means valid
	}{
		{"mcq one", exam.Question{ID: "m", Type: exam.QuestionMCQ}, `{"selectedOptionIds":["a"]}`, ""},
		{"mcq none", exam.Question{ID: "m", Type: exam.QuestionMCQ}, `{"selectedOptionIds":[]}`, "single_selection"},
		{"mcq two", exam.Question{ID: "m", Type: exam.QuestionMCQ}, `{"selectedOptionIds":["a","b"]}`, "single_selection"},
		{"true false number", exam.Question{ID: "tf", Type: exam.QuestionTrueFalse}, `{"selectedOptionIds":[1]}`, "option_id"},
		{"multi some", exam.Question{ID: "ma", Type: exam.QuestionMultipleAnswer}, `{"selectedOptionIds":["a","b"]}`, ""},
		{"multi empty", exam.Question{ID: "ma", Type: exam.QuestionMultipleAnswer}, `{}`, "multi_selection"},
		{"subjective text", exam.Question{ID: "s", Type: exam.QuestionSubjective}, `{"text":"hello"}`, ""},
		{"subjective blank", exam.Question{ID: "s", Type: exam.QuestionSubjective}, `{"text":"   "}`, "text_required"},
		{"subjective not string", exam.Question{ID: "s", Type: exam.QuestionSubjective}, `{"text":42}`, "text_required"},
		{"essay too short", essay, `{"text":"ab"}`, "min_length"},
		{"essay too long", essay, `{"text":"abcdefghijk"}`, "max_length"},
		{"essay runes", essay, `{"text":"ééééé"}`, ""},
		{"fill modern", exam.Question{ID: "f", Type: exam.QuestionFillBlank}, `{"selectedOptionIds":["Paris"]}`, ""},
		{"fill legacy", exam.Question{ID: "f", Type: exam.QuestionFillBlank}, `{"blanks":[{"blankIndex":0,"answer":"Paris"}]}`, ""},
		{"fill nothing", exam.Question{ID: "f", Type: exam.QuestionFillBlank}, `{"blanks":[]}`, "blanks_required"},
		{"fill legacy no index", exam.Question{ID: "f", Type: exam.QuestionFillBlank}, `{"blanks":[{"answer":"Paris"}]}`, "blank_index"},
		{"match ok", exam.Question{ID: "mt", Type: exam.QuestionMatch}, `{"matches":[{"optionId":"o1","matchWith":"A"}]}`, ""},
		{"match empty", exam.Question{ID: "mt", Type: exam.QuestionMatch}, `{"matches":[]}`, "matches_required"},
		{"match target number", exam.Question{ID: "mt", Type: exam.QuestionMatch}, `{"matches":[{"optionId":"o1","matchWith":3}]}`, "match_target"},
		{"match option missing", exam.Question{ID: "mt", Type: exam.QuestionMatch}, `{"matches":[{"matchWith":"A"}]}`, "match_option"},
		{"text block", exam.Question{ID: "tb", Type: exam.QuestionTextBlock}, `{"text":"x"}`, "not_answerable"},
		{"unknown type", exam.Question{ID: "u", Type: "HOTSPOT"}, `{"text":"x"}`, "question_type"},
		{"bad json", exam.Question{ID: "m", Type: exam.QuestionMCQ}, `{"selectedOptionIds":`, "payload"},
		{"null", exam.Question{ID: "m", Type: exam.QuestionMCQ}, `null`, "payload"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := grading.Validate(tc.q, raw(tc.payload))
			if tc.rule == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, exam.ErrValidation))
			var ve *exam.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tc.rule, ve.Rule)
			assert.Equal(t, tc.q.ID, ve.QuestionID)
		})
	}
}
