package grading

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mind-engage/mindengage-assess/internal/exam"
)

// Validate checks that a payload has the shape its question type expects.
// It returns nil or an *exam.ValidationError; it never looks at correctness.
func Validate(q exam.Question, payload json.RawMessage) error {
	w, err := decodeWire(payload)
	if err != nil {
		return exam.Invalid("payload", q.ID, "answer must be a JSON object")
	}

	switch q.Type {
	case exam.QuestionMCQ, exam.QuestionTrueFalse:
		ids, err := stringList(q.ID, w.SelectedOptionIDs)
		if err != nil {
			return err
		}
		if len(ids) != 1 {
			return exam.Invalid("single_selection", q.ID, fmt.Sprintf("exactly one option must be selected, got %d", len(ids)))
		}
		return nil

	case exam.QuestionMultipleAnswer:
		ids, err := stringList(q.ID, w.SelectedOptionIDs)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return exam.Invalid("multi_selection", q.ID, "at least one option must be selected")
		}
		return nil

	case exam.QuestionSubjective, exam.QuestionEssay:
		text, ok := w.Text.(string)
		if !ok || strings.TrimSpace(text) == "" {
			return exam.Invalid("text_required", q.ID, "answer text must not be empty")
		}
		n := utf8.RuneCountInString(strings.TrimSpace(text))
		if q.Params.MinLength > 0 && n < q.Params.MinLength {
			return exam.Invalid("min_length", q.ID, fmt.Sprintf("answer is %d characters, minimum is %d", n, q.Params.MinLength))
		}
		if q.Params.MaxLength > 0 && n > q.Params.MaxLength {
			return exam.Invalid("max_length", q.ID, fmt.Sprintf("answer is %d characters, maximum is %d", n, q.Params.MaxLength))
		}
		return nil

	case exam.QuestionFillBlank:
		// selectedOptionIds carries blank texts in blank order; blanks is the older shape
		ids, err := stringList(q.ID, w.SelectedOptionIDs)
		if err != nil {
			return err
		}
		legacy := 0
		for _, b := range w.Blanks {
			if b.BlankIndex == nil {
				return exam.Invalid("blank_index", q.ID, "every blank needs a blankIndex")
			}
			if _, ok := b.Answer.(string); !ok {
				return exam.Invalid("blank_answer", q.ID, "blank answers must be strings")
			}
			legacy++
		}
		if len(ids) == 0 && legacy == 0 {
			return exam.Invalid("blanks_required", q.ID, "at least one blank must be answered")
		}
		return nil

	case exam.QuestionMatch:
		if len(w.Matches) == 0 {
			return exam.Invalid("matches_required", q.ID, "at least one match pair is required")
		}
		for i, m := range w.Matches {
			if _, ok := m.OptionID.(string); !ok {
				return exam.Invalid("match_option", q.ID, fmt.Sprintf("pair %d: optionId must be a string", i))
			}
			if _, ok := m.MatchWith.(string); !ok {
				return exam.Invalid("match_target", q.ID, fmt.Sprintf("pair %d: matchWith must be a string", i))
			}
		}
		return nil

	case exam.QuestionTextBlock, exam.QuestionSectionBreak:
		return exam.Invalid("not_answerable", q.ID, fmt.Sprintf("%s questions do not take answers", q.Type))
	}
	return exam.Invalid("question_type", q.ID, fmt.Sprintf("unknown question type %q", q.Type))
}

func stringList(questionID string, vals []any) ([]string, error) {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			return nil, exam.Invalid("option_id", questionID, "selected option ids must be strings")
		}
		out = append(out, s)
	}
	return out, nil
}
