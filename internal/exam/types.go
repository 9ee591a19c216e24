package exam

// QuestionType is the closed set of question kinds. Code that branches on it
// lists every constant below; IsValid rejects anything else at the boundary.
type QuestionType string

const (
	QuestionMCQ            QuestionType = "MCQ"
	QuestionTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionMultipleAnswer QuestionType = "MULTIPLE_ANSWER"
	QuestionFillBlank      QuestionType = "FILL_BLANK"
	QuestionMatch          QuestionType = "MATCH"
	QuestionSubjective     QuestionType = "SUBJECTIVE"
	QuestionEssay          QuestionType = "ESSAY"

	// presentation only, never answered or scored
	QuestionTextBlock    QuestionType = "TEXT_BLOCK"
	QuestionSectionBreak QuestionType = "SECTION_BREAK"
)

var AllQuestionTypes = []QuestionType{
	QuestionMCQ,
	QuestionTrueFalse,
	QuestionMultipleAnswer,
	QuestionFillBlank,
	QuestionMatch,
	QuestionSubjective,
	QuestionEssay,
	QuestionTextBlock,
	QuestionSectionBreak,
}

func (t QuestionType) IsValid() bool {
	for _, k := range AllQuestionTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Scored reports whether answers of this type contribute to a score.
func (t QuestionType) Scored() bool {
	switch t {
	case QuestionMCQ, QuestionTrueFalse, QuestionMultipleAnswer, QuestionFillBlank, QuestionMatch,
		QuestionSubjective, QuestionEssay:
		return true
	case QuestionTextBlock, QuestionSectionBreak:
		return false
	}
	return false
}

// Subjective reports whether the type needs a human reviewer.
func (t QuestionType) Subjective() bool {
	switch t {
	case QuestionSubjective, QuestionEssay:
		return true
	case QuestionMCQ, QuestionTrueFalse, QuestionMultipleAnswer, QuestionFillBlank, QuestionMatch,
		QuestionTextBlock, QuestionSectionBreak:
		return false
	}
	return false
}

// NeedsCorrectOption reports whether an attempt may only start once the
// question has at least one option flagged correct.
func (t QuestionType) NeedsCorrectOption() bool {
	return t.Scored() && !t.Subjective()
}
