package dataset

import "github.com/rulebench/rulebench/internal/scrape"

// Distractor set keys in MCQ output documents.
const (
	DistractorFromScratch  = "from_scratch"
	DistractorFromRulebook = "from_rulebook"
	DistractorFromForum    = "from_forum"
)

// QAExample is a cleaned question/answer pair distilled from one forum
// thread, with citations back to the source posts.
type QAExample struct {
	FormattedQuestion       string        `json:"formatted_question"`
	FormattedAnswer         string        `json:"formatted_answer"`
	QuestionCitationIndices []int         `json:"question_citation_indices"`
	AnswerCitationIndices   []int         `json:"answer_citation_indices"`
	ContainsRulesQuestion   bool          `json:"contains_rules_question"`
	IsAnswered              bool          `json:"is_answered"`
	RawQuestion             string        `json:"raw_question"`
	RawAnswer               string        `json:"raw_answer"`
	FullContent             []scrape.Post `json:"full_content"`
	URL                     string        `json:"url"`
	Topic                   string        `json:"topic"`
}

// MCQExample is a multiple-choice question with distractor sets grouped
// by synthesis strategy. The from_forum key is present only when the
// source thread had enough discussion to ground it.
type MCQExample struct {
	MultipleChoiceQuestion string              `json:"multiple_choice_question"`
	CorrectAnswer          string              `json:"correct_answer"`
	Distractors            map[string][]string `json:"distractors"`
	URL                    string              `json:"url"`
}
