package model

// NotAnswered is reported as the answer of a skipped question.
const NotAnswered = "Not Answered"

// ResultItem is the per-question entry of an answer report.
type ResultItem struct {
	ItemUID        string `json:"itemUID"`
	Question       string `json:"question"`
	CorrectAnswer  string `json:"correctAnswer"`
	Score          int    `json:"score"`
	Comment        string `json:"comment"`
	EndCurrentTest bool   `json:"end_current_test"`
	Answer         string `json:"answer"`
	Possible       int    `json:"possible"`
}

// AnswerReport is the payload handed to the shell on every save.
type AnswerReport struct {
	Directions string       `json:"directions"`
	Results    []ResultItem `json:"results"`
}

// ResultEnvelope wraps a report the way the shell expects it.
type ResultEnvelope struct {
	Response AnswerReport `json:"response"`
}

// WithoutGrading returns a copy of the envelope with correct answers and scores cleared.
func (e ResultEnvelope) WithoutGrading() ResultEnvelope {
	results := make([]ResultItem, len(e.Response.Results))
	for i, res := range e.Response.Results {
		res.CorrectAnswer = ""
		res.Score = 0
		results[i] = res
	}
	e.Response.Results = results
	return e
}

// SavedReport is a learner's last stored report and whether it came from a final submit.
type SavedReport struct {
	Final  bool         `json:"final"`
	Report AnswerReport `json:"report"`
}

// Accepts reports whether a save with the given finality may replace s.
// A partial save never replaces a final one.
func (s *SavedReport) Accepts(final bool) bool {
	return s == nil || final || !s.Final
}
