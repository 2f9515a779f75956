package quiz

import (
	"github.com/trezcool/elimu/backend"
	"github.com/trezcool/elimu/core"
)

const (
	Table           = "quizzes"
	QuestionTable   = "quiz_questions"
	SubmissionTable = "quiz_submissions"
)

type Quiz struct {
	ID        string     `json:"id"`
	CourseID  string     `json:"course_id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions,omitempty"`
}

func quizFromRow(row backend.Row) Quiz {
	return Quiz{
		ID:       row.String("id"),
		CourseID: row.String("course_id"),
		Title:    row.String("title"),
	}
}

// Question holds one multiple-choice item. CorrectIndex never leaves the
// server; grading happens here, not in the client.
type Question struct {
	ID           string   `json:"id"`
	QuizID       string   `json:"quiz_id"`
	Position     int      `json:"position"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"-"`
}

func questionFromRow(row backend.Row) Question {
	return Question{
		ID:           row.String("id"),
		QuizID:       row.String("quiz_id"),
		Position:     row.Int("position"),
		Text:         row.String("text"),
		Options:      row.StringSlice("options"),
		CorrectIndex: row.Int("correct_index"),
	}
}

// Answers maps a question ID to the chosen option index.
type Answers map[string]int

type Submission struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	QuizID  string `json:"quiz_id"`
	Score   int    `json:"score"`
	Total   int    `json:"total"`
	Percent int    `json:"score_percent"`
}

func submissionFromRow(row backend.Row) Submission {
	return Submission{
		ID:      row.String("id"),
		UserID:  row.String("user_id"),
		QuizID:  row.String("quiz_id"),
		Score:   row.Int("score"),
		Total:   row.Int("total"),
		Percent: row.Int("score_percent"),
	}
}

// ProgressPoint is one submission result in chronological order, labelled
// for charting.
type ProgressPoint struct {
	Label   string `json:"label"`
	Percent int    `json:"score_percent"`
}

// NewQuiz contains information needed to create a Quiz with its questions.
type NewQuiz struct {
	CourseID  string        `json:"course_id" validate:"required"`
	Title     string        `json:"title" validate:"required"`
	Questions []NewQuestion `json:"questions" validate:"required,min=1,dive"`
}

func (nq *NewQuiz) Validate(svc *Service) error {
	nq.CourseID = core.CleanString(nq.CourseID)
	nq.Title = core.CleanString(nq.Title)
	for i := range nq.Questions {
		nq.Questions[i].clean()
	}
	return svc.validate.Struct(nq)
}

type NewQuestion struct {
	Text         string   `json:"text" validate:"required"`
	Options      []string `json:"options" validate:"required,min=2,dive,required"`
	CorrectIndex int      `json:"correct_index" validate:"gte=0"`
}

func (nq *NewQuestion) clean() {
	nq.Text = core.CleanString(nq.Text)
	for i, opt := range nq.Options {
		nq.Options[i] = core.CleanString(opt)
	}
}
