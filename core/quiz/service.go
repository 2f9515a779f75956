package quiz

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/elimu/backend"
	"github.com/trezcool/elimu/core"
)

var (
	// errors
	ErrNotFound = errors.New("quiz not found")
)

type Service struct {
	client   backend.Client
	validate *validator.Validate
	logger   core.Logger
}

func NewService(client backend.Client, validate *validator.Validate, logger core.Logger) *Service {
	return &Service{client: client, validate: validate, logger: logger}
}

// Create stores the quiz and its questions in the order given.
func (svc *Service) Create(ctx context.Context, nq NewQuiz) (Quiz, error) {
	if err := nq.Validate(svc); err != nil {
		return Quiz{}, err
	}

	row, err := svc.client.Insert(ctx, Table, backend.Row{
		"course_id": nq.CourseID,
		"title":     nq.Title,
	})
	if err != nil {
		return Quiz{}, pkgerrors.Wrap(err, "creating quiz")
	}
	qz := quizFromRow(row)

	qz.Questions = make([]Question, 0, len(nq.Questions))
	for i, q := range nq.Questions {
		qrow, err := svc.client.Insert(ctx, QuestionTable, backend.Row{
			"quiz_id":       qz.ID,
			"position":      i + 1,
			"text":          q.Text,
			"options":       q.Options,
			"correct_index": q.CorrectIndex,
		})
		if err != nil {
			return Quiz{}, pkgerrors.Wrapf(err, "saving question %d", i+1)
		}
		qz.Questions = append(qz.Questions, questionFromRow(qrow))
	}
	return qz, nil
}

// GetByCourse returns the course's quiz with its questions in display order.
// A course holds at most one quiz.
func (svc *Service) GetByCourse(ctx context.Context, courseID string) (Quiz, error) {
	row, err := svc.client.SelectOne(ctx, backend.NewQuery(Table).Eq("course_id", courseID))
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return Quiz{}, ErrNotFound
		}
		return Quiz{}, pkgerrors.Wrap(err, "getting quiz")
	}
	qz := quizFromRow(row)

	qrows, err := svc.client.Select(ctx,
		backend.NewQuery(QuestionTable).Eq("quiz_id", qz.ID).OrderBy("position", true))
	if err != nil {
		return Quiz{}, pkgerrors.Wrap(err, "querying questions")
	}
	qz.Questions = make([]Question, 0, len(qrows))
	for _, qrow := range qrows {
		qz.Questions = append(qz.Questions, questionFromRow(qrow))
	}
	return qz, nil
}

// Grade scores the answers against the quiz. Unanswered or out-of-range
// answers count as wrong; the percentage is rounded to the nearest integer.
func Grade(qz Quiz, answers Answers) (score, total, percent int) {
	total = len(qz.Questions)
	for _, q := range qz.Questions {
		if idx, ok := answers[q.ID]; ok && idx == q.CorrectIndex {
			score++
		}
	}
	if total > 0 {
		percent = int(math.Round(float64(score) / float64(total) * 100))
	}
	return score, total, percent
}

// Submit grades the answers and records the attempt.
func (svc *Service) Submit(ctx context.Context, userID string, qz Quiz, answers Answers) (Submission, error) {
	score, total, percent := Grade(qz, answers)
	row, err := svc.client.Insert(ctx, SubmissionTable, backend.Row{
		"user_id":       userID,
		"quiz_id":       qz.ID,
		"score":         score,
		"total":         total,
		"score_percent": percent,
		"answers_json":  answersValue(answers),
	})
	if err != nil {
		return Submission{}, pkgerrors.Wrap(err, "saving submission")
	}
	return submissionFromRow(row), nil
}

func answersValue(answers Answers) map[string]interface{} {
	val := make(map[string]interface{}, len(answers))
	for id, idx := range answers {
		val[id] = idx
	}
	return val
}

// Progress returns the user's submission scores in chronological order.
func (svc *Service) Progress(ctx context.Context, userID string) ([]ProgressPoint, error) {
	rows, err := svc.client.Select(ctx,
		backend.NewQuery(SubmissionTable, "score_percent").Eq("user_id", userID).OrderBy("created_at", true))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "querying submissions")
	}
	points := make([]ProgressPoint, 0, len(rows))
	for i, row := range rows {
		points = append(points, ProgressPoint{
			Label:   fmt.Sprintf("Quiz %d", i+1),
			Percent: row.Int("score_percent"),
		})
	}
	return points, nil
}
