package quiz

import (
	"context"
	"io/ioutil"
	"log"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/backend"
	"github.com/trezcool/elimu/backend/inmem"
	"github.com/trezcool/elimu/core"
	logsvc "github.com/trezcool/elimu/services/logger"
)

func setup(t *testing.T) (*Service, *inmem.Client) {
	t.Helper()

	conf := &core.Config{SecretKey: "s3cret", TestMode: true}
	conf.Server.TokenExpirationDelta = time.Hour
	logger := logsvc.NewStdLogger(log.New(ioutil.Discard, "", 0))
	client := inmem.Open(conf, logger)

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)

	return NewService(client, validate, logger), client
}

func newTestQuiz() NewQuiz {
	return NewQuiz{
		CourseID: "crs1",
		Title:    "Go basics",
		Questions: []NewQuestion{
			{Text: "Which keyword declares a variable?", Options: []string{"let", "var", "def"}, CorrectIndex: 1},
			{Text: "Which builtin appends to a slice?", Options: []string{"push", "append"}, CorrectIndex: 1},
		},
	}
}

func Test_Service_Create(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	t.Run("ok", func(t *testing.T) {
		qz, err := svc.Create(ctx, newTestQuiz())
		require.NoError(t, err)
		assert.NotEmpty(t, qz.ID)
		assert.Equal(t, "crs1", qz.CourseID)
		require.Len(t, qz.Questions, 2)
		assert.Equal(t, 1, qz.Questions[0].Position)
		assert.Equal(t, []string{"let", "var", "def"}, qz.Questions[0].Options)
		assert.Equal(t, 2, qz.Questions[1].Position)
	})

	t.Run("no questions", func(t *testing.T) {
		nq := newTestQuiz()
		nq.Questions = nil
		_, err := svc.Create(ctx, nq)
		assert.Error(t, err)
	})

	t.Run("too few options", func(t *testing.T) {
		nq := newTestQuiz()
		nq.Questions[0].Options = []string{"var"}
		_, err := svc.Create(ctx, nq)
		assert.Error(t, err)
	})

	t.Run("correct index out of range", func(t *testing.T) {
		nq := newTestQuiz()
		nq.Questions[0].CorrectIndex = 3
		_, err := svc.Create(ctx, nq)
		require.Error(t, err)
		vErrs, ok := err.(validator.ValidationErrors)
		require.True(t, ok)
		assert.Equal(t, "correctindex", vErrs[0].Tag())
	})
}

func Test_Service_GetByCourse(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	created, err := svc.Create(ctx, newTestQuiz())
	require.NoError(t, err)

	qz, err := svc.GetByCourse(ctx, "crs1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, qz.ID)
	require.Len(t, qz.Questions, 2)
	assert.Equal(t, "Which keyword declares a variable?", qz.Questions[0].Text)

	_, err = svc.GetByCourse(ctx, "nope")
	assert.Equal(t, ErrNotFound, err)
}

func Test_Grade(t *testing.T) {
	qz := Quiz{Questions: []Question{
		{ID: "q1", CorrectIndex: 1},
		{ID: "q2", CorrectIndex: 0},
		{ID: "q3", CorrectIndex: 2},
	}}

	tests := []struct {
		name                         string
		answers                      Answers
		wantScore, wantTotal, wantPc int
	}{
		{"all correct", Answers{"q1": 1, "q2": 0, "q3": 2}, 3, 3, 100},
		{"one of three rounds up", Answers{"q1": 1}, 1, 3, 33},
		{"two of three rounds up", Answers{"q1": 1, "q2": 0}, 2, 3, 67},
		{"unanswered counts wrong", Answers{}, 0, 3, 0},
		{"out of range counts wrong", Answers{"q1": 9, "q2": 0, "q3": 2}, 2, 3, 67},
		{"unknown question ignored", Answers{"zz": 1}, 0, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, total, percent := Grade(qz, tt.answers)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantTotal, total)
			assert.Equal(t, tt.wantPc, percent)
		})
	}

	t.Run("empty quiz", func(t *testing.T) {
		score, total, percent := Grade(Quiz{}, Answers{"q1": 0})
		assert.Zero(t, score)
		assert.Zero(t, total)
		assert.Zero(t, percent)
	})
}

func Test_Service_Submit(t *testing.T) {
	ctx := context.Background()
	svc, client := setup(t)

	qz, err := svc.Create(ctx, newTestQuiz())
	require.NoError(t, err)
	qz, err = svc.GetByCourse(ctx, qz.CourseID)
	require.NoError(t, err)

	sub, err := svc.Submit(ctx, "user1", qz, Answers{qz.Questions[0].ID: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, sub.Score)
	assert.Equal(t, 2, sub.Total)
	assert.Equal(t, 50, sub.Percent)

	row, err := client.SelectOne(ctx, backend.NewQuery(SubmissionTable).Eq("id", sub.ID))
	require.NoError(t, err)
	assert.Equal(t, "user1", row.String("user_id"))
}

func Test_Service_Progress(t *testing.T) {
	ctx := context.Background()
	svc, client := setup(t)

	scores := []int{40, 80, 100}
	for i, pc := range scores {
		_, err := client.Insert(ctx, SubmissionTable, backend.Row{
			"user_id":       "user1",
			"score_percent": pc,
			"created_at":    time.Date(2021, 2, i+1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}
	_, err := client.Insert(ctx, SubmissionTable, backend.Row{"user_id": "other", "score_percent": 10})
	require.NoError(t, err)

	points, err := svc.Progress(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, ProgressPoint{Label: "Quiz 1", Percent: 40}, points[0])
	assert.Equal(t, ProgressPoint{Label: "Quiz 3", Percent: 100}, points[2])
}
