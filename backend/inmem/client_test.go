package inmem

import (
	"context"
	"io/ioutil"
	"log"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/backend"
	"github.com/trezcool/elimu/core"
	logsvc "github.com/trezcool/elimu/services/logger"
)

func newTestClient() *Client {
	conf := &core.Config{SecretKey: "s3cret", TestMode: true}
	conf.Server.TokenExpirationDelta = time.Hour
	return Open(conf, logsvc.NewStdLogger(log.New(ioutil.Discard, "", 0)))
}

func Test_Client_tabularStore(t *testing.T) {
	ctx := context.Background()
	c := newTestClient()

	for i, title := range []string{"Go", "Rust", "Zig"} {
		_, err := c.Insert(ctx, "courses", backend.Row{"title": title, "position": i + 1})
		require.NoError(t, err)
	}

	t.Run("select keeps insertion order", func(t *testing.T) {
		rows, err := c.Select(ctx, backend.NewQuery("courses"))
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "Go", rows[0].String("title"))
		assert.Equal(t, "Zig", rows[2].String("title"))
	})

	t.Run("ordering", func(t *testing.T) {
		rows, err := c.Select(ctx, backend.NewQuery("courses").OrderBy("position", false))
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "Zig", rows[0].String("title"))
	})

	t.Run("column projection", func(t *testing.T) {
		rows, err := c.Select(ctx, backend.NewQuery("courses", "title").Eq("title", "Go"))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, backend.Row{"title": "Go"}, rows[0])
	})

	t.Run("ordering by an unprojected column", func(t *testing.T) {
		for i, pc := range []int{30, 10, 20} {
			_, err := c.Insert(ctx, "submissions", backend.Row{
				"score_percent": pc,
				"created_at":    time.Date(2021, 4, 30-i, 0, 0, 0, 0, time.UTC),
			})
			require.NoError(t, err)
		}

		rows, err := c.Select(ctx, backend.NewQuery("submissions", "score_percent").OrderBy("created_at", true))
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, 20, rows[0].Int("score_percent"))
		assert.Equal(t, 10, rows[1].Int("score_percent"))
		assert.Equal(t, 30, rows[2].Int("score_percent"))
		assert.Equal(t, backend.Row{"score_percent": 20}, rows[0], "projection still applies")
	})

	t.Run("select one", func(t *testing.T) {
		row, err := c.SelectOne(ctx, backend.NewQuery("courses").Eq("title", "Rust"))
		require.NoError(t, err)
		assert.Equal(t, 2, row.Int("position"))

		_, err = c.SelectOne(ctx, backend.NewQuery("courses").Eq("title", "nope"))
		assert.Equal(t, backend.ErrNotFound, errors.Cause(err))

		_, err = c.SelectOne(ctx, backend.NewQuery("courses"))
		assert.Equal(t, backend.ErrMultipleRows, errors.Cause(err))
	})

	t.Run("update", func(t *testing.T) {
		err := c.Update(ctx, "courses", backend.Row{"position": 9}, backend.Filter{Column: "title", Value: "Go"})
		require.NoError(t, err)
		row, err := c.SelectOne(ctx, backend.NewQuery("courses").Eq("title", "Go"))
		require.NoError(t, err)
		assert.Equal(t, 9, row.Int("position"))
	})

	t.Run("returned rows are copies", func(t *testing.T) {
		row, err := c.SelectOne(ctx, backend.NewQuery("courses").Eq("title", "Zig"))
		require.NoError(t, err)
		row["title"] = "mutated"

		again, err := c.SelectOne(ctx, backend.NewQuery("courses").Eq("title", "Zig"))
		require.NoError(t, err)
		assert.Equal(t, "Zig", again.String("title"))
	})
}

func Test_Client_auth(t *testing.T) {
	ctx := context.Background()
	c := newTestClient()

	sess, err := c.SignUp(ctx, "Awe@Test.CD", "passwd", "Awe Mw")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "awe@test.cd", sess.Email)
	assert.NotEmpty(t, sess.AccessToken)

	t.Run("profile row is created with the default role", func(t *testing.T) {
		row, err := c.SelectOne(ctx, backend.NewQuery(backend.ProfileTable).Eq("id", sess.UserID))
		require.NoError(t, err)
		assert.Equal(t, "awe@test.cd", row.String("email"))
		assert.Equal(t, "Awe Mw", row.String("full_name"))
		assert.Equal(t, backend.DefaultRole, row.String("role"))
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := c.SignUp(ctx, "awe@test.cd", "other", "Other")
		var authErr *backend.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, backend.ReasonEmailExists, authErr.Reason)
	})

	t.Run("sign in", func(t *testing.T) {
		got, err := c.SignIn(ctx, "awe@test.cd", "passwd")
		require.NoError(t, err)
		assert.Equal(t, sess.UserID, got.UserID)

		_, err = c.SignIn(ctx, "awe@test.cd", "wrong")
		var authErr *backend.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, backend.ReasonInvalidCredentials, authErr.Reason)

		_, err = c.SignIn(ctx, "nobody@test.cd", "passwd")
		assert.True(t, backend.IsAuthError(err))
	})

	t.Run("session round trip", func(t *testing.T) {
		got, err := c.SignIn(ctx, "awe@test.cd", "passwd")
		require.NoError(t, err)
		assert.NotNil(t, c.GetSession(ctx))

		parsed, err := c.SessionFromToken(ctx, got.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, got.UserID, parsed.UserID)

		c.SignOut(ctx)
		assert.Nil(t, c.GetSession(ctx))
	})

	t.Run("session changes are broadcast", func(t *testing.T) {
		var got []*backend.Session
		unsub := c.OnSessionChange(func(sess *backend.Session) { got = append(got, sess) })
		defer unsub()

		_, err := c.SignIn(ctx, "awe@test.cd", "passwd")
		require.NoError(t, err)
		c.SignOut(ctx)

		require.Len(t, got, 2)
		assert.NotNil(t, got[0])
		assert.Nil(t, got[1])
	})
}

func Test_Client_confirmationFlow(t *testing.T) {
	ctx := context.Background()
	c := newTestClient()
	c.RequireConfirmation()

	sess, err := c.SignUp(ctx, "pending@test.cd", "passwd", "Pending")
	require.NoError(t, err)
	assert.Nil(t, sess) // confirmation pending

	_, err = c.SignIn(ctx, "pending@test.cd", "passwd")
	var authErr *backend.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, backend.ReasonEmailNotConfirmed, authErr.Reason)

	c.ConfirmAccount("pending@test.cd")
	got, err := c.SignIn(ctx, "pending@test.cd", "passwd")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func Test_Client_signUpSurvivesProfileFailure(t *testing.T) {
	ctx := context.Background()
	c := newTestClient()
	c.InsertHook = func(table string, row backend.Row) error {
		if table == backend.ProfileTable {
			return errors.New("row-level policy rejection")
		}
		return nil
	}

	sess, err := c.SignUp(ctx, "awe@test.cd", "passwd", "Awe")
	require.NoError(t, err)
	require.NotNil(t, sess)

	_, err = c.SelectOne(ctx, backend.NewQuery(backend.ProfileTable).Eq("id", sess.UserID))
	assert.Equal(t, backend.ErrNotFound, errors.Cause(err))

	// the account itself works
	_, err = c.SignIn(ctx, "awe@test.cd", "passwd")
	assert.NoError(t, err)
}

func Test_Client_blobs(t *testing.T) {
	ctx := context.Background()
	c := newTestClient()

	require.NoError(t, c.Upload(ctx, "course-media", "c1/notes.txt", []byte("hello"), "text/plain"))

	t.Run("signed url", func(t *testing.T) {
		url, err := c.SignedURL(ctx, "course-media", "c1/notes.txt", 5*time.Minute)
		require.NoError(t, err)
		assert.Contains(t, url, "/media/course-media/c1/notes.txt?")
		assert.Contains(t, url, "sig=")

		_, err = c.SignedURL(ctx, "course-media", "missing.txt", 5*time.Minute)
		assert.Equal(t, backend.ErrNotFound, errors.Cause(err))
	})

	t.Run("object accessor", func(t *testing.T) {
		data, contentType, err := c.Object("course-media", "c1/notes.txt")
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), data)
		assert.Equal(t, "text/plain", contentType)

		_, _, err = c.Object("course-media", "missing.txt")
		assert.Equal(t, backend.ErrNotFound, errors.Cause(err))
	})
}
