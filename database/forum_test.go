package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Gravitalia/forum/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testForum runs the rules every Forum must follow against
// the stores open returns, each subtest gets an empty one
func testForum(t *testing.T, open func(t *testing.T) Forum) {
	for name, test := range map[string]func(t *testing.T, f Forum){
		"CreateUser":             testCreateUser,
		"VoteToggle":             testVoteToggle,
		"UnknownTag":             testUnknownTag,
		"DeletePostCascades":     testDeletePostCascades,
		"Reports":                testReports,
		"PruneReports":           testPruneReports,
		"ListPosts":              testListPosts,
		"Membership":             testMembership,
		"TagsAreCaseInsensitive": testTagsAreCaseInsensitive,
		"Searches":               testSearches,
		"PostLimit":              testPostLimit,
		"ConcurrentPostLimit":    testConcurrentPostLimit,
	} {
		t.Run(name, func(t *testing.T) {
			test(t, open(t))
		})
	}
}

func seed(t *testing.T, f Forum) (model.User, string) {
	t.Helper()
	ctx := context.Background()

	_, err := f.CreateUser(ctx, model.User{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	user, err := f.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)

	_, err = f.CreateTag(ctx, "golang")
	require.NoError(t, err)

	id, err := f.CreatePost(ctx, user, model.PostBody{Title: "Channels", Description: "...", Tag: "GoLang"})
	require.NoError(t, err)

	return user, id
}

func testCreateUser(t *testing.T, f Forum) {
	user, _ := seed(t, f)

	assert.Equal(t, model.RoleUser, user.Role)
	assert.Equal(t, model.BadgeBronze, user.Badge)

	_, err := f.CreateUser(context.Background(), model.User{Email: "ada@example.com"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func testVoteToggle(t *testing.T, f Forum) {
	user, id := seed(t, f)
	ctx := context.Background()

	post, err := f.Vote(ctx, user.Email, id, model.UpVote)
	require.NoError(t, err)
	assert.Equal(t, int64(1), post.UpVote)
	assert.Equal(t, int64(1), post.Popularity)

	post, err = f.Vote(ctx, user.Email, id, model.DownVote)
	require.NoError(t, err)
	assert.Equal(t, int64(0), post.UpVote)
	assert.Equal(t, int64(1), post.DownVote)
	assert.Equal(t, int64(-1), post.Popularity)

	post, err = f.Vote(ctx, user.Email, id, model.DownVote)
	require.NoError(t, err)
	assert.Equal(t, int64(0), post.DownVote)
	assert.Equal(t, int64(0), post.Popularity)

	_, err = f.Vote(ctx, user.Email, "missing", model.UpVote)
	assert.ErrorIs(t, err, ErrNotFound)
}

func testUnknownTag(t *testing.T, f Forum) {
	user, _ := seed(t, f)

	_, err := f.CreatePost(context.Background(), user, model.PostBody{Title: "x", Tag: "rust"})
	assert.ErrorIs(t, err, ErrUnknownTag)
}

func testDeletePostCascades(t *testing.T, f Forum) {
	user, id := seed(t, f)
	ctx := context.Background()

	commentID, err := f.CreateComment(ctx, user, id, "first")
	require.NoError(t, err)
	_, err = f.CreateReport(ctx, "bob@example.com", commentID, "spam")
	require.NoError(t, err)

	post, err := f.GetPost(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), post.CommentCount)

	require.NoError(t, f.DeletePost(ctx, id))

	_, err = f.GetComment(ctx, commentID)
	assert.ErrorIs(t, err, ErrNotFound)

	reports, err := f.ListReports(ctx)
	require.NoError(t, err)
	assert.Empty(t, reports)

	assert.ErrorIs(t, f.DeletePost(ctx, id), ErrNotFound)
}

func testReports(t *testing.T, f Forum) {
	user, id := seed(t, f)
	ctx := context.Background()

	commentID, err := f.CreateComment(ctx, user, id, "rude")
	require.NoError(t, err)
	first, err := f.CreateReport(ctx, "bob@example.com", commentID, "spam")
	require.NoError(t, err)
	second, err := f.CreateReport(ctx, "eve@example.com", commentID, "hate_speech")
	require.NoError(t, err)

	reports, err := f.ListReports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, second, reports[0].Id, "newest first")
	assert.Equal(t, "rude", reports[0].CommentText)
	assert.Equal(t, user.Email, reports[0].CommenterEmail)

	require.NoError(t, f.DeleteReportedComment(ctx, first))

	reports, err = f.ListReports(ctx)
	require.NoError(t, err)
	assert.Empty(t, reports, "every report about the comment goes with it")

	post, err := f.GetPost(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), post.CommentCount)
}

func testPruneReports(t *testing.T, f Forum) {
	user, id := seed(t, f)
	ctx := context.Background()

	commentID, err := f.CreateComment(ctx, user, id, "meh")
	require.NoError(t, err)
	dismissed, err := f.CreateReport(ctx, "bob@example.com", commentID, "spam")
	require.NoError(t, err)
	_, err = f.CreateReport(ctx, "eve@example.com", commentID, "spam")
	require.NoError(t, err)

	require.NoError(t, f.DismissReport(ctx, dismissed))
	assert.ErrorIs(t, f.DismissReport(ctx, "missing"), ErrNotFound)

	pruned, err := f.PruneReports(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	reports, err := f.ListReports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, model.ReportPending, reports[0].Status)
}

func testListPosts(t *testing.T, f Forum) {
	user, first := seed(t, f)
	ctx := context.Background()

	_, err := f.CreateTag(ctx, "web")
	require.NoError(t, err)
	second, err := f.CreatePost(ctx, user, model.PostBody{Title: "HTTP servers", Tag: "web"})
	require.NoError(t, err)
	third, err := f.CreatePost(ctx, user, model.PostBody{Title: "Generics", Tag: "golang"})
	require.NoError(t, err)

	_, err = f.Vote(ctx, user.Email, first, model.UpVote)
	require.NoError(t, err)

	posts, total, err := f.ListPosts(ctx, model.PostQuery{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, posts, 2)
	assert.Equal(t, third, posts[0].Id)
	assert.Equal(t, second, posts[1].Id)

	posts, _, err = f.ListPosts(ctx, model.PostQuery{Sort: model.SortPopularity, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, first, posts[0].Id)

	_, total, err = f.ListPosts(ctx, model.PostQuery{Tag: "Golang", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	posts, total, err = f.ListPosts(ctx, model.PostQuery{Search: "http", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, second, posts[0].Id)

	posts, _, err = f.ListPosts(ctx, model.PostQuery{Skip: 10, Limit: 5})
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)

	posts, _, err = f.ListPosts(ctx, model.PostQuery{Author: user.Email})
	require.NoError(t, err)
	assert.Len(t, posts, 3, "no limit returns every post")
}

func testMembership(t *testing.T, f Forum) {
	user, _ := seed(t, f)
	ctx := context.Background()

	payment := model.Payment{TransactionId: "cs_1", Email: user.Email, Amount: 10, Currency: "usd"}
	require.NoError(t, f.ApplyMembership(ctx, payment))

	user, err := f.GetUserByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, model.BadgeGold, user.Badge)

	assert.ErrorIs(t, f.ApplyMembership(ctx, payment), ErrAlreadyExists)

	payment.TransactionId = "cs_2"
	payment.Email = "ghost@example.com"
	assert.ErrorIs(t, f.ApplyMembership(ctx, payment), ErrNotFound)
}

func testTagsAreCaseInsensitive(t *testing.T, f Forum) {
	seed(t, f)
	ctx := context.Background()

	_, err := f.CreateTag(ctx, "  GOLANG ")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	tags, err := f.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "Golang", tags[0].Name)
}

func testSearches(t *testing.T, f Forum) {
	ctx := context.Background()

	for _, term := range []string{"go", "rust", "go"} {
		require.NoError(t, f.RecordSearch(ctx, term))
	}

	searches, err := f.PopularSearches(ctx, 1)
	require.NoError(t, err)
	require.Len(t, searches, 1)
	assert.Equal(t, model.Search{Term: "go", Count: 2}, searches[0])
}

func testPostLimit(t *testing.T, f Forum) {
	user, _ := seed(t, f)
	ctx := context.Background()

	for i := 1; i < model.BronzePostLimit; i++ {
		_, err := f.CreatePost(ctx, user, model.PostBody{Title: fmt.Sprintf("Post %d", i), Tag: "golang"})
		require.NoError(t, err)
	}

	_, err := f.CreatePost(ctx, user, model.PostBody{Title: "One more", Tag: "golang"})
	assert.ErrorIs(t, err, ErrPostLimit)

	// the stored badge counts, not the one of the caller's copy
	user.Badge = model.BadgeGold
	_, err = f.CreatePost(ctx, user, model.PostBody{Title: "One more", Tag: "golang"})
	assert.ErrorIs(t, err, ErrPostLimit)

	require.NoError(t, f.ApplyMembership(ctx, model.Payment{TransactionId: "cs_1", Email: user.Email, Amount: 10, Currency: "usd"}))
	_, err = f.CreatePost(ctx, user, model.PostBody{Title: "One more", Tag: "golang"})
	assert.NoError(t, err)
}

func testConcurrentPostLimit(t *testing.T, f Forum) {
	ctx := context.Background()

	_, err := f.CreateUser(ctx, model.User{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	user, err := f.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	_, err = f.CreateTag(ctx, "golang")
	require.NoError(t, err)

	const attempts = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		refused int
	)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := f.CreatePost(ctx, user, model.PostBody{Title: fmt.Sprintf("Post %d", i), Tag: "golang"})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, ErrPostLimit):
				refused++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, model.BronzePostLimit, created)
	assert.Equal(t, attempts-model.BronzePostLimit, refused)

	n, err := f.CountUserPosts(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, int64(model.BronzePostLimit), n)
}
