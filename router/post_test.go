package router

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/Gravitalia/forum/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type voteResult struct {
	ModifiedCount int64 `json:"modifiedCount"`
	UpVote        int64 `json:"upVote"`
	DownVote      int64 `json:"downVote"`
}

// tags creates tags through the admin route
func (f *fixture) tags(t *testing.T, admin string, names ...string) {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/tags", admin, model.TagsBody{Names: names})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func (f *fixture) post(t *testing.T, token, title, tag string) string {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/posts", token, model.PostBody{Title: title, Description: "About " + title, Tag: tag})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	id := decode[map[string]string](t, rec)["insertedId"]
	require.NotEmpty(t, id)

	return id
}

func TestCreatePost(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t, "Grace", "grace@example.com")
	token := f.user(t, "Ada", "ada@example.com")
	f.tags(t, admin, "golang")

	id := f.post(t, token, "Channels", "GoLang")

	rec := f.do(t, http.MethodGet, "/posts/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	post := decode[model.Post](t, rec)
	assert.Equal(t, "Ada", post.AuthorName)
	assert.Equal(t, "ada@example.com", post.AuthorEmail)
	assert.Equal(t, "Golang", post.Tag)

	rec = f.do(t, http.MethodPost, "/posts", token, model.PostBody{Title: "Lifetimes", Description: "...", Tag: "rust"})
	assertError(t, rec, http.StatusBadRequest, ErrorUnknownTag)

	rec = f.do(t, http.MethodPost, "/posts", token, model.PostBody{Title: "  ", Description: "...", Tag: "golang"})
	assertError(t, rec, http.StatusBadRequest, ErrorInvalidBody)

	rec = f.do(t, http.MethodGet, "/posts/unknown", token, nil)
	assertError(t, rec, http.StatusNotFound, ErrorInvalidPost)
}

func TestPostLimit(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t, "Grace", "grace@example.com")
	token := f.user(t, "Ada", "ada@example.com")
	f.tags(t, admin, "golang")

	for i := range model.BronzePostLimit {
		f.post(t, token, fmt.Sprintf("Post %d", i), "golang")
	}

	rec := f.do(t, http.MethodGet, "/posts/count", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":5}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/posts", token, model.PostBody{Title: "One more", Description: "...", Tag: "golang"})
	assertError(t, rec, http.StatusForbidden, ErrorPostLimit)

	rec = f.do(t, http.MethodPatch, "/users/membership", token, model.MembershipBody{Email: "ada@example.com", TransactionId: "cs_1", Amount: 10, Currency: "usd"})
	require.Equal(t, http.StatusOK, rec.Code)

	f.post(t, token, "One more", "golang")
}

func TestConcurrentPostLimit(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t, "Grace", "grace@example.com")
	token := f.user(t, "Ada", "ada@example.com")
	f.tags(t, admin, "golang")

	const attempts = 20
	codes := make([]int, attempts)

	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := f.do(t, http.MethodPost, "/posts", token, model.PostBody{Title: fmt.Sprintf("Post %d", i), Description: "...", Tag: "golang"})
			codes[i] = rec.Code
		}()
	}
	wg.Wait()

	var created, refused int
	for _, code := range codes {
		switch code {
		case http.StatusOK:
			created++
		case http.StatusForbidden:
			refused++
		}
	}
	assert.Equal(t, model.BronzePostLimit, created)
	assert.Equal(t, attempts-model.BronzePostLimit, refused)

	rec := f.do(t, http.MethodGet, "/posts/count", token, nil)
	assert.JSONEq(t, fmt.Sprintf(`{"count":%d}`, model.BronzePostLimit), rec.Body.String())
}

func TestListPosts(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t, "Grace", "grace@example.com")
	token := f.user(t, "Ada", "ada@example.com")
	f.tags(t, admin, "golang", "web")

	first := f.post(t, admin, "Channels", "golang")
	second := f.post(t, admin, "HTTP servers", "web")
	third := f.post(t, admin, "Generics", "golang")

	rec := f.do(t, http.MethodPatch, "/posts/vote/"+first, token, model.VoteBody{Type: model.UpVote})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/posts?limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[model.PostList](t, rec)
	assert.Equal(t, int64(3), list.TotalCount)
	require.Len(t, list.Posts, 2)
	assert.Equal(t, third, list.Posts[0].Id)
	assert.Equal(t, second, list.Posts[1].Id)

	rec = f.do(t, http.MethodGet, "/posts?limit=2&page=2", "", nil)
	list = decode[model.PostList](t, rec)
	require.Len(t, list.Posts, 1)
	assert.Equal(t, first, list.Posts[0].Id)

	rec = f.do(t, http.MethodGet, "/posts?sort=popularity", "", nil)
	list = decode[model.PostList](t, rec)
	require.Len(t, list.Posts, 3)
	assert.Equal(t, first, list.Posts[0].Id)
	assert.Equal(t, int64(1), list.Posts[0].Popularity)

	rec = f.do(t, http.MethodGet, "/posts?tag=web", "", nil)
	list = decode[model.PostList](t, rec)
	assert.Equal(t, int64(1), list.TotalCount)

	rec = f.do(t, http.MethodGet, "/posts?page=9", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"posts":[],"totalCount":3}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/posts?page=-1", "", nil)
	assertError(t, rec, http.StatusBadRequest, ErrorInvalidQuery)

	rec = f.do(t, http.MethodGet, "/posts?page=4611686018427387904&limit=4", "", nil)
	assertError(t, rec, http.StatusBadRequest, ErrorInvalidQuery)
}

func TestSearchIsRecorded(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t, "Grace", "grace@example.com")
	f.tags(t, admin, "golang")
	f.post(t, admin, "Channels", "golang")

	for _, term := range []string{"Chan", "chan", "go"} {
		rec := f.do(t, http.MethodGet, "/posts?search="+term, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(1), decode[model.PostList](t, rec).TotalCount, term)
	}

	rec := f.do(t, http.MethodGet, "/search/popular", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []model.Search{{Term: "chan", Count: 2}, {Term: "go", Count: 1}}, decode[[]model.Search](t, rec))
}

func TestVote(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t, "Grace", "grace@example.com")
	token := f.user(t, "Ada", "ada@example.com")
	f.tags(t, admin, "golang")
	id := f.post(t, admin, "Channels", "golang")

	vote := func(kind string) *voteResult {
		rec := f.do(t, http.MethodPatch, "/posts/vote/"+id, token, model.VoteBody{Type: kind})
		if rec.Code != http.StatusOK {
			return nil
		}
		v := decode[voteResult](t, rec)
		return &v
	}

	assert.Equal(t, &voteResult{ModifiedCount: 1, UpVote: 1}, vote("upVote"))
	assert.Equal(t, &voteResult{ModifiedCount: 1, DownVote: 1}, vote("downvote"))
	assert.Equal(t, &voteResult{ModifiedCount: 1}, vote("downVote"))
	assert.Nil(t, vote("sideways"))

	rec := f.do(t, http.MethodPatch, "/posts/vote/unknown", token, model.VoteBody{Type: model.UpVote})
	assertError(t, rec, http.StatusNotFound, ErrorInvalidPost)
}

func TestDeletePost(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t, "Grace", "grace@example.com")
	author := f.user(t, "Ada", "ada@example.com")
	other := f.user(t, "Bob", "bob@example.com")
	f.tags(t, admin, "golang")

	mine := f.post(t, author, "Channels", "golang")
	moderated := f.post(t, author, "Spam", "golang")

	rec := f.do(t, http.MethodDelete, "/posts/"+mine, other, nil)
	assertError(t, rec, http.StatusForbidden, ErrorForbidden)

	rec = f.do(t, http.MethodDelete, "/posts/"+mine, author, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deletedCount":1}`, rec.Body.String())

	rec = f.do(t, http.MethodDelete, "/posts/"+moderated, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deletedCount":1}`, rec.Body.String())

	rec = f.do(t, http.MethodDelete, "/posts/"+mine, author, nil)
	assertError(t, rec, http.StatusNotFound, ErrorInvalidPost)
}

func TestMyPosts(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t, "Grace", "grace@example.com")
	ada := f.user(t, "Ada", "ada@example.com")
	bob := f.user(t, "Bob", "bob@example.com")
	f.tags(t, admin, "golang")

	older := f.post(t, ada, "Channels", "golang")
	newer := f.post(t, ada, "Generics", "golang")
	f.post(t, bob, "Interfaces", "golang")

	rec := f.do(t, http.MethodGet, "/my-posts", ada, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	posts := decode[[]model.Post](t, rec)
	require.Len(t, posts, 2)
	assert.Equal(t, newer, posts[0].Id)

	rec = f.do(t, http.MethodGet, "/my-posts?sort=oldest&limit=1", ada, nil)
	posts = decode[[]model.Post](t, rec)
	require.Len(t, posts, 1)
	assert.Equal(t, older, posts[0].Id)

	rec = f.do(t, http.MethodGet, "/my-posts?email=ada@example.com", bob, nil)
	assertError(t, rec, http.StatusForbidden, ErrorForbidden)

	rec = f.do(t, http.MethodGet, "/my-posts?email=ada@example.com", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Post](t, rec), 2)
}
