package router

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/Gravitalia/forum/database"
	"github.com/Gravitalia/forum/helpers"
	"github.com/Gravitalia/forum/model"
	"go.uber.org/zap"
)

// sortOrder maps the sort query parameter onto a store order,
// anything unknown gives the newest posts first
func sortOrder(raw string) string {
	switch helpers.Normalize(raw) {
	case "popularity", "popular":
		return model.SortPopularity
	case "oldest":
		return model.SortOldest
	}

	return model.SortLatest
}

// ListPosts is the home page feed
func (r *Router) ListPosts(w http.ResponseWriter, req *http.Request) {
	skip, limit, ok := pagination(req, 5, 50)
	if !ok {
		writeError(w, http.StatusBadRequest, ErrorInvalidQuery)
		return
	}

	query := req.URL.Query()
	search := helpers.Normalize(query.Get("search"))

	posts, total, err := r.DB.ListPosts(req.Context(), model.PostQuery{
		Tag:    query.Get("tag"),
		Search: search,
		Sort:   sortOrder(query.Get("sort")),
		Skip:   skip,
		Limit:  limit,
	})
	if err != nil {
		r.storeError(w, err, ErrorInvalidPost)
		return
	}

	if search != "" {
		if err := r.DB.RecordSearch(req.Context(), search); err != nil {
			r.Logger.Warn("cannot record search", zap.String("term", search), zap.Error(err))
		}
	}

	if posts == nil {
		posts = []model.Post{}
	}

	writeJSON(w, http.StatusOK, model.PostList{Posts: posts, TotalCount: total})
}

// GetPost returns a single post
func (r *Router) GetPost(w http.ResponseWriter, req *http.Request, _ model.User) {
	post, err := r.DB.GetPost(req.Context(), req.PathValue("id"))
	if err != nil {
		r.storeError(w, err, ErrorInvalidPost)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// CountPosts counts the posts of a user, the caller by default
func (r *Router) CountPosts(w http.ResponseWriter, req *http.Request, user model.User) {
	email := user.Email
	if raw := req.URL.Query().Get("email"); raw != "" {
		normalized, ok := helpers.NormalizeEmail(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, ErrorInvalidEmail)
			return
		}
		email = normalized
	}

	count, err := r.DB.CountUserPosts(req.Context(), email)
	if err != nil {
		r.storeError(w, err, ErrorInvalidUser)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

// MyPosts lists the posts written by the caller
func (r *Router) MyPosts(w http.ResponseWriter, req *http.Request, user model.User) {
	email, status := userEmail(req, user)
	switch status {
	case http.StatusBadRequest:
		writeError(w, status, ErrorInvalidEmail)
		return
	case http.StatusForbidden:
		writeError(w, status, ErrorForbidden)
		return
	}

	// no limit means every post
	skip, limit, ok := pagination(req, 0, 0)
	if !ok {
		writeError(w, http.StatusBadRequest, ErrorInvalidQuery)
		return
	}

	posts, _, err := r.DB.ListPosts(req.Context(), model.PostQuery{
		Author: email,
		Sort:   sortOrder(req.URL.Query().Get("sort")),
		Skip:   skip,
		Limit:  limit,
	})
	if err != nil {
		r.storeError(w, err, ErrorInvalidPost)
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}

	writeJSON(w, http.StatusOK, posts)
}

// CreatePost publishes a post, bronze users are limited
func (r *Router) CreatePost(w http.ResponseWriter, req *http.Request, user model.User) {
	var body model.PostBody
	if !decodeBody(w, req, &body) {
		return
	}

	body.Title = strings.TrimSpace(body.Title)
	body.Description = strings.TrimSpace(body.Description)
	if body.Title == "" || body.Description == "" || strings.TrimSpace(body.Tag) == "" ||
		utf8.RuneCountInString(body.Title) > maxTitleLength ||
		utf8.RuneCountInString(body.Description) > maxDescriptionLength {
		writeError(w, http.StatusBadRequest, ErrorInvalidBody)
		return
	}

	id, err := r.DB.CreatePost(req.Context(), user, body)
	if err != nil {
		r.storeError(w, err, ErrorInvalidUser)
		return
	}

	helpers.IncrementPosts()
	r.invalidate(database.KeyPublicStats, database.KeyTopContributors)

	writeJSON(w, http.StatusOK, map[string]string{"insertedId": id})
}

// DeletePost removes a post with its comments and votes, only
// its author or an admin can do so
func (r *Router) DeletePost(w http.ResponseWriter, req *http.Request, user model.User) {
	post, err := r.DB.GetPost(req.Context(), req.PathValue("id"))
	if err != nil {
		r.storeError(w, err, ErrorInvalidPost)
		return
	}

	if post.AuthorEmail != user.Email && !user.IsAdmin() {
		writeError(w, http.StatusForbidden, ErrorForbidden)
		return
	}

	if err := r.DB.DeletePost(req.Context(), post.Id); errors.Is(err, database.ErrNotFound) {
		writeJSON(w, http.StatusOK, map[string]int{"deletedCount": 0})
		return
	} else if err != nil {
		r.storeError(w, err, ErrorInvalidPost)
		return
	}

	r.invalidate(database.KeyPublicStats, database.KeyTopContributors)

	writeJSON(w, http.StatusOK, map[string]int{"deletedCount": 1})
}

// Vote toggles the caller's vote on a post
func (r *Router) Vote(w http.ResponseWriter, req *http.Request, user model.User) {
	var body model.VoteBody
	if !decodeBody(w, req, &body) {
		return
	}

	kind := helpers.VoteType(body.Type)
	if kind == "" {
		writeError(w, http.StatusBadRequest, ErrorInvalidVote)
		return
	}

	post, err := r.DB.Vote(req.Context(), user.Email, req.PathValue("id"), kind)
	if err != nil {
		r.storeError(w, err, ErrorInvalidPost)
		return
	}

	helpers.IncrementVotes(kind)

	writeJSON(w, http.StatusOK, map[string]int64{
		"modifiedCount": 1,
		"upVote":        post.UpVote,
		"downVote":      post.DownVote,
	})
}
