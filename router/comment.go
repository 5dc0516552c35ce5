package router

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/Gravitalia/forum/database"
	"github.com/Gravitalia/forum/model"
)

// ListComments returns the comments of a post, oldest first
func (r *Router) ListComments(w http.ResponseWriter, req *http.Request, _ model.User) {
	comments, err := r.DB.ListComments(req.Context(), req.PathValue("postId"))
	if err != nil {
		r.storeError(w, err, ErrorInvalidPost)
		return
	}

	writeJSON(w, http.StatusOK, comments)
}

// CreateComment comments a post and notifies its author
func (r *Router) CreateComment(w http.ResponseWriter, req *http.Request, user model.User) {
	var body model.CommentBody
	if !decodeBody(w, req, &body) {
		return
	}

	text := strings.TrimSpace(body.CommentText)
	if body.PostId == "" || text == "" || utf8.RuneCountInString(text) > maxCommentLength {
		writeError(w, http.StatusBadRequest, ErrorInvalidBody)
		return
	}

	post, err := r.DB.GetPost(req.Context(), body.PostId)
	if err != nil {
		r.storeError(w, err, ErrorInvalidPost)
		return
	}

	id, err := r.DB.CreateComment(req.Context(), user, post.Id, text)
	if err != nil {
		r.storeError(w, err, ErrorInvalidPost)
		return
	}

	r.invalidate(database.KeyPublicStats)

	if post.AuthorEmail != user.Email {
		r.Events.Publish(post.AuthorEmail, model.Message{
			Type: "post_comment",
			From: user.Email,
			To:   post.AuthorEmail,
		})
	}

	writeJSON(w, http.StatusOK, map[string]string{"insertedId": id})
}
