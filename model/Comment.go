package model

import "time"

// Comment defines how a comment on a post is stored
type Comment struct {
	Id          string    `json:"_id"`
	PostId      string    `json:"postId"`
	PostTitle   string    `json:"postTitle"`
	AuthorEmail string    `json:"authorEmail"`
	AuthorName  string    `json:"authorName"`
	AuthorPhoto string    `json:"authorPhoto"`
	CommentText string    `json:"commentText"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CommentBody is the body used to comment a post
type CommentBody struct {
	PostId      string `json:"postId"`
	CommentText string `json:"commentText"`
}
