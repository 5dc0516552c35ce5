package model

import "time"

// Sort orders accepted when listing posts
const (
	SortLatest     = "latest"
	SortOldest     = "oldest"
	SortPopularity = "popularity"
)

// Vote kinds
const (
	UpVote   = "upVote"
	DownVote = "downVote"
)

// Post struct defines how post must be
type Post struct {
	Id           string    `json:"_id"`
	AuthorName   string    `json:"authorName"`
	AuthorEmail  string    `json:"authorEmail"`
	AuthorPhoto  string    `json:"authorPhoto"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Tag          string    `json:"tag"`
	UpVote       int64     `json:"upVote"`
	DownVote     int64     `json:"downVote"`
	Popularity   int64     `json:"popularity"`
	CommentCount int64     `json:"commentCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PostBody defines the body when creating a post
type PostBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Tag         string `json:"tag"`
}

// PostQuery filters and orders a post listing
type PostQuery struct {
	Author string
	Tag    string
	Search string
	Sort   string
	Skip   int
	Limit  int
}

// PostList is the paginated response of the post listing
type PostList struct {
	Posts      []Post `json:"posts"`
	TotalCount int64  `json:"totalCount"`
}

// VoteBody is the body of the vote route
type VoteBody struct {
	Type string `json:"type"`
}
