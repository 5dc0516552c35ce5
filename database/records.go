package database

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Gravitalia/forum/model"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// collect runs a query inside a transaction and returns every record
func collect(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any) ([]*neo4j.Record, error) {
	result, err := tx.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}

	return result.Collect(ctx)
}

// props returns the properties of the node stored under key
func props(record *neo4j.Record, key string) map[string]any {
	value, ok := record.Get(key)
	if !ok {
		return nil
	}

	switch v := value.(type) {
	case neo4j.Node:
		return v.Props
	case map[string]any:
		return v
	}

	return nil
}

func str(p map[string]any, key string) string {
	s, _ := p[key].(string)
	return s
}

func integer(p map[string]any, key string) int64 {
	switch v := p[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}

	return 0
}

// stamp converts the unix milliseconds stored on nodes
func stamp(p map[string]any, key string) time.Time {
	ms := integer(p, key)
	if ms == 0 {
		return time.Time{}
	}

	return time.UnixMilli(ms).UTC()
}

var lastMillis atomic.Int64

// now returns unix milliseconds, strictly increasing within the
// process so that ORDER BY createdAt stays stable
func now() int64 {
	for {
		last := lastMillis.Load()
		ms := max(time.Now().UnixMilli(), last+1)
		if lastMillis.CompareAndSwap(last, ms) {
			return ms
		}
	}
}

// count reads an integer column from the first record
func count(records []*neo4j.Record, key string) int64 {
	if len(records) == 0 {
		return 0
	}

	value, _ := records[0].Get(key)
	n, _ := value.(int64)
	return n
}

func userFrom(p map[string]any) model.User {
	return model.User{
		Id:        str(p, "id"),
		Name:      str(p, "name"),
		Email:     str(p, "email"),
		Photo:     str(p, "photo"),
		Role:      str(p, "role"),
		Badge:     str(p, "badge"),
		CreatedAt: stamp(p, "createdAt"),
	}
}

func postFrom(p map[string]any) model.Post {
	return model.Post{
		Id:           str(p, "id"),
		AuthorName:   str(p, "authorName"),
		AuthorEmail:  str(p, "authorEmail"),
		AuthorPhoto:  str(p, "authorPhoto"),
		Title:        str(p, "title"),
		Description:  str(p, "description"),
		Tag:          str(p, "tag"),
		UpVote:       integer(p, "upVote"),
		DownVote:     integer(p, "downVote"),
		Popularity:   integer(p, "upVote") - integer(p, "downVote"),
		CommentCount: integer(p, "commentCount"),
		CreatedAt:    stamp(p, "createdAt"),
	}
}

func commentFrom(p map[string]any) model.Comment {
	return model.Comment{
		Id:          str(p, "id"),
		PostId:      str(p, "postId"),
		PostTitle:   str(p, "postTitle"),
		AuthorEmail: str(p, "authorEmail"),
		AuthorName:  str(p, "authorName"),
		AuthorPhoto: str(p, "authorPhoto"),
		CommentText: str(p, "commentText"),
		CreatedAt:   stamp(p, "createdAt"),
	}
}

func reportFrom(p map[string]any) model.Report {
	return model.Report{
		Id:             str(p, "id"),
		CommentId:      str(p, "commentId"),
		CommentText:    str(p, "commentText"),
		CommenterEmail: str(p, "commenterEmail"),
		PostTitle:      str(p, "postTitle"),
		ReporterEmail:  str(p, "reporterEmail"),
		Feedback:       str(p, "feedback"),
		Status:         str(p, "status"),
		ReportedAt:     stamp(p, "reportedAt"),
	}
}

func announcementFrom(p map[string]any) model.Announcement {
	return model.Announcement{
		Id:          str(p, "id"),
		Title:       str(p, "title"),
		Description: str(p, "description"),
		AuthorName:  str(p, "authorName"),
		AuthorImage: str(p, "authorImage"),
		CreatedAt:   stamp(p, "createdAt"),
	}
}
