package database

import (
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
)

func TestPostFrom(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	record := &neo4j.Record{
		Keys: []string{"p"},
		Values: []any{neo4j.Node{Props: map[string]any{
			"id":           "p1",
			"title":        "Hello",
			"tag":          "Go",
			"upVote":       int64(7),
			"downVote":     int64(3),
			"commentCount": int64(2),
			"createdAt":    created.UnixMilli(),
		}}},
	}

	post := postFrom(props(record, "p"))

	assert.Equal(t, "p1", post.Id)
	assert.Equal(t, "Hello", post.Title)
	assert.Equal(t, int64(4), post.Popularity)
	assert.Equal(t, int64(2), post.CommentCount)
	assert.True(t, created.Equal(post.CreatedAt))
}

func TestPropsMissing(t *testing.T) {
	record := &neo4j.Record{Keys: []string{"x"}, Values: []any{"nope"}}

	assert.Nil(t, props(record, "x"))
	assert.Nil(t, props(record, "missing"))
	assert.Empty(t, userFrom(nil).Name)
}

func TestCount(t *testing.T) {
	records := []*neo4j.Record{{Keys: []string{"total"}, Values: []any{int64(12)}}}

	assert.Equal(t, int64(12), count(records, "total"))
	assert.Equal(t, int64(0), count(nil, "total"))
}

func TestStampZero(t *testing.T) {
	assert.True(t, stamp(map[string]any{}, "createdAt").IsZero())
}

func TestNowIsIncreasing(t *testing.T) {
	previous := now()
	for range 1000 {
		next := now()
		assert.Greater(t, next, previous)
		previous = next
	}
}
