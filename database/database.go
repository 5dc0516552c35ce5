package database

import (
	"context"
	"errors"
	"time"

	"github.com/Gravitalia/forum/model"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrUnknownTag    = errors.New("unknown tag")
	ErrPostLimit     = errors.New("post limit reached")
)

// Forum is every query the API needs
type Forum interface {
	CreateUser(ctx context.Context, user model.User) (string, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	ListUsers(ctx context.Context, search string, skip, limit int) ([]model.User, int64, error)
	MakeAdmin(ctx context.Context, id string) (bool, error)
	ApplyMembership(ctx context.Context, payment model.Payment) error

	// CreatePost checks the stored badge of the author against the
	// number of posts they own in the same write, and fails with
	// ErrPostLimit when they cannot post anymore
	CreatePost(ctx context.Context, author model.User, body model.PostBody) (string, error)
	GetPost(ctx context.Context, id string) (model.Post, error)
	ListPosts(ctx context.Context, query model.PostQuery) ([]model.Post, int64, error)
	CountUserPosts(ctx context.Context, email string) (int64, error)
	DeletePost(ctx context.Context, id string) error
	Vote(ctx context.Context, email string, postID string, kind string) (model.Post, error)

	CreateComment(ctx context.Context, author model.User, postID string, text string) (string, error)
	GetComment(ctx context.Context, id string) (model.Comment, error)
	ListComments(ctx context.Context, postID string) ([]model.Comment, error)

	CreateReport(ctx context.Context, reporter string, commentID string, feedback string) (string, error)
	ListReports(ctx context.Context) ([]model.Report, error)
	DeleteReportedComment(ctx context.Context, reportID string) error
	DismissReport(ctx context.Context, reportID string) error
	PruneReports(ctx context.Context, before time.Time) (int64, error)

	CreateTag(ctx context.Context, name string) (string, error)
	ListTags(ctx context.Context) ([]model.Tag, error)

	CreateAnnouncement(ctx context.Context, author model.User, body model.AnnouncementBody) (string, error)
	ListAnnouncements(ctx context.Context) ([]model.Announcement, error)
	CountAnnouncements(ctx context.Context) (int64, error)

	Stats(ctx context.Context) (model.Stats, error)
	TopContributors(ctx context.Context, limit int) ([]model.Contributor, error)

	Subscribe(ctx context.Context, email string) error
	RecordSearch(ctx context.Context, term string) error
	PopularSearches(ctx context.Context, limit int) ([]model.Search, error)
}
