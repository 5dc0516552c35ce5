package database

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Gravitalia/forum/helpers"
	"github.com/Gravitalia/forum/model"
)

// Memory is a Forum kept in process memory. It backs `serve --memory`
// and the tests, and follows the same rules as Graph.
type Memory struct {
	mu sync.RWMutex

	users         map[string]*model.User // by email
	posts         map[string]*model.Post
	votes         map[string]map[string]string // post -> email -> kind
	comments      map[string]*model.Comment
	reports       map[string]*memoryReport
	tags          map[string]model.Tag // by normalized name
	announcements []model.Announcement
	payments      map[string]model.Payment
	subscribers   map[string]time.Time
	searches      map[string]int64

	clock func() time.Time
	last  time.Time
}

type memoryReport struct {
	model.Report
	dismissedAt time.Time
}

// NewMemory returns an empty store
func NewMemory() *Memory {
	return &Memory{
		users:       make(map[string]*model.User),
		posts:       make(map[string]*model.Post),
		votes:       make(map[string]map[string]string),
		comments:    make(map[string]*model.Comment),
		reports:     make(map[string]*memoryReport),
		tags:        make(map[string]model.Tag),
		payments:    make(map[string]model.Payment),
		subscribers: make(map[string]time.Time),
		searches:    make(map[string]int64),
		clock:       func() time.Time { return time.Now().UTC() },
	}
}

// Ping always succeeds
func (m *Memory) Ping(context.Context) error { return nil }

// tick returns a strictly increasing time so that ordering by
// creation date is stable even within the same clock reading,
// m.mu must be held
func (m *Memory) tick() time.Time {
	t := m.clock()
	if !t.After(m.last) {
		t = m.last.Add(time.Millisecond)
	}
	m.last = t
	return t
}

func (m *Memory) CreateUser(_ context.Context, user model.User) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.Email]; ok {
		return "", ErrAlreadyExists
	}

	user.Id = helpers.Generate()
	user.Role = model.RoleUser
	user.Badge = model.BadgeBronze
	user.CreatedAt = m.tick()
	m.users[user.Email] = &user

	return user.Id, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[email]
	if !ok {
		return model.User{}, ErrNotFound
	}

	return *user, nil
}

func (m *Memory) ListUsers(_ context.Context, search string, skip, limit int) ([]model.User, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var users []model.User
	for _, user := range m.users {
		if search == "" || strings.Contains(strings.ToLower(user.Name), search) || strings.Contains(strings.ToLower(user.Email), search) {
			users = append(users, *user)
		}
	}

	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].Email < users[j].Email
	})

	return page(users, skip, limit), int64(len(users)), nil
}

func (m *Memory) MakeAdmin(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.users {
		if user.Id == id {
			if user.Role == model.RoleAdmin {
				return false, nil
			}
			user.Role = model.RoleAdmin
			return true, nil
		}
	}

	return false, ErrNotFound
}

func (m *Memory) ApplyMembership(_ context.Context, payment model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.payments[payment.TransactionId]; ok {
		return ErrAlreadyExists
	}

	user, ok := m.users[payment.Email]
	if !ok {
		return ErrNotFound
	}

	payment.PaidAt = m.clock()
	m.payments[payment.TransactionId] = payment
	user.Badge = model.BadgeGold

	return nil
}

func (m *Memory) CreatePost(_ context.Context, author model.User, body model.PostBody) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tag, ok := m.tags[helpers.Normalize(body.Tag)]
	if !ok {
		return "", ErrUnknownTag
	}

	user, ok := m.users[author.Email]
	if !ok {
		return "", ErrNotFound
	}

	var owned int64
	for _, post := range m.posts {
		if post.AuthorEmail == user.Email {
			owned++
		}
	}
	if !user.CanPost(owned) {
		return "", ErrPostLimit
	}

	post := &model.Post{
		Id:          helpers.Generate(),
		AuthorName:  user.Name,
		AuthorEmail: user.Email,
		AuthorPhoto: user.Photo,
		Title:       body.Title,
		Description: body.Description,
		Tag:         tag.Name,
		CreatedAt:   m.tick(),
	}
	m.posts[post.Id] = post

	return post.Id, nil
}

func (m *Memory) GetPost(_ context.Context, id string) (model.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	post, ok := m.posts[id]
	if !ok {
		return model.Post{}, ErrNotFound
	}

	return *post, nil
}

func (m *Memory) ListPosts(_ context.Context, query model.PostQuery) ([]model.Post, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tag := helpers.Normalize(query.Tag)
	search := helpers.Normalize(query.Search)

	var posts []model.Post
	for _, post := range m.posts {
		if query.Author != "" && post.AuthorEmail != query.Author {
			continue
		}
		if tag != "" && strings.ToLower(post.Tag) != tag {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(post.Title), search) && !strings.Contains(strings.ToLower(post.Tag), search) {
			continue
		}
		posts = append(posts, *post)
	}

	sort.Slice(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		switch query.Sort {
		case model.SortPopularity:
			if a.Popularity != b.Popularity {
				return a.Popularity > b.Popularity
			}
			return a.CreatedAt.After(b.CreatedAt)
		case model.SortOldest:
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	return page(posts, query.Skip, query.Limit), int64(len(posts)), nil
}

func (m *Memory) CountUserPosts(_ context.Context, email string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, post := range m.posts {
		if post.AuthorEmail == email {
			n++
		}
	}

	return n, nil
}

func (m *Memory) DeletePost(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[id]; !ok {
		return ErrNotFound
	}

	for commentID, comment := range m.comments {
		if comment.PostId == id {
			m.deleteCommentLocked(commentID)
		}
	}
	delete(m.votes, id)
	delete(m.posts, id)

	return nil
}

func (m *Memory) Vote(_ context.Context, email string, postID string, kind string) (model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	post, ok := m.posts[postID]
	if !ok {
		return model.Post{}, ErrNotFound
	}
	if _, ok := m.users[email]; !ok {
		return model.Post{}, ErrNotFound
	}

	votes := m.votes[postID]
	if votes == nil {
		votes = make(map[string]string)
		m.votes[postID] = votes
	}

	if votes[email] == kind {
		delete(votes, email)
	} else {
		votes[email] = kind
	}

	post.UpVote, post.DownVote = 0, 0
	for _, v := range votes {
		if v == model.UpVote {
			post.UpVote++
		} else {
			post.DownVote++
		}
	}
	post.Popularity = post.UpVote - post.DownVote

	return *post, nil
}

func (m *Memory) CreateComment(_ context.Context, author model.User, postID string, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	post, ok := m.posts[postID]
	if !ok {
		return "", ErrNotFound
	}
	user, ok := m.users[author.Email]
	if !ok {
		return "", ErrNotFound
	}

	comment := &model.Comment{
		Id:          helpers.Generate(),
		PostId:      post.Id,
		PostTitle:   post.Title,
		AuthorEmail: user.Email,
		AuthorName:  user.Name,
		AuthorPhoto: user.Photo,
		CommentText: text,
		CreatedAt:   m.tick(),
	}
	m.comments[comment.Id] = comment
	post.CommentCount++

	return comment.Id, nil
}

func (m *Memory) GetComment(_ context.Context, id string) (model.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	comment, ok := m.comments[id]
	if !ok {
		return model.Comment{}, ErrNotFound
	}

	return *comment, nil
}

func (m *Memory) ListComments(_ context.Context, postID string) ([]model.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	comments := make([]model.Comment, 0)
	for _, comment := range m.comments {
		if comment.PostId == postID {
			comments = append(comments, *comment)
		}
	}

	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})

	return comments, nil
}

func (m *Memory) CreateReport(_ context.Context, reporter string, commentID string, feedback string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	comment, ok := m.comments[commentID]
	if !ok {
		return "", ErrNotFound
	}

	report := &memoryReport{Report: model.Report{
		Id:             helpers.Generate(),
		CommentId:      comment.Id,
		CommentText:    comment.CommentText,
		CommenterEmail: comment.AuthorEmail,
		PostTitle:      comment.PostTitle,
		ReporterEmail:  reporter,
		Feedback:       feedback,
		Status:         model.ReportPending,
		ReportedAt:     m.tick(),
	}}
	m.reports[report.Id] = report

	return report.Id, nil
}

func (m *Memory) ListReports(_ context.Context) ([]model.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reports := make([]model.Report, 0, len(m.reports))
	for _, report := range m.reports {
		reports = append(reports, report.Report)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].ReportedAt.After(reports[j].ReportedAt)
	})

	return reports, nil
}

func (m *Memory) DeleteReportedComment(_ context.Context, reportID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	report, ok := m.reports[reportID]
	if !ok {
		return ErrNotFound
	}

	m.deleteCommentLocked(report.CommentId)
	delete(m.reports, reportID)

	return nil
}

// deleteCommentLocked removes a comment and its reports, m.mu must be held
func (m *Memory) deleteCommentLocked(id string) {
	comment, ok := m.comments[id]
	if !ok {
		return
	}

	for reportID, report := range m.reports {
		if report.CommentId == id {
			delete(m.reports, reportID)
		}
	}

	if post, ok := m.posts[comment.PostId]; ok && post.CommentCount > 0 {
		post.CommentCount--
	}
	delete(m.comments, id)
}

func (m *Memory) DismissReport(_ context.Context, reportID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	report, ok := m.reports[reportID]
	if !ok {
		return ErrNotFound
	}

	report.Status = model.ReportDismissed
	report.dismissedAt = m.clock()

	return nil
}

func (m *Memory) PruneReports(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pruned int64
	for id, report := range m.reports {
		if report.Status == model.ReportDismissed && report.dismissedAt.Before(before) {
			delete(m.reports, id)
			pruned++
		}
	}

	return pruned, nil
}

func (m *Memory) CreateTag(_ context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := helpers.Normalize(name)
	if _, ok := m.tags[key]; ok {
		return "", ErrAlreadyExists
	}

	tag := model.Tag{Id: helpers.Generate(), Name: helpers.TagName(name)}
	m.tags[key] = tag

	return tag.Id, nil
}

func (m *Memory) ListTags(_ context.Context) ([]model.Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tags := make([]model.Tag, 0, len(m.tags))
	for _, tag := range m.tags {
		tags = append(tags, tag)
	}

	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })

	return tags, nil
}

func (m *Memory) CreateAnnouncement(_ context.Context, author model.User, body model.AnnouncementBody) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[author.Email]
	if !ok {
		return "", ErrNotFound
	}

	announcement := model.Announcement{
		Id:          helpers.Generate(),
		Title:       body.Title,
		Description: body.Description,
		AuthorName:  user.Name,
		AuthorImage: user.Photo,
		CreatedAt:   m.tick(),
	}
	m.announcements = append(m.announcements, announcement)

	return announcement.Id, nil
}

func (m *Memory) ListAnnouncements(_ context.Context) ([]model.Announcement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	announcements := make([]model.Announcement, 0, len(m.announcements))
	for i := len(m.announcements) - 1; i >= 0; i-- {
		announcements = append(announcements, m.announcements[i])
	}

	return announcements, nil
}

func (m *Memory) CountAnnouncements(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.announcements)), nil
}

func (m *Memory) Stats(_ context.Context) (model.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return model.Stats{
		TotalPosts:    int64(len(m.posts)),
		TotalComments: int64(len(m.comments)),
		TotalUsers:    int64(len(m.users)),
		TotalTags:     int64(len(m.tags)),
	}, nil
}

func (m *Memory) TopContributors(_ context.Context, limit int) ([]model.Contributor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int64)
	for _, post := range m.posts {
		counts[post.AuthorEmail]++
	}

	contributors := make([]model.Contributor, 0, len(counts))
	for email, n := range counts {
		user, ok := m.users[email]
		if !ok {
			continue
		}
		contributors = append(contributors, model.Contributor{
			Name:      user.Name,
			Email:     user.Email,
			Photo:     user.Photo,
			Badge:     user.Badge,
			PostCount: n,
		})
	}

	sort.Slice(contributors, func(i, j int) bool {
		if contributors[i].PostCount != contributors[j].PostCount {
			return contributors[i].PostCount > contributors[j].PostCount
		}
		return contributors[i].Name < contributors[j].Name
	})

	return page(contributors, 0, limit), nil
}

func (m *Memory) Subscribe(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subscribers[email]; ok {
		return ErrAlreadyExists
	}
	m.subscribers[email] = m.clock()

	return nil
}

func (m *Memory) RecordSearch(_ context.Context, term string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.searches[term]++
	return nil
}

func (m *Memory) PopularSearches(_ context.Context, limit int) ([]model.Search, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	searches := make([]model.Search, 0, len(m.searches))
	for term, n := range m.searches {
		searches = append(searches, model.Search{Term: term, Count: n})
	}

	sort.Slice(searches, func(i, j int) bool {
		if searches[i].Count != searches[j].Count {
			return searches[i].Count > searches[j].Count
		}
		return searches[i].Term < searches[j].Term
	})

	return page(searches, 0, limit), nil
}

// page slices items like SKIP/LIMIT, a non-positive limit keeps everything
func page[T any](items []T, skip, limit int) []T {
	skip = max(skip, 0)
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	return items
}

var _ Forum = (*Memory)(nil)

// MemoryCache is a Cacher kept in process memory
type MemoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

// NewMemoryCache returns an empty cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string][]byte)}
}

func (c *MemoryCache) GetJSON(key string, v any) bool {
	c.mu.Lock()
	data, ok := c.items[key]
	c.mu.Unlock()

	return ok && json.Unmarshal(data, v) == nil
}

func (c *MemoryCache) SetJSON(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}

	c.mu.Lock()
	c.items[key] = data
	c.mu.Unlock()
}

func (c *MemoryCache) Delete(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		delete(c.items, key)
	}
}
