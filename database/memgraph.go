package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Gravitalia/forum/helpers"
	"github.com/Gravitalia/forum/model"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Graph is the Forum stored in Memgraph, reached with the Bolt driver
type Graph struct {
	driver neo4j.DriverWithContext
}

// Init create the main variable for neo4j connection
func Init(ctx context.Context, url, username, password string) (*Graph, error) {
	auth := neo4j.NoAuth()
	if username != "" {
		auth = neo4j.BasicAuth(username, password, "")
	}

	driver, err := neo4j.NewDriverWithContext(url, auth)
	if err != nil {
		return nil, err
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, err
	}

	return &Graph{driver: driver}, nil
}

// Close closes the driver and its connection pool
func (g *Graph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

// Ping checks the database still answers
func (g *Graph) Ping(ctx context.Context) error {
	return g.driver.VerifyConnectivity(ctx)
}

// write runs work in a write transaction with its own session
func (g *Graph) write(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	return session.ExecuteWrite(ctx, work)
}

// MakeRequest is a simple way to send a write query
func (g *Graph) MakeRequest(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	records, err := g.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, query, params)
	})
	if err != nil {
		return nil, err
	}

	return records.([]*neo4j.Record), nil
}

// read sends a read-only query
func (g *Graph) read(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, query, params)
	})
	if err != nil {
		return nil, err
	}

	return records.([]*neo4j.Record), nil
}

// Migrate creates constraints and indexes. Memgraph refuses
// schema changes inside explicit transactions, so each one
// is sent in auto-commit mode.
func (g *Graph) Migrate(ctx context.Context) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	for _, query := range []string{
		"CREATE CONSTRAINT ON (u:User) ASSERT u.email IS UNIQUE;",
		"CREATE CONSTRAINT ON (u:User) ASSERT u.id IS UNIQUE;",
		"CREATE CONSTRAINT ON (p:Post) ASSERT p.id IS UNIQUE;",
		"CREATE CONSTRAINT ON (c:Comment) ASSERT c.id IS UNIQUE;",
		"CREATE CONSTRAINT ON (r:Report) ASSERT r.id IS UNIQUE;",
		"CREATE CONSTRAINT ON (t:Tag) ASSERT t.key IS UNIQUE;",
		"CREATE CONSTRAINT ON (a:Announcement) ASSERT a.id IS UNIQUE;",
		"CREATE CONSTRAINT ON (p:Payment) ASSERT p.transactionId IS UNIQUE;",
		"CREATE CONSTRAINT ON (s:Subscriber) ASSERT s.email IS UNIQUE;",
		"CREATE CONSTRAINT ON (s:Search) ASSERT s.term IS UNIQUE;",
		"CREATE INDEX ON :Post(createdAt);",
		"CREATE INDEX ON :Post(popularity);",
		"CREATE INDEX ON :Post(authorEmail);",
		"CREATE INDEX ON :Report(status);",
	} {
		result, err := session.Run(ctx, query, nil)
		if err != nil {
			return fmt.Errorf("%s: %w", query, err)
		}
		if _, err := result.Consume(ctx); err != nil {
			return fmt.Errorf("%s: %w", query, err)
		}
	}

	return nil
}

// CreateUser allows to create a new user into the graph database
func (g *Graph) CreateUser(ctx context.Context, user model.User) (string, error) {
	id := helpers.Generate()

	_, err := g.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		existing, err := collect(ctx, tx, "MATCH (u:User {email: $email}) RETURN u.id AS id;", map[string]any{"email": user.Email})
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			return nil, ErrAlreadyExists
		}

		return collect(ctx, tx,
			"CREATE (u:User {id: $id, name: $name, email: $email, photo: $photo, role: $role, badge: $badge, createdAt: $createdAt});",
			map[string]any{
				"id":        id,
				"name":      user.Name,
				"email":     user.Email,
				"photo":     user.Photo,
				"role":      model.RoleUser,
				"badge":     model.BadgeBronze,
				"createdAt": now(),
			})
	})
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	return id, nil
}

// GetUserByEmail returns the member owning email
func (g *Graph) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	records, err := g.read(ctx, "MATCH (u:User {email: $email}) RETURN u;", map[string]any{"email": email})
	if err != nil {
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	if len(records) == 0 {
		return model.User{}, ErrNotFound
	}

	return userFrom(props(records[0], "u")), nil
}

// ListUsers searches users by name or email
func (g *Graph) ListUsers(ctx context.Context, search string, skip, limit int) ([]model.User, int64, error) {
	const where = "WHERE $search = '' OR toLower(u.name) CONTAINS $search OR toLower(u.email) CONTAINS $search"
	params := map[string]any{"search": search, "skip": int64(max(skip, 0)), "limit": int64(limit)}

	total, err := g.read(ctx, "MATCH (u:User) "+where+" RETURN count(u) AS total;", params)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	records, err := g.read(ctx, "MATCH (u:User) "+where+" RETURN u ORDER BY u.createdAt DESC, u.email SKIP $skip LIMIT $limit;", params)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	users := make([]model.User, 0, len(records))
	for _, record := range records {
		users = append(users, userFrom(props(record, "u")))
	}

	return users, count(total, "total"), nil
}

// MakeAdmin gives the admin role, it reports false
// when the user already had it
func (g *Graph) MakeAdmin(ctx context.Context, id string) (bool, error) {
	records, err := g.MakeRequest(ctx,
		"MATCH (u:User {id: $id}) WITH u, u.role = 'admin' AS already SET u.role = 'admin' RETURN already;",
		map[string]any{"id": id})
	if err != nil {
		return false, fmt.Errorf("make admin: %w", err)
	}
	if len(records) == 0 {
		return false, ErrNotFound
	}

	already, _ := records[0].Get("already")
	return already != true, nil
}

// ApplyMembership records a payment and grants the gold badge
func (g *Graph) ApplyMembership(ctx context.Context, payment model.Payment) error {
	_, err := g.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		existing, err := collect(ctx, tx, "MATCH (p:Payment {transactionId: $tx}) RETURN p.transactionId;", map[string]any{"tx": payment.TransactionId})
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			return nil, ErrAlreadyExists
		}

		records, err := collect(ctx, tx,
			"MATCH (u:User {email: $email}) CREATE (u)-[:Paid]->(:Payment {transactionId: $tx, email: $email, amount: $amount, currency: $currency, paidAt: $paidAt}) SET u.badge = $badge RETURN u.id;",
			map[string]any{
				"email":    payment.Email,
				"tx":       payment.TransactionId,
				"amount":   payment.Amount,
				"currency": payment.Currency,
				"paidAt":   now(),
				"badge":    model.BadgeGold,
			})
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, ErrNotFound
		}

		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("apply membership: %w", err)
	}

	return nil
}

// CreatePost allows to create a new post tagged with an existing tag,
// within the badge limit of its author
func (g *Graph) CreatePost(ctx context.Context, author model.User, body model.PostBody) (string, error) {
	id := helpers.Generate()

	_, err := g.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		tags, err := collect(ctx, tx, "MATCH (t:Tag {key: $key}) RETURN t.name;", map[string]any{"key": helpers.Normalize(body.Tag)})
		if err != nil {
			return nil, err
		}
		if len(tags) == 0 {
			return nil, ErrUnknownTag
		}

		// writing on the user first makes concurrent posts by the
		// same user conflict, the driver then retries the loser
		owned, err := collect(ctx, tx,
			"MATCH (u:User {email: $email}) SET u.lastPostAt = $now WITH u OPTIONAL MATCH (u)-[:Create]->(p:Post) RETURN u.badge AS badge, count(p) AS posts;",
			map[string]any{"email": author.Email, "now": now()})
		if err != nil {
			return nil, err
		}
		if len(owned) == 0 {
			return nil, ErrNotFound
		}

		badge, _ := owned[0].Get("badge")
		stored := author
		stored.Badge, _ = badge.(string)
		if !stored.CanPost(count(owned, "posts")) {
			return nil, ErrPostLimit
		}

		records, err := collect(ctx, tx,
			"MATCH (u:User {email: $email}), (t:Tag {key: $key}) CREATE (u)-[:Create]->(p:Post {id: $id, authorName: u.name, authorEmail: u.email, authorPhoto: u.photo, title: $title, description: $description, tag: t.name, upVote: 0, downVote: 0, popularity: 0, commentCount: 0, createdAt: $createdAt})-[:Tagged]->(t) RETURN p.id;",
			map[string]any{
				"email":       author.Email,
				"key":         helpers.Normalize(body.Tag),
				"id":          id,
				"title":       body.Title,
				"description": body.Description,
				"createdAt":   now(),
			})
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, ErrNotFound
		}

		return nil, nil
	})
	if err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}

	return id, nil
}

// GetPost allows to get data of a post
func (g *Graph) GetPost(ctx context.Context, id string) (model.Post, error) {
	records, err := g.read(ctx, "MATCH (p:Post {id: $id}) RETURN p;", map[string]any{"id": id})
	if err != nil {
		return model.Post{}, fmt.Errorf("get post: %w", err)
	}
	if len(records) == 0 {
		return model.Post{}, ErrNotFound
	}

	return postFrom(props(records[0], "p")), nil
}

// postOrder maps a sort name onto an ORDER BY clause
func postOrder(sort string) string {
	switch sort {
	case model.SortPopularity:
		return "p.popularity DESC, p.createdAt DESC"
	case model.SortOldest:
		return "p.createdAt ASC"
	}

	return "p.createdAt DESC"
}

// ListPosts returns one page of posts and the number of posts
// matching the filters
func (g *Graph) ListPosts(ctx context.Context, query model.PostQuery) ([]model.Post, int64, error) {
	const where = "WHERE ($author = '' OR p.authorEmail = $author) AND ($tag = '' OR toLower(p.tag) = $tag) AND ($search = '' OR toLower(p.title) CONTAINS $search OR toLower(p.tag) CONTAINS $search)"
	params := map[string]any{
		"author": query.Author,
		"tag":    helpers.Normalize(query.Tag),
		"search": helpers.Normalize(query.Search),
		"skip":   int64(max(query.Skip, 0)),
		"limit":  int64(query.Limit),
	}

	total, err := g.read(ctx, "MATCH (p:Post) "+where+" RETURN count(p) AS total;", params)
	if err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	// a non-positive limit returns every post
	paging := " SKIP $skip"
	if query.Limit > 0 {
		paging += " LIMIT $limit"
	}

	records, err := g.read(ctx, "MATCH (p:Post) "+where+" RETURN p ORDER BY "+postOrder(query.Sort)+paging+";", params)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}

	posts := make([]model.Post, 0, len(records))
	for _, record := range records {
		posts = append(posts, postFrom(props(record, "p")))
	}

	return posts, count(total, "total"), nil
}

// CountUserPosts returns how many posts a user created
func (g *Graph) CountUserPosts(ctx context.Context, email string) (int64, error) {
	records, err := g.read(ctx, "MATCH (:User {email: $email})-[:Create]->(p:Post) RETURN count(p) AS total;", map[string]any{"email": email})
	if err != nil {
		return 0, fmt.Errorf("count user posts: %w", err)
	}

	return count(records, "total"), nil
}

// DeletePost removes a post with its votes, comments and their reports
func (g *Graph) DeletePost(ctx context.Context, id string) error {
	_, err := g.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		existing, err := collect(ctx, tx, "MATCH (p:Post {id: $id}) RETURN p.id;", map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if len(existing) == 0 {
			return nil, ErrNotFound
		}

		return collect(ctx, tx,
			"MATCH (p:Post {id: $id}) OPTIONAL MATCH (p)<-[:Comment]-(c:Comment) OPTIONAL MATCH (c)<-[:Report]-(r:Report) WITH p, collect(DISTINCT c) AS comments, collect(DISTINCT r) AS reports FOREACH (x IN reports | DETACH DELETE x) FOREACH (x IN comments | DETACH DELETE x) DETACH DELETE p;",
			map[string]any{"id": id})
	})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	return nil
}

var voteRelations = map[string]string{
	model.UpVote:   "Upvote",
	model.DownVote: "Downvote",
}

// Vote toggles the vote of a user on a post. Voting twice the same
// way removes the vote, voting the other way switches it. Counters
// are recomputed from the edges.
func (g *Graph) Vote(ctx context.Context, email string, postID string, kind string) (model.Post, error) {
	relation, ok := voteRelations[kind]
	if !ok {
		return model.Post{}, fmt.Errorf("vote: invalid type %q", kind)
	}

	params := map[string]any{"email": email, "id": postID}

	post, err := g.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		previous, err := collect(ctx, tx,
			"MATCH (u:User {email: $email}), (p:Post {id: $id}) OPTIONAL MATCH (u)-[v]->(p) WHERE type(v) IN ['Upvote', 'Downvote'] RETURN type(v) AS previous;",
			params)
		if err != nil {
			return nil, err
		}
		if len(previous) == 0 {
			return nil, ErrNotFound
		}

		var had string
		for _, record := range previous {
			if v, _ := record.Get("previous"); v != nil {
				had, _ = v.(string)
			}
		}

		if had != "" {
			if _, err := collect(ctx, tx,
				"MATCH (u:User {email: $email})-[v]->(p:Post {id: $id}) WHERE type(v) IN ['Upvote', 'Downvote'] DELETE v;",
				params); err != nil {
				return nil, err
			}
		}

		if had != relation {
			if _, err := collect(ctx, tx,
				"MATCH (u:User {email: $email}), (p:Post {id: $id}) CREATE (u)-[:"+relation+"]->(p);",
				params); err != nil {
				return nil, err
			}
		}

		records, err := collect(ctx, tx,
			"MATCH (p:Post {id: $id}) OPTIONAL MATCH (p)<-[up:Upvote]-(:User) WITH p, count(up) AS ups OPTIONAL MATCH (p)<-[down:Downvote]-(:User) WITH p, ups, count(down) AS downs SET p.upVote = ups, p.downVote = downs, p.popularity = ups - downs RETURN p;",
			params)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, ErrNotFound
		}

		return postFrom(props(records[0], "p")), nil
	})
	if err != nil {
		return model.Post{}, fmt.Errorf("vote: %w", err)
	}

	return post.(model.Post), nil
}

// CreateComment allows to post a comment on a post
func (g *Graph) CreateComment(ctx context.Context, author model.User, postID string, text string) (string, error) {
	id := helpers.Generate()

	records, err := g.MakeRequest(ctx,
		"MATCH (p:Post {id: $post}), (u:User {email: $email}) CREATE (u)-[:Wrote]->(c:Comment {id: $id, postId: p.id, postTitle: p.title, authorEmail: u.email, authorName: u.name, authorPhoto: u.photo, commentText: $text, createdAt: $createdAt})-[:Comment]->(p) SET p.commentCount = coalesce(p.commentCount, 0) + 1 RETURN c.id;",
		map[string]any{"post": postID, "email": author.Email, "id": id, "text": text, "createdAt": now()})
	if err != nil {
		return "", fmt.Errorf("create comment: %w", err)
	}
	if len(records) == 0 {
		return "", ErrNotFound
	}

	return id, nil
}

// GetComment returns a single comment
func (g *Graph) GetComment(ctx context.Context, id string) (model.Comment, error) {
	records, err := g.read(ctx, "MATCH (c:Comment {id: $id}) RETURN c;", map[string]any{"id": id})
	if err != nil {
		return model.Comment{}, fmt.Errorf("get comment: %w", err)
	}
	if len(records) == 0 {
		return model.Comment{}, ErrNotFound
	}

	return commentFrom(props(records[0], "c")), nil
}

// ListComments sends every comment of a post, oldest first
func (g *Graph) ListComments(ctx context.Context, postID string) ([]model.Comment, error) {
	records, err := g.read(ctx, "MATCH (c:Comment)-[:Comment]->(:Post {id: $id}) RETURN c ORDER BY c.createdAt;", map[string]any{"id": postID})
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	comments := make([]model.Comment, 0, len(records))
	for _, record := range records {
		comments = append(comments, commentFrom(props(record, "c")))
	}

	return comments, nil
}

// CreateReport files a complaint about a comment
func (g *Graph) CreateReport(ctx context.Context, reporter string, commentID string, feedback string) (string, error) {
	id := helpers.Generate()

	records, err := g.MakeRequest(ctx,
		"MATCH (c:Comment {id: $comment}) CREATE (r:Report {id: $id, commentId: c.id, commentText: c.commentText, commenterEmail: c.authorEmail, postTitle: c.postTitle, reporterEmail: $reporter, feedback: $feedback, status: $status, reportedAt: $reportedAt})-[:Report]->(c) RETURN r.id;",
		map[string]any{
			"comment":    commentID,
			"id":         id,
			"reporter":   reporter,
			"feedback":   feedback,
			"status":     model.ReportPending,
			"reportedAt": now(),
		})
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	if len(records) == 0 {
		return "", ErrNotFound
	}

	return id, nil
}

// ListReports returns reports, newest first
func (g *Graph) ListReports(ctx context.Context) ([]model.Report, error) {
	records, err := g.read(ctx, "MATCH (r:Report) RETURN r ORDER BY r.reportedAt DESC;", nil)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	reports := make([]model.Report, 0, len(records))
	for _, record := range records {
		reports = append(reports, reportFrom(props(record, "r")))
	}

	return reports, nil
}

// DeleteReportedComment removes the comment targeted by a report,
// every report about it, and fixes the post comment counter
func (g *Graph) DeleteReportedComment(ctx context.Context, reportID string) error {
	_, err := g.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		reports, err := collect(ctx, tx, "MATCH (r:Report {id: $id}) RETURN r.commentId AS comment;", map[string]any{"id": reportID})
		if err != nil {
			return nil, err
		}
		if len(reports) == 0 {
			return nil, ErrNotFound
		}

		comment, _ := reports[0].Get("comment")

		if _, err := collect(ctx, tx,
			"MATCH (c:Comment {id: $comment})-[:Comment]->(p:Post) SET p.commentCount = CASE WHEN p.commentCount > 0 THEN p.commentCount - 1 ELSE 0 END WITH c OPTIONAL MATCH (c)<-[:Report]-(other:Report) WITH c, collect(other) AS reports FOREACH (x IN reports | DETACH DELETE x) DETACH DELETE c;",
			map[string]any{"comment": comment}); err != nil {
			return nil, err
		}

		return collect(ctx, tx, "MATCH (r:Report {id: $id}) DETACH DELETE r;", map[string]any{"id": reportID})
	})
	if err != nil {
		return fmt.Errorf("delete reported comment: %w", err)
	}

	return nil
}

// DismissReport keeps the comment and marks the report dismissed
func (g *Graph) DismissReport(ctx context.Context, reportID string) error {
	records, err := g.MakeRequest(ctx,
		"MATCH (r:Report {id: $id}) SET r.status = $status, r.dismissedAt = $now RETURN r.id;",
		map[string]any{"id": reportID, "status": model.ReportDismissed, "now": now()})
	if err != nil {
		return fmt.Errorf("dismiss report: %w", err)
	}
	if len(records) == 0 {
		return ErrNotFound
	}

	return nil
}

// PruneReports deletes reports dismissed before the given time
func (g *Graph) PruneReports(ctx context.Context, before time.Time) (int64, error) {
	records, err := g.MakeRequest(ctx,
		"MATCH (r:Report {status: $status}) WHERE r.dismissedAt < $before WITH collect(r) AS reports FOREACH (x IN reports | DETACH DELETE x) RETURN size(reports) AS pruned;",
		map[string]any{"status": model.ReportDismissed, "before": before.UnixMilli()})
	if err != nil {
		return 0, fmt.Errorf("prune reports: %w", err)
	}

	return count(records, "pruned"), nil
}

// CreateTag adds a tag, names are unique without regard to case
func (g *Graph) CreateTag(ctx context.Context, name string) (string, error) {
	id := helpers.Generate()

	_, err := g.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		existing, err := collect(ctx, tx, "MATCH (t:Tag {key: $key}) RETURN t.id;", map[string]any{"key": helpers.Normalize(name)})
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			return nil, ErrAlreadyExists
		}

		return collect(ctx, tx, "CREATE (:Tag {id: $id, name: $name, key: $key});",
			map[string]any{"id": id, "name": helpers.TagName(name), "key": helpers.Normalize(name)})
	})
	if err != nil {
		return "", fmt.Errorf("create tag: %w", err)
	}

	return id, nil
}

// ListTags returns every tag sorted by name
func (g *Graph) ListTags(ctx context.Context) ([]model.Tag, error) {
	records, err := g.read(ctx, "MATCH (t:Tag) RETURN t ORDER BY t.name;", nil)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	tags := make([]model.Tag, 0, len(records))
	for _, record := range records {
		p := props(record, "t")
		tags = append(tags, model.Tag{Id: str(p, "id"), Name: str(p, "name")})
	}

	return tags, nil
}

// CreateAnnouncement publishes an announcement signed by author
func (g *Graph) CreateAnnouncement(ctx context.Context, author model.User, body model.AnnouncementBody) (string, error) {
	id := helpers.Generate()

	records, err := g.MakeRequest(ctx,
		"MATCH (u:User {email: $email}) CREATE (u)-[:Announce]->(a:Announcement {id: $id, title: $title, description: $description, authorName: u.name, authorImage: u.photo, createdAt: $createdAt}) RETURN a.id;",
		map[string]any{
			"email":       author.Email,
			"id":          id,
			"title":       body.Title,
			"description": body.Description,
			"createdAt":   now(),
		})
	if err != nil {
		return "", fmt.Errorf("create announcement: %w", err)
	}
	if len(records) == 0 {
		return "", ErrNotFound
	}

	return id, nil
}

// ListAnnouncements returns announcements, newest first
func (g *Graph) ListAnnouncements(ctx context.Context) ([]model.Announcement, error) {
	records, err := g.read(ctx, "MATCH (a:Announcement) RETURN a ORDER BY a.createdAt DESC;", nil)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}

	announcements := make([]model.Announcement, 0, len(records))
	for _, record := range records {
		announcements = append(announcements, announcementFrom(props(record, "a")))
	}

	return announcements, nil
}

// CountAnnouncements returns the number of announcements
func (g *Graph) CountAnnouncements(ctx context.Context) (int64, error) {
	records, err := g.read(ctx, "MATCH (a:Announcement) RETURN count(a) AS total;", nil)
	if err != nil {
		return 0, fmt.Errorf("count announcements: %w", err)
	}

	return count(records, "total"), nil
}

// Stats returns the forum counters
func (g *Graph) Stats(ctx context.Context) (model.Stats, error) {
	records, err := g.read(ctx,
		"OPTIONAL MATCH (p:Post) WITH count(p) AS posts OPTIONAL MATCH (c:Comment) WITH posts, count(c) AS comments OPTIONAL MATCH (u:User) WITH posts, comments, count(u) AS users OPTIONAL MATCH (t:Tag) RETURN posts, comments, users, count(t) AS tags;",
		nil)
	if err != nil {
		return model.Stats{}, fmt.Errorf("stats: %w", err)
	}

	return model.Stats{
		TotalPosts:    count(records, "posts"),
		TotalComments: count(records, "comments"),
		TotalUsers:    count(records, "users"),
		TotalTags:     count(records, "tags"),
	}, nil
}

// TopContributors returns the users with the most posts
func (g *Graph) TopContributors(ctx context.Context, limit int) ([]model.Contributor, error) {
	records, err := g.read(ctx,
		"MATCH (u:User)-[:Create]->(p:Post) WITH u, count(p) AS posts RETURN u, posts ORDER BY posts DESC, u.name LIMIT $limit;",
		map[string]any{"limit": int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("top contributors: %w", err)
	}

	contributors := make([]model.Contributor, 0, len(records))
	for _, record := range records {
		user := userFrom(props(record, "u"))
		posts, _ := record.Get("posts")
		n, _ := posts.(int64)

		contributors = append(contributors, model.Contributor{
			Name:      user.Name,
			Email:     user.Email,
			Photo:     user.Photo,
			Badge:     user.Badge,
			PostCount: n,
		})
	}

	return contributors, nil
}

// Subscribe adds an email to the newsletter
func (g *Graph) Subscribe(ctx context.Context, email string) error {
	_, err := g.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		existing, err := collect(ctx, tx, "MATCH (s:Subscriber {email: $email}) RETURN s.email;", map[string]any{"email": email})
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			return nil, ErrAlreadyExists
		}

		return collect(ctx, tx, "CREATE (:Subscriber {email: $email, subscribedAt: $now});", map[string]any{"email": email, "now": now()})
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	return nil
}

// RecordSearch counts one more search for term
func (g *Graph) RecordSearch(ctx context.Context, term string) error {
	_, err := g.MakeRequest(ctx,
		"MERGE (s:Search {term: $term}) ON CREATE SET s.count = 1 ON MATCH SET s.count = s.count + 1;",
		map[string]any{"term": term})
	if err != nil {
		return fmt.Errorf("record search: %w", err)
	}

	return nil
}

// PopularSearches returns the most searched terms
func (g *Graph) PopularSearches(ctx context.Context, limit int) ([]model.Search, error) {
	records, err := g.read(ctx, "MATCH (s:Search) RETURN s ORDER BY s.count DESC, s.term LIMIT $limit;", map[string]any{"limit": int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("popular searches: %w", err)
	}

	searches := make([]model.Search, 0, len(records))
	for _, record := range records {
		p := props(record, "s")
		searches = append(searches, model.Search{Term: str(p, "term"), Count: integer(p, "count")})
	}

	return searches, nil
}

var _ Forum = (*Graph)(nil)
