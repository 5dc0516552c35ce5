package router

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Gravitalia/forum/database"
	"github.com/Gravitalia/forum/helpers"
	"github.com/Gravitalia/forum/model"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Router holds what every handler needs
type Router struct {
	DB       database.Forum
	Cache    database.Cacher
	Events   helpers.Publisher
	Tokens   *helpers.Tokens
	Payments helpers.PaymentVerifier
	Logger   *zap.Logger

	// AllowedOrigin is sent back in Access-Control-Allow-Origin
	AllowedOrigin string

	// generations count the invalidations of each cache key, a value
	// read before one of them must not be cached after it
	mu          sync.Mutex
	generations map[string]uint64
}

// userHandler is a handler called once the caller is known
type userHandler func(w http.ResponseWriter, req *http.Request, user model.User)

// Handler creates every route and wraps them with the
// CORS, metrics and logging middlewares
func (r *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", Index)
	mux.Handle("GET /metrics", promhttp.HandlerFor(helpers.GetRegistery(), promhttp.HandlerOpts{}))

	// Public routes
	mux.HandleFunc("POST /users", r.CreateUser)
	mux.HandleFunc("POST /jwt", r.Token)
	mux.HandleFunc("GET /posts", r.ListPosts)
	mux.HandleFunc("GET /tags", r.ListTags)
	mux.HandleFunc("GET /search/popular", r.PopularSearches)
	mux.HandleFunc("GET /announcements", r.ListAnnouncements)
	mux.HandleFunc("GET /announcements/count", r.CountAnnouncements)
	mux.HandleFunc("GET /public-stats", r.PublicStats)
	mux.HandleFunc("GET /top-contributors", r.TopContributors)
	mux.HandleFunc("POST /newsletter-subscribe", r.Subscribe)

	// Routes needing a valid token
	mux.HandleFunc("GET /users/check-email", r.authenticated(r.CheckEmail))
	mux.HandleFunc("PATCH /users/membership", r.authenticated(r.Membership))
	mux.HandleFunc("GET /posts/count", r.authenticated(r.CountPosts))
	mux.HandleFunc("GET /posts/{id}", r.authenticated(r.GetPost))
	mux.HandleFunc("GET /my-posts", r.authenticated(r.MyPosts))
	mux.HandleFunc("POST /posts", r.authenticated(r.CreatePost))
	mux.HandleFunc("DELETE /posts/{id}", r.authenticated(r.DeletePost))
	mux.HandleFunc("PATCH /posts/vote/{id}", r.authenticated(r.Vote))
	mux.HandleFunc("GET /comments/{postId}", r.authenticated(r.ListComments))
	mux.HandleFunc("POST /comments", r.authenticated(r.CreateComment))
	mux.HandleFunc("POST /reports", r.authenticated(r.CreateReport))

	// Moderation routes
	mux.HandleFunc("GET /users", r.admin(r.ListUsers))
	mux.HandleFunc("PATCH /users/{id}/make-admin", r.admin(r.MakeAdmin))
	mux.HandleFunc("POST /tags", r.admin(r.CreateTags))
	mux.HandleFunc("POST /announcements", r.admin(r.CreateAnnouncement))
	mux.HandleFunc("GET /admin-stats", r.admin(r.AdminStats))
	mux.HandleFunc("GET /reports", r.admin(r.ListReports))
	mux.HandleFunc("DELETE /reports/{id}", r.admin(r.DeleteReport))
	mux.HandleFunc("PATCH /reports/{id}/dismiss", r.admin(r.DismissReport))

	return r.cors(r.observe(mux))
}

// authenticated checks the bearer token and loads the user
// it was issued for
func (r *Router) authenticated(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		token := req.Header.Get("Authorization")
		if token == "" {
			writeError(w, http.StatusUnauthorized, ErrorInvalidToken)
			return
		}

		email, err := r.Tokens.CheckToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, ErrorInvalidToken)
			return
		}

		user, err := r.DB.GetUserByEmail(req.Context(), email)
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, ErrorInvalidUser)
			return
		} else if err != nil {
			r.storeError(w, err, ErrorInvalidUser)
			return
		}

		next(w, req, user)
	}
}

// admin is authenticated, restricted to admins
func (r *Router) admin(next userHandler) http.HandlerFunc {
	return r.authenticated(func(w http.ResponseWriter, req *http.Request, user model.User) {
		if !user.IsAdmin() {
			writeError(w, http.StatusForbidden, ErrorForbidden)
			return
		}

		next(w, req, user)
	})
}

// cors lets the browser client call the API
func (r *Router) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		header := w.Header()
		header.Set("Access-Control-Allow-Origin", r.AllowedOrigin)
		header.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		header.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		if r.AllowedOrigin != "*" {
			header.Add("Vary", "Origin")
		}

		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, req)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// observe counts requests, measures them and logs them
func (r *Router) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/metrics" {
			next.ServeHTTP(w, req)
			return
		}

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, req)

		elapsed := time.Since(start)
		helpers.IncrementRequests(req.Method, strconv.Itoa(recorder.status))
		helpers.ObserveRequestDuration(elapsed.Seconds())

		r.Logger.Debug("request",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", recorder.status),
			zap.Duration("duration", elapsed),
		)
	})
}

// invalidate drops cached aggregates after a write
func (r *Router) invalidate(keys ...string) {
	r.mu.Lock()
	if r.generations == nil {
		r.generations = make(map[string]uint64)
	}
	for _, key := range keys {
		r.generations[key]++
	}
	r.mu.Unlock()

	r.Cache.Delete(keys...)
}

// generation is read before computing a cached value
func (r *Router) generation(key string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.generations[key]
}

// fill caches v unless key was invalidated since seen was read
func (r *Router) fill(key string, seen uint64, v any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.generations[key] != seen {
		return
	}
	r.Cache.SetJSON(key, v)
}
