// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for the handler
// tests. Integration tests are skipped when PostgreSQL or Valkey are
// unavailable; unit tests build handler groups without any backing store
// and only exercise paths that fail before a query is made.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"

	"vamp/internal/cache"
	"vamp/internal/database"
	"vamp/internal/middleware"
	"vamp/internal/models"
	"vamp/internal/oauth"
	"vamp/internal/render"
	"vamp/internal/session"
	"vamp/internal/store"
)

// fakeProvider implements oauth.Provider for handler tests.
type fakeProvider struct {
	info        *oauth.UserInfo
	exchangeErr error
	infoErr     error
	gotCode     string
}

func (f *fakeProvider) Name() string { return "github" }

func (f *fakeProvider) AuthCodeURL(state string, _ ...oauth2.AuthCodeOption) string {
	return "https://github.example/login/oauth/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeProvider) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	f.gotCode = code
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &oauth2.Token{AccessToken: "token-" + code}, nil
}

func (f *fakeProvider) FetchUserInfo(_ context.Context, _ *oauth2.Token) (*oauth.UserInfo, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return f.info, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "vamp")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "vamp")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"session:*", "page:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

func testRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	renderer, err := render.New(true)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	return renderer
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB          *sql.DB
	Valkey      *redis.Client
	Renderer    *render.Renderer
	Sessions    *session.Store
	Profiles    *store.ProfileStore
	Projects    *store.ProjectStore
	Grants      *store.GrantStore
	Submissions *store.SubmissionStore
	PageCache   *cache.PageCache
	Provider    *fakeProvider
	Public      *Public
	Auth        *Auth
	Member      *Member
	Admin       *Admin
}

// newTestEnv creates a complete test environment with all handler dependencies.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)
	renderer := testRenderer(t)

	sessions := session.NewStore(vk, false)
	profiles := store.NewProfileStore(db)
	projects := store.NewProjectStore(db)
	grants := store.NewGrantStore(db)
	submissions := store.NewSubmissionStore(db)
	pageCache := cache.NewPageCache(vk, time.Minute)
	provider := &fakeProvider{}

	return &testEnv{
		DB:          db,
		Valkey:      vk,
		Renderer:    renderer,
		Sessions:    sessions,
		Profiles:    profiles,
		Projects:    projects,
		Grants:      grants,
		Submissions: submissions,
		PageCache:   pageCache,
		Provider:    provider,
		Public:      NewPublic(renderer, profiles, projects, grants, submissions, pageCache),
		Auth: NewAuth(renderer, sessions, profiles, AuthConfig{
			Provider:  provider,
			PageCache: pageCache,
			IsAdmin:   func(login string) bool { return strings.HasPrefix(login, "boss-") },
		}),
		Member: NewMember(renderer, sessions, profiles, projects, grants, submissions, pageCache),
		Admin:  NewAdmin(renderer, grants, pageCache),
	}
}

// testMember creates a throwaway profile removed, with everything it owns,
// when the test finishes.
func testMember(t *testing.T, env *testEnv, admin bool) *models.Profile {
	t.Helper()

	id := "test-" + uuid.NewString()[:8]
	p, _, err := env.Profiles.UpsertFromGitHub(context.Background(), id, id, "Test "+id, admin)
	if err != nil {
		t.Fatalf("create test profile: %v", err)
	}
	t.Cleanup(func() { cleanProfiles(env.DB, p.GitHubID) })
	return p
}

// cleanProfiles removes test profiles by GitHub ID. Projects and
// submissions cascade.
func cleanProfiles(db *sql.DB, githubIDs ...string) {
	for _, id := range githubIDs {
		db.Exec("DELETE FROM grants WHERE created_by = (SELECT id FROM profiles WHERE github_id = $1)", id)
		db.Exec("DELETE FROM profiles WHERE github_id = $1", id)
	}
}

// sessionFor builds the session payload of a profile.
func sessionFor(p *models.Profile) *session.Data {
	return &session.Data{
		ProfileID:   p.ID,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		Role:        string(p.Role),
	}
}

// newForm builds a form POST request.
func newForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// withSession adds session data to the request context.
func withSession(r *http.Request, sess *session.Data) *http.Request {
	return r.WithContext(middleware.WithSession(r.Context(), sess))
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// cookieNamed returns the named cookie set on the response, or nil.
func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
