package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"auctions/internal/config"
	"auctions/internal/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

const testPassword = "Passw0rd!"

type testEnv struct {
	server *Server
	app    *fiber.App
	db     *gorm.DB
	mr     *miniredis.Miniredis
}

// newTestEnv builds a full server on SQLite. withRedis adds a miniredis instance.
func newTestEnv(t *testing.T, withRedis bool) *testEnv {
	t.Helper()

	cfg := &config.Config{
		JWTSecret: testSecret,
		Port:      "0",
		Env:       "test",
		DBDriver:  "sqlite",
		DBPath:    fmt.Sprintf("%s/server.db", t.TempDir()),
	}
	db, err := gorm.Open(database.Dialector(cfg), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	env := &testEnv{db: db}
	var rdb *redis.Client
	if withRedis {
		env.mr = miniredis.RunT(t)
		rdb = redis.NewClient(&redis.Options{Addr: env.mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
	}

	s, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)
	s.userService.WithBcryptCost(bcrypt.MinCost)

	env.server = s
	env.app = s.NewApp()
	return env
}

type response struct {
	Status int
	Body   map[string]interface{}
	Raw    []byte
}

func (r response) list(t *testing.T) []interface{} {
	t.Helper()
	var out []interface{}
	require.NoError(t, json.Unmarshal(r.Raw, &out), string(r.Raw))
	return out
}

// do sends a form-encoded request when form is non-nil.
func (e *testEnv) do(t *testing.T, method, path, token string, form url.Values) response {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.send(t, req)
}

// doJSON sends v as a JSON body.
func (e *testEnv) doJSON(t *testing.T, method, path, token string, v interface{}) response {
	t.Helper()

	payload, err := json.Marshal(v)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.send(t, req)
}

func (e *testEnv) send(t *testing.T, req *http.Request) response {
	t.Helper()

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := response{Status: resp.StatusCode, Raw: raw}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out.Body), string(raw))
	}
	return out
}

// register creates a user and returns its token.
func (e *testEnv) register(t *testing.T, username string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/register", "", url.Values{
		"username":     {username},
		"email":        {username + "@example.com"},
		"password":     {testPassword},
		"confirmation": {testPassword},
	})
	require.Equal(t, http.StatusCreated, resp.Status, string(resp.Raw))
	token, ok := resp.Body["token"].(string)
	require.True(t, ok)
	return token
}

// createListing posts a listing as the token's owner and returns its ID.
func (e *testEnv) createListing(t *testing.T, token, title, startingBid, category string) uint {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/create", token, url.Values{
		"title":       {title},
		"bid":         {startingBid},
		"description": {"test listing"},
		"category":    {category},
	})
	require.Equal(t, http.StatusCreated, resp.Status, string(resp.Raw))
	return uint(resp.Body["id"].(float64))
}
