package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCtxHandler_AddsContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&ctxHandler{slog.NewJSONHandler(&buf, nil)})

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, UsernameKey, "alice")
	logger.With("component", "test").InfoContext(ctx, "hello")

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"username":"alice"`)
	assert.Contains(t, out, `"component":"test"`)
}

func TestContextMiddleware_CopiesLocals(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "rid-42")
		c.Locals("username", "bob")
		return c.Next()
	})
	app.Use(ContextMiddleware())

	var gotRID, gotUser interface{}
	app.Get("/", func(c *fiber.Ctx) error {
		gotRID = c.UserContext().Value(RequestIDKey)
		gotUser = c.UserContext().Value(UsernameKey)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "rid-42", gotRID)
	assert.Equal(t, "bob", gotUser)
}
