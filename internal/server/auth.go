package server

import (
	"errors"
	"strconv"
	"strings"

	"auctions/internal/cache"
	"auctions/internal/middleware"
	"auctions/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer   = "auctions-api"
	tokenAudience = "auctions-client"
)

// tokenIdentity is what a validated token tells us about the caller.
type tokenIdentity struct {
	UserID   uint
	Username string
	JTI      string
	Claims   jwt.MapClaims
}

var (
	errMissingToken = errors.New("authorization required")
	errBadToken     = errors.New("invalid or expired token")
)

// bearerToken reads "Authorization: Bearer <token>".
func bearerToken(c *fiber.Ctx) string {
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// parseToken validates signature, expiry, issuer, audience and subject.
func (s *Server) parseToken(tokenString string) (*tokenIdentity, error) {
	if tokenString == "" {
		return nil, errMissingToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, errBadToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errBadToken
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, errBadToken
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return nil, errBadToken
	}

	username, _ := claims["username"].(string)
	if username == "" {
		return nil, errBadToken
	}
	jti, _ := claims["jti"].(string)

	return &tokenIdentity{
		UserID:   uint(userID),
		Username: username,
		JTI:      jti,
		Claims:   claims,
	}, nil
}

// isRevoked reports whether the token was logged out. Without Redis nothing is revoked.
func (s *Server) isRevoked(c *fiber.Ctx, jti string) bool {
	if jti == "" || s.redis == nil {
		return false
	}
	n, err := s.redis.Exists(c.UserContext(), cache.RevokedTokenKey(jti)).Result()
	return err == nil && n > 0
}

func (s *Server) setIdentity(c *fiber.Ctx, id *tokenIdentity) {
	c.Locals("userID", id.UserID)
	c.Locals("username", id.Username)
	c.Locals("jti", id.JTI)
	c.Locals("claims", id.Claims)
	c.SetUserContext(middleware.EnrichContext(c))
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := s.parseToken(bearerToken(c))
		if err != nil {
			msg := "Invalid or expired token"
			if errors.Is(err, errMissingToken) {
				msg = "Authorization required"
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError(msg))
		}

		if s.isRevoked(c, id.JTI) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token has been revoked"))
		}

		s.setIdentity(c, id)
		return c.Next()
	}
}

// optionalUsername returns the caller's username when a valid token is present, without enforcing it.
func (s *Server) optionalUsername(c *fiber.Ctx) string {
	id, err := s.parseToken(bearerToken(c))
	if err != nil || s.isRevoked(c, id.JTI) {
		return ""
	}
	s.setIdentity(c, id)
	return id.Username
}
