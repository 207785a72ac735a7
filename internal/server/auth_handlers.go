package server

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"auctions/internal/cache"
	"auctions/internal/middleware"
	"auctions/internal/models"
	"auctions/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenTTL = 7 * 24 * time.Hour

type registerRequest struct {
	Username     string `json:"username" form:"username"`
	Email        string `json:"email" form:"email"`
	Password     string `json:"password" form:"password"`
	Confirmation string `json:"confirmation" form:"confirmation"`
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Register godoc
// @Summary Register a new user
// @Description Create an account and return a token
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body registerRequest true "Registration data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Register(c.UserContext(), service.RegisterInput{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		Confirmation: req.Confirmation,
	})
	if err != nil {
		return respondError(c, err)
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Login godoc
// @Summary Log in
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body loginRequest true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} models.ErrorResponse
// @Router /login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Logout godoc
// @Summary Log out
// @Description Revoke the bearer token until it expires
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Router /logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	jti, _ := c.Locals("jti").(string)
	if jti == "" || s.redis == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}

	ttl := tokenTTL
	if claims, ok := c.Locals("claims").(jwt.MapClaims); ok {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			ttl = time.Until(exp.Time)
		}
	}
	if ttl <= 0 {
		return c.SendStatus(fiber.StatusNoContent)
	}

	if err := s.redis.Set(c.UserContext(), cache.RevokedTokenKey(jti), "1", ttl).Err(); err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "failed to revoke token", slog.String("error", err.Error()))
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) generateToken(userID uint, username string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      now.Add(tokenTTL).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      s.generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func (s *Server) generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
