package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"marketplace-api/internal/middleware"
	"marketplace-api/internal/models"
	"marketplace-api/internal/repository"
)

const tokenTTL = 24 * time.Hour

type AuthHandler struct {
	users     *repository.UserRepository
	jwtSecret string
	log       *logrus.Logger
}

func NewAuthHandler(users *repository.UserRepository, jwtSecret string, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{users: users, jwtSecret: jwtSecret, log: log}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing/invalid fields"})
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || len(req.Password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing/invalid fields"})
		return
	}

	// admin no se asigna por registro
	role := models.RoleUser
	if req.Role == models.RoleSeller {
		role = models.RoleSeller
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to register"})
		return
	}

	user := models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hash),
		Role:     role,
	}

	if err := h.users.Create(c.Request.Context(), &user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"message": "Email already registered"})
			return
		}
		h.log.WithError(err).Error("user create failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to register"})
		return
	}

	token, err := middleware.GenerateToken(h.jwtSecret, user.ID.Hex(), user.Role, tokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to register"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing/invalid fields"})
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
			return
		}
		h.log.WithError(err).Error("user lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to login"})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	token, err := middleware.GenerateToken(h.jwtSecret, user.ID.Hex(), user.Role, tokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to login"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}
