package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"busticket/internal/domain"
	"busticket/internal/repositories"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/login
func Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_payload", "email and password are required", nil)
		return
	}

	repo := repositories.UserRepository{}
	user, hash, err := repo.GetByEmail(req.Email)
	if err != nil {
		if domain.IsNotFound(err) {
			respondError(c, http.StatusUnauthorized, "invalid_credentials", "wrong email or password", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to query user", nil)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, "invalid_credentials", "wrong email or password", nil)
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(currentEnv().JWTSecret))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to sign token", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": signed,
		"user":  user,
	})
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=6"`
}

// POST /api/auth/register
func Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_payload", "name, email and password (min 6 chars) are required", nil)
		return
	}

	repo := repositories.UserRepository{}
	taken, err := repo.EmailTaken(req.Email)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to check email", nil)
		return
	}
	if taken {
		respondError(c, http.StatusBadRequest, "email_taken", "email already registered", nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to hash password", nil)
		return
	}

	id, err := repo.Create(req.Name, req.Email, req.Phone, string(hash), domain.RoleCustomer)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to store user", nil)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "registration successful",
		"user": gin.H{
			"id":    id,
			"name":  req.Name,
			"email": req.Email,
			"phone": req.Phone,
			"role":  domain.RoleCustomer,
		},
	})
}
