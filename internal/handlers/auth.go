package handlers

import (
	"net/http"

	"civicform-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type RegisterRequest struct {
	Phone         string `json:"phone" binding:"required,min=6,max=20" example:"9876543210"`
	FullName      string `json:"full_name" binding:"required,min=1,max=150" example:"Asha Rao"`
	Password      string `json:"password" binding:"required,min=6" example:"secret123"`
	WardNumberID  *uint  `json:"ward_number_id"`
	BoothNumberID *uint  `json:"booth_number_id"`
}

type LoginRequest struct {
	Phone    string `json:"phone" binding:"required" example:"9876543210"`
	Password string `json:"password" binding:"required" example:"secret123"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// Register godoc
// @Summary      Register a user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration data"
// @Success      201 {object} TokenResponse
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	token, err := h.authService.Register(services.RegisterInput{
		Phone:         req.Phone,
		FullName:      req.FullName,
		Password:      req.Password,
		WardNumberID:  req.WardNumberID,
		BoothNumberID: req.BoothNumberID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, TokenResponse{Token: token})
}

// Login godoc
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200 {object} TokenResponse
// @Failure      401 {object} ErrorResponse
// @Router       /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	token, err := h.authService.Login(req.Phone, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: token})
}
