package services

import (
	"errors"
	"strings"
	"time"

	"civicform-backend/internal/apperr"
	"civicform-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	db        *gorm.DB
	jwtSecret []byte
}

func NewAuthService(db *gorm.DB, jwtSecret string) *AuthService {
	return &AuthService{db: db, jwtSecret: []byte(jwtSecret)}
}

type RegisterInput struct {
	Phone         string `json:"phone"`
	FullName      string `json:"full_name"`
	Password      string `json:"password"`
	WardNumberID  *uint  `json:"ward_number_id"`
	BoothNumberID *uint  `json:"booth_number_id"`
}

func (s *AuthService) Register(input RegisterInput) (string, error) {
	if strings.TrimSpace(input.Phone) == "" || strings.TrimSpace(input.Password) == "" {
		return "", apperr.BadRequest("phone and password are required")
	}

	var existing models.User
	if err := s.db.Where("phone = ?", input.Phone).First(&existing).Error; err == nil {
		return "", apperr.Conflict("phone already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	user := models.User{
		Phone:         strings.TrimSpace(input.Phone),
		FullName:      strings.TrimSpace(input.FullName),
		PasswordHash:  string(hash),
		WardNumberID:  input.WardNumberID,
		BoothNumberID: input.BoothNumberID,
		Status:        models.StatusActive,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return "", err
	}

	return s.GenerateToken(user.ID)
}

func (s *AuthService) Login(phone, password string) (string, error) {
	var user models.User
	if err := s.db.Where("phone = ? AND status = ?", phone, models.StatusActive).First(&user).Error; err != nil {
		return "", apperr.Unauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperr.Unauthorized("invalid credentials")
	}

	return s.GenerateToken(user.ID)
}

func (s *AuthService) GenerateToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) ValidateToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid claims")
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, errors.New("invalid user_id in token")
	}

	return uint(userIDFloat), nil
}
