package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"talkwave/internal/models"
	"talkwave/internal/repositories"
)

var (
	ErrUserExists      = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user doesn't exist")
	ErrInvalidPassword = errors.New("invalid password")
)

type UserService struct {
	users repositories.UserRepository
	email EmailService
}

func NewUserService(users repositories.UserRepository, email EmailService) *UserService {
	return &UserService{users: users, email: email}
}

func (s *UserService) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return nil, ErrMissingFields
	}

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	pic := req.Pic
	if pic == "" {
		pic = models.DefaultAvatarURL
	}
	user := &models.User{
		Name:     name,
		Email:    email,
		Password: string(hash),
		Pic:      pic,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	// Best-effort; signup never fails on SMTP trouble.
	go func(to, name string) {
		if err := s.email.SendWelcomeEmail(to, name); err != nil {
			log.Printf("[users][signup] welcome email to %s failed: %v", to, err)
		}
	}(user.Email, user.Name)

	return user, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidPassword
	}
	return user, nil
}

// Search matches name or email case-insensitively, excluding the caller.
// An empty keyword lists everyone else.
func (s *UserService) Search(ctx context.Context, keyword string, selfID primitive.ObjectID) ([]models.User, error) {
	return s.users.Search(ctx, keyword, selfID)
}

func (s *UserService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
