package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pote-app/pote-backend/internal/domain"
	"github.com/pote-app/pote-backend/internal/logging"
)

type userRepo interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type profileCreator interface {
	Create(ctx context.Context, profile *domain.Profile) error
}

const welcomeMessage = "Wesh ! T'as encore dépensé ton argent n'importe comment ? Dis-moi tout."

// UserService registers users and seeds their profile with the default
// starting balance plus the assistant's opening message.
type UserService struct {
	users    userRepo
	profiles profileCreator
	messages messageWriter
}

func NewUserService(users userRepo, profiles profileCreator, messages messageWriter) *UserService {
	return &UserService{users: users, profiles: profiles, messages: messages}
}

func (s *UserService) Register(ctx context.Context, email, name, password string) (*domain.User, error) {
	if email == "" || name == "" || password == "" {
		return nil, fmt.Errorf("Register: %w", domain.ErrInvalidRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("Register: hash: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}

	profile := &domain.Profile{
		UserID:    user.ID,
		Balance:   domain.DefaultBalance,
		Currency:  domain.CurrencyEUR,
		Version:   1,
		CreatedAt: now,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("Register: profile: %w", err)
	}

	welcome := &domain.ChatMessage{
		ID:        uuid.New(),
		UserID:    user.ID,
		Sender:    domain.MessageSenderAssistant,
		Body:      welcomeMessage,
		Sentiment: sentimentPtr(domain.SentimentSarcastic),
		CreatedAt: now,
	}
	if err := s.messages.Create(ctx, welcome); err != nil {
		logging.FromContext(ctx).Error("failed to store welcome message", "error", err, "user_id", user.ID)
	}

	logging.FromContext(ctx).Info("user registered", "user_id", user.ID)

	return user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("GetByEmail: %w", err)
	}
	return user, nil
}
