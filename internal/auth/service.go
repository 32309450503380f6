// Package auth はドライバーアカウントの登録・ログインとトークン発行を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/drivescore/internal/model"
	"github.com/hitoshi/drivescore/internal/repository"
	"github.com/hitoshi/drivescore/internal/security"
)

// MinPasswordLength はパスワードの最小文字数。
const MinPasswordLength = 6

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^[0-9+\-\s()]*$`)
)

// RegisterInput はアカウント登録の入力。
type RegisterInput struct {
	Username string
	Email    string
	Phone    string
	Password string
}

// LoginResult はログイン成功時の結果。
type LoginResult struct {
	User  *model.User
	Token string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	users     repository.UserRepository
	hasher    PasswordHasher
	tokens    *TokenIssuer
	sanitizer security.TextSanitizer
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	users repository.UserRepository,
	hasher PasswordHasher,
	tokens *TokenIssuer,
	sanitizer security.TextSanitizer,
) *Service {
	return &Service{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// Register は新しいドライバーアカウントを作成する。
// ユーザー名・メールアドレスの一意性はストアの制約に委ね、重複時はACCOUNT_EXISTSを返す。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	phone := strings.TrimSpace(in.Phone)
	password := in.Password

	var missing []string
	if username == "" {
		missing = append(missing, "username")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(password) == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, model.NewMissingFieldError(missing...)
	}

	if !emailPattern.MatchString(email) {
		return nil, model.NewInvalidEmailError()
	}
	if !phonePattern.MatchString(phone) {
		return nil, model.NewInvalidPhoneError()
	}
	if len([]rune(password)) < MinPasswordLength {
		return nil, model.NewWeakPasswordError(MinPasswordLength)
	}
	if s.sanitizer.ContainsMarkup(username) {
		return nil, model.NewInvalidUsernameError()
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewAccountExistsError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("account created",
		slog.String("user_id", user.ID),
	)
	return user, nil
}

// Login はメールアドレスとパスワードを照合し、トークンを発行する。
// 未登録のメールアドレスとパスワード不一致は区別して返す。
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var missing []string
	if email == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, model.NewMissingFieldError(missing...)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewEmailNotFoundError()
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		slog.Warn("login failed",
			slog.String("user_id", user.ID),
			slog.String("reason", "wrong_password"),
		)
		return nil, model.NewWrongPasswordError()
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: user, Token: token}, nil
}
