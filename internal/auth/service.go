package auth

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/voacom/commercial-intelligence-system/internal/model"
	"github.com/voacom/commercial-intelligence-system/internal/repository"
)

// Token はログイン成功時に返すアクセストークン。
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Service は認証フローを実装する。
type Service struct {
	users  repository.UserRepository
	tokens *TokenManager
	logger *slog.Logger
}

// NewService はServiceを生成する。
func NewService(users repository.UserRepository, tokens *TokenManager, logger *slog.Logger) *Service {
	return &Service{users: users, tokens: tokens, logger: logger}
}

// Login は認証情報を検証しアクセストークンを発行する。
// ユーザー不在とパスワード不一致はどちらも同じInvalidCredentialsを
// 返し、メールアドレスの存在を露出しない。
func (s *Service) Login(ctx context.Context, email, password string) (*Token, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == "" {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login rejected", slog.String("email", email))
		return nil, model.NewInvalidCredentialsError()
	}

	signed, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, err
	}

	s.logger.Info("login succeeded", slog.String("user_id", user.ID))
	return &Token{AccessToken: signed, TokenType: "bearer"}, nil
}

// Authenticate はアクセストークンを検証し、該当ユーザーを解決する。
// トークンが有効でもユーザーが既に存在しない場合はUnauthorizedを
// 返す。NotFoundにするとトークン窃取時にユーザー列挙の手がかりになる。
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*model.User, error) {
	email, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}
	return user, nil
}
