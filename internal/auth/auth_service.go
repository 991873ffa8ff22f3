package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	autherrors "leave-portal/internal/auth/errors"
	"leave-portal/internal/session"
)

const pgUniqueViolation = "23505"

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	Login(ctx context.Context, email, password string) (LoginResponse, error)
	Register(ctx context.Context, req RegisterRequest) (AuthResponse, error)
	GetMe(ctx context.Context, userID uuid.UUID) (AuthResponse, error)
	Logout(ctx context.Context, id session.Identity) error
}

type service struct {
	repo    Repository
	issuer  *session.TokenIssuer
	revoker session.Revoker
	logger  *zap.Logger
}

func NewService(repo Repository, issuer *session.TokenIssuer, revoker session.Revoker, logger ...*zap.Logger) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	return &service{repo: repo, issuer: issuer, revoker: revoker, logger: l}
}

func (s *service) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("login lookup failed", zap.Error(err))
			return LoginResponse{}, err
		}
		return LoginResponse{}, autherrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return LoginResponse{}, autherrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return LoginResponse{}, autherrors.ErrUserInactive
	}

	token, _, err := s.issuer.Issue(user.Identity())
	if err != nil {
		s.logger.Error("login token generation failed", zap.Error(err))
		return LoginResponse{}, autherrors.ErrTokenGenerationFailed
	}

	s.logger.Info("login success", zap.String("user_id", user.ID.String()))
	return LoginResponse{
		User:        toAuthResponse(*user),
		AccessToken: token,
		ExpiresIn:   int64(s.issuer.TTL().Seconds()),
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResponse{}, err
	}

	user := &User{
		ID:        uuid.New(),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Password:  string(hashed),
		IsManager: req.IsManager,
		IsActive:  true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return AuthResponse{}, autherrors.ErrEmailAlreadyRegistered
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return AuthResponse{}, autherrors.ErrEmailAlreadyRegistered
		}
		s.logger.Error("register persist failed", zap.Error(err))
		return AuthResponse{}, err
	}

	s.logger.Info("register success",
		zap.String("user_id", user.ID.String()),
		zap.Bool("is_manager", user.IsManager),
	)
	return toAuthResponse(*user), nil
}

func (s *service) GetMe(ctx context.Context, userID uuid.UUID) (AuthResponse, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AuthResponse{}, autherrors.ErrUserNotFound
		}
		return AuthResponse{}, err
	}
	return toAuthResponse(*u), nil
}

// Logout revokes the token for the rest of its lifetime. Tokens are never
// older than the issuer TTL, so that bounds the revocation entry.
func (s *service) Logout(ctx context.Context, id session.Identity) error {
	if s.revoker == nil || id.TokenID == "" {
		return nil
	}
	if err := s.revoker.Revoke(ctx, id.TokenID, s.issuer.TTL()); err != nil {
		s.logger.Error("logout revoke failed", zap.String("user_id", id.UserID.String()), zap.Error(err))
		return err
	}
	s.logger.Info("logout success", zap.String("user_id", id.UserID.String()))
	return nil
}
