package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"comandapos/server/internal/domain"
	"comandapos/server/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// AdminUsername - пользователь, который создается на пустой БД
const AdminUsername = "admin"

var insecureSecret = regexp.MustCompile(`(?i)change-me|dev-secret|default|example|test|1234|password`)

// Options - параметры входа и токенов
type Options struct {
	Secret            string
	TTL               time.Duration // время жизни токена; <= 0 - 15 минут
	MinPasswordLength int           // <= 0 - 8
	Production        bool          // в production слабый секрет - ошибка старта
	BcryptCost        int           // 0 - bcrypt.DefaultCost
}

// Token - выданный токен
type Token struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PasswordPolicy - требования к новому паролю
type PasswordPolicy struct {
	MinLength       int  `json:"min_length"`
	RequiresLetters bool `json:"requires_letters"`
	RequiresNumbers bool `json:"requires_numbers"`
	DisallowSpaces  bool `json:"disallow_spaces"`
}

// SecurityConfig - что видит админка о настройках безопасности
type SecurityConfig struct {
	PasswordPolicy PasswordPolicy `json:"password_policy"`
	TokenTTL       string         `json:"token_ttl"`
	SecretStrong   bool           `json:"secret_strong"`
}

// Service выдает и проверяет JWT (HS256), хранит пароли в bcrypt
type Service struct {
	users Users
	opts  Options
	now   func() time.Time
}

// NewService проверяет секрет и собирает сервис
func NewService(users Users, opts Options) (*Service, error) {
	if opts.TTL <= 0 {
		opts.TTL = 15 * time.Minute
	}
	if opts.MinPasswordLength <= 0 {
		opts.MinPasswordLength = 8
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Secret == "" {
		return nil, errors.New("JWT secret is empty")
	}
	if opts.Production && !SecretStrong(opts.Secret) {
		return nil, errors.New("insecure JWT_SECRET for production: use at least 32 chars without default patterns")
	}
	return &Service{users: users, opts: opts, now: time.Now}, nil
}

// SecretStrong - не короче 32 символов и без типовых подстрок
func SecretStrong(secret string) bool {
	return len(secret) >= 32 && !insecureSecret.MatchString(secret)
}

// ValidatePassword проверяет политику: длина, буквы и цифры, без пробелов
func (s *Service) ValidatePassword(password string) error {
	if len([]rune(password)) < s.opts.MinPasswordLength {
		return domain.Validationf("пароль должен быть не короче %d символов", s.opts.MinPasswordLength)
	}
	var letters, digits bool
	for _, r := range password {
		switch {
		case unicode.IsSpace(r):
			return domain.Validationf("пароль не должен содержать пробелов")
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			letters = true
		case r < unicode.MaxASCII && unicode.IsDigit(r):
			digits = true
		}
	}
	if !letters || !digits {
		return domain.Validationf("пароль должен содержать буквы и цифры")
	}
	return nil
}

// Bootstrap создает admin на пустой таблице пользователей.
// В production пароль обязан пройти политику.
func (s *Service) Bootstrap(ctx context.Context, password string) error {
	n, err := s.users.CountUsers(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if s.opts.Production {
		if err := s.ValidatePassword(password); err != nil {
			return fmt.Errorf("ADMIN_BOOTSTRAP_PASSWORD: %w", err)
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	created, err := s.users.CreateFirstUser(ctx, models.User{Username: AdminUsername, PasswordHash: string(hash)})
	if err != nil {
		return err
	}
	if created {
		log.Info().Str("username", AdminUsername).Msg("🌱 Администратор создан")
	}
	return nil
}

// Login проверяет пароль и выдает новый токен. Тот же вызов служит повторной
// аутентификацией.
func (s *Service) Login(ctx context.Context, username, password string) (Token, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Token{}, domain.Validationf("нужны логин и пароль")
	}
	if err := s.checkPassword(ctx, username, password); err != nil {
		return Token{}, err
	}
	return s.Issue(username)
}

// ChangePassword меняет пароль после проверки текущего
func (s *Service) ChangePassword(ctx context.Context, username, current, next string) error {
	if current == "" || next == "" {
		return domain.Validationf("нужны текущий и новый пароль")
	}
	if err := s.ValidatePassword(next); err != nil {
		return err
	}
	if err := s.checkPassword(ctx, username, current); err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			return err
		}
		return &domain.UnauthorizedError{Message: "текущий пароль неверен"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.opts.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.users.UpdatePasswordHash(ctx, username, string(hash))
}

func (s *Service) checkPassword(ctx context.Context, username, password string) error {
	u, err := s.users.FindUser(ctx, username)
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			return &domain.UnauthorizedError{Message: "неверный логин или пароль"}
		}
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return &domain.UnauthorizedError{Message: "неверный логин или пароль"}
	}
	return nil
}

// Issue подписывает токен для пользователя
func (s *Service) Issue(username string) (Token, error) {
	now := s.now()
	exp := now.Add(s.opts.TTL)
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.opts.Secret))
	if err != nil {
		return Token{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return Token{Token: signed, Username: username, ExpiresAt: exp}, nil
}

// Verify проверяет подпись и срок и возвращает имя пользователя
func (s *Service) Verify(token string) (string, error) {
	if token == "" {
		return "", &domain.UnauthorizedError{Message: "Unauthorized"}
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.opts.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || claims.Subject == "" {
		return "", &domain.UnauthorizedError{Message: "Invalid token"}
	}
	return claims.Subject, nil
}

// SecurityConfig - текущие настройки без секрета
func (s *Service) SecurityConfig() SecurityConfig {
	return SecurityConfig{
		PasswordPolicy: PasswordPolicy{
			MinLength:       s.opts.MinPasswordLength,
			RequiresLetters: true,
			RequiresNumbers: true,
			DisallowSpaces:  true,
		},
		TokenTTL:     s.opts.TTL.String(),
		SecretStrong: SecretStrong(s.opts.Secret),
	}
}
