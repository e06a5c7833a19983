package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"reviewhub/internal/config"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/permissions"
	"reviewhub/internal/http-api/repository"
	"reviewhub/internal/mail"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidUsername = errors.New("username may contain letters, digits and . @ + - only, and cannot be the reserved word")
	ErrUsernameTaken   = errors.New("username already in use")
	ErrEmailTaken      = errors.New("email already in use")
	ErrInvalidCode     = errors.New("invalid username or confirmation code")
	ErrInvalidToken    = errors.New("invalid token")
	ErrDeliveryFailed  = errors.New("confirmation email could not be delivered")
)

// code range matches the issued message format: always 5 digits
const (
	confirmationCodeMin = 10001
	confirmationCodeMax = 99999
)

const tokenIssuer = "reviewhub"

var usernameRE = regexp.MustCompile(`^[a-zA-Z0-9.@+-]+$`)

// dummy bcrypt hash compared against when the username does not exist,
// so unknown usernames take as long as wrong codes
const dummyCodeHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOHi6VbU5h6K9v8u5rO0m3j0h6dX5r8e"

// Claims carried by every access token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	// SignUp issues a confirmation code for the claimed identity and
	// mails it. Calling again with the same pair re-issues a fresh code.
	SignUp(ctx context.Context, username, email string) (*models.User, error)
	// IssueToken exchanges a confirmation code for an access token.
	// Each issued code can be exchanged exactly once.
	IssueToken(ctx context.Context, username, code string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	userRepo       repository.UserRepository
	mailer         mail.Dispatcher
	policy         permissions.Policy
	jwtSecret      string
	accessTokenTTL time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	mailer mail.Dispatcher,
	policy permissions.Policy,
	cfg *config.Config,
) AuthService {
	return &authService{
		userRepo:       userRepo,
		mailer:         mailer,
		policy:         policy,
		jwtSecret:      cfg.JWTSecret,
		accessTokenTTL: cfg.AccessTokenTTL,
	}
}

func (s *authService) SignUp(ctx context.Context, username, email string) (*models.User, error) {
	if err := validateUsername(s.policy, username); err != nil {
		return nil, err
	}

	byName, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	byEmail, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// a collision against a different identity is a conflict; the exact
	// same (username, email) pair means re-issue
	if byName != nil && byName.Email != email {
		return nil, ErrUsernameTaken
	}
	if byEmail != nil && byEmail.Username != username {
		return nil, ErrEmailTaken
	}

	code, err := generateConfirmationCode()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := byName
	if user == nil {
		user = &models.User{
			Username:             username,
			Email:                email,
			Role:                 models.RoleUser,
			ConfirmationCodeHash: string(hash),
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			// two concurrent sign-ups collided: the unique index picks
			// the winner, the constraint name tells us which field
			if conflict := identityConflict(err); conflict != nil {
				return nil, conflict
			}
			return nil, err
		}
	} else {
		// the previously issued code stops working the moment the new
		// hash lands; the write is a single UPDATE
		if err := s.userRepo.SetConfirmationCodeHash(ctx, user.ID, string(hash)); err != nil {
			return nil, err
		}
	}

	body := fmt.Sprintf("Your confirmation code is %s. Enjoy!", code)
	if err := s.mailer.Send(ctx, email, "ReviewHub verification", body); err != nil {
		// the code stays persisted; signing up again re-issues and
		// re-sends, so the caller is never stuck
		return user, ErrDeliveryFailed
	}

	return user, nil
}

func (s *authService) IssueToken(ctx context.Context, username, code string) (string, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			bcrypt.CompareHashAndPassword([]byte(dummyCodeHash), []byte(code))
			return "", ErrInvalidCode
		}
		return "", err
	}

	// empty hash means no outstanding code (never issued, or consumed)
	if user.ConfirmationCodeHash == "" {
		bcrypt.CompareHashAndPassword([]byte(dummyCodeHash), []byte(code))
		return "", ErrInvalidCode
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.ConfirmationCodeHash), []byte(code)); err != nil {
		return "", ErrInvalidCode
	}

	// consume before signing; the guarded UPDATE means a concurrent
	// exchange of the same code loses here
	consumed, err := s.userRepo.ConsumeConfirmationCode(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if !consumed {
		return "", ErrInvalidCode
	}

	return s.generateAccessToken(user)
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != tokenIssuer || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func validateUsername(policy permissions.Policy, username string) error {
	if username == policy.ReservedUsername || !usernameRE.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// identityConflict maps a users-table unique violation to the taken
// field, or nil when err is something else.
func identityConflict(err error) error {
	if !repository.IsUniqueViolation(err) {
		return nil
	}
	if strings.Contains(repository.UniqueViolationConstraint(err), "email") {
		return ErrEmailTaken
	}
	return ErrUsernameTaken
}

func generateConfirmationCode() (string, error) {
	span := big.NewInt(confirmationCodeMax - confirmationCodeMin + 1)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("generate confirmation code: %w", err)
	}
	return strconv.FormatInt(confirmationCodeMin+n.Int64(), 10), nil
}
