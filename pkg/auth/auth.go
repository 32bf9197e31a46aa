package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/arnavshah/trip-planner-go/internal/config"
	"github.com/arnavshah/trip-planner-go/pkg/database"
)

var (
	ErrMissingSecret = errors.New("auth: secret is not configured")
	ErrInvalidToken  = errors.New("auth: invalid token")
	ErrInvalidKey    = errors.New("auth: invalid api key")
)

var jwtAlgorithm = jwt.SigningMethodHS256

// Claims represents the JWT claims
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Authenticator signs admin tokens and API keys with the configured secrets
type Authenticator struct {
	jwtSecret  []byte
	apiSecret  []byte
	tokenTTL   time.Duration
	bcryptCost int
	now        func() time.Time
}

// New creates an Authenticator from the auth section of the config
func New(cfg config.AuthConfig) *Authenticator {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	ttl := time.Duration(cfg.TokenTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Authenticator{
		jwtSecret:  []byte(cfg.JWTSecret),
		apiSecret:  []byte(cfg.APIMasterSecret),
		tokenTTL:   ttl,
		bcryptCost: cost,
		now:        time.Now,
	}
}

// HashPassword hashes a password using bcrypt
func (a *Authenticator) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), a.bcryptCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CreateToken creates a new JWT token for a user
func (a *Authenticator) CreateToken(username string) (string, error) {
	if len(a.jwtSecret) == 0 {
		return "", fmt.Errorf("%w: JWT_SECRET", ErrMissingSecret)
	}
	now := a.now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwtAlgorithm, claims)
	return token.SignedString(a.jwtSecret)
}

// VerifyToken verifies a JWT token
func (a *Authenticator) VerifyToken(tokenString string) (*Claims, error) {
	if len(a.jwtSecret) == 0 {
		return nil, fmt.Errorf("%w: JWT_SECRET", ErrMissingSecret)
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwtAlgorithm {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// EnsureAdminExists creates the initial admin account when none exists
func (a *Authenticator) EnsureAdminExists(store *database.Store, username, password string, logger *zap.Logger) error {
	count, err := store.CountUsers()
	if err != nil || count > 0 {
		return err
	}

	hash, err := a.HashPassword(password)
	if err != nil {
		return err
	}
	if err := store.CreateUser(&database.MasterUser{Username: username, PasswordHash: hash}); err != nil {
		return err
	}
	if logger != nil {
		logger.Info("default admin user created", zap.String("username", username))
	}
	return nil
}

// GenerateHMACKey creates a signed API key of the form "<userID>.<hex sig>"
func (a *Authenticator) GenerateHMACKey(userID string) (string, error) {
	if len(a.apiSecret) == 0 {
		return "", fmt.Errorf("%w: API_MASTER_SECRET", ErrMissingSecret)
	}
	if userID == "" || strings.Contains(userID, ".") {
		return "", fmt.Errorf("%w: key name must be non-empty and contain no dots", ErrInvalidKey)
	}
	return userID + "." + a.sign(userID), nil
}

// VerifyHMACKey validates an HMAC-signed API key and returns its user id
func (a *Authenticator) VerifyHMACKey(key string) (string, error) {
	if len(a.apiSecret) == 0 {
		return "", fmt.Errorf("%w: API_MASTER_SECRET", ErrMissingSecret)
	}
	parts := strings.Split(key, ".")
	if len(parts) != 2 || parts[0] == "" {
		return "", fmt.Errorf("%w: bad format", ErrInvalidKey)
	}

	userID, provided := parts[0], parts[1]
	// constant-time comparison
	if !hmac.Equal([]byte(provided), []byte(a.sign(userID))) {
		return "", fmt.Errorf("%w: bad signature", ErrInvalidKey)
	}
	return userID, nil
}

func (a *Authenticator) sign(userID string) string {
	h := hmac.New(sha256.New, a.apiSecret)
	h.Write([]byte(userID))
	return hex.EncodeToString(h.Sum(nil))
}
