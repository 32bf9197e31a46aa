package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/arnavshah/trip-planner-go/internal/config"
	"github.com/arnavshah/trip-planner-go/pkg/database"
)

func testAuth() *Authenticator {
	return New(config.AuthConfig{
		JWTSecret:       "jwt-secret",
		APIMasterSecret: "master-secret",
		TokenTTLHours:   1,
		BcryptCost:      bcrypt.MinCost,
	})
}

func TestToken_RoundTrip(t *testing.T) {
	a := testAuth()

	token, err := a.CreateToken("admin")
	require.NoError(t, err)
	claims, err := a.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
}

func TestToken_Rejected(t *testing.T) {
	a := testAuth()
	token, err := a.CreateToken("admin")
	require.NoError(t, err)

	other := New(config.AuthConfig{JWTSecret: "different"})
	_, err = other.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	a.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := a.CreateToken("admin")
	require.NoError(t, err)
	_, err = testAuth().VerifyToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = New(config.AuthConfig{}).CreateToken("admin")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestHMACKey(t *testing.T) {
	a := testAuth()

	key, err := a.GenerateHMACKey("school-7")
	require.NoError(t, err)
	id, err := a.VerifyHMACKey(key)
	require.NoError(t, err)
	assert.Equal(t, "school-7", id)

	_, err = a.VerifyHMACKey(key + "0")
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = a.VerifyHMACKey("no-dot")
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = a.GenerateHMACKey("a.b")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = New(config.AuthConfig{}).VerifyHMACKey(key)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestPasswordHash(t *testing.T) {
	a := testAuth()
	hash, err := a.HashPassword("hunter2")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("hunter2", hash))
	assert.False(t, CheckPasswordHash("hunter3", hash))
}

func TestEnsureAdminExists(t *testing.T) {
	db, err := database.Open("", "file:auth_admin?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	store := database.NewStore(db)
	a := testAuth()

	require.NoError(t, a.EnsureAdminExists(store, "root", "pw", nil))
	require.NoError(t, a.EnsureAdminExists(store, "other", "pw", nil))

	n, err := store.CountUsers()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	user, err := store.FindUser("root")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("pw", user.PasswordHash))
}
