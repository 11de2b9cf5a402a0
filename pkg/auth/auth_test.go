package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() JWTConfig {
	return JWTConfig{
		SecretKey:  "test-secret",
		Issuer:     "schemagraph",
		Audience:   []string{"schemagraph-api"},
		ExpiryTime: time.Hour,
	}
}

func TestJWT_RoundTrip(t *testing.T) {
	generator, err := NewJWTGenerator(testConfig())
	require.NoError(t, err)
	validator, err := NewJWTValidator(testConfig())
	require.NoError(t, err)

	token, err := generator.GenerateToken("user-1", "ann")
	require.NoError(t, err)

	claims, err := validator.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ann", claims.Username)
	assert.Equal(t, "schemagraph", claims.Issuer)
}

func TestJWT_Rejections(t *testing.T) {
	validator, err := NewJWTValidator(testConfig())
	require.NoError(t, err)

	t.Run("missing token", func(t *testing.T) {
		_, err := validator.ValidateToken("Bearer ")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("expired token", func(t *testing.T) {
		generator, err := NewJWTGenerator(testConfig())
		require.NoError(t, err)
		generator.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

		token, err := generator.GenerateToken("user-1", "ann")
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		cfg := testConfig()
		cfg.SecretKey = "other-secret"
		generator, err := NewJWTGenerator(cfg)
		require.NoError(t, err)

		token, err := generator.GenerateToken("user-1", "ann")
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("wrong audience", func(t *testing.T) {
		cfg := testConfig()
		cfg.Audience = []string{"someone-else"}
		generator, err := NewJWTGenerator(cfg)
		require.NoError(t, err)

		token, err := generator.GenerateToken("user-1", "ann")
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})

	t.Run("unsigned token", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user-1"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		claims, err := validator.ValidateToken(token)
		assert.Error(t, err)
		assert.Nil(t, claims)
	})
}

func TestNewJWTGenerator_RequiresSecret(t *testing.T) {
	_, err := NewJWTGenerator(JWTConfig{})
	assert.Error(t, err)
	_, err = NewJWTValidator(JWTConfig{})
	assert.Error(t, err)
}

func TestUserContext(t *testing.T) {
	_, err := GetUserFromContext(context.Background())
	assert.Error(t, err)

	ctx := SetUserInContext(context.Background(), &UserContext{UserID: "u1", Username: "ann"})
	user, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ann", user.Username)
}

func TestSlidingWindowLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewSlidingWindowLimiter(2, time.Minute)
	limiter.now = func() time.Time { return now }

	allowed, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed)
	allowed, _ = limiter.Allow(ctx, "k")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow(ctx, "k")
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, limiter.RetryAfter("k"))

	allowed, _ = limiter.Allow(ctx, "other")
	assert.True(t, allowed)

	now = now.Add(61 * time.Second)
	allowed, _ = limiter.Allow(ctx, "k")
	assert.True(t, allowed)

	require.NoError(t, limiter.Reset(ctx, "k"))
	assert.Equal(t, time.Duration(0), limiter.RetryAfter("k"))
}

func TestSlidingWindowLimiter_SweptWindowIsNotReused(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewSlidingWindowLimiter(5, time.Minute)
	limiter.now = func() time.Time { return now }

	stale := limiter.windowFor("k", now)

	now = now.Add(2 * time.Minute)
	allowed, err := limiter.Allow(ctx, "other")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.True(t, stale.retired)

	allowed, _ = limiter.Allow(ctx, "k")
	assert.True(t, allowed)

	live := limiter.windows["k"]
	require.NotNil(t, live)
	assert.NotSame(t, stale, live)
	assert.Len(t, live.requests, 1)
	assert.Empty(t, stale.requests)
}

func TestSlidingWindowLimiter_ConcurrentHitsAreCounted(t *testing.T) {
	ctx := context.Background()
	limiter := NewSlidingWindowLimiter(100, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 15; j++ {
				_, _ = limiter.Allow(ctx, "k")
			}
		}()
	}
	wg.Wait()

	allowed, _ := limiter.Allow(ctx, "k")
	assert.False(t, allowed)
	assert.Len(t, limiter.windows["k"].requests, 100)
}
