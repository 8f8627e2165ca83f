//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/meddesert/internal/auth"
	"github.com/agenthands/meddesert/internal/store"
)

func TestRedisSessions(t *testing.T) {
	_ = godotenv.Load("../../.env")

	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("Skipping integration test: REDIS_URL not set")
	}
	ctx := context.Background()

	kv, err := store.NewRedisKVStore(ctx, url)
	require.NoError(t, err)
	defer kv.Close()

	sessions := auth.NewSessions(kv, auth.NewIssuer("integration-secret", time.Minute))
	token, op, err := sessions.Login(ctx)
	require.NoError(t, err)

	got, err := sessions.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, op, *got)

	require.NoError(t, sessions.Logout(ctx, token))
	_, err = sessions.Authenticate(ctx, token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	prefs := &store.Preferences{KV: kv}
	require.NoError(t, prefs.SetTheme(ctx, store.ThemeLight))
	theme, err := prefs.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.ThemeLight, theme)
	require.NoError(t, kv.Delete(ctx, store.PreferenceNamespace, store.ThemeKey))
}
