package counter

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autentika/leadgate/internal/pkg/cache"
)

func setupTestCache(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	t.Setenv("CACHE_HOST", mr.Host())
	t.Setenv("CACHE_PORT", mr.Port())
	cache.SetupCache()
	return mr
}

func TestAddIntakeAccumulatesPerPage(t *testing.T) {
	setupTestCache(t)

	require.NoError(t, AddIntake(1))
	require.NoError(t, AddIntake(1))
	require.NoError(t, AddIntake(2))

	ctx := context.Background()
	entries, err := cache.GetClient().HGetAll(ctx, intakeKey).Result()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "2", "2": "1"}, entries)
}

func TestAddSpamIsGlobal(t *testing.T) {
	setupTestCache(t)

	require.NoError(t, AddSpam())
	require.NoError(t, AddSpam())
	require.NoError(t, AddSpam())

	total, err := SpamTotal()
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}
