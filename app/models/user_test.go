package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	t.Parallel()

	u, err := CreateUser(1, "Maria Souza", "maria@autentika.com.br", "segredo123", ROLE_OWNER)
	require.NoError(t, err)
	assert.True(t, u.IsActive())
	assert.True(t, u.IsOwner())
	assert.True(t, u.CheckPassword("segredo123"))
	assert.False(t, u.CheckPassword("errada"))

	_, err = CreateUser(1, "Maria Souza", "not-an-email", "segredo123", ROLE_MEMBER)
	assert.Error(t, err)
}

func TestGenerateAPIKey(t *testing.T) {
	t.Parallel()

	u := &User{}
	raw, err := u.GenerateAPIKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(raw, "lg_"))
	assert.Equal(t, HashAPIKey(raw), u.APIKeyHash)
	assert.Equal(t, raw[:16], u.APIKeyPrefix)
	assert.Nil(t, u.APIKeyLastUsedAt)

	// The raw key is never stored.
	assert.NotContains(t, u.APIKeyHash, raw)
}

func TestHashAPIKeyTrimsWhitespace(t *testing.T) {
	t.Parallel()

	assert.Equal(t, HashAPIKey("lg_abc"), HashAPIKey("  lg_abc \n"))
	assert.NotEqual(t, HashAPIKey("lg_abc"), HashAPIKey("lg_abd"))
	assert.Len(t, HashAPIKey("lg_abc"), 64)
}
