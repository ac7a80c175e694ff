package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("secret", "inventory-engine")

	token, err := m.GenerateActorToken("2f1c8a2e-7d4b-4f0e-9c1a-5b6d7e8f9a0b", "operator", time.Hour)
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "2f1c8a2e-7d4b-4f0e-9c1a-5b6d7e8f9a0b", claims.ActorID)
	assert.Equal(t, "operator", claims.Role)
	assert.Equal(t, "inventory-engine", claims.Issuer)
}

func TestManager_RejectsForeignSecretAndExpired(t *testing.T) {
	m := NewManager("secret", "inventory-engine")
	other := NewManager("other", "inventory-engine")

	token, err := other.GenerateActorToken("a", "operator", time.Hour)
	require.NoError(t, err)
	_, err = m.ValidateAccessToken(token)
	assert.Error(t, err)

	expired, err := m.GenerateActorToken("a", "operator", -time.Minute)
	require.NoError(t, err)
	_, err = m.ValidateAccessToken(expired)
	assert.Error(t, err)
}
