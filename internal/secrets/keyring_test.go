package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringStore()

	_, err := store.LoadAIKey("gemini")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, store.SaveAIKey("gemini", "g-key"))
	require.NoError(t, store.SaveAIKey("openai", "o-key"))

	key, err := store.LoadAIKey("gemini")
	require.NoError(t, err)
	assert.Equal(t, "g-key", key)

	require.NoError(t, store.DeleteAIKey("gemini"))
	_, err = store.LoadAIKey("gemini")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	key, err = store.LoadAIKey("openai")
	require.NoError(t, err)
	assert.Equal(t, "o-key", key)

	assert.ErrorIs(t, store.DeleteAIKey("gemini"), ErrKeyNotFound)
	assert.Error(t, store.SaveAIKey("deepseek", ""))
}
