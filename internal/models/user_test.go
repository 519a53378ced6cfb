package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserHashesPassword(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	u, err := NewUser("alice", "alice@example.com", "s3cret-pass", now)
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret-pass", u.PasswordHash)
	assert.True(t, u.CheckPassword("s3cret-pass"))
	assert.False(t, u.CheckPassword("wrong"))
	assert.Equal(t, now, u.CreatedAt)
}
