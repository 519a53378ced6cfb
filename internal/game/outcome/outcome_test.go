package outcome

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesByCode(t *testing.T) {
	err := New(CodeNotEnoughMoney, "need %d", 500)
	assert.True(t, errors.Is(err, ErrNotEnoughMoney))
	assert.False(t, errors.Is(err, ErrHandFull))
	assert.Equal(t, "not_enough_money: need 500", err.Error())

	wrapped := fmt.Errorf("buy: %w", err)
	assert.Equal(t, CodeNotEnoughMoney, CodeOf(wrapped))
	assert.Equal(t, CodeNone, CodeOf(errors.New("boom")))
	assert.Equal(t, "hand_full", ErrHandFull.Error())
}
