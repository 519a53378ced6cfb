package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errBackend = errors.New("backend down")

func TestBreakerOpensAndRecovers(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := New(2, 10*time.Second)
	b.now = func() time.Time { return clock }

	fail := func() error { return errBackend }
	ok := func() error { return nil }

	assert.ErrorIs(t, b.Execute(fail, nil), errBackend)
	assert.Equal(t, Closed, b.State())
	assert.ErrorIs(t, b.Execute(fail, nil), errBackend)
	assert.Equal(t, Open, b.State())
	assert.ErrorIs(t, b.Execute(ok, nil), ErrOpen)

	clock = clock.Add(11 * time.Second)
	assert.ErrorIs(t, b.Execute(fail, nil), errBackend)
	assert.Equal(t, Open, b.State(), "failed test request reopens")

	clock = clock.Add(11 * time.Second)
	assert.NoError(t, b.Execute(ok, nil))
	assert.Equal(t, Closed, b.State())
}

func TestUncountedErrorsKeepCircuitClosed(t *testing.T) {
	b := New(1, time.Minute)
	notFound := errors.New("not found")
	err := b.Execute(func() error { return notFound }, func(err error) bool { return err != notFound })
	assert.ErrorIs(t, err, notFound)
	assert.Equal(t, Closed, b.State())
	assert.Equal(t, "closed", b.State().String())
}
