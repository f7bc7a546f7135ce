package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := New("redis", WithFailureThreshold(3), WithSuccessThreshold(2))

	open, change := b.RecordFailure()
	assert.False(t, open)
	assert.False(t, change.Opened)
	b.RecordFailure()

	open, change = b.RecordFailure()
	assert.True(t, open)
	assert.True(t, change.Opened)
	assert.True(t, b.IsOpen())

	open, change = b.RecordFailure()
	assert.True(t, open)
	assert.False(t, change.Opened, "the transition is reported once")
}

func TestBreakerSuccessResetsFailureRun(t *testing.T) {
	b := New("redis", WithFailureThreshold(2))

	b.RecordFailure()
	b.RecordSuccess()
	open, _ := b.RecordFailure()
	assert.False(t, open)
}

func TestBreakerClosesAfterConsecutiveSuccesses(t *testing.T) {
	b := New("redis", WithFailureThreshold(1), WithSuccessThreshold(2))
	b.RecordFailure()

	closed, change := b.RecordSuccess()
	assert.False(t, closed)
	assert.False(t, change.Closed)

	b.RecordFailure()
	closed, _ = b.RecordSuccess()
	assert.False(t, closed, "a failure while open restarts the success run")

	closed, change = b.RecordSuccess()
	assert.True(t, closed)
	assert.True(t, change.Closed)
	assert.False(t, b.IsOpen())
}

func TestBreakerDefaults(t *testing.T) {
	b := New("db", WithFailureThreshold(0), WithSuccessThreshold(-1))
	assert.Equal(t, 5, b.failureThreshold)
	assert.Equal(t, 3, b.successThreshold)
	assert.Equal(t, "db", b.Name())
}
