package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailureRecordExceeds(t *testing.T) {
	r := FailureRecord{Address: "203.0.113.9", Failures: 5}
	assert.False(t, r.Exceeds(5), "threshold itself does not block")

	r.Failures = 6
	assert.True(t, r.Exceeds(5))
}
