package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWriteTimeoutOutlastsPayment(t *testing.T) {
	for _, pt := range []time.Duration{time.Second, 15 * time.Second, time.Minute} {
		assert.Greater(t, writeTimeout(pt), pt)
	}
	assert.Equal(t, 30*time.Second, writeTimeout(15*time.Second))
}
