package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sonirico/nanitws"
)

func TestClearSignals(t *testing.T) {
	completed := make(chan struct{}, 1)
	ended := make(chan nanitws.SessionEvent, 1)

	completed <- struct{}{}
	ended <- nanitws.SessionEvent{Type: nanitws.SessionEnded}

	clearSignals(completed, ended)

	assert.Empty(t, completed)
	assert.Empty(t, ended)

	// Nothing buffered is a no-op.
	clearSignals(completed, ended)
}
