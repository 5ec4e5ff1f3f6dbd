package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAMQPPublisherCloseWithoutConnection(t *testing.T) {
	p := &AMQPPublisher{}
	assert.NoError(t, p.Close())
}

func TestRecorderKeepsEvents(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Publish(context.Background(), KeyBookingRequested, map[string]string{"id": "b-1"}))
	assert.Equal(t, []string{KeyBookingRequested}, r.Keys())
}
