package platform

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSendError(t *testing.T) {
	err := error(&SendError{ChannelID: "C1", Err: io.ErrClosedPipe})

	assert.Contains(t, err.Error(), "C1")
	assert.ErrorIs(t, err, io.ErrClosedPipe)

	var sendErr *SendError
	assert.True(t, errors.As(err, &sendErr))
	assert.Equal(t, "C1", sendErr.ChannelID)
}
