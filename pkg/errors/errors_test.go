package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsCodeForIs(t *testing.T) {
	err := Clone(ErrValidation, "criterion has no fragments")

	assert.Equal(t, "criterion has no fragments", err.Message)
	assert.Equal(t, "validation failed", ErrValidation.Message)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestWrapUnwraps(t *testing.T) {
	cause := fmt.Errorf("dial tcp: refused")
	err := Wrap(cause, ErrChallengeChannelUnavailable.Code, ErrChallengeChannelUnavailable.Status, "channel down")

	assert.Equal(t, "channel down: dial tcp: refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrChallengeChannelUnavailable)
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	wrapped := fmt.Errorf("load: %w", ErrSnapshotNotFound)
	assert.Equal(t, ErrSnapshotNotFound, FromError(wrapped))

	plain := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, plain.Code)
	assert.Equal(t, http.StatusInternalServerError, plain.Status)
}
