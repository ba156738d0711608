package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewError(t *testing.T) {
	err := NewError(ErrRoomIsFull)
	assert.Equal(t, ErrRoomIsFull, err.Code)
	assert.Equal(t, "Room is full", err.Message)
	assert.Equal(t, http.StatusConflict, err.Status)

	err.Message = "mutated"
	assert.Equal(t, "Room is full", NewError(ErrRoomIsFull).Message, "templates are copied")
}

func TestNewError_EventOnlyCodesDefaultToOK(t *testing.T) {
	assert.Equal(t, http.StatusOK, NewError(ErrInvalidMove).Status)
}

func TestNewError_UnknownCode(t *testing.T) {
	err := NewError(424242)
	assert.Equal(t, ErrUnknown, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
}

func TestNewError_DetailsWithoutPlaceholder(t *testing.T) {
	assert.Equal(t, "Invalid move", NewError(ErrInvalidMove, "e9").Message)
	assert.Equal(t, ErrUnknown, NewError(ErrUnknown, errors.New("boom")).Code)
}

func TestCustomError_Is(t *testing.T) {
	wrapped := fmt.Errorf("join: %w", NewError(ErrRoomNotFound))

	assert.True(t, errors.Is(wrapped, NewError(ErrRoomNotFound)))
	assert.False(t, errors.Is(wrapped, NewError(ErrRoomIsFull)))
	assert.Contains(t, wrapped.Error(), "Room does not exist")
}
