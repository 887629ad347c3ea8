package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSentinel = stderrors.New("sentinel")

func TestWrap_PreservesCodeAndChain(t *testing.T) {
	base := InsufficientData("group has one observation")
	wrapped := Wrap(base, "hypothesis 1 failed")

	assert.Equal(t, CodeInsufficientData, GetCode(wrapped))
	assert.True(t, IsAppError(wrapped))
	assert.Equal(t, "hypothesis 1 failed: group has one observation", wrapped.Error())
}

func TestWrap_PlainErrorGetsInternalCode(t *testing.T) {
	wrapped := Wrapf(errSentinel, "loading %s", "file.xlsx")

	assert.Equal(t, CodeInternalError, GetCode(wrapped))
	assert.True(t, stderrors.Is(wrapped, errSentinel))
}

func TestWrap_Nil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "nothing"))
	assert.Nil(t, Wrapf(nil, "nothing %d", 1))
	assert.Nil(t, WithCode(CodeOutput, nil))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeComputation, fmt.Errorf("wrapped: %w", errSentinel))

	assert.Equal(t, CodeComputation, GetCode(err))
	assert.True(t, stderrors.Is(err, errSentinel))
	assert.Equal(t, "wrapped: sentinel", err.Error())
}

func TestWithCode_RecodesAppError(t *testing.T) {
	err := WithCode(CodeInvalidInput, Wrap(errSentinel, "loading data failed"))

	assert.Equal(t, CodeInvalidInput, GetCode(err))
	assert.Equal(t, "loading data failed: sentinel", err.Error())
	assert.True(t, stderrors.Is(err, errSentinel))
}

func TestGetCode_UnknownForForeignErrors(t *testing.T) {
	assert.Equal(t, "UNKNOWN", GetCode(errSentinel))
	assert.False(t, IsAppError(errSentinel))
}

func TestOutput(t *testing.T) {
	err := Output("reports/deck.pptx", errSentinel)

	assert.Equal(t, CodeOutput, err.Code)
	assert.Contains(t, err.Error(), "reports/deck.pptx")
	assert.True(t, stderrors.Is(err, errSentinel))
}
