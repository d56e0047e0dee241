package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_FormatAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := SearchError("vector search failed", cause)

	assert.Equal(t, "[search] vector search failed: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := ValidationError("empty image", nil)
	assert.Equal(t, "[validation] empty image", bare.Error())
}

func TestKindOf_WalksWrappedChain(t *testing.T) {
	err := fmt.Errorf("identify: %w", RecognitionError("upstream 500", nil))

	assert.Equal(t, KindRecognition, KindOf(err))
	assert.True(t, IsKind(err, KindRecognition))
	assert.False(t, IsKind(err, KindSearch))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.False(t, IsKind(nil, KindInternal))
}
