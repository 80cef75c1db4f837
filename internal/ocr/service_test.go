package ocr

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	text   string
	err    error
	panics bool
	closed bool
}

func (e *stubEngine) Recognize(_ context.Context, _ image.Image) (string, error) {
	if e.panics {
		panic("boom")
	}
	return e.text, e.err
}

func (e *stubEngine) Close() error {
	e.closed = true
	return nil
}

func TestService_NilImage(t *testing.T) {
	svc := NewService(&stubEngine{})
	_, err := svc.Recognize(context.Background(), nil)
	require.Error(t, err)
}

func TestService_TrimsResult(t *testing.T) {
	svc := NewService(&stubEngine{text: "  hello\nworld \n"})
	text, err := svc.Recognize(context.Background(), image.NewNRGBA(image.Rect(0, 0, 300, 300)))
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld", text)
}

func TestService_EngineErrorReturnsEmpty(t *testing.T) {
	svc := NewService(&stubEngine{err: errors.New("model exploded")})
	text, err := svc.Recognize(context.Background(), image.NewNRGBA(image.Rect(0, 0, 300, 300)))
	require.Error(t, err)
	assert.Empty(t, text)
}

func TestService_RecoversFromPanic(t *testing.T) {
	svc := NewService(&stubEngine{panics: true})
	text, err := svc.Recognize(context.Background(), image.NewNRGBA(image.Rect(0, 0, 300, 300)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
	assert.Empty(t, text)
}

func TestService_NilEngineIsUnavailable(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.Recognize(context.Background(), image.NewNRGBA(image.Rect(0, 0, 300, 300)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestService_ClosePropagates(t *testing.T) {
	eng := &stubEngine{}
	svc := NewService(eng)
	require.NoError(t, svc.Close())
	assert.True(t, eng.closed)
}
