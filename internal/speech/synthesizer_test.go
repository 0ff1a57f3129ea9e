package speech

import (
	"context"
	"errors"
	"testing"

	"github.com/foxseedlab/firassist/internal/failure"
	"github.com/foxseedlab/firassist/internal/metrics"
	"github.com/stretchr/testify/require"
)

type mockSynthesizer struct {
	gotText string
	gotCode string
	data    []byte
	err     error
}

func (m *mockSynthesizer) Synthesize(_ context.Context, text, code string) ([]byte, error) {
	m.gotText = text
	m.gotCode = code
	return m.data, m.err
}

func TestAdapterSynthesizesCleanedText(t *testing.T) {
	t.Parallel()

	synth := &mockSynthesizer{data: []byte{0xFF, 0xFB, 0x90}}
	a := NewAdapter(synth, metrics.NewNop())

	art, err := a.Synthesize(context.Background(), "### IPC Sections:\n- **Section 379**: theft", "hi")
	require.NoError(t, err)
	require.Equal(t, "IPC Sections:\nSection 379: theft", synth.gotText)
	require.Equal(t, "hi", synth.gotCode)
	require.Equal(t, MIMETypeMP3, art.MIMEType)
	require.Equal(t, "data:audio/mpeg;base64,//uQ", art.DataURI())
}

func TestAdapterWrapsCollaboratorFailure(t *testing.T) {
	t.Parallel()

	a := NewAdapter(&mockSynthesizer{err: errors.New("quota exceeded")}, nil)

	_, err := a.Synthesize(context.Background(), "Section 379", "en")
	require.ErrorIs(t, err, failure.ErrSynthesisFailed)
	require.Equal(t, failure.KindSynthesisFailed, failure.KindOf(err))
}

func TestAdapterRejectsEmptyText(t *testing.T) {
	t.Parallel()

	synth := &mockSynthesizer{data: []byte{1}}
	a := NewAdapter(synth, nil)

	_, err := a.Synthesize(context.Background(), "## \n---\n", "en")
	require.ErrorIs(t, err, failure.ErrSynthesisFailed)
	require.Empty(t, synth.gotText, "collaborator must not be called")
}

func TestAdapterRejectsEmptyAudio(t *testing.T) {
	t.Parallel()

	a := NewAdapter(&mockSynthesizer{}, nil)

	_, err := a.Synthesize(context.Background(), "Section 379", "en")
	require.ErrorIs(t, err, failure.ErrSynthesisFailed)
}
