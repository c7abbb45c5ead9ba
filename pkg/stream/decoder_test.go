package stream

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canopyhq/canopy/pkg/domain"
)

func collectFrames(t *testing.T, r io.Reader) ([]string, error) {
	t.Helper()
	dec := NewFrameDecoder(r)
	var frames []string
	for {
		frame, err := dec.Next()
		if err != nil {
			return frames, err
		}
		frames = append(frames, string(frame))
	}
}

func TestFrameDecoder_SplitsFrames(t *testing.T) {
	in := "data: {\"event\":\"token\"}\n\ndata: {\"event\":\"done\"}\n"
	frames, err := collectFrames(t, strings.NewReader(in))

	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []string{`{"event":"token"}`, `{"event":"done"}`}, frames)
}

func TestFrameDecoder_ByteAtATimeTransport(t *testing.T) {
	// Frames split arbitrarily across reads must reassemble.
	in := "data: {\"a\":1}\ndata: {\"b\":2}\n"
	frames, err := collectFrames(t, iotest.OneByteReader(strings.NewReader(in)))

	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []string{`{"a":1}`, `{"b":2}`}, frames)
}

func TestFrameDecoder_DoneMarker(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"with data prefix", "data: {\"a\":1}\ndata: [DONE]\n"},
		{"bare marker", "data: {\"a\":1}\n[DONE]\n"},
		{"no trailing newline", "data: {\"a\":1}\ndata: [DONE]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames, err := collectFrames(t, strings.NewReader(tt.in))
			assert.True(t, errors.Is(err, domain.ErrStreamDone), "want ErrStreamDone, got %v", err)
			assert.Equal(t, []string{`{"a":1}`}, frames)
		})
	}
}

func TestFrameDecoder_CRLFAndNoise(t *testing.T) {
	in := ": keepalive comment\r\ndata: {\"a\":1}\r\nevent: message\r\n\r\ndata: {\"b\":2}\r\n"
	frames, err := collectFrames(t, strings.NewReader(in))

	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []string{`{"a":1}`, `{"b":2}`}, frames)
}

func TestFrameDecoder_FlushesUnterminatedTail(t *testing.T) {
	frames, err := collectFrames(t, strings.NewReader(`data: {"tail":true}`))

	assert.Equal(t, io.EOF, err)
	require.Len(t, frames, 1)
	assert.Equal(t, `{"tail":true}`, frames[0])
}

func TestFrameDecoder_TransportError(t *testing.T) {
	boom := errors.New("connection reset")
	dec := NewFrameDecoder(io.MultiReader(
		strings.NewReader("data: {\"a\":1}\n"),
		iotest.ErrReader(boom),
	))

	frame, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(frame))

	_, err = dec.Next()
	assert.Equal(t, boom, err)
}
