package stream

import (
	"bytes"
	"io"
	"strings"

	"github.com/canopyhq/canopy/pkg/domain"
)

// doneMarker is the explicit stream terminator some backends send before
// closing the connection.
const doneMarker = "[DONE]"

// readChunk is the transport read size. Frames regularly arrive split
// across reads; the decoder retains the remainder between calls.
const readChunk = 4096

// FrameDecoder splits a byte stream into "data: <json>" frame payloads.
// It accumulates bytes, splits on newlines, and keeps any incomplete
// trailing line for the next read, so it is indifferent to how the
// transport chunks the stream.
type FrameDecoder struct {
	r   io.Reader
	buf []byte
	tmp []byte
	eof bool
}

// NewFrameDecoder wraps a raw stream (typically an HTTP response body).
func NewFrameDecoder(r io.Reader) *FrameDecoder {
	return &FrameDecoder{r: r, tmp: make([]byte, readChunk)}
}

// Next returns the payload of the next complete frame. It returns io.EOF
// at natural stream end and domain.ErrStreamDone when the backend sent an
// explicit terminator marker.
func (d *FrameDecoder) Next() ([]byte, error) {
	for {
		for {
			i := bytes.IndexByte(d.buf, '\n')
			if i < 0 {
				break
			}
			line := string(d.buf[:i])
			d.buf = d.buf[i+1:]
			if payload, ok := framePayload(line); ok {
				if payload == doneMarker {
					return nil, domain.ErrStreamDone
				}
				return []byte(payload), nil
			}
		}

		if d.eof {
			// Flush a final line the backend did not terminate.
			if len(d.buf) > 0 {
				line := string(d.buf)
				d.buf = nil
				if payload, ok := framePayload(line); ok {
					if payload == doneMarker {
						return nil, domain.ErrStreamDone
					}
					return []byte(payload), nil
				}
			}
			return nil, io.EOF
		}

		n, err := d.r.Read(d.tmp)
		if n > 0 {
			d.buf = append(d.buf, d.tmp[:n]...)
		}
		switch {
		case err == io.EOF:
			d.eof = true
		case err != nil:
			return nil, err
		}
	}
}

// framePayload extracts the payload from one line. Blank lines and
// non-data fields are not frames. A bare terminator marker without the
// field prefix is accepted; some backends emit it that way.
func framePayload(line string) (string, bool) {
	line = strings.TrimSuffix(line, "\r")
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", false
	}
	if rest, ok := strings.CutPrefix(line, "data:"); ok {
		return strings.TrimSpace(rest), true
	}
	if trimmed == doneMarker {
		return doneMarker, true
	}
	return "", false
}
