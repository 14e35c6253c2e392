package share

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"log/slog"
)

// Mode selects how share tokens are compressed when encoding.
type Mode string

const (
	ModeAuto Mode = "auto"
	ModeGzip Mode = "gzip"
	ModeRaw  Mode = "raw"
)

// Compressor is a streaming byte transform applied between the JSON body
// and the base64 layer of a token.
type Compressor interface {
	Name() string
	NewWriter(w io.Writer) (io.WriteCloser, error)
	NewReader(r io.Reader) (io.ReadCloser, error)
}

// Gzip compresses with gzip at the default level.
type Gzip struct{}

func (Gzip) Name() string { return string(ModeGzip) }

func (Gzip) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriter(w), nil
}

func (Gzip) NewReader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

// Raw passes bytes through unchanged.
type Raw struct{}

func (Raw) Name() string { return string(ModeRaw) }

func (Raw) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

func (Raw) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// Probe picks the compressor for mode. ModeAuto prefers gzip and degrades
// to raw when gzip fails a round-trip self test; ModeGzip fails instead.
func Probe(mode Mode) (Compressor, error) {
	switch mode {
	case ModeRaw:
		return Raw{}, nil
	case ModeGzip:
		if err := selfTest(Gzip{}); err != nil {
			return nil, fmt.Errorf("gzip unavailable: %w", err)
		}
		return Gzip{}, nil
	case ModeAuto, "":
		if err := selfTest(Gzip{}); err != nil {
			slog.Warn("Share compression unavailable, tokens will be uncompressed", "error", err)
			return Raw{}, nil
		}
		return Gzip{}, nil
	default:
		return nil, fmt.Errorf("unknown share codec mode %q", mode)
	}
}

var probePayload = []byte(`[{"id":"probe","description":"ü"}]`)

func selfTest(c Compressor) error {
	var buf bytes.Buffer
	w, err := c.NewWriter(&buf)
	if err != nil {
		return err
	}
	if _, err := w.Write(probePayload); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	r, err := c.NewReader(&buf)
	if err != nil {
		return err
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if !bytes.Equal(got, probePayload) {
		return fmt.Errorf("%s round trip mismatch", c.Name())
	}
	return nil
}
