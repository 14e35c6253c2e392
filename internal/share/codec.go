// Package share turns an expense collection into a base64 token that fits
// in a URL fragment and back.
//
// Encoding is JSON, then the selected Compressor, then standard base64.
// Decoding never assumes the token was compressed: it tries gzip first and
// falls back to reading the bytes as plain JSON.
package share

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"spendlog/internal/core"
)

// ErrInvalidToken reports a token that could not be turned back into a
// valid expense collection.
var ErrInvalidToken = errors.New("invalid share token")

// Codec encodes and decodes share tokens.
type Codec struct {
	encoder  Compressor
	decoders []Compressor
	maxBody  int64
}

// Option configures a Codec.
type Option func(*Codec)

// WithMaxDecodedBytes rejects tokens whose decompressed body is larger
// than n bytes. Zero or less means no limit, which is the default.
func WithMaxDecodedBytes(n int64) Option {
	return func(c *Codec) {
		c.maxBody = n
	}
}

// NewCodec returns a codec that compresses with c. A nil c encodes raw.
func NewCodec(c Compressor, opts ...Option) *Codec {
	if c == nil {
		c = Raw{}
	}
	codec := &Codec{
		encoder:  c,
		decoders: []Compressor{Gzip{}},
	}
	for _, opt := range opts {
		opt(codec)
	}
	return codec
}

// Compression names the compressor used for encoding.
func (c *Codec) Compression() string {
	return c.encoder.Name()
}

// Encode serializes expenses into a token. An empty collection yields a
// valid token that decodes to an empty collection.
func (c *Codec) Encode(ctx context.Context, expenses []core.Expense) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}

	var sb strings.Builder
	b64 := base64.NewEncoder(base64.StdEncoding, &sb)
	cw, err := c.encoder.NewWriter(b64)
	if err != nil {
		return "", fmt.Errorf("open %s writer: %w", c.encoder.Name(), err)
	}
	enc := json.NewEncoder(cw)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(expenses); err != nil {
		return "", fmt.Errorf("encode expenses: %w", err)
	}
	if err := cw.Close(); err != nil {
		return "", fmt.Errorf("close %s writer: %w", c.encoder.Name(), err)
	}
	if err := b64.Close(); err != nil {
		return "", fmt.Errorf("flush base64: %w", err)
	}
	return sb.String(), ctx.Err()
}

// Decode reverses Encode. Every failure is reported as ErrInvalidToken
// wrapping the cause; a nil error with an empty slice means the token
// carried zero expenses.
func (c *Codec) Decode(ctx context.Context, token string) ([]core.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := decodeBase64(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	body := raw
	for _, d := range c.decoders {
		out, err := c.inflate(d, raw)
		if errors.Is(err, errTooLarge) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		if err == nil {
			body = out
			break
		}
	}
	if c.maxBody > 0 && int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, errTooLarge)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return parseExpenses(body)
}

var errTooLarge = errors.New("decoded body exceeds limit")

func (c *Codec) inflate(d Compressor, raw []byte) ([]byte, error) {
	r, err := d.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	if c.maxBody <= 0 {
		return io.ReadAll(r)
	}
	out, err := io.ReadAll(io.LimitReader(r, c.maxBody+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > c.maxBody {
		return nil, errTooLarge
	}
	return out, nil
}

func parseExpenses(body []byte) ([]core.Expense, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '[' {
		return nil, fmt.Errorf("%w: payload is not a list", ErrInvalidToken)
	}
	var expenses []core.Expense
	if err := json.Unmarshal(body, &expenses); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	seen := make(map[string]struct{}, len(expenses))
	for i, e := range expenses {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("%w: expense %d: %v", ErrInvalidToken, i, err)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidToken, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	return expenses, nil
}

// decodeBase64 accepts the standard alphabet and, for links that were
// rewritten along the way, the URL-safe alphabet and unpadded forms.
func decodeBase64(token string) ([]byte, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("empty token")
	}
	var firstErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		b, err := enc.DecodeString(token)
		if err == nil {
			return b, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
