// Package protocol implements the length-framed request/response exchange:
// a decimal length line, exactly that many payload bytes, and a response
// that runs until the connection closes.
package protocol

import (
	"bufio"
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"

	"symdex/internal/errors"
)

// MaxLengthDigits bounds the length line. Twenty digits cover every uint64.
const MaxLengthDigits = 20

const initialPayloadBuffer = 64 << 10

// ReadLength reads the length line from r and returns N. Only ASCII digits
// are accepted, optionally followed by '\r', then '\n'. A value above limit
// (when limit > 0) is rejected before any payload is read.
func ReadLength(r *bufio.Reader, limit int64) (int64, error) {
	digits := make([]byte, 0, MaxLengthDigits)
	sawCR := false

	for {
		b, err := r.ReadByte()
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				if len(digits) == 0 && !sawCR {
					return 0, errors.Framing("connection closed before length line", err)
				}
				return 0, errors.Framing("length line not terminated", err)
			}
			return 0, errors.Framing("reading length line", err)
		}

		switch {
		case b == '\n':
			return parseLength(digits, limit)
		case sawCR:
			return 0, errors.Framing("stray carriage return in length line", nil)
		case b == '\r':
			sawCR = true
		case b >= '0' && b <= '9':
			if len(digits) == MaxLengthDigits {
				return 0, errors.Framing(fmt.Sprintf("length line longer than %d digits", MaxLengthDigits), nil)
			}
			digits = append(digits, b)
		default:
			return 0, errors.Framing(fmt.Sprintf("non-digit %q in length line", b), nil)
		}
	}
}

func parseLength(digits []byte, limit int64) (int64, error) {
	if len(digits) == 0 {
		return 0, errors.Framing("empty length line", nil)
	}
	n, err := strconv.ParseInt(string(digits), 10, 64)
	if err != nil {
		return 0, errors.NewSymdexError(errors.PayloadTooLarge, fmt.Sprintf("length %s overflows", digits), err)
	}
	if limit > 0 && n > limit {
		return 0, errors.NewSymdexError(errors.PayloadTooLarge, fmt.Sprintf("length %d exceeds limit of %d bytes", n, limit), nil)
	}
	return n, nil
}

// ReadPayload reads exactly n bytes. A stream that ends early is a framing
// error. The buffer grows as bytes arrive rather than up front.
func ReadPayload(r io.Reader, n int64) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(int(min(n, initialPayloadBuffer)))
	if _, err := io.CopyN(&buf, r, n); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, errors.Framing(fmt.Sprintf("connection closed after %d of %d payload bytes", buf.Len(), n), err)
		}
		return nil, errors.Framing("reading payload", err)
	}
	return buf.Bytes(), nil
}

// ReadRequest reads one complete request frame.
func ReadRequest(r *bufio.Reader, limit int64) ([]byte, error) {
	n, err := ReadLength(r, limit)
	if err != nil {
		return nil, err
	}
	return ReadPayload(r, n)
}

// WriteRequest writes payload as one request frame.
func WriteRequest(w io.Writer, payload []byte) error {
	header := strconv.AppendInt(nil, int64(len(payload)), 10)
	header = append(header, '\n')
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("write length line: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}
