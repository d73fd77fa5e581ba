package protocol

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"

	"symdex/internal/errors"
	"symdex/internal/symtab"
)

// ErrorPayload is the body written instead of a symbol table when the
// source could not be indexed. The top-level "error" key never occurs in a
// serialized table.
type ErrorPayload struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describes one failure. Line and Column are 0-based, or -1 when
// the error has no source position.
type ErrorBody struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
	Line    int              `json:"line"`
	Column  int              `json:"column"`
}

// EncodeError renders err as a single-line error payload.
func EncodeError(err error) ([]byte, error) {
	body := ErrorBody{
		Code:    errors.CodeOf(err),
		Message: err.Error(),
		Line:    errors.NoPosition,
		Column:  errors.NoPosition,
	}
	var se *errors.SymdexError
	if stderrors.As(err, &se) {
		body.Message = se.Message
		body.Line = se.Line
		body.Column = se.Column
	}
	return json.Marshal(ErrorPayload{Error: body})
}

// WriteTable writes the serialized table as the whole response body.
func WriteTable(w io.Writer, t *symtab.Table) error {
	data, err := symtab.Encode(t)
	if err != nil {
		return fmt.Errorf("encode table: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// WriteError writes err as an error payload.
func WriteError(w io.Writer, err error) error {
	data, encErr := EncodeError(err)
	if encErr != nil {
		return fmt.Errorf("encode error payload: %w", encErr)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// DecodeResponse interprets a complete response body. An error payload is
// returned as a *errors.SymdexError carrying its code and position; an
// empty body means the server closed without answering.
func DecodeResponse(data []byte) (*symtab.Table, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.Framing("server closed the connection without a response", nil)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, errors.NewSymdexError(errors.InternalError, "malformed response", err)
	}
	if raw, ok := fields["error"]; ok {
		var body ErrorBody
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, errors.NewSymdexError(errors.InternalError, "malformed error payload", err)
		}
		return nil, errors.NewSymdexError(body.Code, body.Message, nil).At(body.Line, body.Column)
	}

	return symtab.Decode(data)
}
