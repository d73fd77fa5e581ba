package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"strings"
	"testing"

	"symdex/internal/errors"
	"symdex/internal/symtab"
)

func reader(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestReadLength(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		limit   int64
		want    int64
		code    errors.ErrorCode
		wantErr bool
	}{
		{"simple", "12\nrest", 0, 12, "", false},
		{"crlf", "7\r\n", 0, 7, "", false},
		{"zero", "0\n", 0, 0, "", false},
		{"leading zeros", "0007\n", 0, 7, "", false},
		{"at limit", "100\n", 100, 100, "", false},
		{"above limit", "101\n", 100, 0, errors.PayloadTooLarge, true},
		{"overflow", "99999999999999999999\n", 0, 0, errors.PayloadTooLarge, true},
		{"too many digits", "000000000000000000001\n", 0, 0, errors.FramingError, true},
		{"negative", "-1\n", 0, 0, errors.FramingError, true},
		{"plus sign", "+1\n", 0, 0, errors.FramingError, true},
		{"space", " 1\n", 0, 0, errors.FramingError, true},
		{"empty line", "\n", 0, 0, errors.FramingError, true},
		{"no input", "", 0, 0, errors.FramingError, true},
		{"unterminated", "12", 0, 0, errors.FramingError, true},
		{"stray cr", "1\r2\n", 0, 0, errors.FramingError, true},
		{"letters", "abc\n", 0, 0, errors.FramingError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadLength(reader(tt.input), tt.limit)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ReadLength(%q) = %d, want error", tt.input, got)
				}
				if code := errors.CodeOf(err); code != tt.code {
					t.Errorf("code = %s, want %s", code, tt.code)
				}
				if !errors.IsFraming(err) {
					t.Errorf("IsFraming(%v) = false", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadLength(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ReadLength(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestReadRequest(t *testing.T) {
	payload, err := ReadRequest(reader("5\nhello world"), 0)
	if err != nil {
		t.Fatalf("ReadRequest: %v", err)
	}
	if string(payload) != "hello" {
		t.Errorf("payload = %q, want hello", payload)
	}

	// Payloads may contain newlines; only the length matters.
	payload, err = ReadRequest(reader("3\na\nb"), 0)
	if err != nil || string(payload) != "a\nb" {
		t.Errorf("ReadRequest = %q, %v", payload, err)
	}
}

func TestReadRequest_Truncated(t *testing.T) {
	_, err := ReadRequest(reader("10\nshort"), 0)
	if errors.CodeOf(err) != errors.FramingError {
		t.Fatalf("error = %v, want FRAMING_ERROR", err)
	}
	if !stderrors.Is(err, io.EOF) {
		t.Error("truncation should wrap io.EOF")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, stderrors.New("reset by peer") }

func TestReadPayload_ReadFailure(t *testing.T) {
	_, err := ReadPayload(failingReader{}, 4)
	if errors.CodeOf(err) != errors.FramingError {
		t.Errorf("error = %v, want FRAMING_ERROR", err)
	}
}

func TestWriteRequest(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRequest(&buf, []byte("package p;")); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "10\npackage p;" {
		t.Errorf("frame = %q", buf.String())
	}

	got, err := ReadRequest(bufio.NewReader(&buf), 0)
	if err != nil || string(got) != "package p;" {
		t.Errorf("ReadRequest after WriteRequest = %q, %v", got, err)
	}
}

func TestEncodeError(t *testing.T) {
	data, err := EncodeError(errors.Parse("missing ;", 3, 7))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"error":{"code":"PARSE_ERROR","message":"missing ;","line":3,"column":7}}`
	if string(data) != want {
		t.Errorf("EncodeError = %s, want %s", data, want)
	}

	data, _ = EncodeError(stderrors.New("boom"))
	var payload ErrorPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Error.Code != errors.InternalError || payload.Error.Line != -1 {
		t.Errorf("plain error payload = %+v", payload.Error)
	}
}

func TestDecodeResponse(t *testing.T) {
	table := symtab.New()
	table.SetPackage("p")
	table.DeclareType("A", symtab.At(1, 0))

	var buf bytes.Buffer
	if err := WriteTable(&buf, table); err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(buf.Bytes(), []byte("\n")) {
		t.Error("response must be a single line")
	}
	got, err := DecodeResponse(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeResponse(table): %v", err)
	}
	if !got.Equal(table) {
		t.Error("decoded table differs")
	}

	buf.Reset()
	if err := WriteError(&buf, errors.Parse("syntax error", 0, 4)); err != nil {
		t.Fatal(err)
	}
	_, err = DecodeResponse(buf.Bytes())
	var se *errors.SymdexError
	if !stderrors.As(err, &se) {
		t.Fatalf("DecodeResponse(error) = %v, want SymdexError", err)
	}
	if se.Code != errors.ParseError || se.Line != 0 || se.Column != 4 {
		t.Errorf("decoded error = %+v", se)
	}

	if _, err := DecodeResponse(nil); errors.CodeOf(err) != errors.FramingError {
		t.Errorf("empty response error = %v", err)
	}
	if _, err := DecodeResponse([]byte("not json")); errors.CodeOf(err) != errors.InternalError {
		t.Errorf("garbage response error = %v", err)
	}
}
