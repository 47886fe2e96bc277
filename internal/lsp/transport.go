package lsp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/textproto"
	"strconv"

	"github.com/cockroachdb/errors"
)

// maxContentLength bounds a single message.
const maxContentLength = 64 << 20

// BaseReader reads LSP messages framed by a Content-Length header.
type BaseReader struct {
	reader *bufio.Reader
	header *textproto.Reader
}

// NewBaseReader creates a new BaseReader.
func NewBaseReader(r io.Reader) *BaseReader {
	br := bufio.NewReader(r)
	return &BaseReader{reader: br, header: textproto.NewReader(br)}
}

// Read returns the body of the next message. Header names are matched
// ignoring case; headers other than Content-Length are skipped.
func (r *BaseReader) Read() ([]byte, error) {
	header, err := r.header.ReadMIMEHeader()
	if err != nil {
		if errors.Is(err, io.EOF) && len(header) == 0 {
			return nil, io.EOF
		}
		return nil, errors.Wrap(err, "read message header")
	}

	value := header.Get("Content-Length")
	if value == "" {
		return nil, errors.New("missing Content-Length header")
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return nil, errors.Newf("invalid Content-Length %q", value)
	}
	if n > maxContentLength {
		return nil, errors.Newf("message of %d bytes exceeds the limit", n)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r.reader, body); err != nil {
		return nil, errors.Wrap(err, "read message body")
	}
	return body, nil
}

// BaseWriter writes LSP messages framed by a Content-Length header. It is
// not safe for concurrent use; the server serializes calls.
type BaseWriter struct {
	writer io.Writer
	buf    bytes.Buffer
}

// NewBaseWriter creates a new BaseWriter.
func NewBaseWriter(w io.Writer) *BaseWriter {
	return &BaseWriter{writer: w}
}

// Write frames data and writes header and body in one call.
func (w *BaseWriter) Write(data []byte) error {
	w.buf.Reset()
	w.buf.WriteString("Content-Length: ")
	w.buf.WriteString(strconv.Itoa(len(data)))
	w.buf.WriteString("\r\n\r\n")
	w.buf.Write(data)
	_, err := w.writer.Write(w.buf.Bytes())
	return err
}

// WriteJSON marshals v and writes it as one message.
func (w *BaseWriter) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshal message")
	}
	return w.Write(data)
}
