package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/toolguide/pkg/domain"
)

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
// Each response is one JSON line. Each input line is either a JSON string
// (an answer), a JSON object (a report) or raw text.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, resp domain.Response) error {
	return h.Encoder.Encode(resp)
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(map[string]string{"system": msg})
}

func (h *JSONHandler) Input(ctx context.Context) (domain.Input, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return domain.Input{}, err
	}
	text = strings.TrimSpace(text)

	var report map[string]any
	if err := json.Unmarshal([]byte(text), &report); err == nil {
		return domain.ReportInput(report), nil
	}
	var answer string
	if err := json.Unmarshal([]byte(text), &answer); err == nil {
		return domain.TextInput(answer), nil
	}
	return domain.TextInput(text), nil
}
