package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/toolguide/pkg/domain"
)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	// ShowState prints state changes, to make the guide's control visible.
	ShowState bool

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithShowState prints "Moving to" lines on state changes.
func WithShowState(show bool) TextHandlerOption {
	return func(h *TextHandler) {
		h.ShowState = show
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// initPump starts the reader goroutine so Input can honor cancellation.
func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			close(h.inputChan)
			return
		}
	}
}

func (h *TextHandler) render(msg string) string {
	if h.Renderer != nil {
		if rendered, err := h.Renderer(msg); err == nil {
			return rendered
		}
	}
	return msg
}

func (h *TextHandler) Output(ctx context.Context, resp domain.Response) error {
	var err error
	switch resp.Status {
	case domain.StatusComplete, domain.StatusEmergency:
		_, err = fmt.Fprintf(h.Writer, "\n✅ %s\n", strings.TrimSpace(h.render(resp.Message)))
	case domain.StatusCancelled:
		_, err = fmt.Fprintf(h.Writer, "\n❌ %s\n", strings.TrimSpace(h.render(resp.Message)))
	case domain.StatusError:
		_, err = fmt.Fprintf(h.Writer, "\n⚠️  Error: %s\n", resp.Message)
	default:
		if h.ShowState && resp.NextState != "" {
			fmt.Fprintf(h.Writer, "[Guide State Machine] Moving to: %s\n\n", resp.NextState)
		}
		text := resp.Prompt
		if text == "" {
			text = resp.InstructionsForAgent
		}
		_, err = fmt.Fprintln(h.Writer, strings.TrimSpace(h.render(text)))
	}
	return err
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintln(h.Writer, msg)
	return err
}

func (h *TextHandler) Input(ctx context.Context) (domain.Input, error) {
	h.initPump()

	select {
	case <-ctx.Done():
		return domain.Input{}, ctx.Err()
	default:
		fmt.Fprint(h.Writer, "> ")
	}

	select {
	case <-ctx.Done():
		return domain.Input{}, ctx.Err()
	case res, ok := <-h.inputChan:
		if !ok {
			return domain.Input{}, io.EOF
		}
		if res.err != nil {
			return domain.Input{}, res.err
		}
		return domain.TextInput(strings.TrimSpace(res.text)), nil
	}
}
