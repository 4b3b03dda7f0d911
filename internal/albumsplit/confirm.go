package albumsplit

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Confirmer asks the user whether to continue.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// PromptConfirmer reads a single answer line from In. Answers starting with
// "y" accept; anything else, including end of input, declines.
type PromptConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (p PromptConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if p.Out != nil {
		fmt.Fprint(p.Out, prompt)
	}
	if p.In == nil {
		return false, nil
	}
	type answer struct {
		line string
		err  error
	}
	done := make(chan answer, 1)
	go func() {
		line, err := bufio.NewReader(p.In).ReadString('\n')
		done <- answer{line: line, err: err}
	}()
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case got := <-done:
		if got.err != nil && !errors.Is(got.err, io.EOF) {
			return false, fmt.Errorf("read confirmation: %w", got.err)
		}
		reply := strings.ToLower(strings.TrimSpace(got.line))
		return strings.HasPrefix(reply, "y"), nil
	}
}

// AlwaysConfirm accepts without asking. New installs it when Options.Yes is set.
type AlwaysConfirm struct{}

func (AlwaysConfirm) Confirm(context.Context, string) (bool, error) { return true, nil }
