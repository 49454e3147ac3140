package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// prompt asks yes/no questions: a huh confirm field on a terminal, a plain
// "Press ENTER" line otherwise.
type prompt struct {
	in          io.Reader
	out         io.Writer
	interactive bool
	lines       *bufio.Reader
}

func newPrompt() *prompt {
	return &prompt{
		in:          os.Stdin,
		out:         os.Stdout,
		interactive: term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())),
	}
}

// Confirm implements sync.Confirmer. Aborting the form (Ctrl-C, Esc)
// counts as no.
func (p *prompt) Confirm(question string) (bool, error) {
	if !p.interactive {
		return p.confirmLine(question)
	}

	ok := true
	err := huh.NewConfirm().
		Title(question).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}
	return ok, nil
}

// confirmLine reads one line: empty or "y" means yes, anything starting
// with "n" or end of input means no.
func (p *prompt) confirmLine(question string) (bool, error) {
	if p.lines == nil {
		p.lines = bufio.NewReader(p.in)
	}
	fmt.Fprintln(p.out, question)
	fmt.Fprint(p.out, "Press ENTER to validate, n to cancel ... ")

	line, err := p.lines.ReadString('\n')
	fmt.Fprintln(p.out)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	if errors.Is(err, io.EOF) && line == "" {
		return false, nil
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return !strings.HasPrefix(answer, "n"), nil
}
