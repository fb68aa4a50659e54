package editor

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
)

// ErrAborted is returned when the user backs out of a prompt.
var ErrAborted = errors.New("aborted")

// Prompter supplies the answers a wizard step needs. The terminal
// implementation below asks on stdin; tests script the answers.
type Prompter interface {
	// Select asks the user to pick one of options, returning the chosen
	// value.
	Select(label string, options []string) (string, error)
	// Input asks for a free-text value, offering an editable default.
	Input(label, initial string) (string, error)
}

// Terminal is a readline-backed Prompter.
type Terminal struct {
	rl *readline.Instance
}

// NewTerminal opens a readline instance on the controlling terminal.
func NewTerminal() (*Terminal, error) {
	rl, err := readline.New("> ")
	if err != nil {
		return nil, fmt.Errorf("opening terminal: %w", err)
	}
	return &Terminal{rl: rl}, nil
}

// Close releases the terminal.
func (t *Terminal) Close() error { return t.rl.Close() }

// Select prints a numbered menu and reads a choice, by number or by
// exact value.
func (t *Terminal) Select(label string, options []string) (string, error) {
	fmt.Fprintln(t.rl.Stdout(), label)
	for i, opt := range options {
		fmt.Fprintf(t.rl.Stdout(), "  %2d) %s\n", i+1, opt)
	}

	t.rl.SetPrompt("choice> ")
	for {
		line, err := t.rl.Readline()
		if err != nil {
			return "", promptErr(err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return "", ErrAborted
		}
		if n, err := strconv.Atoi(line); err == nil {
			if n >= 1 && n <= len(options) {
				return options[n-1], nil
			}
			fmt.Fprintf(t.rl.Stdout(), "pick 1-%d\n", len(options))
			continue
		}
		for _, opt := range options {
			if opt == line {
				return opt, nil
			}
		}
		fmt.Fprintln(t.rl.Stdout(), "no such option")
	}
}

// Input reads one line with an editable initial value.
func (t *Terminal) Input(label, initial string) (string, error) {
	t.rl.SetPrompt(label + "> ")
	line, err := t.rl.ReadlineWithDefault(initial)
	if err != nil {
		return "", promptErr(err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ErrAborted
	}
	return line, nil
}

func promptErr(err error) error {
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return ErrAborted
	}
	return err
}
