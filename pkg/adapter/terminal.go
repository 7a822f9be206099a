package adapter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

const clearScreen = "\x1b[H\x1b[2J"

// Terminal reads lines from in and prints command output to out. In
// interactive mode it edits lines with golang.org/x/term and completes on
// Tab; otherwise it reads plain lines, which suits piped scripts.
type Terminal struct {
	backend     Backend
	in          io.Reader
	out         io.Writer
	interactive bool
}

func NewTerminal(backend Backend, in io.Reader, out io.Writer, interactive bool) *Terminal {
	return &Terminal{backend: backend, in: in, out: out, interactive: interactive}
}

func (t *Terminal) Start(ctx context.Context) error {
	if t.interactive {
		return t.runInteractive(ctx)
	}
	return t.runScript(ctx)
}

func (t *Terminal) runInteractive(ctx context.Context) error {
	rw := struct {
		io.Reader
		io.Writer
	}{t.in, t.out}
	screen := term.NewTerminal(rw, t.backend.Prompt()+" ")
	screen.AutoCompleteCallback = func(line string, pos int, key rune) (string, int, bool) {
		if key != '\t' {
			return "", 0, false
		}
		completed, err := t.backend.Complete(line)
		if err != nil || completed == line {
			return "", 0, false
		}
		return completed, len(completed), true
	}

	fmt.Fprintln(screen, "Type 'exit' to quit")
	for _, line := range t.backend.Transcript() {
		fmt.Fprintln(screen, line)
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := screen.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if strings.TrimSpace(line) == "exit" {
			return nil
		}
		res, err := t.backend.Run(line)
		if err != nil {
			return err
		}
		if res.Cleared {
			_, _ = screen.Write([]byte(clearScreen))
		}
		printOutput(screen, res.Lines)
		screen.SetPrompt(res.Prompt + " ")
	}
}

func (t *Terminal) runScript(ctx context.Context) error {
	scanner := bufio.NewScanner(t.in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "exit" {
			return nil
		}
		res, err := t.backend.Run(line)
		if err != nil {
			return err
		}
		printOutput(t.out, res.Lines)
	}
	return scanner.Err()
}

// printOutput skips the prompt echo, which the user has already seen.
func printOutput(w io.Writer, lines []string) {
	if len(lines) < 2 {
		return
	}
	for _, line := range lines[1:] {
		fmt.Fprintln(w, line)
	}
}
