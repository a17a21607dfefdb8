package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks the user for a file name
type Prompter interface {
	// Interactive reports whether a user can answer
	Interactive() bool
	// Prompt shows suggested and returns the answer; empty keeps the suggestion
	Prompt(suggested string) (string, error)
}

// TerminalPrompter reads the answer from stdin when it is a terminal
type TerminalPrompter struct {
	in  *os.File
	out io.Writer
}

// NewTerminalPrompter prompts on stderr and reads stdin
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{in: os.Stdin, out: os.Stderr}
}

func (p *TerminalPrompter) Interactive() bool {
	return p.in != nil && term.IsTerminal(int(p.in.Fd()))
}

func (p *TerminalPrompter) Prompt(suggested string) (string, error) {
	fmt.Fprintf(p.out, "Save as [%s]: ", suggested)
	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
