package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrInputClosed is returned when stdin reaches EOF mid-prompt.
var ErrInputClosed = errors.New("input closed")

// Prompter reads answers to interactive questions.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Line prompts for one line of text. An empty answer returns def.
func (p *Prompter) Line(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	input, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		if err == io.EOF {
			return "", ErrInputClosed
		}
		log.Warn().Err(err).Msg("Failed to read input")
		return "", err
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return def, nil
	}
	return input, nil
}

// Block reads lines until a line containing only "." or EOF. Used for
// pasting a reference script.
func (p *Prompter) Block(label string) (string, error) {
	fmt.Fprintf(p.out, "%s (finish with a line containing only \".\"):\n", label)
	var lines []string
	for {
		line, err := p.in.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "." {
			break
		}
		if line != "" {
			lines = append(lines, trimmed)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// Choice prompts until the user enters a number in 1..n or one of the
// letter commands. It returns the zero-based index, or -1 and the command.
func (p *Prompter) Choice(label string, n int, commands ...string) (int, string, error) {
	for {
		answer, err := p.Line(label, "")
		if err != nil {
			return -1, "", err
		}
		answer = strings.ToLower(answer)
		for _, c := range commands {
			if answer == c {
				return -1, c, nil
			}
		}
		if i, err := strconv.Atoi(answer); err == nil && i >= 1 && i <= n {
			return i - 1, "", nil
		}
		fmt.Fprintf(p.out, "Please enter a number from 1 to %d", n)
		if len(commands) > 0 {
			fmt.Fprintf(p.out, " or one of: %s", strings.Join(commands, ", "))
		}
		fmt.Fprintln(p.out)
	}
}

// Command prompts until the answer is one of commands.
func (p *Prompter) Command(label string, commands ...string) (string, error) {
	for {
		answer, err := p.Line(label, "")
		if err != nil {
			return "", err
		}
		answer = strings.ToLower(answer)
		for _, c := range commands {
			if answer == c {
				return c, nil
			}
		}
		fmt.Fprintf(p.out, "Please enter one of: %s\n", strings.Join(commands, ", "))
	}
}
