package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestPrompter_Line(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("  hello  \n\nlast"), &out)

	got, err := p.Line("Name", "")
	if err != nil || got != "hello" {
		t.Errorf("Line = %q, %v", got, err)
	}
	got, err = p.Line("Keywords", "none")
	if err != nil || got != "none" {
		t.Errorf("default = %q, %v", got, err)
	}
	got, err = p.Line("Tail", "")
	if err != nil || got != "last" {
		t.Errorf("unterminated last line = %q, %v", got, err)
	}
	if _, err := p.Line("Gone", ""); !errors.Is(err, ErrInputClosed) {
		t.Errorf("expected ErrInputClosed, got %v", err)
	}
	if !strings.Contains(out.String(), "Keywords [none]: ") {
		t.Errorf("prompt output = %q", out.String())
	}
}

func TestPrompter_Block(t *testing.T) {
	p := NewPrompter(strings.NewReader("line one\r\n\nline three\n.\nafter\n"), &bytes.Buffer{})
	got, err := p.Block("Paste")
	if err != nil {
		t.Fatal(err)
	}
	if got != "line one\n\nline three" {
		t.Errorf("Block = %q", got)
	}
	rest, _ := p.Line("next", "")
	if rest != "after" {
		t.Errorf("reader not positioned after the terminator: %q", rest)
	}
}

func TestPrompter_Choice(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("0\nabc\n3\nR\n"), &out)

	i, cmd, err := p.Choice("Pick", 5, "r")
	if err != nil || i != 2 || cmd != "" {
		t.Errorf("Choice = %d, %q, %v", i, cmd, err)
	}
	if strings.Count(out.String(), "Please enter a number from 1 to 5 or one of: r") != 2 {
		t.Errorf("expected two retry messages, got %q", out.String())
	}

	i, cmd, err = p.Choice("Pick", 5, "r")
	if err != nil || i != -1 || cmd != "r" {
		t.Errorf("command = %d, %q, %v", i, cmd, err)
	}
}

func TestPrompter_Command(t *testing.T) {
	p := NewPrompter(strings.NewReader("x\nC\n"), &bytes.Buffer{})
	got, err := p.Command("Next", "c", "s", "b", "r")
	if err != nil || got != "c" {
		t.Errorf("Command = %q, %v", got, err)
	}
}
