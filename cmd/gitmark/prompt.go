package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// stdinReader is shared so successive prompts do not lose buffered input.
var stdinReader *bufio.Reader

func inputReader(cmd *cobra.Command) *bufio.Reader {
	if stdinReader == nil {
		stdinReader = bufio.NewReader(cmd.InOrStdin())
	}
	return stdinReader
}

// promptLine asks for a value unless it was already given.
func promptLine(cmd *cobra.Command, label, current string) (string, error) {
	if current != "" {
		return current, nil
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: ", label)
	line, err := inputReader(cmd).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echo when stdin is a terminal,
// and as a plain line otherwise (pipes, tests).
func promptPassword(cmd *cobra.Command, current string) (string, error) {
	if current != "" {
		return current, nil
	}

	in, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(in.Fd())) {
		return promptLine(cmd, "Password", "")
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	b, err := term.ReadPassword(int(in.Fd()))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
