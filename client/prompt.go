package client

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/smnsjas/go-ssh2async/ssh2"
)

// TerminalKeyboardInteractive returns a keyboard-interactive responder that
// prompts on the process's controlling terminal. Prompts marked no-echo are
// read with echo disabled, so passwords never appear on screen.
//
// It fails if stdin is not a terminal; non-interactive callers should supply
// their own responder.
func TerminalKeyboardInteractive() ssh2.KeyboardInteractive {
	return func(name, instruction string, prompts []ssh2.Prompt) ([]string, error) {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return nil, fmt.Errorf("client: stdin is not a terminal, cannot prompt")
		}
		if name != "" {
			fmt.Fprintln(os.Stderr, name)
		}
		if instruction != "" {
			fmt.Fprintln(os.Stderr, instruction)
		}

		reader := bufio.NewReader(os.Stdin)
		responses := make([]string, len(prompts))
		for i, p := range prompts {
			fmt.Fprint(os.Stderr, p.Text)
			if p.Echo {
				line, err := reader.ReadString('\n')
				if err != nil {
					return nil, fmt.Errorf("client: read response: %w", err)
				}
				responses[i] = strings.TrimRight(line, "\r\n")
				continue
			}
			secret, err := term.ReadPassword(fd)
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return nil, fmt.Errorf("client: read response: %w", err)
			}
			responses[i] = string(secret)
		}
		return responses, nil
	}
}
