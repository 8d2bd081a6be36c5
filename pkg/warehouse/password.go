package warehouse

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// PasswordEnv is the environment variable consulted before prompting.
const PasswordEnv = "DB_PASSWORD"

// PromptFunc asks the operator for a password.
type PromptFunc func(prompt string) (string, error)

// ResolvePassword returns explicit if set, then the DB_PASSWORD value from
// lookup, and finally asks prompt.
func ResolvePassword(explicit string, lookup func(string) (string, bool), prompt PromptFunc) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if lookup != nil {
		if v, ok := lookup(PasswordEnv); ok && v != "" {
			return v, nil
		}
	}
	if prompt == nil {
		return "", fmt.Errorf("no password available: set %s", PasswordEnv)
	}
	return prompt(fmt.Sprintf("Type your password (or set %s env variable): ", PasswordEnv))
}

// TerminalPrompt reads a password from stdin without echo. It writes the
// prompt to out.
func TerminalPrompt(out io.Writer) PromptFunc {
	return func(prompt string) (string, error) {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return "", fmt.Errorf("stdin is not a terminal: set %s", PasswordEnv)
		}
		fmt.Fprint(out, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimRight(string(b), "\r\n"), nil
	}
}
