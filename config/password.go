package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Password returns the vault password from the environment, or prompts on
// the terminal when it is unset. confirm asks twice and requires a match.
func Password(env *Env, confirm bool) (string, error) {
	if env != nil && env.Password != "" {
		return env.Password, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no terminal: set %s_PASSWORD", EnvPrefix)
	}
	pw, err := promptHidden(os.Stderr, "Vault password: ")
	if err != nil {
		return "", err
	}
	if pw == "" {
		return "", fmt.Errorf("empty password")
	}
	if confirm {
		again, err := promptHidden(os.Stderr, "Confirm password: ")
		if err != nil {
			return "", err
		}
		if again != pw {
			return "", fmt.Errorf("passwords do not match")
		}
	}
	return pw, nil
}

// PromptSecret reads a line from the terminal without echo.
func PromptSecret(prompt string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no terminal for %q", strings.TrimSpace(prompt))
	}
	return promptHidden(os.Stderr, prompt)
}

func promptHidden(w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	s := string(raw)
	for i := range raw {
		raw[i] = 0
	}
	return s, nil
}
