package main

import (
	"fmt"
	"io"
	"strings"
)

// ask prints question and returns the trimmed answer. End of input reads as
// an empty answer so non-interactive runs fall back to defaults.
func (a *app) ask(question string) (string, error) {
	fmt.Fprint(a.out, question)
	line, err := a.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read answer: %w", err)
	}
	if err == io.EOF {
		fmt.Fprintln(a.out)
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a y/n question; only "y" or "yes" accepts.
func (a *app) confirm(question string) (bool, error) {
	ans, err := a.ask(question)
	if err != nil {
		return false, err
	}
	ans = strings.ToLower(ans)
	return ans == "y" || ans == "yes", nil
}
