package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"

	"orange-console/internal/session"
)

// login prompts until the entered secret matches or the operator aborts.
func login(sess *session.Session, prompt func() (string, error), out io.Writer) error {
	for {
		secret, err := prompt()
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return errors.New("login aborted")
			}
			return fmt.Errorf("read secret: %w", err)
		}

		err = sess.Login(secret)
		if err == nil {
			return nil
		}
		if !errors.Is(err, session.ErrBadSecret) {
			return fmt.Errorf("login: %w", err)
		}
		fmt.Fprintln(out, "Wrong secret, try again.")
	}
}

func promptSecret() (string, error) {
	var secret string
	err := huh.NewInput().
		Title("Console secret").
		Description("Enter the shared secret to open the catalog console.").
		EchoMode(huh.EchoModePassword).
		Value(&secret).
		Run()
	return secret, err
}
