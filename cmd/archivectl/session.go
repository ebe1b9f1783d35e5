package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/debemdeboas/the-archive-writer/internal/session"
)

func (c *cli) loginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the blog API and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}

			if password == "" {
				password = os.Getenv("ARCHIVE_PASSWORD")
			}
			if password == "" {
				password, err = readLine(cmd, "Password: ")
				if err != nil {
					return err
				}
			}

			res, err := a.Session.Login(cmd.Context(), a.API, username, password)
			if err != nil {
				return errors.New(session.ErrorMessage(err))
			}

			msg := res.Message
			if msg == "" {
				msg = "Login successful!"
			}
			c.printer(cmd.OutOrStdout()).line(successStyle, "%s", msg)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", os.Getenv("ARCHIVE_USERNAME"), "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (defaults to $ARCHIVE_PASSWORD, then a prompt)")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Session.Logout(); err != nil {
				return err
			}
			c.printer(cmd.OutOrStdout()).line(successStyle, "Logged out.")
			return nil
		},
	}
}

func readLine(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
