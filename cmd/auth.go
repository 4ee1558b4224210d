package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"jobdash/internal/model"
	"jobdash/internal/session"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	authEmail    string
	authPassword string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the backend session",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		return signIn(cmd.Context(), (*session.App).Login)
	},
}

var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		return signIn(cmd.Context(), (*session.App).Register)
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := backend()
		if err != nil {
			return err
		}

		app := session.New(client)
		_ = app.Logout(cmd.Context())
		printToasts(app)

		return saveSession(client)
	},
}

var authWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := backend()
		if err != nil {
			return err
		}

		app := session.New(client)
		app.Init(cmd.Context())

		u := app.User()
		if u == nil {
			fmt.Println("not signed in")
			return nil
		}
		fmt.Printf("%s (%s)\n", u.Email, u.Role)
		return nil
	},
}

func signIn(ctx context.Context, call func(*session.App, context.Context, model.Credentials) error) error {
	creds, err := credentials()
	if err != nil {
		return err
	}

	client, err := backend()
	if err != nil {
		return err
	}

	app := session.New(client)
	err = call(app, ctx, creds)
	printToasts(app)
	if err != nil {
		return err
	}

	return saveSession(client)
}

func printToasts(app *session.App) {
	for _, t := range app.Toasts() {
		if t.Level == session.LevelError {
			_, _ = fmt.Fprintln(os.Stderr, t.Message)
			continue
		}
		fmt.Println(t.Message)
	}
}

func credentials() (model.Credentials, error) {
	email := strings.TrimSpace(authEmail)
	if email == "" {
		return model.Credentials{}, errors.New("--email is required")
	}

	password := authPassword
	if password == "" {
		fmt.Print("password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return model.Credentials{}, fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	return model.Credentials{Email: email, Password: password}, nil
}

func init() {
	for _, c := range []*cobra.Command{authLoginCmd, authRegisterCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "account email")
		c.Flags().StringVar(&authPassword, "password", "", "account password (prompted when empty)")
	}

	authCmd.AddCommand(authLoginCmd, authRegisterCmd, authLogoutCmd, authWhoamiCmd)
	rootCmd.AddCommand(authCmd)
}
