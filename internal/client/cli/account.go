package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophgroups/internal/common"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func (r *runner) registerCommand() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and store its identity locally",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, a *App, _ []string) error {
			if name == "" {
				var err error
				if name, err = GetSimpleText(a.reader, "Profile name", a.out); err != nil {
					return err
				}
			}
			password, err := GetPassword(a.out, "Password")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			uid, err := a.auth.Register(ctx, password, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Registered account %s\n", uid)
			return nil
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "profile name")
	return cmd
}

func (r *runner) loginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login <account id>",
		Short: "Log in to an existing account on this device",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, a *App, args []string) error {
			uid, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid account id: %w", err)
			}
			password, err := GetPassword(a.out, "Password")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			if err := a.auth.Login(ctx, uid, password); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Login successful")
			return nil
		}),
	}
}

func (r *runner) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the local identity; groups and contacts are kept",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, a *App, _ []string) error {
			if err := a.auth.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		}),
	}
}

func (r *runner) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the local account id and profile key",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, a *App, _ []string) error {
			id, err := a.auth.LocalIdentity(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "account      %s\n", id.UID)
			fmt.Fprintf(a.out, "profile key  %s\n", id.ProfileKey)
			return nil
		}),
	}
}

func (r *runner) pingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the account service is reachable",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, a *App, _ []string) error {
			if err := a.auth.Ping(ctx); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "ok")
			return nil
		}),
	}
}
