package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/gophgroups/internal/client/models"
	"github.com/dmitrijs2005/gophgroups/internal/client/services"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func (r *runner) contactCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Manage the local address book",
	}
	cmd.AddCommand(r.contactAddCommand(), r.contactListCommand())
	return cmd
}

func (r *runner) contactAddCommand() *cobra.Command {
	var phone, name, profileKey string
	cmd := &cobra.Command{
		Use:   "add <account id>",
		Short: "Add or update a contact",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, a *App, args []string) error {
			uid, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid account id: %w", err)
			}
			c := services.Contact{}
			c.UID, c.Phone, c.Name = uid, phone, name
			if profileKey != "" {
				pk, err := zkgroup.ParseProfileKey(profileKey)
				if err != nil {
					return err
				}
				c.ProfileKey = &pk
			}
			if err := a.recipients.AddContact(ctx, c); err != nil {
				return err
			}
			if c.ProfileKey != nil {
				a.prefetchProfile(ctx, uid)
			}
			fmt.Fprintf(a.out, "Saved contact %s\n", uid)
			return nil
		}),
	}
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&profileKey, "profile-key", "", "profile key shared by the contact (hex)")
	return cmd
}

func (r *runner) contactListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List contacts",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, a *App, _ []string) error {
			list, err := a.recipients.ListContacts(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ACCOUNT\tPHONE\tNAME")
			for _, c := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.UID, c.Phone, c.Name)
			}
			return tw.Flush()
		}),
	}
}

// prefetchProfile fetches the profile key credential of a new contact so a
// later group create or update does not wait for it. It needs a logged in
// account and is skipped otherwise.
func (a *App) prefetchProfile(ctx context.Context, uid uuid.UUID) {
	if _, err := a.auth.Resume(ctx); err != nil {
		return
	}
	a.profiles.EnsureProfileCredentials(ctx, []models.Address{{UID: uid}})
}
