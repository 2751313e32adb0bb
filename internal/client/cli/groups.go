package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/dmitrijs2005/gophgroups/internal/client/models"
	"github.com/dmitrijs2005/gophgroups/internal/client/services"
	"github.com/dmitrijs2005/gophgroups/internal/common"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func (r *runner) groupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Create, update and synchronize groups",
	}
	cmd.AddCommand(
		r.groupCreateCommand(),
		r.groupUpdateCommand(),
		r.groupAvatarCommand(),
		r.groupShowCommand(),
		r.groupListCommand(),
		r.groupImportCommand(),
		r.groupRefreshCommand(),
		r.groupLogCommand(),
	)
	return cmd
}

// resolve maps a member argument to an account id.
func (a *App) resolve(ctx context.Context, s string) (uuid.UUID, error) {
	addr, err := parseAddress(s)
	if err != nil {
		return uuid.Nil, err
	}
	uid, err := a.recipients.ResolveAddress(ctx, addr)
	if errors.Is(err, common.ErrorNotFound) {
		return uuid.Nil, fmt.Errorf("unknown contact %s (add it with 'groupsync contact add')", s)
	}
	return uid, err
}

// update sends next and explains a conflict.
func (a *App) update(ctx context.Context, next models.GroupState) error {
	updated, err := a.groups.UpdateGroup(ctx, next)
	if errors.Is(err, common.ErrConflict) {
		return fmt.Errorf("%w: the group changed on the server, run 'groupsync group refresh %s' and retry", err, next.MasterKey)
	}
	if err != nil {
		return err
	}
	printGroup(a.out, updated.Group)
	return nil
}

func (r *runner) groupCreateCommand() *cobra.Command {
	var (
		title, attributesAccess, membersAccess string
		members                                []string
		timer                                  uint32
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a group with this account as administrator",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, a *App, _ []string) error {
			g := services.NewGroup{Title: title, DisappearingMessagesTimer: timer}
			for _, m := range members {
				addr, err := parseAddress(m)
				if err != nil {
					return err
				}
				g.Members = append(g.Members, addr)
			}
			if attributesAccess != "" || membersAccess != "" {
				access := models.DefaultAccessControl()
				if err := setAccess(&access, attributesAccess, membersAccess); err != nil {
					return err
				}
				g.Access = &access
			}

			if _, err := a.resume(ctx); err != nil {
				return err
			}
			state, err := a.groups.CreateGroup(ctx, g)
			if err != nil {
				return err
			}
			printGroup(a.out, state)
			fmt.Fprintf(a.out, "\nShare the master key with members: %s\n", state.MasterKey)
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&title, "title", "", "group title")
	f.StringArrayVar(&members, "member", nil, "member account id or phone number (repeatable)")
	f.Uint32Var(&timer, "timer", 0, "disappearing messages timer, seconds")
	f.StringVar(&attributesAccess, "attributes-access", "", "who may edit title, avatar and timer")
	f.StringVar(&membersAccess, "members-access", "", "who may add and remove members")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func setAccess(access *models.AccessControl, attributes, members string) error {
	if attributes != "" {
		v, err := parseAccess(attributes)
		if err != nil {
			return err
		}
		access.Attributes = v
	}
	if members != "" {
		v, err := parseAccess(members)
		if err != nil {
			return err
		}
		access.Members = v
	}
	return nil
}

func (r *runner) groupUpdateCommand() *cobra.Command {
	var (
		title, avatar, attributesAccess, membersAccess string
		timer                                          uint32
		add, remove, promote, demote                   []string
	)
	cmd := &cobra.Command{
		Use:   "update <master key>",
		Short: "Change a group as the next revision",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, a *App, args []string) error {
			mk, err := parseMasterKey(args[0])
			if err != nil {
				return err
			}
			if _, err := a.resume(ctx); err != nil {
				return err
			}
			current, err := a.groups.GetGroup(ctx, mk)
			if err != nil {
				return err
			}

			next := current.Clone()
			if title != "" {
				next.Title = title
			}
			if avatar != "" {
				next.Avatar = avatar
			}
			if timer > 0 {
				next.DisappearingMessagesTimer = timer
			}
			if err := setAccess(&next.Access, attributesAccess, membersAccess); err != nil {
				return err
			}
			for _, m := range add {
				uid, err := a.resolve(ctx, m)
				if err != nil {
					return err
				}
				if _, ok := next.Member(uid); !ok {
					next.Members = append(next.Members, models.Member{UID: uid, Role: models.RoleDefault})
				}
			}
			for _, m := range remove {
				uid, err := a.resolve(ctx, m)
				if err != nil {
					return err
				}
				next.Members = slices.DeleteFunc(next.Members, func(m models.Member) bool { return m.UID == uid })
			}
			for role, list := range map[models.Role][]string{models.RoleAdministrator: promote, models.RoleDefault: demote} {
				for _, m := range list {
					uid, err := a.resolve(ctx, m)
					if err != nil {
						return err
					}
					i := slices.IndexFunc(next.Members, func(m models.Member) bool { return m.UID == uid })
					if i < 0 {
						return fmt.Errorf("%s is not a member", m)
					}
					next.Members[i].Role = role
				}
			}

			return a.update(ctx, next)
		}),
	}
	f := cmd.Flags()
	f.StringVar(&title, "title", "", "new title")
	f.StringVar(&avatar, "avatar-key", "", "key of an uploaded avatar")
	f.Uint32Var(&timer, "timer", 0, "new disappearing messages timer, seconds")
	f.StringVar(&attributesAccess, "attributes-access", "", "who may edit title, avatar and timer")
	f.StringVar(&membersAccess, "members-access", "", "who may add and remove members")
	f.StringArrayVar(&add, "add", nil, "member to add (repeatable)")
	f.StringArrayVar(&remove, "remove", nil, "member to remove (repeatable)")
	f.StringArrayVar(&promote, "promote", nil, "member to make administrator (repeatable)")
	f.StringArrayVar(&demote, "demote", nil, "administrator to make a regular member (repeatable)")
	return cmd
}

func (r *runner) groupAvatarCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "avatar <master key> <image file>",
		Short: "Upload an encrypted avatar and set it on the group",
		Args:  cobra.ExactArgs(2),
		RunE: r.run(func(ctx context.Context, a *App, args []string) error {
			mk, err := parseMasterKey(args[0])
			if err != nil {
				return err
			}
			image, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			if _, err := a.resume(ctx); err != nil {
				return err
			}
			current, err := a.groups.GetGroup(ctx, mk)
			if err != nil {
				return err
			}

			key, err := a.avatars.UploadAvatar(ctx, mk, image)
			if err != nil {
				return err
			}
			next := current.Clone()
			next.Avatar = key
			return a.update(ctx, next)
		}),
	}
}

func (r *runner) groupShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <master key>",
		Short: "Print the locally stored state of a group",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, a *App, args []string) error {
			mk, err := parseMasterKey(args[0])
			if err != nil {
				return err
			}
			g, err := a.groups.GetGroup(ctx, mk)
			if err != nil {
				return err
			}
			printGroup(a.out, g)
			return nil
		}),
	}
}

func (r *runner) groupListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List locally known groups",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, a *App, _ []string) error {
			groups, err := a.groups.ListGroups(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MASTER KEY\tREVISION\tMEMBERS\tTITLE")
			for _, g := range groups {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", g.MasterKey, g.Revision, len(g.Members), g.Title)
			}
			return tw.Flush()
		}),
	}
}

// syncCommand builds import and refresh, which differ only in the service
// call.
func (r *runner) syncCommand(use, short string, sync func(GroupSyncer, context.Context, zkgroup.GroupMasterKey) (models.GroupState, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <master key>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, a *App, args []string) error {
			mk, err := parseMasterKey(args[0])
			if err != nil {
				return err
			}
			if _, err := a.resume(ctx); err != nil {
				return err
			}
			g, err := sync(a.groups, ctx, mk)
			if err != nil {
				return err
			}
			printGroup(a.out, g)
			return nil
		}),
	}
}

// GroupSyncer is the part of services.GroupService used by import and
// refresh.
type GroupSyncer interface {
	ImportGroup(ctx context.Context, mk zkgroup.GroupMasterKey) (models.GroupState, error)
	RefreshGroup(ctx context.Context, mk zkgroup.GroupMasterKey) (models.GroupState, error)
}

func (r *runner) groupImportCommand() *cobra.Command {
	return r.syncCommand("import", "Start tracking a group from its master key", GroupSyncer.ImportGroup)
}

func (r *runner) groupRefreshCommand() *cobra.Command {
	return r.syncCommand("refresh", "Bring a group up to the server revision", GroupSyncer.RefreshGroup)
}

func (r *runner) groupLogCommand() *cobra.Command {
	var from uint32
	cmd := &cobra.Command{
		Use:   "log <master key>",
		Short: "Print server-signed changes of a group",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, a *App, args []string) error {
			mk, err := parseMasterKey(args[0])
			if err != nil {
				return err
			}
			if _, err := a.resume(ctx); err != nil {
				return err
			}

			var changes []models.GroupV2Change
			if from == 0 {
				changes, err = a.groups.FetchGroupChangeActions(ctx, mk)
			} else {
				changes, err = a.groups.FetchChangeLog(ctx, mk, from)
			}
			if err != nil {
				return err
			}
			if len(changes) == 0 {
				fmt.Fprintln(a.out, "No new changes")
				return nil
			}
			for _, c := range changes {
				fmt.Fprintln(a.out, describeChange(c))
			}
			return nil
		}),
	}
	cmd.Flags().Uint32Var(&from, "from", 0, "first revision; default is the one after the stored revision")
	return cmd
}
