package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/model"
)

func newGroupCommand(configPath *string) *cobra.Command {
	groupCmd := &cobra.Command{
		Use:   "group",
		Short: "Groups and their members",
	}
	groupCmd.AddCommand(
		newGroupCreateCommand(configPath),
		newGroupAddMemberCommand(configPath),
	)
	return groupCmd
}

func newGroupCreateCommand(configPath *string) *cobra.Command {
	var g model.Group

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if g.Slug == "" {
				g.Slug = g.Name
			}
			g.Slug = model.NormalizeSlug(g.Slug)
			g.Currency = model.NormalizeCurrency(g.Currency)
			if err := a.store.CreateGroup(cmd.Context(), &g); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created group %d (%s)\n", g.ID, g.Slug)
			return nil
		},
	}

	cmd.Flags().StringVar(&g.Name, "name", "", "group name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&g.Slug, "slug", "", "slug (default derived from the name)")
	cmd.Flags().StringVar(&g.Currency, "currency", "USD", "group currency")

	return cmd
}

func newGroupAddMemberCommand(configPath *string) *cobra.Command {
	var (
		userID uint
		role   string
	)

	cmd := &cobra.Command{
		Use:   "add-member <group-id>",
		Short: "Add a user to a group with a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groupID, err := parseID("group", args[0])
			if err != nil {
				return err
			}
			r := model.Role(strings.ToUpper(role))
			switch r {
			case model.RoleHost, model.RoleMember, model.RoleBacker:
			default:
				return fmt.Errorf("unknown role %q", role)
			}

			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			m := model.UserGroup{UserID: userID, GroupID: groupID, Role: r}
			if err := a.store.AddMember(cmd.Context(), &m); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added user %d to group %d as %s\n", userID, groupID, r)
			return nil
		},
	}

	cmd.Flags().UintVar(&userID, "user", 0, "user ID (required)")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().StringVar(&role, "role", string(model.RoleMember), "HOST, MEMBER or BACKER")

	return cmd
}

func newEventCommand(configPath *string) *cobra.Command {
	eventCmd := &cobra.Command{
		Use:   "event",
		Short: "Events that own tiers",
	}
	eventCmd.AddCommand(
		newEventCreateCommand(configPath),
		newEventDeleteCommand(configPath),
	)
	return eventCmd
}

func newEventCreateCommand(configPath *string) *cobra.Command {
	var (
		groupID uint
		name    string
		period  periodFlags
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event in a group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			starts, ends, err := period.parse()
			if err != nil {
				return err
			}
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			e := model.Event{
				GroupID:  groupID,
				Name:     name,
				Slug:     model.NormalizeSlug(name),
				StartsAt: starts,
				EndsAt:   ends,
			}
			if err := a.store.CreateEvent(cmd.Context(), &e); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created event %d (%s)\n", e.ID, e.Slug)
			return nil
		},
	}

	cmd.Flags().UintVar(&groupID, "group", 0, "owning group ID (required)")
	_ = cmd.MarkFlagRequired("group")
	cmd.Flags().StringVar(&name, "name", "", "event name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&period.from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&period.to, "to", "", "end date (YYYY-MM-DD)")

	return cmd
}

func newEventDeleteCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an event, detaching its tiers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("event", args[0])
			if err != nil {
				return err
			}
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.DeleteEvent(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted event %d\n", id)
			return nil
		},
	}
}
