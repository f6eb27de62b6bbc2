package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/model"
)

func newTierCommand(configPath *string) *cobra.Command {
	tierCmd := &cobra.Command{
		Use:   "tier",
		Short: "Tier inventory",
	}
	tierCmd.AddCommand(
		newTierListCommand(configPath),
		newTierAvailableCommand(configPath),
		newTierUpdateCommand(configPath),
		newTierReserveCommand(configPath),
		newTierDeleteCommand(configPath),
	)
	return tierCmd
}

func newTierListCommand(configPath *string) *cobra.Command {
	var eventID uint

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List live tiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			var event *uint
			if cmd.Flags().Changed("event") {
				event = &eventID
			}
			tiers, err := a.tiers.List(cmd.Context(), event)
			if err != nil {
				return err
			}
			infos := make([]model.TierInfo, len(tiers))
			for i, t := range tiers {
				infos[i] = t.Info()
			}
			return printYAML(cmd.OutOrStdout(), infos)
		},
	}

	cmd.Flags().UintVar(&eventID, "event", 0, "only tiers of this event")

	return cmd
}

func newTierAvailableCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "available <id>",
		Short: "Show the remaining quantity of a tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTierID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.tiers.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			avail, err := a.tiers.AvailableQuantity(cmd.Context(), t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", t.Slug, avail)
			return nil
		},
	}
}

func newTierUpdateCommand(configPath *string) *cobra.Command {
	var upd model.Tier

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the fields of a live tier",
		Long: `Change the fields of a live tier. Only the flags given are applied; the
slug is kept unless --slug is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTierID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.tiers.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("name") {
				t.Name = upd.Name
			}
			if flags.Changed("slug") {
				t.Slug = upd.Slug
			}
			if flags.Changed("description") {
				t.Description = upd.Description
			}
			if flags.Changed("amount") {
				t.Amount = upd.Amount
			}
			if flags.Changed("currency") {
				t.Currency = upd.Currency
			}
			if flags.Changed("max-quantity") {
				t.MaxQuantity = upd.MaxQuantity
			}
			if flags.Changed("max-quantity-per-user") {
				t.MaxQuantityPerUser = upd.MaxQuantityPerUser
			}

			if err := a.tiers.Update(cmd.Context(), &t); err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), t.Info())
		},
	}

	cmd.Flags().StringVar(&upd.Name, "name", "", "display name")
	cmd.Flags().StringVar(&upd.Slug, "slug", "", "slug (normalized)")
	cmd.Flags().StringVar(&upd.Description, "description", "", "description")
	cmd.Flags().Int64Var(&upd.Amount, "amount", 0, "price in cents")
	cmd.Flags().StringVar(&upd.Currency, "currency", "", "ISO currency code")
	cmd.Flags().Int64Var(&upd.MaxQuantity, "max-quantity", 0, "quantity cap, 0 for unlimited")
	cmd.Flags().Int64Var(&upd.MaxQuantityPerUser, "max-quantity-per-user", 0, "per-user cap, 0 for unlimited")

	return cmd
}

func newTierReserveCommand(configPath *string) *cobra.Command {
	var (
		userID   uint
		quantity int64
	)

	cmd := &cobra.Command{
		Use:   "reserve <id>",
		Short: "Reserve units of a tier for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTierID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			r, err := a.tiers.Reserve(cmd.Context(), id, userID, quantity)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reserved %d of tier %d for user %d (reservation %d)\n", r.Quantity, r.TierID, r.UserID, r.ID)
			return nil
		},
	}

	cmd.Flags().UintVar(&userID, "user", 0, "user ID (required)")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().Int64Var(&quantity, "quantity", 1, "number of units")

	return cmd
}

func newTierDeleteCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Soft delete a tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTierID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.tiers.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted tier %d\n", id)
			return nil
		},
	}
}

func parseTierID(s string) (uint, error) {
	return parseID("tier", s)
}

func parseID(kind, s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return 0, fmt.Errorf("invalid %s id %q", kind, s)
	}
	return uint(id), nil
}
