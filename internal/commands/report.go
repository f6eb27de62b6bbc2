package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/report"
)

type periodFlags struct {
	from string
	to   string
}

func (p *periodFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.from, "from", "", "start date, inclusive (YYYY-MM-DD, default reporting.epoch)")
	cmd.Flags().StringVar(&p.to, "to", "", "end date, exclusive (YYYY-MM-DD, default now)")
}

func (p *periodFlags) parse() (time.Time, time.Time, error) {
	start, err := parseDate("from", p.from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate("to", p.to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s", p.to, p.from)
	}
	return start, end, nil
}

func newReportCommand(configPath *string) *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Host reporting aggregates",
	}
	reportCmd.AddCommand(
		newTotalCommand(configPath, "host-fees", "Total host fees collected on groups", (*report.Service).TotalHostFees),
		newTotalCommand(configPath, "net-amount", "Total net amount received by groups", (*report.Service).TotalNetAmount),
		newBackersCommand(configPath),
		newHostedGroupsCommand(configPath),
		newHostReportCommand(configPath),
	)
	return reportCmd
}

type totalFunc func(*report.Service, context.Context, report.TotalsParams) (model.AggregateResult, error)

func newTotalCommand(configPath *string, use, short string, total totalFunc) *cobra.Command {
	var (
		period   periodFlags
		groups   []uint
		txnType  string
		currency string
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := period.parse()
			if err != nil {
				return err
			}
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			svc, err := a.reports(cmd.Context())
			if err != nil {
				return err
			}
			if currency == "" {
				currency = a.cfg.Reporting.HostCurrency
			}
			res, err := total(svc, cmd.Context(), report.TotalsParams{
				GroupIDs:     groups,
				Type:         model.TransactionType(txnType),
				Start:        start,
				End:          end,
				HostCurrency: currency,
			})
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), res)
		},
	}

	period.register(cmd)
	cmd.Flags().UintSliceVar(&groups, "groups", nil, "group IDs (required)")
	_ = cmd.MarkFlagRequired("groups")
	cmd.Flags().StringVar(&txnType, "type", "", "transaction type (DONATION or EXPENSE)")
	cmd.Flags().StringVar(&currency, "currency", "", "host currency (default reporting.host_currency)")

	return cmd
}

func newBackersCommand(configPath *string) *cobra.Command {
	var (
		period periodFlags
		groups []uint
	)

	cmd := &cobra.Command{
		Use:   "backers",
		Short: "Repeat, new and inactive backers of a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := period.parse()
			if err != nil {
				return err
			}
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			svc, err := a.reports(cmd.Context())
			if err != nil {
				return err
			}
			p := report.BackersParams{Start: start, End: end}
			if cmd.Flags().Changed("groups") {
				p.GroupIDs = groups
			}
			stats, err := svc.BackerStats(cmd.Context(), p)
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), stats)
		},
	}

	period.register(cmd)
	cmd.Flags().UintSliceVar(&groups, "groups", nil, "restrict to these group IDs (default all)")

	return cmd
}

func newHostedGroupsCommand(configPath *string) *cobra.Command {
	var (
		hostID uint
		until  string
	)

	cmd := &cobra.Command{
		Use:   "hosted-groups",
		Short: "Groups a host was responsible for",
		RunE: func(cmd *cobra.Command, args []string) error {
			end, err := parseDate("until", until)
			if err != nil {
				return err
			}
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			svc, err := a.reports(cmd.Context())
			if err != nil {
				return err
			}
			groups, err := svc.HostedGroups(cmd.Context(), hostID, end)
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), groups)
		},
	}

	cmd.Flags().UintVar(&hostID, "host", 0, "host user ID (required)")
	_ = cmd.MarkFlagRequired("host")
	cmd.Flags().StringVar(&until, "until", "", "only groups joined before this date (YYYY-MM-DD, default now)")

	return cmd
}

func newHostReportCommand(configPath *string) *cobra.Command {
	var (
		period   periodFlags
		hostID   uint
		currency string
	)

	cmd := &cobra.Command{
		Use:   "host",
		Short: "Host fees, donations and backers across a host's groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := period.parse()
			if err != nil {
				return err
			}
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			svc, err := a.reports(cmd.Context())
			if err != nil {
				return err
			}
			if currency == "" {
				currency = a.cfg.Reporting.HostCurrency
			}
			rep, err := svc.HostReport(cmd.Context(), hostID, start, end, currency)
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), rep)
		},
	}

	period.register(cmd)
	cmd.Flags().UintVar(&hostID, "host", 0, "host user ID (required)")
	_ = cmd.MarkFlagRequired("host")
	cmd.Flags().StringVar(&currency, "currency", "", "host currency (default reporting.host_currency)")

	return cmd
}
