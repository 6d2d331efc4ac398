package cli

import (
	"fmt"

	"github.com/sitesentry/sitesentry/internal/models"

	"github.com/spf13/cobra"
)

var (
	siteScheduleKind string
	siteScheduleExpr string
	siteMaxDepth     int
	siteInactive     bool
)

// newSitesCommand groups the operator-facing site registry commands.
func newSitesCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "sites",
		Short: "Manage monitored sites",
	}
	root.AddCommand(newSitesListCommand())
	root.AddCommand(newSitesAddCommand())
	root.AddCommand(newSitesRemoveCommand())
	root.AddCommand(newSitesPauseCommand())
	root.AddCommand(newSitesResumeCommand())
	return root
}

func newSitesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List monitored sites and their job status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			statuses, err := a.orchestrator.Status(cmd.Context())
			if err != nil {
				return err
			}
			for _, st := range statuses {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tactive=%t\tstatus=%s\tnext_run=%s\tfailures=%d\n",
					st.SiteID, st.Active, st.JobStatus, st.NextRunAt.Format("2006-01-02T15:04:05Z07:00"), st.ConsecutiveFailures)
			}
			return nil
		},
	}
}

func newSitesAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <site-id> <url>",
		Short: "Register a new site to monitor",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			site := &models.Site{
				ID:  args[0],
				URL: args[1],
				Schedule: models.Schedule{
					Kind:       models.ScheduleKind(siteScheduleKind),
					Expression: siteScheduleExpr,
				},
				Active:   !siteInactive,
				MaxDepth: siteMaxDepth,
			}
			if err := a.orchestrator.RegisterSite(cmd.Context(), site); err != nil {
				return fmt.Errorf("register site: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s (%s)\n", site.ID, site.URL)
			return nil
		},
	}
	cmd.Flags().StringVar(&siteScheduleKind, "schedule-kind", string(models.ScheduleInterval), "schedule kind: interval or cron")
	cmd.Flags().StringVar(&siteScheduleExpr, "schedule", "5m", "schedule expression (e.g. 5m, 1h, or a 5-field cron expression)")
	cmd.Flags().IntVar(&siteMaxDepth, "max-depth", 0, "maximum crawl depth for this site")
	cmd.Flags().BoolVar(&siteInactive, "inactive", false, "register the site without enrolling it in the scheduler")
	return cmd
}

func newSitesRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <site-id>",
		Short: "Unregister a site and its job bookkeeping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.orchestrator.UnregisterSite(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("unregister site: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}

func newSitesPauseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause all monitored sites without unregistering them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return a.orchestrator.PauseAll(cmd.Context())
		},
	}
}

func newSitesResumeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume all paused sites",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return a.orchestrator.ResumeAll(cmd.Context())
		},
	}
}
