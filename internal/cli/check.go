package cli

import (
	stderrors "errors"
	"fmt"

	appErrors "github.com/sitesentry/sitesentry/internal/errors"

	"github.com/spf13/cobra"
)

// newCheckCommand runs a single check cycle against an already
// registered site, bypassing the scheduler's due-time gating. Useful
// for verifying a site's configuration or forcing an immediate look
// after a suspected incident.
func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <site-id>",
		Short: "Run one check cycle for a registered site immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := appFromContext(cmd.Context())
	if err != nil {
		return err
	}
	siteID := args[0]

	site, err := a.sites.Get(cmd.Context(), siteID)
	if err != nil {
		if stderrors.Is(err, appErrors.ErrNotFound) {
			return fmt.Errorf("no such site %q", siteID)
		}
		return err
	}

	if err := a.startBrowser(); err != nil {
		return fmt.Errorf("start browser pool: %w", err)
	}
	defer a.browser.Stop()

	if err := a.engine.Run(cmd.Context(), site); err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "check complete for %s (%s)\n", site.ID, site.URL)
	return nil
}
