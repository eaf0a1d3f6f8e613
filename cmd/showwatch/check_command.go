package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/showwatch/internal/classify"
	"github.com/hamed0406/showwatch/internal/domain"
	"github.com/hamed0406/showwatch/internal/scheduler"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check [site-id...]",
		Short: "Check sites once and print what was found",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(false)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			st, err := openStores(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer st.close()

			sites, err := loadSites(cmd.Context(), cfg, st.sites)
			if err != nil {
				return err
			}
			sites, err = selectSites(sites, args)
			if err != nil {
				return err
			}

			w := scheduler.NewWatcher(logger, st.sites, st.results, newFetcher(cfg), nil,
				0, checkBudget(cfg), 1)

			statuses := make([]domain.SiteStatus, 0, len(sites))
			for _, s := range sites {
				cr, err := w.CheckSite(cmd.Context(), s)
				if err != nil {
					logger.Warn("check_store_error", zap.String("site_id", string(s.ID)), zap.Error(err))
				}
				statuses = append(statuses, domain.NewSiteStatus(s, cr))
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(statuses)
			}
			fmt.Fprintln(out, renderStatuses(statuses))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}

func selectSites(all []domain.Site, ids []string) ([]domain.Site, error) {
	if len(ids) == 0 {
		return all, nil
	}
	out := make([]domain.Site, 0, len(ids))
	for _, id := range ids {
		i := slices.IndexFunc(all, func(s domain.Site) bool { return string(s.ID) == id })
		if i < 0 {
			return nil, fmt.Errorf("unknown site %q", id)
		}
		out = append(out, all[i])
	}
	return out, nil
}

func renderStatuses(statuses []domain.SiteStatus) string {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		code := "-"
		if s.HTTPStatus != nil {
			code = strconv.Itoa(*s.HTTPStatus)
		}
		screens := make([]string, 0, len(s.Matches))
		for _, m := range s.Matches {
			screens = append(screens, m.Target+" ("+string(m.Status)+")")
		}
		rows = append(rows, []string{
			string(s.SiteID),
			code,
			yesNo(s.Bookable),
			strings.Join(s.Showtimes, ", "),
			strings.Join(screens, "; "),
			s.Reason,
		})
	}
	return renderTable(
		[]string{"Site", "HTTP", "Bookable", "Showtimes", "Screens", "Reason"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	)
}

func renderMatches(res classify.Result) string {
	rows := make([][]string, 0, len(res.Matches))
	for _, m := range res.Matches {
		showtimes := m.Evidence.Showtimes
		if len(showtimes) == 0 {
			showtimes = m.Evidence.Schedule
		}
		rows = append(rows, []string{
			m.Target,
			string(m.Status),
			m.Name,
			strings.Join(showtimes, ", "),
			evidenceFlags(m.Evidence),
			m.Note,
		})
	}
	return renderTable(
		[]string{"Target", "Status", "Matched As", "Showtimes", "Evidence", "Note"},
		rows,
		nil,
	)
}

func evidenceFlags(e classify.Evidence) string {
	var flags []string
	for _, f := range []struct {
		on   bool
		name string
	}{
		{e.Exact, "exact"},
		{e.Proximity, "proximity"},
		{e.HTML, "html"},
		{e.Strong, "strong"},
		{e.Weak, "weak"},
		{e.ScreenLabel, "label"},
	} {
		if f.on {
			flags = append(flags, f.name)
		}
	}
	return strings.Join(flags, ",")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
