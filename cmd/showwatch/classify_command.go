package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hamed0406/showwatch/internal/classify"
	"github.com/hamed0406/showwatch/internal/config"
	"github.com/hamed0406/showwatch/internal/domain"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var (
		siteID  string
		subject string
		targets []string
		plain   bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "classify <file|url>",
		Short: "Classify a saved page or live URL without storing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var rules classify.Rules
			if siteID != "" {
				site, err := siteFromFile(cfg, siteID)
				if err != nil {
					return err
				}
				rules = site.Rules
				if subject == "" {
					subject = site.Subject
				}
				if len(targets) == 0 {
					targets = site.Targets
				}
			}
			if strings.TrimSpace(subject) == "" || len(targets) == 0 {
				return errors.New("need --subject and at least one --target (or --site)")
			}

			body, err := readSource(cmd.Context(), cfg, args[0])
			if err != nil {
				return err
			}
			page := classify.TextPage(body)
			if !plain {
				if page, err = classify.ParseHTMLString(body); err != nil {
					return fmt.Errorf("parse html: %w", err)
				}
			}

			res := classify.New(rules).Classify(page, targets, subject)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprintln(out, res.Summary())
			if open := res.Open(); len(open) > 0 {
				names := make([]string, 0, len(open))
				for _, m := range open {
					names = append(names, m.Target)
				}
				fmt.Fprintf(out, "Bookable at: %s (%s)\n", strings.Join(names, ", "), strings.Join(res.Showtimes, ", "))
			}
			if len(res.Matches) > 0 {
				fmt.Fprintln(out, renderMatches(res))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&siteID, "site", "", "Take subject, targets and rules from this site in SITES_FILE")
	cmd.Flags().StringVar(&subject, "subject", "", "Movie title to look for")
	cmd.Flags().StringArrayVarP(&targets, "target", "t", nil, "Target screen name (repeatable)")
	cmd.Flags().BoolVar(&plain, "text", false, "Treat the input as plain text instead of HTML")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func siteFromFile(cfg *config.Config, id string) (*domain.Site, error) {
	sites, err := config.LoadSites(cfg.SitesFile)
	if err != nil {
		return nil, err
	}
	sel, err := selectSites(sites, []string{id})
	if err != nil {
		return nil, err
	}
	return &sel[0], nil
}

// readSource returns the body of a local file, or fetches an http(s) URL
// through the same fetcher stack the watcher uses.
func readSource(ctx context.Context, cfg *config.Config, src string) (string, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		resp, err := newFetcher(cfg).Fetch(ctx, src)
		if err != nil {
			return "", err
		}
		if !resp.OK() {
			return "", fmt.Errorf("fetch %s: http status %d", src, resp.StatusCode)
		}
		return resp.Body, nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))), nil
}
