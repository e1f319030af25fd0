package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/poiesic/cartwise/core"
	"github.com/poiesic/cartwise/membership"
	"github.com/poiesic/cartwise/storage/badger"
	"github.com/urfave/cli/v2"
)

func logsCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewRequestLogRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to open request logs: %w", err)
	}
	defer repo.Close()

	if age := c.Duration("prune-older-than"); age > 0 {
		n, err := repo.DeleteRequestLogsBefore(ctx, time.Now().Add(-age))
		if err != nil {
			return fmt.Errorf("failed to prune request logs: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "Pruned %d request logs\n", n)
		if err := backend.CollectGarbage(0.5); err != nil {
			slog.Warn("value log garbage collection failed", "err", err)
		}
	}

	logs, err := repo.GetRecentRequestLogs(ctx, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to read request logs: %w", err)
	}
	return printLogs(c.App.Writer, logs)
}

func printLogs(w io.Writer, logs []*core.RequestLog) error {
	if len(logs) == 0 {
		fmt.Fprintln(w, "No request logs")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tQUERY\tPAGE\tINTENT\tSOURCE\tRESULTS\tDURATION\tNOTES")
	for _, l := range logs {
		var notes []string
		if l.FromCache {
			notes = append(notes, "cached")
		}
		if l.Refined {
			notes = append(notes, "refined")
		}
		if l.RelevanceApplied {
			notes = append(notes, "judged")
		}
		for _, p := range l.Providers {
			if p.State != core.ProviderOK {
				notes = append(notes, fmt.Sprintf("%s=%s", p.Retailer, p.State))
			}
		}
		rules := make([]string, 0, len(l.FraudRemoved))
		for rule, n := range l.FraudRemoved {
			rules = append(rules, fmt.Sprintf("%s:%d", rule, n))
		}
		sort.Strings(rules)
		notes = append(notes, rules...)

		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%d\t%s\t%s\n",
			l.Timestamp.Local().Format(time.DateTime), l.Query, l.Page, l.Intent, l.IntentSource,
			l.ResultCount, formatDuration(l.Duration), strings.Join(notes, " "))
	}
	return tw.Flush()
}

func membershipsCommand(c *cli.Context) error {
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tRETAILER\tSHIPPING\tDELIVERY")
	for _, p := range membership.DefaultCatalog().Programs() {
		shipping := "-"
		if p.ShippingOverride != nil {
			shipping = fmt.Sprintf("$%.2f", *p.ShippingOverride)
		}
		delivery := "-"
		if p.DeliveryDaysMax > 0 {
			delivery = fmt.Sprintf("%d-%d days", p.DeliveryDaysMin, p.DeliveryDaysMax)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Retailer.String(), shipping, delivery)
	}
	return tw.Flush()
}
