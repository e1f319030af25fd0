package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/poiesic/cartwise"
	"github.com/poiesic/cartwise/core"
	"github.com/poiesic/cartwise/search"
	"github.com/urfave/cli/v2"
)

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("a query is required")
	}

	cfg, err := engineConfig(c)
	if err != nil {
		return err
	}
	engine, err := cartwise.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}
	defer engine.Close()

	req := search.Request{
		Query:       query,
		Page:        c.Int("page"),
		Market:      core.Market(c.String("market")),
		Zipcode:     c.String("zip"),
		Memberships: c.StringSlice("membership"),
	}
	if c.IsSet("balance") {
		b := c.Float64("balance")
		req.PriceSpeedBalance = &b
	}

	resp := engine.Search(context.Background(), req)
	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	return printResponse(c.App.Writer, resp, c.Int("limit"))
}

// printResponse writes a human-readable summary of resp.
func printResponse(w io.Writer, resp *search.Response, limit int) error {
	if len(resp.SuggestedCategories) > 0 && len(resp.Listings) == 0 {
		fmt.Fprintf(w, "Not a product search. Try browsing: %s\n", strings.Join(resp.SuggestedCategories, ", "))
		return nil
	}

	fmt.Fprintf(w, "%d results for %q (%d domestic, %d international) in %s",
		resp.TotalCount, resp.Query, resp.DomesticCount, resp.InternationalCount, formatDuration(resp.Duration))
	if resp.FromCache {
		fmt.Fprint(w, " [cached]")
	}
	if resp.Refined {
		fmt.Fprint(w, " [refined]")
	}
	fmt.Fprintln(w)

	for _, st := range resp.ProviderStatus {
		if st.State != core.ProviderOK {
			fmt.Fprintf(w, "  %s: %s %s\n", st.Retailer, st.State, st.Error)
		}
	}
	if len(resp.Listings) == 0 {
		return nil
	}

	s := resp.AxisSummary
	fmt.Fprintf(w, "Best: %s ($%.2f)  Cheapest: %s ($%.2f)  Fastest: %s (%s)\n\n",
		s.Best.Name, s.Best.Price, s.Cheapest.Name, s.Cheapest.Price, s.Fastest.Name, s.Fastest.Delivery)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tRETAILER\tNAME\tPRICE\tLANDED\tDELIVERY\tSCORE\tFLAGS")
	for i, l := range resp.Listings {
		if limit > 0 && i >= limit {
			break
		}
		name := l.Name
		if r := []rune(name); len(r) > 48 {
			name = string(r[:47]) + "…"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t$%.2f\t$%.2f\t%s\t%.1f\t%s\n",
			i+1, l.Retailer, name, l.ParsedPrice, l.LandedPrice, l.Delivery, l.Score, strings.Join(l.FraudFlags, ","))
	}
	return tw.Flush()
}
