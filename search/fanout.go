package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/cartwise/core"
	"github.com/poiesic/cartwise/provider"
)

// abandonGrace is how long past the provider timeout the collector waits for
// a gateway that ignores its context.
const abandonGrace = 250 * time.Millisecond

type callResult struct {
	index    int
	status   core.ProviderStatus
	listings []core.Listing
}

// fanOut queries every gateway concurrently and waits for all of them to settle.
// Each call runs under its own timeout, detached from ctx's cancellation, so a
// caller that goes away does not abort calls already in flight. Statuses come
// back in gateway order; listings are merged in gateway order with duplicate
// ids dropped.
func (s *Searcher) fanOut(ctx context.Context, gateways []provider.Gateway, queryFor func(core.Retailer) string, page int) ([]core.Listing, []core.ProviderStatus) {
	statuses := make([]core.ProviderStatus, len(gateways))
	perGateway := make([][]core.Listing, len(gateways))
	if len(gateways) == 0 {
		return []core.Listing{}, statuses
	}

	base := context.WithoutCancel(ctx)
	results := make(chan callResult, len(gateways))
	pending := make(map[int]bool, len(gateways))
	start := time.Now()

	for i, g := range gateways {
		statuses[i] = core.ProviderStatus{Retailer: g.Retailer(), State: core.ProviderTimeout}
		query := queryFor(g.Retailer())
		err := s.pool.Submit(func() {
			results <- s.call(base, i, g, query, page)
		})
		if err != nil {
			statuses[i].State = core.ProviderError
			statuses[i].Error = fmt.Sprintf("not dispatched: %v", err)
			s.logger.Warn("provider call not dispatched", "retailer", g.Retailer(), "err", err)
			continue
		}
		pending[i] = true
	}

	deadline := time.NewTimer(s.providerTimeout + abandonGrace)
	defer deadline.Stop()
	for len(pending) > 0 {
		select {
		case r := <-results:
			statuses[r.index] = r.status
			perGateway[r.index] = r.listings
			delete(pending, r.index)
		case <-deadline.C:
			for i := range pending {
				statuses[i].Latency = time.Since(start)
				statuses[i].Error = "abandoned after timeout"
				s.logger.Warn("provider call abandoned", "retailer", gateways[i].Retailer(), "timeout", s.providerTimeout)
			}
			clear(pending)
		}
	}

	merged := make([]core.Listing, 0)
	seen := make(map[string]bool)
	for _, listings := range perGateway {
		for _, l := range listings {
			if seen[l.ID] {
				continue
			}
			seen[l.ID] = true
			merged = append(merged, l)
		}
	}
	return merged, statuses
}

// call runs one gateway search and classifies its outcome.
func (s *Searcher) call(base context.Context, index int, g provider.Gateway, query string, page int) callResult {
	ctx, cancel := context.WithTimeout(base, s.providerTimeout)
	defer cancel()

	start := time.Now()
	listings, err := safeSearch(ctx, g, query, page)
	status := core.ProviderStatus{Retailer: g.Retailer(), Latency: time.Since(start)}

	switch {
	case err == nil:
		listings = provider.Normalize(g.Retailer(), g.Class(), listings)
		status.State = core.ProviderOK
		status.Count = len(listings)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		status.State = core.ProviderTimeout
		status.Error = err.Error()
		listings = nil
	default:
		status.State = core.ProviderError
		status.Error = err.Error()
		listings = nil
	}
	if err != nil {
		s.logger.Warn("provider call failed", "retailer", g.Retailer(), "status", status.State, "latency", status.Latency, "err", err)
	} else {
		s.logger.Debug("provider call complete", "retailer", g.Retailer(), "query", query, "count", status.Count, "latency", status.Latency)
	}
	return callResult{index: index, status: status, listings: listings}
}

// safeSearch turns a gateway panic into an error.
func safeSearch(ctx context.Context, g provider.Gateway, query string, page int) (listings []core.Listing, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gateway panic: %v", r)
		}
	}()
	return g.Search(ctx, query, page)
}
