package search

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/cartwise/ai"
	"github.com/poiesic/cartwise/analytics"
	"github.com/poiesic/cartwise/cache"
	"github.com/poiesic/cartwise/core"
	"github.com/poiesic/cartwise/fraud"
	"github.com/poiesic/cartwise/landed"
	"github.com/poiesic/cartwise/membership"
	"github.com/poiesic/cartwise/provider"
	"github.com/poiesic/cartwise/ranking"
)

const (
	DefaultProviderTimeout = 12 * time.Second
	DefaultPoolSize        = 64

	// MinSufficientResults is the smallest result set that does not trigger refinement.
	MinSufficientResults = 5
)

// snapshot is the cached outcome of a product search. It does not depend on
// the price/speed balance or the active memberships, which are applied on
// every read. Snapshots are shared between requests and never modified.
type snapshot struct {
	analysis   *core.QueryAnalysis
	scored     []core.ScoredListing
	statuses   []core.ProviderStatus
	fraudStats fraud.Stats
	removed    map[string]int
	refined    bool
}

// Searcher runs shopping searches across retailer gateways.
type Searcher struct {
	gateways        []provider.Gateway
	pool            *ants.Pool
	poolSize        int
	classifier      ai.IntentClassifier
	judge           ai.RelevanceJudge
	policy          AgentPolicy
	fraud           *fraud.Filter
	catalog         *membership.Catalog
	cache           *cache.Cache[*snapshot]
	cacheOpts       []cache.Option
	cacheDisabled   bool
	sink            analytics.Sink
	monitor         SearchMonitor
	providerTimeout time.Duration
	logger          *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithPoolSize sets how many provider calls may run at once across all requests.
// Default is 64.
func WithPoolSize(size int) Option {
	return func(s *Searcher) error {
		if size < 1 {
			return fmt.Errorf("%w: got %d", ErrInvalidPoolSize, size)
		}
		s.poolSize = size
		return nil
	}
}

// WithAIProvider uses the provider's classifier and relevance judge.
func WithAIProvider(p ai.AIProvider) Option {
	return func(s *Searcher) error {
		if p != nil {
			s.classifier = p.IntentClassifier()
			s.judge = p.RelevanceJudge()
		}
		return nil
	}
}

// WithIntentClassifier sets the external intent classifier.
// Without one, the keyword classifier handles every query.
func WithIntentClassifier(c ai.IntentClassifier) Option {
	return func(s *Searcher) error {
		s.classifier = c
		return nil
	}
}

// WithRelevanceJudge sets the external relevance judge.
// Without one, relevance judging is skipped.
func WithRelevanceJudge(j ai.RelevanceJudge) Option {
	return func(s *Searcher) error {
		s.judge = j
		return nil
	}
}

// WithAgentPolicy replaces the agent gates and deadlines.
// Default is DefaultAgentPolicy().
func WithAgentPolicy(p AgentPolicy) Option {
	return func(s *Searcher) error {
		s.policy = p
		return nil
	}
}

// WithProviderTimeout sets the per-call provider timeout.
// Default is 12s.
func WithProviderTimeout(d time.Duration) Option {
	return func(s *Searcher) error {
		if d <= 0 {
			return fmt.Errorf("%w: provider timeout %s", ErrInvalidTimeout, d)
		}
		s.providerTimeout = d
		return nil
	}
}

// WithCacheOptions configures the result cache.
func WithCacheOptions(opts ...cache.Option) Option {
	return func(s *Searcher) error {
		s.cacheOpts = append(s.cacheOpts, opts...)
		return nil
	}
}

// WithoutCache disables the result cache.
func WithoutCache() Option {
	return func(s *Searcher) error {
		s.cacheDisabled = true
		return nil
	}
}

// WithSink sets where request logs go.
// Default discards them.
func WithSink(sink analytics.Sink) Option {
	return func(s *Searcher) error {
		if sink == nil {
			sink = analytics.Discard
		}
		s.sink = sink
		return nil
	}
}

// WithMonitor sets the monitor used by Search.
func WithMonitor(m SearchMonitor) Option {
	return func(s *Searcher) error {
		if m == nil {
			m = &noopMonitor{}
		}
		s.monitor = m
		return nil
	}
}

// WithCatalog sets the membership catalog.
// Default is membership.DefaultCatalog().
func WithCatalog(c *membership.Catalog) Option {
	return func(s *Searcher) error {
		if c != nil {
			s.catalog = c
		}
		return nil
	}
}

// WithFraudFilter sets the fraud filter.
func WithFraudFilter(f *fraud.Filter) Option {
	return func(s *Searcher) error {
		if f != nil {
			s.fraud = f
		}
		return nil
	}
}

// NewSearcher creates a searcher over gateways, at most one per retailer.
// Call Release when done.
func NewSearcher(gateways []provider.Gateway, opts ...Option) (*Searcher, error) {
	if len(gateways) == 0 {
		return nil, ErrNoGateways
	}
	seen := make(map[core.Retailer]bool, len(gateways))
	for _, g := range gateways {
		if g == nil {
			return nil, ErrNilGateway
		}
		if seen[g.Retailer()] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateGateway, g.Retailer())
		}
		seen[g.Retailer()] = true
	}

	s := &Searcher{
		gateways:        slices.Clone(gateways),
		poolSize:        DefaultPoolSize,
		policy:          DefaultAgentPolicy(),
		fraud:           fraud.NewFilter(),
		catalog:         membership.DefaultCatalog(),
		sink:            analytics.Discard,
		monitor:         &noopMonitor{},
		providerTimeout: DefaultProviderTimeout,
		logger:          slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.policy = s.policy.normalized()
	s.logger = s.logger.With("component", "searcher")

	if !s.cacheDisabled {
		c, err := cache.New[*snapshot](s.cacheOpts...)
		if err != nil {
			return nil, err
		}
		s.cache = c
	}

	pool, err := ants.NewPool(s.poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	s.pool = pool
	return s, nil
}

// Release frees the provider worker pool.
func (s *Searcher) Release() {
	s.pool.Release()
}

// Retailers lists the retailers the searcher can query.
func (s *Searcher) Retailers() []core.Retailer {
	out := make([]core.Retailer, len(s.gateways))
	for i, g := range s.gateways {
		out[i] = g.Retailer()
	}
	return out
}

// Catalog returns the membership catalog in use.
func (s *Searcher) Catalog() *membership.Catalog {
	return s.catalog
}

// Search runs req with the searcher's monitor.
func (s *Searcher) Search(ctx context.Context, req Request) *Response {
	return s.SearchWithMonitor(ctx, req, nil)
}

// SearchWithMonitor runs req. The monitor receives callbacks at each stage;
// nil uses the searcher's monitor.
//
// The response is always well formed. Provider failures appear in
// ProviderStatus, agent failures fall back silently, and a search no
// provider could answer returns an empty listing set.
func (s *Searcher) SearchWithMonitor(ctx context.Context, req Request, monitor SearchMonitor) *Response {
	if monitor == nil {
		monitor = s.monitor
	}
	started := time.Now()
	req = req.normalized()
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	trace := newTrace(req.RequestID, started)
	resp := newResponse(req)
	monitor.Start(req)

	if req.Query == "" {
		s.logger.Debug("empty query, nothing to search", "requestId", req.RequestID)
		return s.finish(resp, nil, trace, monitor)
	}

	key := cache.Key(req.Query, req.Page, req.Market, req.Zipcode)
	snap, hit := s.lookup(key)
	if hit {
		trace.IntentSource = SourceCache
		resp.FromCache = true
		monitor.CacheHit(req)
	} else {
		analysis := s.classify(ctx, req.Query, trace)
		monitor.AfterIntent(analysis, trace.IntentSource)

		if analysis.Intent == core.IntentQuestion {
			resp.Analysis = analysis
			resp.SuggestedCategories = slices.Clone(analysis.SuggestedCategories)
			if len(resp.SuggestedCategories) == 0 {
				resp.SuggestedCategories = slices.Clone(ai.BrowseCategories)
			}
			return s.finish(resp, nil, trace, monitor)
		}

		snap = s.run(ctx, req, analysis, trace, monitor)
		if s.cache != nil && anyOK(snap.statuses) {
			s.cache.Set(key, snap)
		}
	}

	s.present(req, resp, snap, trace)
	return s.finish(resp, snap, trace, monitor)
}

func (s *Searcher) lookup(key core.ID) (*snapshot, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(key)
}

// run executes the weight-independent part of a product search.
func (s *Searcher) run(ctx context.Context, req Request, analysis *core.QueryAnalysis, trace *Trace, monitor SearchMonitor) *snapshot {
	gateways := provider.Select(s.gateways, req.Market)

	start := time.Now()
	raw, statuses := s.fanOut(ctx, gateways, analysis.QueryFor, req.Page)
	trace.record("fanout", start, fmt.Sprintf("%d listings from %d providers", len(raw), len(gateways)))
	monitor.AfterFanOut(analysis.Original, statuses, raw)

	excluded := make(map[string]bool)
	scored, filtered := s.evaluate(ctx, req, analysis, raw, excluded, true, trace, monitor)

	if needsRefinement(scored) {
		if alt, ok := refinementQuery(analysis, gateways); ok {
			start := time.Now()
			extra, _ := s.fanOut(ctx, gateways, func(core.Retailer) string { return alt }, req.Page)
			combined := mergeByID(raw, extra)
			added := len(combined) - len(raw)
			trace.Refined = true
			trace.record("refinement", start, fmt.Sprintf("%q added %d listings", alt, added))
			monitor.Refinement(alt, added)
			s.logger.Debug("refined thin result set", "query", analysis.Original, "alternate", alt, "added", added)

			scored, filtered = s.evaluate(ctx, req, analysis, combined, excluded, false, trace, monitor)
		} else {
			s.logger.Debug("refinement skipped, alternate query equals primary", "query", analysis.Original, "alternate", analysis.AlternateQuery)
		}
	}

	return &snapshot{
		analysis:   analysis,
		scored:     scored,
		statuses:   statuses,
		fraudStats: filtered.Stats,
		removed:    removedByRule(filtered.Removed),
		refined:    trace.Refined,
	}
}

// evaluate filters, prices and scores raw listings. Listings in excluded are
// dropped; when judge is set the relevance judge runs and the listings it
// rejects are added to excluded.
func (s *Searcher) evaluate(ctx context.Context, req Request, analysis *core.QueryAnalysis, raw []core.Listing, excluded map[string]bool, judge bool, trace *Trace, monitor SearchMonitor) ([]core.ScoredListing, fraud.Result) {
	start := time.Now()
	filtered := s.fraud.Apply(raw)
	trace.record("fraud", start, fmt.Sprintf("removed %d, flagged %d", filtered.Stats.Removed, filtered.Stats.Flagged))
	monitor.AfterFraudFilter(filtered.Stats)

	kept := filtered.Kept
	if len(excluded) > 0 {
		kept = slices.DeleteFunc(slices.Clone(kept), func(l core.Listing) bool { return excluded[l.ID] })
	}
	kept = applyPriceBounds(kept, analysis)

	if judge {
		judged := s.judgeRelevance(ctx, req, analysis.Original, kept, trace, monitor)
		if len(judged) < len(kept) {
			keep := make(map[string]bool, len(judged))
			for _, l := range judged {
				keep[l.ID] = true
			}
			for _, l := range kept {
				if !keep[l.ID] {
					excluded[l.ID] = true
				}
			}
		}
		kept = judged
	}

	start = time.Now()
	costs := landed.ComputeAll(kept, req.Zipcode)
	result := ranking.Score(kept, costs, analysis.Original)
	trace.record("rank", start, fmt.Sprintf("%d listings", result.Len()))
	monitor.AfterRanking(result)
	return result.Best, filtered
}

// present applies the request's weights and memberships to a snapshot.
func (s *Searcher) present(req Request, resp *Response, snap *snapshot, trace *Trace) {
	start := time.Now()
	w := ranking.DefaultWeights()
	if req.PriceSpeedBalance != nil {
		w = ranking.WeightsForBalance(*req.PriceSpeedBalance)
	}

	// Adjust also runs with no active programs so non-member charges always apply.
	active := s.activeMemberships(req.Memberships)
	res := s.catalog.Adjust(snap.scored, active, w)

	resp.Listings = interleave(res.Best)
	resp.TotalCount = len(resp.Listings)
	for _, l := range resp.Listings {
		if l.IsInternational() {
			resp.InternationalCount++
		} else {
			resp.DomesticCount++
		}
	}
	resp.AxisSummary = res.Summary
	resp.Weights = res.Weights
	resp.ProviderStatus = slices.Clone(snap.statuses)
	resp.FraudStats = snap.fraudStats
	resp.FraudStats.ByRule = maps.Clone(snap.fraudStats.ByRule)
	resp.Analysis = snap.analysis
	resp.SuggestedCategories = slices.Clone(snap.analysis.SuggestedCategories)
	resp.Memberships = active
	resp.Refined = snap.refined
	trace.record("present", start, fmt.Sprintf("%d memberships", len(active)))
}

func (s *Searcher) activeMemberships(ids []string) []string {
	var active []string
	for _, id := range ids {
		p, ok := s.catalog.Lookup(id)
		if !ok {
			if strings.TrimSpace(id) != "" {
				s.logger.Warn("ignoring unknown membership program", "program", id)
			}
			continue
		}
		if !slices.Contains(active, p.ID) {
			active = append(active, p.ID)
		}
	}
	return active
}

// finish records the request log and notifies the monitor.
func (s *Searcher) finish(resp *Response, snap *snapshot, trace *Trace, monitor SearchMonitor) *Response {
	resp.Steps = trace.Steps
	resp.Duration = time.Since(trace.Started)

	log := core.RequestLog{
		RequestID:        resp.RequestID,
		Query:            resp.Query,
		Page:             resp.Page,
		Market:           resp.Market,
		IntentSource:     trace.IntentSource,
		AgentCalls:       trace.AgentCalls,
		RelevanceApplied: trace.RelevanceApplied,
		Refined:          resp.Refined,
		FromCache:        resp.FromCache,
		ResultCount:      resp.TotalCount,
		StageTimings:     trace.timings(),
		Duration:         resp.Duration,
		Timestamp:        trace.Started.UTC(),
	}
	if resp.Analysis != nil {
		log.Intent = resp.Analysis.Intent
	}
	if snap != nil && !resp.FromCache {
		log.Providers = slices.Clone(snap.statuses)
		log.FraudRemoved = maps.Clone(snap.removed)
	}
	s.sink.Record(log)
	monitor.Finish(resp)

	s.logger.Info("search complete",
		"requestId", resp.RequestID,
		"query", resp.Query,
		"page", resp.Page,
		"market", resp.Market,
		"results", resp.TotalCount,
		"refined", resp.Refined,
		"fromCache", resp.FromCache,
		"agentCalls", trace.AgentCalls,
		"duration", resp.Duration)
	return resp
}

// needsRefinement reports whether a scored set is too thin: fewer than
// MinSufficientResults listings, or all of them from one retailer.
func needsRefinement(scored []core.ScoredListing) bool {
	if len(scored) < MinSufficientResults {
		return true
	}
	first := scored[0].Retailer
	for _, s := range scored[1:] {
		if s.Retailer != first {
			return false
		}
	}
	return true
}

// refinementQuery returns the alternate query to refine with. There is none
// when it is empty or equals the query every gateway was already sent.
func refinementQuery(a *core.QueryAnalysis, gateways []provider.Gateway) (string, bool) {
	alt := strings.Join(strings.Fields(a.AlternateQuery), " ")
	if alt == "" || strings.EqualFold(alt, a.Original) {
		return "", false
	}
	for _, g := range gateways {
		if !strings.EqualFold(a.QueryFor(g.Retailer()), alt) {
			return alt, true
		}
	}
	return "", false
}

// mergeByID appends the listings of extra whose ids are not in base.
func mergeByID(base, extra []core.Listing) []core.Listing {
	seen := make(map[string]bool, len(base))
	out := make([]core.Listing, 0, len(base)+len(extra))
	for _, l := range base {
		seen[l.ID] = true
		out = append(out, l)
	}
	for _, l := range extra {
		if !seen[l.ID] {
			seen[l.ID] = true
			out = append(out, l)
		}
	}
	return out
}

// applyPriceBounds keeps listings inside the query's price bounds. A filter
// that would drop everything is not applied.
func applyPriceBounds(listings []core.Listing, a *core.QueryAnalysis) []core.Listing {
	if a.MinPrice == nil && a.MaxPrice == nil {
		return listings
	}
	out := make([]core.Listing, 0, len(listings))
	for _, l := range listings {
		if a.MinPrice != nil && l.ParsedPrice < *a.MinPrice {
			continue
		}
		if a.MaxPrice != nil && l.ParsedPrice > *a.MaxPrice {
			continue
		}
		out = append(out, l)
	}
	if len(out) == 0 {
		return listings
	}
	return out
}

func removedByRule(removals []fraud.Removal) map[string]int {
	if len(removals) == 0 {
		return nil
	}
	out := make(map[string]int)
	for _, r := range removals {
		out[r.Rule]++
	}
	return out
}

func anyOK(statuses []core.ProviderStatus) bool {
	for _, st := range statuses {
		if st.State == core.ProviderOK {
			return true
		}
	}
	return false
}
