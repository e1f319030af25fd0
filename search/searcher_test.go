package search

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/cartwise/ai"
	"github.com/poiesic/cartwise/ai/mock"
	"github.com/poiesic/cartwise/analytics"
	"github.com/poiesic/cartwise/core"
	"github.com/poiesic/cartwise/provider"
	"github.com/poiesic/cartwise/ranking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// items builds n listings that pass the fraud filter.
func items(prefix string, n int) []core.Listing {
	out := make([]core.Listing, n)
	for i := range out {
		out[i] = core.Listing{
			ID:          fmt.Sprintf("%s%d", prefix, i+1),
			Name:        fmt.Sprintf("Wireless Earbuds Model %s%d", prefix, i+1),
			ParsedPrice: 20 + float64(i)*3,
			Image:       "https://img.test/earbuds.jpg",
			Delivery:    "3-5 days",
			Rating:      4.4,
			ReviewCount: 120,
		}
	}
	return out
}

// countingGateway serves the same listings for every query and counts calls.
type countingGateway struct {
	*provider.Func
	calls   atomic.Int32
	mu      sync.Mutex
	queries []string
}

func newGateway(r core.Retailer, fn func(ctx context.Context, query string, page int) ([]core.Listing, error)) *countingGateway {
	g := &countingGateway{}
	g.Func = provider.NewFunc(r, provider.DefaultClass(r), func(ctx context.Context, query string, page int) ([]core.Listing, error) {
		g.calls.Add(1)
		g.mu.Lock()
		g.queries = append(g.queries, query)
		g.mu.Unlock()
		return fn(ctx, query, page)
	})
	return g
}

func fixed(r core.Retailer, listings []core.Listing) *countingGateway {
	return newGateway(r, func(context.Context, string, int) ([]core.Listing, error) {
		return listings, nil
	})
}

func hanging(r core.Retailer) *countingGateway {
	return newGateway(r, func(ctx context.Context, _ string, _ int) ([]core.Listing, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
}

func (g *countingGateway) Queries() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.queries)
}

type logCollector struct {
	mu   sync.Mutex
	logs []core.RequestLog
}

func (c *logCollector) Record(log core.RequestLog) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = append(c.logs, log)
}

func (c *logCollector) Last(t *testing.T) core.RequestLog {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.logs)
	return c.logs[len(c.logs)-1]
}

func newTestSearcher(t *testing.T, gateways []provider.Gateway, opts ...Option) *Searcher {
	t.Helper()
	s, err := NewSearcher(gateways, opts...)
	require.NoError(t, err)
	t.Cleanup(s.Release)
	return s
}

func gateways(gs ...*countingGateway) []provider.Gateway {
	out := make([]provider.Gateway, len(gs))
	for i, g := range gs {
		out[i] = g
	}
	return out
}

func TestNewSearcher(t *testing.T) {
	amazon := fixed(core.RetailerAmazon, nil)

	t.Run("valid configuration", func(t *testing.T) {
		s, err := NewSearcher(gateways(amazon))
		require.NoError(t, err)
		defer s.Release()
		assert.Equal(t, []core.Retailer{core.RetailerAmazon}, s.Retailers())
		assert.NotNil(t, s.Catalog())
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		s, err := NewSearcher(gateways(amazon), WithLogger(nil), WithSink(nil), WithMonitor(nil))
		require.NoError(t, err)
		s.Release()
	})

	t.Run("no gateways", func(t *testing.T) {
		_, err := NewSearcher(nil)
		assert.ErrorIs(t, err, ErrNoGateways)
	})

	t.Run("nil gateway", func(t *testing.T) {
		_, err := NewSearcher([]provider.Gateway{amazon, nil})
		assert.ErrorIs(t, err, ErrNilGateway)
	})

	t.Run("duplicate retailer", func(t *testing.T) {
		_, err := NewSearcher(gateways(amazon, fixed(core.RetailerAmazon, nil)))
		assert.ErrorIs(t, err, ErrDuplicateGateway)
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := NewSearcher(gateways(amazon), WithPoolSize(0))
		assert.ErrorIs(t, err, ErrInvalidPoolSize)
		_, err = NewSearcher(gateways(amazon), WithProviderTimeout(0))
		assert.ErrorIs(t, err, ErrInvalidTimeout)
	})
}

func TestSearch_PartialTimeout(t *testing.T) {
	amazon := fixed(core.RetailerAmazon, items("a", 2))
	walmart := fixed(core.RetailerWalmart, items("w", 3))
	ebay := hanging(core.RetailerEbay)
	s := newTestSearcher(t, gateways(amazon, walmart, ebay), WithProviderTimeout(50*time.Millisecond))

	resp := s.Search(context.Background(), Request{Query: "wireless earbuds"})

	assert.Equal(t, 5, resp.TotalCount)
	assert.Len(t, resp.Listings, 5)
	assert.Equal(t, 5, resp.DomesticCount)
	assert.Zero(t, resp.InternationalCount)
	assert.False(t, resp.Refined)

	require.Len(t, resp.ProviderStatus, 3)
	states := map[core.Retailer]core.ProviderState{}
	for _, st := range resp.ProviderStatus {
		states[st.Retailer] = st.State
	}
	assert.Equal(t, core.ProviderOK, states[core.RetailerAmazon])
	assert.Equal(t, core.ProviderOK, states[core.RetailerWalmart])
	assert.Equal(t, core.ProviderTimeout, states[core.RetailerEbay])

	assert.Equal(t, int32(1), amazon.calls.Load(), "no refinement with enough results from two retailers")
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, resp.Listings[0].ID, resp.AxisSummary.Best.ID)
}

func TestSearch_IgnoredContextIsAbandoned(t *testing.T) {
	stuck := newGateway(core.RetailerTarget, func(context.Context, string, int) ([]core.Listing, error) {
		time.Sleep(2 * time.Second)
		return items("t", 1), nil
	})
	amazon := fixed(core.RetailerAmazon, items("a", 5))
	s := newTestSearcher(t, gateways(amazon, stuck), WithProviderTimeout(30*time.Millisecond))

	start := time.Now()
	resp := s.Search(context.Background(), Request{Query: "wireless earbuds"})
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, core.ProviderTimeout, resp.ProviderStatus[1].State)
	assert.Equal(t, 5, resp.TotalCount)
}

func TestSearch_ProviderErrorAndPanic(t *testing.T) {
	amazon := fixed(core.RetailerAmazon, items("a", 3))
	walmart := newGateway(core.RetailerWalmart, func(context.Context, string, int) ([]core.Listing, error) {
		return nil, errors.New("upstream 503")
	})
	target := newGateway(core.RetailerTarget, func(context.Context, string, int) ([]core.Listing, error) {
		panic("boom")
	})
	s := newTestSearcher(t, gateways(amazon, walmart, target))

	resp := s.Search(context.Background(), Request{Query: "wireless earbuds"})
	require.Len(t, resp.ProviderStatus, 3)
	assert.Equal(t, core.ProviderOK, resp.ProviderStatus[0].State)
	assert.Equal(t, core.ProviderError, resp.ProviderStatus[1].State)
	assert.Contains(t, resp.ProviderStatus[1].Error, "upstream 503")
	assert.Equal(t, core.ProviderError, resp.ProviderStatus[2].State)
	assert.Contains(t, resp.ProviderStatus[2].Error, "panic")
	assert.Equal(t, 3, resp.TotalCount)
}

func TestSearch_TotalFailure(t *testing.T) {
	fail := func(r core.Retailer) *countingGateway {
		return newGateway(r, func(context.Context, string, int) ([]core.Listing, error) {
			return nil, errors.New("down")
		})
	}
	s := newTestSearcher(t, gateways(fail(core.RetailerAmazon), fail(core.RetailerWalmart)))

	resp := s.Search(context.Background(), Request{Query: "wireless earbuds"})
	assert.NotNil(t, resp.Listings)
	assert.Empty(t, resp.Listings)
	assert.Zero(t, resp.TotalCount)
	assert.NotNil(t, resp.FraudStats.ByRule)
	assert.Len(t, resp.ProviderStatus, 2)

	t.Run("failures are not cached", func(t *testing.T) {
		again := s.Search(context.Background(), Request{Query: "wireless earbuds"})
		assert.False(t, again.FromCache)
	})

	t.Run("an empty result still runs one refinement wave", func(t *testing.T) {
		amazon := fail(core.RetailerAmazon)
		s := newTestSearcher(t, gateways(amazon))

		resp := s.Search(context.Background(), Request{Query: "wireless earbuds"})
		assert.True(t, resp.Refined)
		assert.Equal(t, []string{"wireless earbuds", "wireless earphones"}, amazon.Queries())
		assert.Empty(t, resp.Listings)
	})

	t.Run("refinement can recover listings", func(t *testing.T) {
		flaky := func(r core.Retailer, prefix string) *countingGateway {
			return newGateway(r, func(_ context.Context, query string, _ int) ([]core.Listing, error) {
				if query == "wireless earbuds" {
					return nil, errors.New("down")
				}
				return items(prefix, 3), nil
			})
		}
		amazon, walmart := flaky(core.RetailerAmazon, "a"), flaky(core.RetailerWalmart, "w")
		s := newTestSearcher(t, gateways(amazon, walmart))

		resp := s.Search(context.Background(), Request{Query: "wireless earbuds"})
		assert.True(t, resp.Refined)
		assert.Equal(t, 6, resp.TotalCount)
		require.Len(t, resp.ProviderStatus, 2)
		for _, st := range resp.ProviderStatus {
			assert.Equal(t, core.ProviderError, st.State, "status reflects the primary fan-out")
		}
		assert.Equal(t, int32(2), amazon.calls.Load())
		assert.Equal(t, int32(2), walmart.calls.Load())
	})
}

func TestSearch_EmptyQuery(t *testing.T) {
	amazon := fixed(core.RetailerAmazon, items("a", 5))
	sink := &logCollector{}
	s := newTestSearcher(t, gateways(amazon), WithSink(sink))

	resp := s.Search(context.Background(), Request{Query: "   "})
	assert.Empty(t, resp.Listings)
	assert.NotNil(t, resp.ProviderStatus)
	assert.Zero(t, amazon.calls.Load())
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, core.MarketAll, resp.Market)
	assert.Zero(t, sink.Last(t).ResultCount)
}

func TestSearch_FraudFiltered(t *testing.T) {
	listings := items("a", 5)
	listings[0].Sponsored = true
	listings[1].Image = ""
	s := newTestSearcher(t, gateways(fixed(core.RetailerAmazon, listings), fixed(core.RetailerWalmart, items("w", 3))))

	resp := s.Search(context.Background(), Request{Query: "wireless earbuds"})
	assert.Equal(t, 6, resp.TotalCount)
	assert.Equal(t, 8, resp.FraudStats.Total)
	assert.Equal(t, 2, resp.FraudStats.Removed)
	for _, l := range resp.Listings {
		assert.NotContains(t, []string{"amazon:a1", "amazon:a2"}, l.ID)
	}
}

func TestSearch_Market(t *testing.T) {
	amazon := fixed(core.RetailerAmazon, items("a", 3))
	temu := fixed(core.RetailerTemu, items("t", 3))
	s := newTestSearcher(t, gateways(amazon, temu))

	resp := s.Search(context.Background(), Request{Query: "wireless earbuds", Market: "global"})
	require.Len(t, resp.ProviderStatus, 1)
	assert.Equal(t, core.RetailerTemu, resp.ProviderStatus[0].Retailer)
	assert.Zero(t, amazon.calls.Load())
	assert.Equal(t, 3, resp.InternationalCount)
}

func TestSearch_Interleaves(t *testing.T) {
	s := newTestSearcher(t, gateways(fixed(core.RetailerAmazon, items("a", 3)), fixed(core.RetailerWalmart, items("w", 3))))

	resp := s.Search(context.Background(), Request{Query: "wireless earbuds"})
	require.Len(t, resp.Listings, 6)
	for i := 1; i < len(resp.Listings); i++ {
		assert.NotEqual(t, resp.Listings[i-1].Retailer, resp.Listings[i].Retailer, "position %d", i)
	}
}

func TestInterleave(t *testing.T) {
	ranked := []core.ScoredListing{
		{Listing: core.Listing{ID: "a1", Retailer: core.RetailerAmazon}},
		{Listing: core.Listing{ID: "a2", Retailer: core.RetailerAmazon}},
		{Listing: core.Listing{ID: "w1", Retailer: core.RetailerWalmart}},
		{Listing: core.Listing{ID: "a3", Retailer: core.RetailerAmazon}},
		{Listing: core.Listing{ID: "t1", Retailer: core.RetailerTemu}},
	}
	var ids []string
	for _, s := range interleave(ranked) {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"a1", "w1", "t1", "a2", "a3"}, ids)
	assert.Empty(t, interleave(nil))
}

func TestSearch_RelevanceJudge(t *testing.T) {
	both := func() []provider.Gateway {
		return gateways(fixed(core.RetailerAmazon, items("a", 3)), fixed(core.RetailerWalmart, items("w", 3)))
	}

	t.Run("removes irrelevant listings", func(t *testing.T) {
		judge := mock.NewMockRelevanceJudge().WithJudgeRelevanceFunc(func(_ context.Context, _ string, listings []core.Listing) (*ai.RelevanceVerdict, error) {
			v := &ai.RelevanceVerdict{RemovalReasons: map[string]string{"amazon:a1": "ear tips only"}}
			for _, l := range listings {
				if l.ID != "amazon:a1" {
					v.KeepIDs = append(v.KeepIDs, l.ID)
				}
			}
			return v, nil
		})
		sink := &logCollector{}
		s := newTestSearcher(t, both(), WithRelevanceJudge(judge), WithSink(sink))

		resp := s.Search(context.Background(), Request{Query: "wireless earbuds"})
		assert.Equal(t, 5, resp.TotalCount)
		assert.Equal(t, 1, judge.CallCount())
		assert.True(t, sink.Last(t).RelevanceApplied)
	})

	t.Run("removing everything reverts", func(t *testing.T) {
		judge := mock.NewMockRelevanceJudge().WithJudgeRelevanceFunc(func(context.Context, string, []core.Listing) (*ai.RelevanceVerdict, error) {
			return &ai.RelevanceVerdict{}, nil
		})
		sink := &logCollector{}
		s := newTestSearcher(t, both(), WithRelevanceJudge(judge), WithSink(sink))

		resp := s.Search(context.Background(), Request{Query: "wireless earbuds"})
		assert.Equal(t, 6, resp.TotalCount)
		assert.False(t, sink.Last(t).RelevanceApplied)
	})

	t.Run("failure keeps everything", func(t *testing.T) {
		judge := mock.NewMockRelevanceJudge().WithJudgeRelevanceFunc(func(context.Context, string, []core.Listing) (*ai.RelevanceVerdict, error) {
			return nil, ai.ErrMalformedResponse
		})
		s := newTestSearcher(t, both(), WithRelevanceJudge(judge))

		resp := s.Search(context.Background(), Request{Query: "wireless earbuds"})
		assert.Equal(t, 6, resp.TotalCount)
	})

	t.Run("slow judge is abandoned", func(t *testing.T) {
		judge := mock.NewMockRelevanceJudge().WithJudgeRelevanceFunc(func(context.Context, string, []core.Listing) (*ai.RelevanceVerdict, error) {
			time.Sleep(2 * time.Second)
			return &ai.RelevanceVerdict{}, nil
		})
		policy := DefaultAgentPolicy()
		policy.RelevanceTimeout = 20 * time.Millisecond
		s := newTestSearcher(t, both(), WithRelevanceJudge(judge), WithAgentPolicy(policy))

		start := time.Now()
		resp := s.Search(context.Background(), Request{Query: "wireless earbuds"})
		assert.Less(t, time.Since(start), time.Second)
		assert.Equal(t, 6, resp.TotalCount)
	})

	t.Run("small sets and later pages are not judged", func(t *testing.T) {
		judge := mock.NewMockRelevanceJudge()
		s := newTestSearcher(t, both(), WithRelevanceJudge(judge), WithoutCache())

		s.Search(context.Background(), Request{Query: "wireless earbuds", Page: 2})
		assert.Zero(t, judge.CallCount())

		small := newTestSearcher(t, gateways(fixed(core.RetailerAmazon, items("a", 2))), WithRelevanceJudge(judge))
		small.Search(context.Background(), Request{Query: "wireless earbuds"})
		assert.Zero(t, judge.CallCount())
	})
}

func TestSearch_IntentClassifier(t *testing.T) {
	amazon := fixed(core.RetailerAmazon, items("a", 3))
	walmart := fixed(core.RetailerWalmart, items("w", 3))

	t.Run("agent answer drives retailer queries", func(t *testing.T) {
		classifier := mock.NewMockIntentClassifier().WithClassifyIntentFunc(func(_ context.Context, query string) (*core.QueryAnalysis, error) {
			return &core.QueryAnalysis{
				Original:        query,
				Intent:          core.IntentProduct,
				RetailerQueries: map[core.Retailer]string{core.RetailerWalmart: "bluetooth earbuds"},
				Confidence:      0.9,
			}, nil
		})
		sink := &logCollector{}
		a, w := fixed(core.RetailerAmazon, items("a", 3)), fixed(core.RetailerWalmart, items("w", 3))
		s := newTestSearcher(t, gateways(a, w), WithIntentClassifier(classifier), WithSink(sink))

		resp := s.Search(context.Background(), Request{Query: "wireless earbuds"})
		assert.Equal(t, []string{"wireless earbuds"}, a.Queries())
		assert.Equal(t, []string{"bluetooth earbuds"}, w.Queries())
		assert.Equal(t, "wireless earphones", resp.Analysis.AlternateQuery, "missing alternate comes from the keyword classifier")
		assert.Equal(t, SourceAgent, sink.Last(t).IntentSource)
	})

	failures := map[string]func(context.Context, string) (*core.QueryAnalysis, error){
		"error": func(context.Context, string) (*core.QueryAnalysis, error) {
			return nil, errors.New("connection refused")
		},
		"invalid answer": func(context.Context, string) (*core.QueryAnalysis, error) {
			return &core.QueryAnalysis{Intent: "shopping", Confidence: 3}, nil
		},
		"ignores deadline": func(context.Context, string) (*core.QueryAnalysis, error) {
			time.Sleep(2 * time.Second)
			return nil, nil
		},
	}
	for name, fn := range failures {
		t.Run(name+" falls back to keywords", func(t *testing.T) {
			classifier := mock.NewMockIntentClassifier().WithClassifyIntentFunc(fn)
			policy := DefaultAgentPolicy()
			policy.IntentTimeout = 20 * time.Millisecond
			sink := &logCollector{}
			s := newTestSearcher(t, gateways(amazon, walmart), WithIntentClassifier(classifier), WithAgentPolicy(policy), WithSink(sink), WithoutCache())

			start := time.Now()
			resp := s.Search(context.Background(), Request{Query: "wireless earbuds"})
			assert.Less(t, time.Since(start), time.Second)
			assert.Equal(t, 6, resp.TotalCount)
			assert.Equal(t, core.IntentProduct, resp.Analysis.Intent)
			assert.Equal(t, SourceKeyword, sink.Last(t).IntentSource)
			assert.Equal(t, 1, sink.Last(t).AgentCalls)
		})
	}

	t.Run("disabled by policy", func(t *testing.T) {
		classifier := mock.NewMockIntentClassifier()
		policy := DefaultAgentPolicy()
		policy.ClassifyIntent = false
		s := newTestSearcher(t, gateways(amazon, walmart), WithIntentClassifier(classifier), WithAgentPolicy(policy))

		s.Search(context.Background(), Request{Query: "wireless earbuds"})
		assert.Zero(t, classifier.CallCount())
	})
}

func TestSearch_QuestionIntent(t *testing.T) {
	amazon := fixed(core.RetailerAmazon, items("a", 5))
	s := newTestSearcher(t, gateways(amazon))

	resp := s.Search(context.Background(), Request{Query: "gift ideas for dad"})
	assert.Zero(t, amazon.calls.Load())
	assert.Empty(t, resp.Listings)
	assert.Equal(t, ai.BrowseCategories, resp.SuggestedCategories)
	assert.Equal(t, core.IntentQuestion, resp.Analysis.Intent)

	t.Run("agent without categories gets the browse list", func(t *testing.T) {
		classifier := mock.NewMockIntentClassifier().WithClassifyIntentFunc(func(_ context.Context, query string) (*core.QueryAnalysis, error) {
			return &core.QueryAnalysis{Original: query, Intent: core.IntentQuestion, Confidence: 0.8}, nil
		})
		s := newTestSearcher(t, gateways(amazon), WithIntentClassifier(classifier))
		resp := s.Search(context.Background(), Request{Query: "what do teenagers like"})
		assert.Equal(t, ai.BrowseCategories, resp.SuggestedCategories)
		assert.Zero(t, amazon.calls.Load())
	})
}

func TestSearch_Refinement(t *testing.T) {
	t.Run("thin results refine once", func(t *testing.T) {
		amazon := newGateway(core.RetailerAmazon, func(_ context.Context, query string, _ int) ([]core.Listing, error) {
			if query == "wireless earphones" {
				return append(items("a", 1), items("r", 2)...), nil
			}
			return items("a", 2), nil
		})
		s := newTestSearcher(t, gateways(amazon))

		resp := s.Search(context.Background(), Request{Query: "wireless earbuds"})
		assert.True(t, resp.Refined)
		assert.Equal(t, []string{"wireless earbuds", "wireless earphones"}, amazon.Queries(), "exactly one refinement wave")
		assert.Equal(t, 4, resp.TotalCount, "merged by id")
		require.Len(t, resp.ProviderStatus, 1)
		assert.Equal(t, 2, resp.ProviderStatus[0].Count, "status reflects the primary fan-out")
	})

	t.Run("single retailer triggers refinement", func(t *testing.T) {
		amazon := fixed(core.RetailerAmazon, items("a", 6))
		s := newTestSearcher(t, gateways(amazon))

		resp := s.Search(context.Background(), Request{Query: "wireless earbuds"})
		assert.True(t, resp.Refined)
		assert.Equal(t, int32(2), amazon.calls.Load())
		assert.Equal(t, 6, resp.TotalCount)
	})

	t.Run("alternate equal to the primary query is skipped", func(t *testing.T) {
		classifier := mock.NewMockIntentClassifier().WithClassifyIntentFunc(func(_ context.Context, query string) (*core.QueryAnalysis, error) {
			return &core.QueryAnalysis{Original: query, Intent: core.IntentProduct, AlternateQuery: "Desk Lamp", Confidence: 0.9}, nil
		})
		amazon := fixed(core.RetailerAmazon, items("a", 2))
		s := newTestSearcher(t, gateways(amazon), WithIntentClassifier(classifier))

		resp := s.Search(context.Background(), Request{Query: "desk lamp"})
		assert.False(t, resp.Refined)
		assert.Equal(t, int32(1), amazon.calls.Load())
	})

	t.Run("judge removals stay removed after refinement", func(t *testing.T) {
		amazon := fixed(core.RetailerAmazon, items("a", 5))
		judge := mock.NewMockRelevanceJudge().WithJudgeRelevanceFunc(func(_ context.Context, _ string, listings []core.Listing) (*ai.RelevanceVerdict, error) {
			return &ai.RelevanceVerdict{KeepIDs: []string{listings[0].ID, listings[1].ID}}, nil
		})
		s := newTestSearcher(t, gateways(amazon), WithRelevanceJudge(judge))

		resp := s.Search(context.Background(), Request{Query: "wireless earbuds"})
		assert.True(t, resp.Refined)
		assert.Equal(t, 2, resp.TotalCount)
		assert.Equal(t, 1, judge.CallCount(), "refined listings are not judged again")
	})
}

func TestRefinementQuery(t *testing.T) {
	gs := gateways(fixed(core.RetailerAmazon, nil), fixed(core.RetailerWalmart, nil))
	tests := []struct {
		name     string
		analysis core.QueryAnalysis
		want     string
		ok       bool
	}{
		{"broader wording", core.QueryAnalysis{Original: "wireless earbuds", AlternateQuery: "wireless earphones"}, "wireless earphones", true},
		{"empty", core.QueryAnalysis{Original: "lamp"}, "", false},
		{"same as original", core.QueryAnalysis{Original: "desk lamp", AlternateQuery: " DESK  lamp "}, "", false},
		{"same as every retailer query", core.QueryAnalysis{
			Original:        "usb-c charger under $20",
			RetailerQueries: map[core.Retailer]string{core.RetailerAmazon: "usb-c charger", core.RetailerWalmart: "usb-c charger"},
			AlternateQuery:  "usb-c charger",
		}, "", false},
		{"differs for one retailer", core.QueryAnalysis{
			Original:        "usb-c charger under $20",
			RetailerQueries: map[core.Retailer]string{core.RetailerAmazon: "usb-c charger"},
			AlternateQuery:  "usb-c charger",
		}, "usb-c charger", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := refinementQuery(&tt.analysis, gs)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyPriceBounds(t *testing.T) {
	listings := items("a", 4) // 20, 23, 26, 29
	max25 := &core.QueryAnalysis{MaxPrice: core.Float(25)}
	assert.Len(t, applyPriceBounds(listings, max25), 2)

	between := &core.QueryAnalysis{MinPrice: core.Float(22), MaxPrice: core.Float(27)}
	assert.Len(t, applyPriceBounds(listings, between), 2)

	none := &core.QueryAnalysis{MaxPrice: core.Float(5)}
	assert.Len(t, applyPriceBounds(listings, none), 4, "a filter that empties the set is not applied")
}

func TestSearch_Cache(t *testing.T) {
	amazon := fixed(core.RetailerAmazon, items("a", 3))
	walmart := fixed(core.RetailerWalmart, items("w", 3))
	sink := &logCollector{}
	s := newTestSearcher(t, gateways(amazon, walmart), WithSink(sink))

	first := s.Search(context.Background(), Request{Query: "wireless earbuds"})
	assert.False(t, first.FromCache)
	require.NotEmpty(t, sink.Last(t).Providers)

	balance := 100.0
	second := s.Search(context.Background(), Request{Query: "  Wireless EARBUDS ", PriceSpeedBalance: &balance})
	assert.True(t, second.FromCache)
	assert.Equal(t, int32(1), amazon.calls.Load())
	assert.Equal(t, first.TotalCount, second.TotalCount)
	assert.Equal(t, ranking.WeightsForBalance(100), second.Weights, "weights apply after the cache")
	assert.NotEqual(t, first.Weights, second.Weights)
	assert.Equal(t, first.ProviderStatus, second.ProviderStatus)

	last := sink.Last(t)
	assert.True(t, last.FromCache)
	assert.Equal(t, SourceCache, last.IntentSource)
	assert.Empty(t, last.Providers)

	t.Run("different page misses", func(t *testing.T) {
		third := s.Search(context.Background(), Request{Query: "wireless earbuds", Page: 2})
		assert.False(t, third.FromCache)
		assert.Equal(t, int32(2), amazon.calls.Load())
	})

	t.Run("disabled cache", func(t *testing.T) {
		a := fixed(core.RetailerAmazon, items("a", 5))
		w := fixed(core.RetailerWalmart, items("w", 5))
		s := newTestSearcher(t, gateways(a, w), WithoutCache())
		s.Search(context.Background(), Request{Query: "wireless earbuds"})
		resp := s.Search(context.Background(), Request{Query: "wireless earbuds"})
		assert.False(t, resp.FromCache)
		assert.Equal(t, int32(2), a.calls.Load())
	})
}

func TestSearch_Memberships(t *testing.T) {
	amazon := fixed(core.RetailerAmazon, []core.Listing{{
		ID: "1", Name: "Wireless Earbuds Pro", ParsedPrice: 20, ShippingPrice: 5.99,
		Image: "https://img.test/1.jpg", Delivery: "5-8 days",
	}})
	walmart := fixed(core.RetailerWalmart, items("w", 4))
	s := newTestSearcher(t, gateways(amazon, walmart))

	plain := s.Search(context.Background(), Request{Query: "wireless earbuds"})
	member := s.Search(context.Background(), Request{Query: "wireless earbuds", Memberships: []string{"Amazon_Prime", "costco_gold"}})

	assert.Empty(t, plain.Memberships)
	assert.Equal(t, []string{"amazon_prime"}, member.Memberships, "unknown programs are ignored")
	assert.True(t, member.FromCache)

	find := func(resp *Response, id string) core.ScoredListing {
		for _, l := range resp.Listings {
			if l.ID == id {
				return l
			}
		}
		t.Fatalf("listing %s missing", id)
		return core.ScoredListing{}
	}
	assert.Equal(t, 5.99, find(plain, "amazon:1").ShippingPrice)
	assert.Zero(t, find(member, "amazon:1").ShippingPrice)
	assert.Equal(t, "amazon_prime", find(member, "amazon:1").Membership)
}

func TestSearch_NonMemberChargeIgnoresUnrelatedPrograms(t *testing.T) {
	amazon := fixed(core.RetailerAmazon, []core.Listing{{
		ID: "1", Name: "Wireless Earbuds Lite", ParsedPrice: 20, Image: "https://img.test/1.jpg", Delivery: "3-5 days",
	}})
	walmart := fixed(core.RetailerWalmart, items("w", 4))
	s := newTestSearcher(t, gateways(amazon, walmart))

	find := func(resp *Response, id string) core.ScoredListing {
		for _, l := range resp.Listings {
			if l.ID == id {
				return l
			}
		}
		t.Fatalf("listing %s missing", id)
		return core.ScoredListing{}
	}

	none := find(s.Search(context.Background(), Request{Query: "wireless earbuds"}), "amazon:1")
	unrelated := find(s.Search(context.Background(), Request{Query: "wireless earbuds", Memberships: []string{"walmart_plus"}}), "amazon:1")

	assert.Equal(t, 6.99, none.ShippingPrice, "free shipping below the threshold carries the non-member rate")
	assert.Equal(t, none.ShippingPrice, unrelated.ShippingPrice)
	assert.Equal(t, none.TotalPrice, unrelated.TotalPrice)
	assert.Equal(t, none.LandedPrice, unrelated.LandedPrice)
	assert.Equal(t, none.Delivery, unrelated.Delivery)
}

type recordingMonitor struct {
	noopMonitor
	mu     sync.Mutex
	events []string
}

func (m *recordingMonitor) add(e string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

func (m *recordingMonitor) Start(Request)                           { m.add("start") }
func (m *recordingMonitor) AfterIntent(*core.QueryAnalysis, string) { m.add("intent") }
func (m *recordingMonitor) AfterFanOut(string, []core.ProviderStatus, []core.Listing) {
	m.add("fanout")
}
func (m *recordingMonitor) AfterRanking(ranking.Result) { m.add("rank") }
func (m *recordingMonitor) Refinement(string, int)      { m.add("refine") }
func (m *recordingMonitor) CacheHit(Request)            { m.add("cache") }
func (m *recordingMonitor) Finish(*Response)            { m.add("finish") }

func TestSearchWithMonitor(t *testing.T) {
	s := newTestSearcher(t, gateways(fixed(core.RetailerAmazon, items("a", 3)), fixed(core.RetailerWalmart, items("w", 3))))

	m := &recordingMonitor{}
	s.SearchWithMonitor(context.Background(), Request{Query: "wireless earbuds"}, m)
	assert.Equal(t, []string{"start", "intent", "fanout", "rank", "finish"}, m.events)

	m = &recordingMonitor{}
	s.SearchWithMonitor(context.Background(), Request{Query: "wireless earbuds"}, m)
	assert.Equal(t, []string{"start", "cache", "finish"}, m.events)
}

func TestSearch_RequestLog(t *testing.T) {
	listings := items("a", 4)
	listings[0].Sponsored = true
	sink := &logCollector{}
	s := newTestSearcher(t, gateways(fixed(core.RetailerAmazon, listings), fixed(core.RetailerWalmart, items("w", 3))),
		WithSink(analytics.Multi(sink, nil)))

	resp := s.Search(context.Background(), Request{Query: "wireless earbuds", RequestID: "req-1"})
	log := sink.Last(t)
	assert.Equal(t, "req-1", resp.RequestID)
	assert.Equal(t, "req-1", log.RequestID)
	assert.Equal(t, "wireless earbuds", log.Query)
	assert.Equal(t, core.IntentProduct, log.Intent)
	assert.Equal(t, map[string]int{"sponsored": 1}, log.FraudRemoved)
	assert.Equal(t, resp.TotalCount, log.ResultCount)
	assert.Len(t, log.Providers, 2)
	assert.Contains(t, log.StageTimings, "fanout")
	assert.Contains(t, log.StageTimings, "rank")
	assert.False(t, log.Timestamp.IsZero())
}

func TestSearch_PoolSaturation(t *testing.T) {
	slow := func(r core.Retailer, prefix string) *countingGateway {
		return newGateway(r, func(context.Context, string, int) ([]core.Listing, error) {
			time.Sleep(100 * time.Millisecond)
			return items(prefix, 3), nil
		})
	}
	s := newTestSearcher(t, gateways(slow(core.RetailerAmazon, "a"), slow(core.RetailerWalmart, "w")), WithPoolSize(1))

	resp := s.Search(context.Background(), Request{Query: "wireless earbuds"})
	require.Len(t, resp.ProviderStatus, 2)
	assert.Equal(t, core.ProviderOK, resp.ProviderStatus[0].State)
	assert.Equal(t, core.ProviderError, resp.ProviderStatus[1].State)
	assert.Contains(t, resp.ProviderStatus[1].Error, "not dispatched")
}

func TestSearch_CallerCancellation(t *testing.T) {
	amazon := newGateway(core.RetailerAmazon, func(ctx context.Context, _ string, _ int) ([]core.Listing, error) {
		select {
		case <-time.After(30 * time.Millisecond):
			return items("a", 5), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	s := newTestSearcher(t, gateways(amazon, fixed(core.RetailerWalmart, items("w", 1))))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp := s.Search(ctx, Request{Query: "wireless earbuds"})
	assert.Equal(t, core.ProviderOK, resp.ProviderStatus[0].State, "provider calls outlive the caller")
}

func TestSearch_Concurrent(t *testing.T) {
	s := newTestSearcher(t, gateways(fixed(core.RetailerAmazon, items("a", 3)), fixed(core.RetailerWalmart, items("w", 3))))

	var wg sync.WaitGroup
	responses := make([]*Response, 16)
	for i := range responses {
		wg.Add(1)
		go func() {
			defer wg.Done()
			responses[i] = s.Search(context.Background(), Request{Query: fmt.Sprintf("wireless earbuds %d", i%4)})
		}()
	}
	wg.Wait()

	ids := make(map[string]bool)
	for _, resp := range responses {
		require.NotNil(t, resp)
		assert.Equal(t, 6, resp.TotalCount)
		ids[resp.RequestID] = true
	}
	assert.Len(t, ids, len(responses))
}

func TestWithDeadline(t *testing.T) {
	start := time.Now()
	_, err := withDeadline(context.Background(), 20*time.Millisecond, func(context.Context) (int, error) {
		time.Sleep(time.Second)
		return 1, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	v, err := withDeadline(context.Background(), time.Second, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = withDeadline(context.Background(), time.Second, func(context.Context) (int, error) { panic("bad agent") })
	assert.ErrorContains(t, err, "bad agent")
}

func TestNeedsRefinement(t *testing.T) {
	mk := func(rs ...core.Retailer) []core.ScoredListing {
		out := make([]core.ScoredListing, len(rs))
		for i, r := range rs {
			out[i] = core.ScoredListing{Listing: core.Listing{Retailer: r}}
		}
		return out
	}
	a, w := core.RetailerAmazon, core.RetailerWalmart
	assert.True(t, needsRefinement(nil))
	assert.True(t, needsRefinement(mk(a, w, a, w)))
	assert.True(t, needsRefinement(mk(a, a, a, a, a)))
	assert.False(t, needsRefinement(mk(a, a, a, a, w)))
}
