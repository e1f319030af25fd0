package search

import (
	"github.com/poiesic/cartwise/core"
	"github.com/poiesic/cartwise/fraud"
	"github.com/poiesic/cartwise/ranking"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
// Hooks run on the request's goroutine and must not retain the slices they receive.
type SearchMonitor interface {
	Start(req Request)
	AfterIntent(analysis *core.QueryAnalysis, source string)
	AfterFanOut(query string, statuses []core.ProviderStatus, listings []core.Listing)
	AfterFraudFilter(stats fraud.Stats)
	AfterRelevance(before, after int, reverted bool)
	AfterRanking(result ranking.Result)
	Refinement(query string, added int)
	CacheHit(req Request)
	Finish(resp *Response)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ Request)                                                 {}
func (n *noopMonitor) AfterIntent(_ *core.QueryAnalysis, _ string)                     {}
func (n *noopMonitor) AfterFanOut(_ string, _ []core.ProviderStatus, _ []core.Listing) {}
func (n *noopMonitor) AfterFraudFilter(_ fraud.Stats)                                  {}
func (n *noopMonitor) AfterRelevance(_, _ int, _ bool)                                 {}
func (n *noopMonitor) AfterRanking(_ ranking.Result)                                   {}
func (n *noopMonitor) Refinement(_ string, _ int)                                      {}
func (n *noopMonitor) CacheHit(_ Request)                                              {}
func (n *noopMonitor) Finish(_ *Response)                                              {}
