package search

import "time"

const (
	DefaultIntentTimeout     = 6 * time.Second
	DefaultRelevanceTimeout  = 8 * time.Second
	DefaultRelevanceMinCount = 5
)

// AgentPolicy decides when the searcher calls an external agent and how long
// it waits. Every agent gate of the pipeline goes through it.
type AgentPolicy struct {
	// ClassifyIntent enables the external intent classifier.
	ClassifyIntent bool
	// IntentTimeout bounds one classification call.
	IntentTimeout time.Duration

	// JudgeRelevance enables the external relevance judge.
	JudgeRelevance bool
	// RelevanceTimeout bounds one judgement call.
	RelevanceTimeout time.Duration
	// RelevanceMinCount is the smallest result set worth judging.
	RelevanceMinCount int
	// RelevanceFirstPageOnly restricts judging to page 1.
	RelevanceFirstPageOnly bool
}

// DefaultAgentPolicy enables both agents with their standard deadlines.
func DefaultAgentPolicy() AgentPolicy {
	return AgentPolicy{
		ClassifyIntent:         true,
		IntentTimeout:          DefaultIntentTimeout,
		JudgeRelevance:         true,
		RelevanceTimeout:       DefaultRelevanceTimeout,
		RelevanceMinCount:      DefaultRelevanceMinCount,
		RelevanceFirstPageOnly: true,
	}
}

// ShouldClassify reports whether the intent classifier is called for query.
func (p AgentPolicy) ShouldClassify(query string) bool {
	return p.ClassifyIntent && query != ""
}

// ShouldJudge reports whether the relevance judge is called for a page
// holding count listings.
func (p AgentPolicy) ShouldJudge(page, count int) bool {
	if !p.JudgeRelevance || count == 0 {
		return false
	}
	if p.RelevanceFirstPageOnly && page > 1 {
		return false
	}
	return count >= p.RelevanceMinCount
}

func (p AgentPolicy) normalized() AgentPolicy {
	if p.IntentTimeout <= 0 {
		p.IntentTimeout = DefaultIntentTimeout
	}
	if p.RelevanceTimeout <= 0 {
		p.RelevanceTimeout = DefaultRelevanceTimeout
	}
	if p.RelevanceMinCount < 0 {
		p.RelevanceMinCount = 0
	}
	return p
}
