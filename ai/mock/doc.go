// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.IntentClassifier,
// ai.RelevanceJudge and ai.AIProvider for use in unit tests. The mocks run
// without a model server and make timeout and fallback paths reproducible.
//
// # Usage in Tests
//
//	classifier := mock.NewMockIntentClassifier().
//	    WithClassifyIntentFunc(func(ctx context.Context, query string) (*core.QueryAnalysis, error) {
//	        <-ctx.Done()
//	        return nil, ctx.Err()
//	    })
//
//	count := classifier.CallCount()
//
// # Default Behavior
//
//   - MockIntentClassifier: answers with the keyword classifier
//   - MockRelevanceJudge: keeps every listing
//   - MockProvider: aggregates a default classifier and judge
//
// Call counters are atomic so the mocks can be shared by concurrent searches.
package mock
