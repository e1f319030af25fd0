package ranking

import "strings"

// Stop words to filter out when matching queries against listing titles
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "best": true, "cheap": true, "buy": true, "new": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		// Lowercase and trim punctuation
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"()[]{}"))

		// Skip stop words and empty strings
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// queryCoverage returns the fraction of query words found in the document.
// A query word also matches a document word it prefixes ("earbud" / "earbuds").
func queryCoverage(document, query string) float64 {
	queryWords := tokenizeAndFilter(query)
	if len(queryWords) == 0 {
		return 0
	}

	docWords := tokenizeAndFilter(document)
	docWordSet := make(map[string]bool, len(docWords))
	for _, word := range docWords {
		docWordSet[word] = true
	}

	found := 0
	for _, qWord := range queryWords {
		if docWordSet[qWord] {
			found++
			continue
		}
		for _, dWord := range docWords {
			if len(qWord) >= 4 && strings.HasPrefix(dWord, qWord) {
				found++
				break
			}
		}
	}

	return float64(found) / float64(len(queryWords))
}
