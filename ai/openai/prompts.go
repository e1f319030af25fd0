package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/cartwise/ai"
	"github.com/poiesic/cartwise/core"
)

const intentResponseSchema = `{
  "type": "object",
  "properties": {
    "intent": {"type": "string", "enum": ["product", "question"]},
    "category": {"type": "string"},
    "retailer_queries": {"type": "object", "additionalProperties": {"type": "string"}},
    "alternate_query": {"type": "string"},
    "min_price": {"type": ["number", "null"]},
    "max_price": {"type": ["number", "null"]},
    "attributes": {"type": "object", "additionalProperties": {"type": "string"}},
    "strategy": {"type": "string"},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "suggested_categories": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["intent", "confidence"]
}`

const intentPromptTemplate = `You classify shopping search queries. Return ONLY a JSON object that complies with this schema:

%s

Rules:
- intent is "question" only when the user is browsing or asking for ideas and names no product; otherwise "product".
- category must be one of: %s. Use "" when none fits.
- retailer_queries maps retailer ids (%s) to the query text that retailer's search box should receive.
  Remove price phrases like "under $50" from those queries.
- alternate_query is a broader wording of the product to try if the first search finds too little.
- min_price and max_price come only from explicit price constraints in the query; use null otherwise.
- attributes holds explicit product attributes such as color, size or storage.
- suggested_categories lists categories worth browsing when intent is "question".
- confidence is your certainty from 0 to 1.
- The JSON must parse without errors; no trailing commas and no text outside the object.

Example:
Input: "black usb-c charger under $20"
Output:
{"intent":"product","category":"electronics","retailer_queries":{"amazon":"black usb-c charger","ebay":"usb-c charger black"},
 "alternate_query":"usb-c charger","min_price":null,"max_price":20,"attributes":{"color":"black"},
 "strategy":"llm","confidence":0.9,"suggested_categories":[]}

Example:
Input: "gift ideas for my sister"
Output:
{"intent":"question","category":"","confidence":0.8,"suggested_categories":["beauty","jewelry","books"]}`

const relevancePromptTemplate = `You judge whether shopping listings match what the user searched for.

The user searched for: %q

Each listing below is one line: id | retailer | title | price.
Drop accessories, parts and unrelated products that only share words with the query.
Keep listings that are the product itself, in any brand, size or color.

Return ONLY a JSON object of this form:
{"keep": ["<id>", ...], "removed": [{"id": "<id>", "reason": "<short reason>"}, ...]}

Every listing id must appear in exactly one of the two lists. Use only ids from the input.`

func buildIntentPrompt() string {
	retailers := make([]string, len(core.Retailers))
	for i, r := range core.Retailers {
		retailers[i] = r.String()
	}
	return fmt.Sprintf(intentPromptTemplate,
		intentResponseSchema,
		strings.Join(ai.Categories, ", "),
		strings.Join(retailers, ", "))
}

func buildRelevancePrompt(query string) string {
	return fmt.Sprintf(relevancePromptTemplate, sanitize(query))
}

func formatListings(listings []core.Listing) string {
	var b strings.Builder
	for _, l := range listings {
		fmt.Fprintf(&b, "%s | %s | %s | $%.2f\n", l.ID, l.Retailer, sanitize(l.Name), l.ParsedPrice)
	}
	return b.String()
}
