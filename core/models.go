package core

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for cache entries and request logs.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ShippingClass tells whether a listing ships from inside the country or cross-border.
type ShippingClass string

const (
	ShippingDomestic      ShippingClass = "domestic"
	ShippingInternational ShippingClass = "international"
)

// Market selects which provider groups a search fans out to.
type Market string

const (
	MarketAll      Market = "all"
	MarketDomestic Market = "domestic"
	MarketGlobal   Market = "global"
)

// Intent is the coarse purpose of a query.
type Intent string

const (
	// IntentProduct means the user wants to buy something.
	IntentProduct Intent = "product"
	// IntentQuestion means the user is browsing or asking; no provider calls are made.
	IntentQuestion Intent = "question"
)

// Listing is one retailer's normalized offer for a product.
//
// TotalPrice equals ParsedPrice + ShippingPrice until a membership adjustment
// overrides it.
type Listing struct {
	ID            string        `json:"id"` // namespaced, "retailer:native-id"
	Name          string        `json:"name"`
	Price         string        `json:"price"` // raw price text as the retailer shows it
	ParsedPrice   float64       `json:"parsedPrice"`
	Image         string        `json:"image,omitempty"`
	Retailer      Retailer      `json:"retailer"`
	ShippingClass ShippingClass `json:"shipping"`
	Link          string        `json:"link,omitempty"`
	Delivery      string        `json:"delivery,omitempty"`
	ShippingPrice float64       `json:"shippingPrice"`
	TotalPrice    float64       `json:"totalPrice"`
	TrustScore    *float64      `json:"trustScore,omitempty"` // 0-100, nil when the retailer reports none
	Rating        float64       `json:"rating,omitempty"`     // 0-5
	ReviewCount   int           `json:"reviewCount,omitempty"`
	Brand         string        `json:"brand,omitempty"`
	Sponsored     bool          `json:"sponsored,omitempty"`
	FraudFlags    []string      `json:"fraudFlags,omitempty"`
}

// Clone returns a copy that shares no mutable state with l.
func (l Listing) Clone() Listing {
	if l.FraudFlags != nil {
		l.FraudFlags = append([]string(nil), l.FraudFlags...)
	}
	if l.TrustScore != nil {
		v := *l.TrustScore
		l.TrustScore = &v
	}
	return l
}

// IsInternational reports whether the listing ships cross-border.
func (l Listing) IsInternational() bool {
	return l.ShippingClass == ShippingInternational
}

// QueryAnalysis is the resolved understanding of a free-text query.
type QueryAnalysis struct {
	Original            string              `json:"original"`
	Intent              Intent              `json:"intent"`
	Category            string              `json:"category,omitempty"`
	RetailerQueries     map[Retailer]string `json:"retailerQueries,omitempty"`
	AlternateQuery      string              `json:"alternateQuery,omitempty"`
	MinPrice            *float64            `json:"minPrice,omitempty"`
	MaxPrice            *float64            `json:"maxPrice,omitempty"`
	Attributes          map[string]string   `json:"attributes,omitempty"`
	Strategy            string              `json:"strategy,omitempty"`
	Confidence          float64             `json:"confidence"`
	SuggestedCategories []string            `json:"suggestedCategories,omitempty"`
}

// QueryFor returns the query string to send to a retailer, falling back to the original text.
func (a *QueryAnalysis) QueryFor(r Retailer) string {
	if a == nil {
		return ""
	}
	if q, ok := a.RetailerQueries[r]; ok && q != "" {
		return q
	}
	return a.Original
}

// CostType distinguishes the two landed-cost regimes.
type CostType string

const (
	CostDomestic CostType = "domestic"
	CostGlobal   CostType = "global"
)

// CostLine is one human-readable line of a landed-cost breakdown.
type CostLine struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// LandedCost is the all-in price of a listing delivered to the buyer.
type LandedCost struct {
	ProductPrice float64    `json:"productPrice"`
	Shipping     float64    `json:"shipping"`
	Duty         float64    `json:"duty"`
	Tax          float64    `json:"tax"`
	Total        float64    `json:"total"`
	Type         CostType   `json:"type"`
	DutyFree     bool       `json:"dutyFree"`
	State        string     `json:"state,omitempty"`
	TaxRate      float64    `json:"taxRate,omitempty"`
	Breakdown    []CostLine `json:"breakdown"`
}

// ScoreBreakdown holds the per-axis signals behind a listing's best score.
// Price and Speed are normalized within the result set; all axes are 0-100.
type ScoreBreakdown struct {
	Price        float64 `json:"price"`
	Speed        float64 `json:"speed"`
	Trust        float64 `json:"trust"`
	Match        float64 `json:"match"`
	ReturnPolicy float64 `json:"returnPolicy"`
	Weighted     float64 `json:"weighted"`
	Penalty      float64 `json:"penalty"`
}

// ScoredListing is a Listing enriched by landed cost and ranking.
type ScoredListing struct {
	Listing
	Score         float64        `json:"score"`
	Breakdown     ScoreBreakdown `json:"breakdown"`
	LandedPrice   float64        `json:"landedPrice"`
	DeliveryDays  float64        `json:"deliveryDays"`
	Membership    string         `json:"membership,omitempty"`
	MemberSavings float64        `json:"memberSavings,omitempty"`
}

// Clone returns a deep copy of s.
func (s ScoredListing) Clone() ScoredListing {
	s.Listing = s.Listing.Clone()
	return s
}

// MembershipProgram is a static catalog entry describing a retailer loyalty program.
type MembershipProgram struct {
	ID                    string   `json:"id"`
	Name                  string   `json:"name"`
	Retailer              Retailer `json:"retailer"`
	ShippingOverride      *float64 `json:"shippingOverride,omitempty"`
	DeliveryDaysMin       int      `json:"deliveryDaysMin,omitempty"`
	DeliveryDaysMax       int      `json:"deliveryDaysMax,omitempty"`
	DiscountPercent       float64  `json:"discountPercent,omitempty"`
	FreeShippingThreshold float64  `json:"freeShippingThreshold,omitempty"`
	NonMemberShipping     float64  `json:"nonMemberShipping,omitempty"`
	NonMemberDelivery     string   `json:"nonMemberDelivery,omitempty"`
}

// ProviderState is the settled outcome of one provider call.
type ProviderState string

const (
	ProviderOK      ProviderState = "ok"
	ProviderError   ProviderState = "error"
	ProviderTimeout ProviderState = "timeout"
)

// ProviderStatus records how one retailer responded to a fan-out.
type ProviderStatus struct {
	Retailer Retailer      `json:"retailer"`
	State    ProviderState `json:"status"`
	Count    int           `json:"count"`
	Latency  time.Duration `json:"latency"`
	Error    string        `json:"error,omitempty"`
}

// RequestLog is the per-request analytics record handed to the observability sink.
type RequestLog struct {
	Id               ID                 `json:"id"`
	RequestID        string             `json:"requestId"`
	Query            string             `json:"query"`
	Page             int                `json:"page"`
	Market           Market             `json:"market"`
	Intent           Intent             `json:"intent"`
	IntentSource     string             `json:"intentSource"`
	Providers        []ProviderStatus   `json:"providers,omitempty"`
	FraudRemoved     map[string]int     `json:"fraudRemoved,omitempty"`
	AgentCalls       int                `json:"agentCalls"`
	RelevanceApplied bool               `json:"relevanceApplied"`
	Refined          bool               `json:"refined"`
	FromCache        bool               `json:"fromCache"`
	ResultCount      int                `json:"resultCount"`
	StageTimings     map[string]float64 `json:"stageTimings,omitempty"` // milliseconds
	Duration         time.Duration      `json:"duration"`
	Timestamp        time.Time          `json:"timestamp"`
}

// Round2 rounds a monetary value to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Float returns a pointer to v, for optional numeric fields.
func Float(v float64) *float64 {
	return &v
}
