package cartwise

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/cartwise/ai"
	"github.com/poiesic/cartwise/core"
	"github.com/poiesic/cartwise/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name string
		cfg  *Config
	}{
		{"unknown mode", NewConfig(func(c *Config) { c.Gateways = "carrier-pigeon" })},
		{"http without urls", NewConfig(WithHTTPGateways(nil))},
		{"http with bad url", NewConfig(WithHTTPGateways(map[core.Retailer]string{core.RetailerAmazon: "not a url"}))},
		{"http with unknown retailer", NewConfig(WithHTTPGateways(map[core.Retailer]string{"costco": "http://localhost"}))},
		{"zero timeout", NewConfig(WithProviderTimeout(0))},
		{"zero pool", NewConfig(WithPoolSize(0))},
		{"zero writers", NewConfig(WithAnalyticsWorkers(0))},
		{"bad cache", NewConfig(WithCache(0, time.Minute))},
		{"bad ai", NewConfig(WithAI(&ai.Config{}))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.cfg.Validate(), ErrInvalidConfig)
		})
	}

	t.Run("disabled cache skips cache checks", func(t *testing.T) {
		cfg := NewConfig(WithCache(0, 0), WithoutCache())
		assert.NoError(t, cfg.Validate())
	})
}

func TestParseGatewayURLs(t *testing.T) {
	urls, err := ParseGatewayURLs(" amazon=http://a.test , Best Buy=http://b.test,")
	require.NoError(t, err)
	assert.Equal(t, map[core.Retailer]string{
		core.RetailerAmazon:  "http://a.test",
		core.RetailerBestBuy: "http://b.test",
	}, urls)

	_, err = ParseGatewayURLs("amazon")
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = ParseGatewayURLs("costco=http://c.test")
	assert.ErrorIs(t, err, core.ErrUnknownRetailer)
}

func TestNewEngine(t *testing.T) {
	t.Run("defaults run offline", func(t *testing.T) {
		e, err := NewEngine(nil)
		require.NoError(t, err)
		defer e.Close()

		assert.NotNil(t, e.Searcher())
		assert.NotNil(t, e.RequestLogs())
		assert.Nil(t, e.provider)
		assert.Len(t, e.Memberships(), 5)
		assert.Len(t, e.Searcher().Retailers(), len(core.Retailers))
	})

	t.Run("invalid config", func(t *testing.T) {
		e, err := NewEngine(NewConfig(WithPoolSize(-1)))
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.Nil(t, e)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0644))

		e, err := NewEngine(NewConfig(WithLogPath(tmpFile)))
		assert.Error(t, err)
		assert.Nil(t, e)
	})

	t.Run("search options override config", func(t *testing.T) {
		_, err := NewEngine(nil, search.WithPoolSize(0))
		assert.ErrorIs(t, err, search.ErrInvalidPoolSize)
	})
}

func TestEngine_SearchStoresRequestLogs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	e, err := NewEngine(NewConfig(WithLogPath(dir), WithProviderTimeout(2*time.Second)))
	require.NoError(t, err)

	resp := e.Search(context.Background(), search.Request{Query: "wireless earbuds", Zipcode: "94105"})
	assert.NotEmpty(t, resp.Listings)
	assert.Len(t, resp.ProviderStatus, len(core.Retailers))

	// Close flushes pending writes
	require.NoError(t, e.Close())

	e, err = NewEngine(NewConfig(WithLogPath(dir)))
	require.NoError(t, err)
	defer e.Close()

	logs, err := e.RequestLogs().GetRecentRequestLogs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, resp.RequestID, logs[0].RequestID)
	assert.Equal(t, "wireless earbuds", logs[0].Query)
	assert.Equal(t, resp.TotalCount, logs[0].ResultCount)
}

func TestEngine_HTTPGateways(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"listings": []map[string]any{
			{"id": "1", "title": "Wireless Earbuds One", "price": "$24.99", "image": "https://img.test/1.jpg", "delivery": "2 days"},
			{"id": "2", "title": "Wireless Earbuds Two", "price": 31.5, "image": "https://img.test/2.jpg", "delivery": "3 days"},
			{"id": "3", "title": "Wireless Earbuds Three", "price": 28, "image": "https://img.test/3.jpg", "delivery": "4 days"},
		}})
	}))
	defer srv.Close()

	e, err := NewEngine(NewConfig(WithHTTPGateways(map[core.Retailer]string{
		core.RetailerWalmart: srv.URL,
		core.RetailerAmazon:  srv.URL,
	})))
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, []core.Retailer{core.RetailerAmazon, core.RetailerWalmart}, e.Searcher().Retailers())

	resp := e.Search(context.Background(), search.Request{Query: "wireless earbuds"})
	assert.Equal(t, 6, resp.TotalCount)
	for _, st := range resp.ProviderStatus {
		assert.Equal(t, core.ProviderOK, st.State)
	}
}
