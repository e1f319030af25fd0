package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poiesic/cartwise/core"
	"github.com/poiesic/cartwise/membership"
	"github.com/poiesic/cartwise/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	last search.Request
}

func (f *fakeService) Search(_ context.Context, req search.Request) *search.Response {
	f.last = req
	return &search.Response{Query: req.Query, Page: req.Page, Listings: []core.ScoredListing{}}
}

func (f *fakeService) Memberships() []core.MembershipProgram {
	return membership.DefaultCatalog().Programs()
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestRouter(t *testing.T) {
	svc := &fakeService{}
	h := newRouter(svc)

	t.Run("healthz", func(t *testing.T) {
		rec := get(t, h, "/healthz")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("search parses the query string", func(t *testing.T) {
		rec := get(t, h, "/search?q=wireless+earbuds&page=2&market=global&zip=94105&balance=75&membership=amazon_prime,walmart_plus&membership=ebay_plus")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		assert.Equal(t, "wireless earbuds", svc.last.Query)
		assert.Equal(t, 2, svc.last.Page)
		assert.Equal(t, core.MarketGlobal, svc.last.Market)
		assert.Equal(t, "94105", svc.last.Zipcode)
		require.NotNil(t, svc.last.PriceSpeedBalance)
		assert.Equal(t, 75.0, *svc.last.PriceSpeedBalance)
		assert.Equal(t, []string{"amazon_prime", "walmart_plus", "ebay_plus"}, svc.last.Memberships)

		var resp search.Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "wireless earbuds", resp.Query)
	})

	t.Run("bad parameters", func(t *testing.T) {
		for _, target := range []string{"/search?q=x&page=0", "/search?q=x&page=two", "/search?q=x&balance=150"} {
			rec := get(t, h, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code, target)
			assert.Contains(t, rec.Body.String(), "error")
		}
	})

	t.Run("memberships", func(t *testing.T) {
		rec := get(t, h, "/memberships")
		require.Equal(t, http.StatusOK, rec.Code)
		var programs []core.MembershipProgram
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &programs))
		assert.Len(t, programs, 5)
	})

	t.Run("unknown route", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get(t, h, "/nope").Code)
	})
}
