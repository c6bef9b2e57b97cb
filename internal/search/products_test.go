package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
)

type esCall struct {
	method string
	path   string
	body   []byte
}

type fakeES struct {
	mu     sync.Mutex
	calls  []esCall
	handle func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, esCall{method: r.Method, path: r.URL.Path, body: body})
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	if r.URL.Path == "/" {
		_, _ = w.Write([]byte(`{"version":{"number":"9.0.0"},"tagline":"You Know, for Search"}`))
		return
	}
	f.handle(w, r)
}

func (f *fakeES) last() esCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func newTestIndex(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) (*ProductIndex, *fakeES) {
	t.Helper()
	fake := &fakeES{handle: handle}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), ClientConfig{URL: srv.URL})
	require.NoError(t, err)
	return NewProductIndex(client, "products", nil), fake
}

func TestProductIndex_Search(t *testing.T) {
	idx, fake := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":3},"hits":[
			{"_source":{"id":1,"name":"Red mug","price":"19.99"}},
			{"_source":{"id":4,"name":"Blue mug","description":"ceramic","price":"9.50"}}
		]}}`))
	})

	total, products, err := idx.Search(context.Background(), "mug", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, products, 2)
	assert.Equal(t, uint(1), products[0].ID)
	assert.Equal(t, "19.99", products[0].Price.StringFixed(2))
	require.NotNil(t, products[1].Description)
	assert.Equal(t, "ceramic", *products[1].Description)

	call := fake.last()
	assert.Equal(t, "/products/_search", call.path)

	var q map[string]any
	require.NoError(t, json.Unmarshal(call.body, &q))
	mm := q["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "mug", mm["query"])
	assert.Equal(t, "AUTO", mm["fuzziness"])
	assert.EqualValues(t, 2, q["size"])
}

func TestProductIndex_IndexAndDelete(t *testing.T) {
	idx, fake := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"result":"not_found"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})
	ctx := context.Background()

	p := &models.Product{ID: 7, Name: "Lamp"}
	require.NoError(t, idx.IndexProduct(ctx, p))
	call := fake.last()
	assert.Equal(t, "/products/_doc/7", call.path)
	assert.Contains(t, string(call.body), `"name":"Lamp"`)

	// already gone from the index is fine
	require.NoError(t, idx.DeleteProduct(ctx, 7))
	assert.Equal(t, http.MethodDelete, fake.last().method)
}

func TestProductIndex_SearchError(t *testing.T) {
	idx, _ := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad query"}`))
	})

	_, _, err := idx.Search(context.Background(), "x", 0, 10)
	assert.ErrorContains(t, err, "status 400")
}
