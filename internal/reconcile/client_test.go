package reconcile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_TopOfBook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/bookTicker", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"symbol":"BTCUSDT","bidPrice":"50000.10","bidQty":"2.5","askPrice":"50010.20","askQty":"1.5"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	book, elapsed, err := c.TopOfBook(context.Background(), "BTCUSDT")
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", book.Symbol)
	assert.Equal(t, 50000.10, book.BidPrice)
	assert.Equal(t, 2.5, book.BidVolume)
	assert.Equal(t, 50010.20, book.AskPrice)
	assert.Equal(t, 1.5, book.AskVolume)
	assert.Greater(t, elapsed, time.Duration(0))
}

func TestClient_TopOfBook_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "teapot", http.StatusTeapot)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	_, _, err := c.TopOfBook(context.Background(), "BTCUSDT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 418")
}

func TestClient_TopOfBook_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 20*time.Millisecond)
	_, _, err := c.TopOfBook(context.Background(), "BTCUSDT")
	require.Error(t, err)
}

func TestClient_TopOfBook_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"BTCUSDT","bidPrice":"not-a-number","bidQty":"1","askPrice":"1","askQty":"1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	_, _, err := c.TopOfBook(context.Background(), "BTCUSDT")
	require.Error(t, err)
}
