package trudvsem

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func pageBody(ids ...string) string {
	body := `{"status":"200","results":{"vacancies":[`
	for i, id := range ids {
		if i > 0 {
			body += ","
		}
		body += fmt.Sprintf(`{"vacancy":{"id":%q,"company":{"ogrn":"1025400000001"},"job-name":"Повар"}}`, id)
	}
	return body + `]}}`
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	return NewClient(Config{BaseURL: srv.URL, Region: "54", PageSize: 2}, zaptest.NewLogger(t))
}

func TestFetchAllStopsAtBadStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/api/v1/vacancies/region/54", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("limit"))

		switch r.URL.Query().Get("offset") {
		case "0":
			fmt.Fprint(w, pageBody("v1", "v2"))
		case "1":
			fmt.Fprint(w, pageBody("v3"))
		default:
			fmt.Fprint(w, `{"status":"404","results":{}}`)
		}
	}))
	defer srv.Close()

	raws, err := newTestClient(t, srv).FetchAll(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, raws, 3)
	assert.Equal(t, "v3", raws[2].Vacancy.ID.String())
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchAllStopsAtEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") == "5" {
			fmt.Fprint(w, pageBody("v1"))
			return
		}
		fmt.Fprint(w, pageBody())
	}))
	defer srv.Close()

	raws, err := newTestClient(t, srv).FetchAll(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, raws, 1)
}

func TestFetchAllFirstPageFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).FetchAll(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadStatus))
}

func TestFetchPageMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).FetchPage(context.Background(), 0)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrBadStatus))
}

func TestFetchAllCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pageBody("v1"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, srv).FetchAll(ctx, 0)
	assert.True(t, errors.Is(err, context.Canceled))
}
