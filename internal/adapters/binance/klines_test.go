package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alejandrodnm/lphedge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 11, 7, 0, 0, 0, 0, time.UTC)

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient(srv.URL)
	c.retryWait = time.Millisecond
	return c
}

// klineRows genera n velas horarias desde startMs con close = 3000 + i.
func klineRows(startMs int64, n int) string {
	rows := make([]string, n)
	for i := 0; i < n; i++ {
		open := startMs + int64(i)*3600_000
		rows[i] = fmt.Sprintf(`[%d,"1","1","1","%d.5","10",%d]`, open, 3000+i, open+3599_999)
	}
	return "[" + strings.Join(rows, ",") + "]"
}

func TestFetchKlines_SinglePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "ETHUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1h", r.URL.Query().Get("interval"))
		assert.Equal(t, strconv.FormatInt(t0.UnixMilli(), 10), r.URL.Query().Get("startTime"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(klineRows(t0.UnixMilli(), 3)))
	}))
	defer srv.Close()

	s, err := newTestClient(srv).FetchKlines(context.Background(), "ETHUSDT", "1h", t0, t0.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, s, 3)
	assert.True(t, t0.Equal(s[0].Timestamp))
	assert.Equal(t, 3000.5, s[0].Price)
	assert.Equal(t, 3002.5, s[2].Price)
	assert.NoError(t, s.Validate())
}

func TestFetchKlines_Paginates(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		startMs, err := strconv.ParseInt(r.URL.Query().Get("startTime"), 10, 64)
		require.NoError(t, err)
		if n == 1 {
			w.Write([]byte(klineRows(startMs, klinesPerPage)))
			return
		}
		// Segunda página arranca justo después de la última vela
		assert.Equal(t, t0.UnixMilli()+int64(klinesPerPage-1)*3600_000+1, startMs)
		w.Write([]byte(klineRows(t0.UnixMilli()+int64(klinesPerPage)*3600_000, 10)))
	}))
	defer srv.Close()

	end := t0.Add(2000 * time.Hour)
	s, err := newTestClient(srv).FetchKlines(context.Background(), "ETHUSDT", "1h", t0, end)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Len(t, s, klinesPerPage+10)
	assert.NoError(t, s.Validate())
}

func TestFetchKlines_DropsCandlesAfterEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(klineRows(t0.UnixMilli(), 5)))
	}))
	defer srv.Close()

	s, err := newTestClient(srv).FetchKlines(context.Background(), "ETHUSDT", "1h", t0, t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Len(t, s, 3)
}

func TestFetchKlines_RetriesServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(klineRows(t0.UnixMilli(), 2)))
	}))
	defer srv.Close()

	s, err := newTestClient(srv).FetchKlines(context.Background(), "ETHUSDT", "1h", t0, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, s, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetchKlines_ClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchKlines(context.Background(), "NOPE", "1h", t0, t0.Add(time.Hour))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid symbol")
}

func TestFetchKlines_InvalidArgs(t *testing.T) {
	c := NewClient("")
	_, err := c.FetchKlines(context.Background(), "", "1h", t0, t0.Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = c.FetchKlines(context.Background(), "ETHUSDT", "1h", t0, t0.Add(-time.Hour))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFetchKlines_RequiresStart(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("[]"))
	}))
	defer srv.Close()
	c := newTestClient(srv)

	_, err := c.FetchKlines(context.Background(), "ETHUSDT", "1h", time.Time{}, t0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = c.FetchKlines(context.Background(), "ETHUSDT", "1h", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = c.FetchKlines(context.Background(), "ETHUSDT", "1h", time.UnixMilli(-3600_000).UTC(), t0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Zero(t, hits, "no request may carry a negative startTime")
}

func TestParseKlines_BadPayload(t *testing.T) {
	_, _, err := parseKlines([]byte(`{"code":-1}`))
	assert.Error(t, err)

	_, _, err = parseKlines([]byte(`[[1,"1","1"]]`))
	assert.Error(t, err)

	_, _, err = parseKlines([]byte(`[[1,"1","1","1","0"]]`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
