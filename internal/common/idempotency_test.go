package common_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-rateio/internal/common"
)

func TestIdempotencyMiddleware(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	idem := common.Idem{R: client, TTL: time.Minute}
	calls := 0
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	do := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/bills", nil)
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusCreated, do("abc").Code)
	require.Equal(t, 1, calls)

	replay := do("abc")
	require.Equal(t, http.StatusConflict, replay.Code)
	require.Contains(t, replay.Body.String(), "IDEMPOTENT_REPLAY")
	require.Equal(t, 1, calls)

	require.Equal(t, http.StatusCreated, do("other").Code)
	require.Equal(t, 2, calls)

	t.Run("no header passes through", func(t *testing.T) {
		before := calls
		require.Equal(t, http.StatusCreated, do("").Code)
		require.Equal(t, before+1, calls)
	})

	t.Run("key expires", func(t *testing.T) {
		mr.FastForward(2 * time.Minute)
		require.Equal(t, http.StatusCreated, do("abc").Code)
	})
}
