package mw

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path string, header http.Header) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	req.RemoteAddr = "127.0.0.1:34567"
	for k, v := range header {
		req.Header[k] = v
	}
	r.ServeHTTP(w, req)
	return w
}

func TestCache(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)
	calls := 0

	r := gin.New()
	r.Use(Cache(store, time.Minute))
	r.GET("/counter", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	r.GET("/broken", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
	})
	r.POST("/counter", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.POST("/rejected", func(c *gin.Context) {
		c.Status(http.StatusBadRequest)
	})

	t.Run("second GET is served from cache", func(t *testing.T) {
		first := perform(r, http.MethodGet, "/counter", nil)
		second := perform(r, http.MethodGet, "/counter", nil)

		assert.Equal(t, http.StatusOK, second.Code)
		assert.JSONEq(t, first.Body.String(), second.Body.String())
		assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
		assert.Equal(t, 1, calls)
	})

	t.Run("failed write keeps the cache", func(t *testing.T) {
		perform(r, http.MethodPost, "/rejected", nil)
		w := perform(r, http.MethodGet, "/counter", nil)
		assert.JSONEq(t, `{"calls":1}`, w.Body.String())
	})

	t.Run("successful write flushes the cache", func(t *testing.T) {
		perform(r, http.MethodPost, "/counter", nil)
		w := perform(r, http.MethodGet, "/counter", nil)
		assert.JSONEq(t, `{"calls":2}`, w.Body.String())
		assert.Empty(t, w.Header().Get("X-Cache"))
	})

	t.Run("errors are not cached", func(t *testing.T) {
		perform(r, http.MethodGet, "/broken", nil)
		perform(r, http.MethodGet, "/broken", nil)
		assert.Equal(t, 4, calls)
	})
}

func TestCache_ReadOverlappingWriteIsNotStored(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)
	var (
		mu      sync.Mutex
		version int
		blocked bool
	)
	read := make(chan struct{})
	release := make(chan struct{})

	r := gin.New()
	r.Use(Cache(store, time.Minute))
	r.GET("/version", func(c *gin.Context) {
		mu.Lock()
		v := version
		block := !blocked
		blocked = true
		mu.Unlock()
		if block {
			close(read)
			<-release
		}
		c.JSON(http.StatusOK, gin.H{"version": v})
	})
	r.POST("/version", func(c *gin.Context) {
		mu.Lock()
		version++
		mu.Unlock()
		c.Status(http.StatusOK)
	})

	done := make(chan *httptest.ResponseRecorder)
	go func() {
		done <- perform(r, http.MethodGet, "/version", nil)
	}()

	<-read
	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/version", nil).Code)
	close(release)
	stale := <-done
	assert.JSONEq(t, `{"version":0}`, stale.Body.String())

	w := perform(r, http.MethodGet, "/version", nil)
	assert.Empty(t, w.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"version":1}`, w.Body.String())
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(rate.Limit(1), 2))
	r.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	clientA := http.Header{"X-Forwarded-For": []string{"10.0.0.1"}}
	clientB := http.Header{"X-Forwarded-For": []string{"10.0.0.2"}}

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ping", clientA).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ping", clientA).Code)

	limited := perform(r, http.MethodGet, "/ping", clientA)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))

	// Buckets are per client.
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ping", clientB).Code)
}

func TestIPRateLimiter_ReusesLimiter(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(5), 1)
	first := l.GetLimiter("192.0.2.1")
	assert.Same(t, first, l.GetLimiter("192.0.2.1"))
	assert.NotSame(t, first, l.GetLimiter("192.0.2.2"))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	w := perform(r, http.MethodGet, "/id", nil)
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	w = perform(r, http.MethodGet, "/id", http.Header{RequestIDHeader: []string{"abc-123"}})
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())
}
