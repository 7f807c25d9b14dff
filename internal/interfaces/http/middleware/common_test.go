package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID(t *testing.T) {
	t.Run("generates an ID when header is absent", func(t *testing.T) {
		engine := gin.New()
		engine.Use(RequestID())

		var captured string
		engine.GET("/", func(c *gin.Context) {
			captured = c.GetString("request_id")
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		assert.NotEmpty(t, captured)
		assert.Equal(t, captured, w.Header().Get(RequestIDHeader))
	})

	t.Run("keeps a caller provided ID", func(t *testing.T) {
		engine := gin.New()
		engine.Use(RequestID())
		engine.GET("/", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(RequestIDHeader, "client-id-123")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, "client-id-123", w.Header().Get(RequestIDHeader))
	})
}

func TestCORSWithConfig(t *testing.T) {
	cfg := CORSConfig{
		AllowOrigins:     []string{"https://app.astralis.one"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           time.Hour,
	}

	newEngine := func() *gin.Engine {
		engine := gin.New()
		engine.Use(CORSWithConfig(cfg))
		engine.GET("/", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return engine
	}

	t.Run("allows configured origin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Origin", "https://app.astralis.one")
		w := httptest.NewRecorder()
		newEngine().ServeHTTP(w, req)

		assert.Equal(t, "https://app.astralis.one", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "X-Request-ID", w.Header().Get("Access-Control-Expose-Headers"))
	})

	t.Run("ignores unknown origin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		newEngine().ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("answers preflight with 204", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/", nil)
		req.Header.Set("Origin", "https://app.astralis.one")
		w := httptest.NewRecorder()
		newEngine().ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("empty origin list rejects everything", func(t *testing.T) {
		engine := gin.New()
		engine.Use(CORSWithConfig(DefaultCORSConfig()))
		engine.GET("/", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Origin", "https://app.astralis.one")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestSecure(t *testing.T) {
	engine := gin.New()
	engine.Use(Secure())
	engine.GET("/", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
}
