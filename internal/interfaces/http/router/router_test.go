package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	engine.ServeHTTP(w, req)
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))

	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	g := NewDomainGroup("system", "/system")
	g.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.Register(g).Setup()

	w := serve(engine, "GET", "/api/v1/system/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRouterUse(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	r.Use(func(c *gin.Context) {
		c.Header("X-API-Middleware", "yes")
		c.Next()
	})

	g := NewDomainGroup("events", "/events")
	g.GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "list")
	})

	r.Register(g).Setup()

	w := serve(engine, "GET", "/api/v1/events")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "yes", w.Header().Get("X-API-Middleware"))
}

func TestDomainGroupMethods(t *testing.T) {
	tests := []struct {
		method     string
		register   func(g *DomainGroup, h gin.HandlerFunc)
		wantStatus int
	}{
		{"GET", func(g *DomainGroup, h gin.HandlerFunc) { g.GET("/items", h) }, http.StatusOK},
		{"POST", func(g *DomainGroup, h gin.HandlerFunc) { g.POST("/items", h) }, http.StatusOK},
		{"PUT", func(g *DomainGroup, h gin.HandlerFunc) { g.PUT("/items", h) }, http.StatusOK},
		{"PATCH", func(g *DomainGroup, h gin.HandlerFunc) { g.PATCH("/items", h) }, http.StatusOK},
		{"DELETE", func(g *DomainGroup, h gin.HandlerFunc) { g.DELETE("/items", h) }, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			engine := gin.New()
			g := NewDomainGroup("test", "/test")
			tt.register(g, func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			g.RegisterRoutes(engine.Group("/api/v1"))

			w := serve(engine, tt.method, "/api/v1/test/items")
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestDomainGroupAccessors(t *testing.T) {
	g := NewDomainGroup("pipelines", "/pipelines")

	assert.Equal(t, "pipelines", g.Name())
	assert.Equal(t, "/pipelines", g.Prefix())
}

func TestDomainGroupMiddleware(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("agent", "/agent")
	g.Use(func(c *gin.Context) {
		c.Header("X-Group-Middleware", "applied")
		c.Next()
	})
	g.GET("/decisions", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	g.RegisterRoutes(engine.Group("/api/v1"))

	w := serve(engine, "GET", "/api/v1/agent/decisions")
	assert.Equal(t, "applied", w.Header().Get("X-Group-Middleware"))
}

func TestDomainGroupPerRouteMiddleware(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("users", "/users")

	guard := func(c *gin.Context) {
		c.AbortWithStatus(http.StatusForbidden)
	}
	g.PUT("/:id/role", guard, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	g.GET("/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	g.RegisterRoutes(engine.Group("/api/v1"))

	assert.Equal(t, http.StatusForbidden, serve(engine, "PUT", "/api/v1/users/1/role").Code)
	assert.Equal(t, http.StatusOK, serve(engine, "GET", "/api/v1/users/1").Code)
}

func TestDomainGroupSubgroups(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("availability", "/availability")

	rules := g.Group("rules", "/rules")
	rules.GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "rules")
	})

	g.RegisterRoutes(engine.Group("/api/v1"))

	w := serve(engine, "GET", "/api/v1/availability/rules")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rules", w.Body.String())
}

func TestMultipleDomainGroups(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	events := NewDomainGroup("events", "/events")
	events.GET("", func(c *gin.Context) { c.String(http.StatusOK, "events") })

	intake := NewDomainGroup("intake", "/intake")
	intake.GET("", func(c *gin.Context) { c.String(http.StatusOK, "intake") })

	r.Register(events).Register(intake).Setup()

	assert.Equal(t, "events", serve(engine, "GET", "/api/v1/events").Body.String())
	assert.Equal(t, "intake", serve(engine, "GET", "/api/v1/intake").Body.String())
}
