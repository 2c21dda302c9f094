package http

import (
	"net/http"
	"time"

	"github.com/charbel0004/Unishelf-sub000/internal/controllers/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type RouterOptions struct {
	Logger         zerolog.Logger
	Authz          *middleware.Authz
	Limiter        *middleware.IPRateLimiter
	RequestTimeout time.Duration
	// TrustedProxies are the only peers whose X-Forwarded-For is honoured.
	TrustedProxies []string
	// Ready reports whether dependencies are reachable; nil means always ready.
	Ready func() error
}

func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		opts.Logger.Error().Err(err).Strs("proxies", opts.TrustedProxies).Msg("invalid trusted proxies, trusting none")
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery(), middleware.MetricsMiddleware(), middleware.Logging(opts.Logger), middleware.Timeout(opts.RequestTimeout))

	r.GET("/healthz", func(c *gin.Context) {
		if opts.Ready != nil {
			if err := opts.Ready(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := func(c *gin.Context) { c.Next() }
	if opts.Limiter != nil {
		limiter = opts.Limiter.Middleware()
	}
	h.RegisterRoutes(r, opts.Authz, limiter)
	return r
}
