package httpapi

import (
	"net/http"

	"github.com/riskibarqy/score-predictor/internal/platform/logging"
)

type RouterConfig struct {
	SwaggerEnabled     bool
	CORSAllowedOrigins []string
	InternalJobToken   string
	AdminUserIDs       []string
	RateLimitPerMinute int
	RateLimitBurst     int
	// Metrics serves /metrics when set.
	Metrics  http.Handler
	Observer RequestObserver
}

func NewRouter(handler *Handler, verifier TokenVerifier, cfg RouterConfig, logger *logging.Logger) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	r := &routes{
		mux:      http.NewServeMux(),
		handler:  handler,
		verifier: verifier,
		observer: cfg.Observer,
	}
	r.registerSystemRoutes(cfg.SwaggerEnabled, cfg.Metrics)
	r.registerPublicRoutes()
	r.registerAuthorizedRoutes()
	r.registerAdminRoutes(cfg.AdminUserIDs)
	r.registerInternalJobRoutes(cfg.InternalJobToken)

	limiter := NewIPRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	httpLogger := logger.Named("http")
	return RequestTracing(RequestLogging(httpLogger, CORS(cfg.CORSAllowedOrigins, RateLimit(limiter, recoverPanic(httpLogger, r.mux)))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.ErrorContext(r.Context(), "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(r.Context(), w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
