// middleware/cors.go
package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/skms/website/config"
)

// CORSFromConfig applies go-chi/cors using the CoreConfig CORS section.
// When CORS is disabled it returns an identity middleware, so it is safe
// to call unconditionally.
func CORSFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.CORS.EnableCORS {
		return func(next http.Handler) http.Handler { return next }
	}

	methods := coreCfg.CORS.CORSAllowedMethods
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodHead, http.MethodOptions}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   coreCfg.CORS.CORSAllowedOrigins,
		AllowedMethods:   methods,
		AllowedHeaders:   coreCfg.CORS.CORSAllowedHeaders,
		AllowCredentials: coreCfg.CORS.CORSAllowCredentials,
		MaxAge:           coreCfg.CORS.CORSMaxAge,
	})
}
