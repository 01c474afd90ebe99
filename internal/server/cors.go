package server

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/tjfontaine/mindspark/internal/core/domain"
)

// CORSMiddleware lets browser clients call the API and read the image
// header. An empty origins list allows any origin.
func CORSMiddleware(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders: []string{domain.ImageURLHeader, RequestIDHeader},
		MaxAge:         86400,
	})
}
