package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"yogastudio/internal/config"
)

// adminAuth guards operator routes with a static API key header.
type adminAuth struct {
	cfg  config.APIAuthConfig
	keys [][]byte
}

func newAdminAuth(cfg config.APIAuthConfig) *adminAuth {
	keys := make([][]byte, 0, len(cfg.AdminKeys))
	for _, k := range cfg.AdminKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, []byte(k))
		}
	}
	return &adminAuth{cfg: cfg, keys: keys}
}

func (a *adminAuth) allowed(r *http.Request) bool {
	header := a.cfg.HeaderAPIKey
	if header == "" {
		header = "x-api-key"
	}
	presented := []byte(strings.TrimSpace(r.Header.Get(header)))
	if len(presented) == 0 {
		return false
	}
	for _, k := range a.keys {
		if subtle.ConstantTimeCompare(k, presented) == 1 {
			return true
		}
	}
	return false
}

func (a *adminAuth) Wrap(next http.Handler) http.Handler {
	if !a.cfg.Enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.allowed(r) {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
