package authgate

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// Middleware rejects unauthenticated requests to protected paths with 401
// before next runs.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := g.Authenticate(r.Context(), r.URL.Path, r.Header.Get(common.AuthorizationHeader))
		if err != nil {
			writeUnauthorized(w, common.DetailOf(err))
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", common.BearerScheme)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
