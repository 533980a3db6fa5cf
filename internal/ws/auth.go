package ws

import (
	"log"
	"net/http"
	"strings"

	"go_storefront/internal/auth"
)

// TenantHeader carries the authenticated tenant from the handshake into
// the socket connection. It is always overwritten from the verified JWT
// claims, never trusted from the client.
const TenantHeader = "X-Storefront-Tenant"

// extractToken extracts JWT token from request
// Priority: 1. token query parameter, 2. Authorization header
func extractToken(r *http.Request) string {
	// Socket.IO client: io("url", { auth: { token: "xxx" } })
	// gets encoded as ?token=xxx in the handshake request
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}

	return ""
}

// WrapWithAuth wraps the Socket.IO server with JWT authentication.
// Only the handshake GET is checked; established transports carry the
// engine.io session. The verified tenant id is stamped onto the request
// so the connect handler can bind the connection to its tenant.
func WrapWithAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A client-supplied tenant header is never honored
		r.Header.Del(TenantHeader)

		if r.Method == "GET" && strings.Contains(r.URL.Path, "/socket.io/") {
			token := extractToken(r)
			if token == "" {
				log.Printf("[WebSocket] Handshake rejected: No token from %s", r.RemoteAddr)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := auth.ParseToken(token)
			if err != nil {
				log.Printf("[WebSocket] Handshake rejected: Invalid token from %s: %v", r.RemoteAddr, err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if claims.TenantID == "" {
				log.Printf("[WebSocket] Handshake rejected: Token without tenant from %s", r.RemoteAddr)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			r.Header.Set(TenantHeader, claims.TenantID)
			log.Printf("[WebSocket] Handshake accepted: user=%s tenant=%s", claims.Username, claims.TenantID)
		}

		next.ServeHTTP(w, r)
	})
}
