package ws

import (
	"fmt"
	"log"
	"net/http"

	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
)

var (
	// Server is the global Socket.IO server instance
	Server *socketio.Server
)

// tenantRoom names the per-tenant broadcast room
func tenantRoom(tenantID string) string {
	return "tenant:" + tenantID
}

// InitServer initializes the Socket.IO server
func InitServer() error {
	server := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			&polling.Transport{
				CheckOrigin: func(r *http.Request) bool {
					// Allow all origins for now (can be restricted later)
					return true
				},
			},
			&websocket.Transport{
				CheckOrigin: func(r *http.Request) bool {
					return true
				},
			},
		},
	})

	server.OnConnect("/", func(s socketio.Conn) error {
		// JWT authentication happened during the handshake; the wrapper
		// stamped the verified tenant onto the request headers
		tenantID := s.RemoteHeader().Get(TenantHeader)
		if tenantID == "" {
			log.Printf("[WebSocket] Connection without tenant rejected: %s", s.ID())
			return fmt.Errorf("no tenant bound to connection")
		}

		s.SetContext(tenantID)
		s.Join(tenantRoom(tenantID))
		log.Printf("[WebSocket] Client connected: %s tenant=%s", s.ID(), tenantID)

		s.Emit("connected", map[string]interface{}{
			"ok": true,
		})

		return nil
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		log.Printf("[WebSocket] Client disconnected: %s, reason: %s", s.ID(), reason)
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		log.Printf("[WebSocket] Error for client %s: %v", s.ID(), e)
	})

	registerEventHandlers(server)

	go func() {
		if err := server.Serve(); err != nil {
			log.Fatalf("[WebSocket] Server error: %v", err)
		}
	}()

	Server = server
	log.Println("✓ Socket.IO server initialized")
	return nil
}

// registerEventHandlers registers all Socket.IO event handlers
func registerEventHandlers(server *socketio.Server) {
	server.OnEvent("/", "request:domains", handleRequestDomains)
}

// BroadcastToTenant broadcasts a message to one tenant's connections only
func BroadcastToTenant(tenantID, event string, data interface{}) {
	if Server != nil {
		Server.BroadcastToRoom("/", tenantRoom(tenantID), event, data)
	}
}
