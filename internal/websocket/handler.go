package websocket

import (
	"log"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/bentwick/crewcal/internal/tenantctx"
)

// HandleWebSocket returns an HTTP handler that upgrades connections to
// WebSocket and runs them as Hub clients for the request's tenant.
func HandleWebSocket(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := tenantctx.TenantID(r.Context())

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // dashboards connect from arbitrary origins
		})
		if err != nil {
			log.Printf("websocket: accept: %v", err)
			return
		}

		client := NewClient(hub, conn, tenantID)
		client.Run(r.Context())
	}
}
