/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for rate limiting,
authenticating the connecting user, upgrading the HTTP connection to WebSocket, and
registering the client with the presence registry for push delivery.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"ichats/internal/app/push"
	"ichats/internal/pkg/auth/jwt"
	"ichats/internal/pkg/errs"
	"ichats/internal/pkg/limiter"
	"ichats/internal/pkg/logx"
	"ichats/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
// The connecting user is identified from the token query parameter since browsers
// cannot set an Authorization header on WebSocket upgrades.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			logx.Warn("WebSocket request rejected: Missing or invalid token")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		logx.Info("Attempting to upgrade connection", "user_id", payload.UserID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := push.NewClient(conn, deps.Presence, payload.UserID)

		go client.WritePump()

		logx.Info("WebSocket connection established and client registered", "user_id", payload.UserID)

		deps.Presence.Register(payload.UserID, client)

		client.ReadPump()
	}
}
