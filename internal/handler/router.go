/*
Package handler provides the HTTP handlers and routing setup for the iChats server.

This file defines the main Router, applying necessary middleware like logging, CORS,
and IP-based rate limiting before delegating requests to specific handlers (API and WebSocket).
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"ichats/internal/pkg/auth/jwt"
	"ichats/internal/pkg/limiter"
	"ichats/internal/pkg/logx"
	"ichats/internal/pkg/resp"
)

const (
	LoginRate    = 0.2
	LoginBurst   = 5
	SendRate     = 5
	SendBurst    = 20
	ConnectRate  = 0.2
	ConnectBurst = 5
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, configures CORS, and applies global and per-route middleware.
func Router(deps *AppDeps) http.Handler {
	loginLimiter := limiter.NewIPRateLimiter(rate.Limit(LoginRate), LoginBurst)
	sendLimiter := limiter.NewIPRateLimiter(rate.Limit(SendRate), SendBurst)
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		logx.Info("Health check endpoint hit")

		data := map[string]string{
			"status":  "ok",
			"service": "iChats Server",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/signup", HandleSignup(deps))

			rateLimitedLogin := loginLimiter.Middleware(HandleLogin(deps))
			auth.Post("/login", http.HandlerFunc(rateLimitedLogin.ServeHTTP))

			auth.Post("/logout", HandleLogout(deps))
			auth.Put("/update-profile", HandleUpdateProfile(deps))
			auth.Get("/check", HandleCheckAuth(deps))
		})

		api.Route("/messages", func(messages chi.Router) {
			messages.Get("/users", HandleSidebar(deps))
			messages.Get("/{id}", HandleGetConversation(deps))

			rateLimitedSend := sendLimiter.Middleware(HandleSendMessage(deps))
			messages.Post("/send/{id}", http.HandlerFunc(rateLimitedSend.ServeHTTP))
		})

		api.Route("/groups", func(groups chi.Router) {
			groups.Post("/", HandleCreateGroup(deps))
			groups.Put("/", HandleAddGroupMembers(deps))
			groups.Get("/", HandleListGroups(deps))
			groups.Delete("/{groupId}", HandleDeleteGroup(deps))
		})

		api.Get("/users", HandleListUsers(deps))
	})

	r.Group(func(ws chi.Router) {
		ws.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))
		ws.Get("/ws", HandleWebSocket(wsUpgrader, connectLimiter, deps))
	})

	return r
}
