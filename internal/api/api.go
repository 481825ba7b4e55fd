package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/susu3304/giftbot/internal/catalog"
	"github.com/susu3304/giftbot/internal/config"
	"github.com/susu3304/giftbot/internal/ledger"
	"golang.org/x/oauth2"
)

// Store is the read-only view of the ledger and catalog served over HTTP.
type Store interface {
	GetAccount(ctx context.Context, id string) (*ledger.Account, error)
	ListTransactions(ctx context.Context, accountID string, limit int) ([]ledger.Transaction, error)
	ListGifts(ctx context.Context, pattern string, limit int) ([]catalog.Gift, error)
}

type API struct {
	router      *mux.Router
	store       Store
	config      *config.Config
	oauthConfig *oauth2.Config
	jwtSecret   []byte
	server      *http.Server
}

func New(cfg *config.Config, store Store) *API {
	api := &API{
		router:    mux.NewRouter(),
		store:     store,
		config:    cfg,
		jwtSecret: []byte(cfg.JWTSecret),
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURI,
			Scopes:       []string{"identify"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://discord.com/api/oauth2/authorize",
				TokenURL: "https://discord.com/api/oauth2/token",
			},
		},
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	// Auth endpoints
	a.router.HandleFunc("/api/auth/login", a.handleLogin).Methods("GET")
	a.router.HandleFunc("/api/auth/callback", a.handleCallback).Methods("GET")
	a.router.HandleFunc("/api/auth/logout", a.handleLogout).Methods("POST")

	// Public endpoints
	a.router.HandleFunc("/api/public/gifts", a.handlePublicListGifts).Methods("GET")

	// Protected endpoints
	protected := a.router.PathPrefix("/api/me").Subrouter()
	protected.Use(a.authMiddleware)

	protected.HandleFunc("/account", a.handleMyAccount).Methods("GET")
	protected.HandleFunc("/transactions", a.handleMyTransactions).Methods("GET")
}

// Handler returns the router wrapped with CORS.
func (a *API) Handler() http.Handler {
	// When AllowedOrigins is "*", AllowCredentials must be false
	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}
	return cors.New(corsOptions).Handler(a.router)
}

func (a *API) Start() error {
	a.server = &http.Server{
		Addr:              a.config.WebBind,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("API server listening on http://%s", a.config.WebBind)
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *API) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}
