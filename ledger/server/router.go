package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pingcap-incubator/tinyledger/ledger/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/unrolled/render"
	"github.com/urfave/negroni"
)

const apiPrefix = "/api/v1"

func createRouter(cfg *config.Config, ledger Ledger, rd *render.Render) *mux.Router {
	router := mux.NewRouter()
	auth := func(h http.HandlerFunc) http.HandlerFunc {
		return requireAPIKey(cfg.AdminAPIKey, rd, h)
	}

	statusHandler := newStatusHandler(ledger, cfg.AppName, cfg.Storage, rd)
	router.HandleFunc("/", statusHandler.Welcome).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := router.PathPrefix(apiPrefix).Subrouter()
	api.Handle("/status", statusHandler).Methods("GET")

	accountHandler := newAccountHandler(ledger, rd)
	api.HandleFunc("/accounts", accountHandler.List).Methods("GET")
	api.HandleFunc("/accounts", auth(accountHandler.Post)).Methods("POST")
	api.HandleFunc("/accounts/{id}", accountHandler.Get).Methods("GET")
	api.HandleFunc("/accounts/{id}/transactions", accountHandler.Transactions).Methods("GET")

	transactionHandler := newTransactionHandler(ledger, rd)
	api.HandleFunc("/transactions", auth(transactionHandler.Post)).Methods("POST")
	api.HandleFunc("/transactions/{id}", transactionHandler.Get).Methods("GET")

	return router
}

// NewHandler builds the HTTP handler of the ledger API: recovery, access log and rate limiting in
// front of the router.
func NewHandler(cfg *config.Config, ledger Ledger) http.Handler {
	rd := render.New(render.Options{
		IndentJSON: true,
	})

	n := negroni.New(negroni.NewRecovery())
	n.UseFunc(accessLog)
	if cfg.RateLimit > 0 {
		n.Use(newRateLimiter(cfg.RateLimit, cfg.RateBurst, rd))
	}
	n.UseHandler(createRouter(cfg, ledger, rd))
	return n
}
