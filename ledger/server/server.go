package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/pingcap-incubator/tinyledger/ledger/config"
	"github.com/pingcap-incubator/tinyledger/ledger/model"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ledger is what the HTTP API needs from the transfer engine.
type Ledger interface {
	CreateTransaction(source, destination uuid.UUID, amount decimal.Decimal) (*model.Transaction, error)
	CreateAccount(owner string, balance decimal.Decimal) (*model.Account, error)
	GetAccount(id uuid.UUID) (*model.Account, error)
	ListAccounts() ([]*model.Account, error)
	GetTransactionsForAccount(id uuid.UUID) ([]*model.Transaction, error)
	GetTransaction(id uuid.UUID) (*model.Transaction, error)
	InFlight() int64
	CountRecords() (accounts int, transactions int, err error)
}

// Server serves the ledger HTTP API.
type Server struct {
	cfg     *config.Config
	httpSrv *http.Server
}

func NewServer(cfg *config.Config, ledger Ledger) *Server {
	return &Server{
		cfg: cfg,
		httpSrv: &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: NewHandler(cfg, ledger),
		},
	}
}

// Run serves until Close is called.
func (s *Server) Run() error {
	log.Info("ledger api listening", zap.String("addr", s.cfg.HTTPAddr))
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return errors.Trace(err)
}

// Close stops accepting requests and waits for the running ones.
func (s *Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout.Duration)
	defer cancel()
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		log.Warn("shutdown http server", zap.Error(err))
	}
	log.Info("ledger api closed")
}
