package server

import (
	"net/http"

	"github.com/pingcap/log"
	"github.com/unrolled/render"
	"go.uber.org/zap"
)

type status struct {
	AppName  string `json:"app_name"`
	Version  string `json:"version"`
	GitHash  string `json:"git_hash"`
	BuildTS  string `json:"build_ts"`
	Storage  string `json:"storage"`
	InFlight int64  `json:"in_flight"`

	Accounts     int `json:"accounts"`
	Transactions int `json:"transactions"`
}

type statusHandler struct {
	ledger  Ledger
	appName string
	storage string
	rd      *render.Render
}

func newStatusHandler(ledger Ledger, appName, storage string, rd *render.Render) *statusHandler {
	return &statusHandler{
		ledger:  ledger,
		appName: appName,
		storage: storage,
		rd:      rd,
	}
}

func (h *statusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	accounts, transactions, err := h.ledger.CountRecords()
	if err != nil {
		log.Error("count ledger records", zap.Error(err))
		writeError(h.rd, w, http.StatusInternalServerError, err.Error())
		return
	}
	h.rd.JSON(w, http.StatusOK, &status{
		AppName:  h.appName,
		Version:  LedgerReleaseVersion,
		GitHash:  LedgerGitHash,
		BuildTS:  LedgerBuildTS,
		Storage:  h.storage,
		InFlight: h.ledger.InFlight(),

		Accounts:     accounts,
		Transactions: transactions,
	})
}

func (h *statusHandler) Welcome(w http.ResponseWriter, r *http.Request) {
	h.rd.JSON(w, http.StatusOK, map[string]string{"message": "Welcome to " + h.appName})
}
