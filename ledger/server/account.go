package server

import (
	"net/http"

	"github.com/pingcap-incubator/tinyledger/ledger/model"
	"github.com/pingcap/log"
	"github.com/shopspring/decimal"
	"github.com/unrolled/render"
	"go.uber.org/zap"
)

type accountHandler struct {
	ledger Ledger
	rd     *render.Render
}

func newAccountHandler(ledger Ledger, rd *render.Render) *accountHandler {
	return &accountHandler{
		ledger: ledger,
		rd:     rd,
	}
}

func (h *accountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.ledger.ListAccounts()
	if err != nil {
		log.Error("list accounts", zap.Error(err))
		writeError(h.rd, w, http.StatusInternalServerError, err.Error())
		return
	}
	h.rd.JSON(w, http.StatusOK, accounts)
}

func (h *accountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(h.rd, w, http.StatusBadRequest, err.Error())
		return
	}
	account, err := h.ledger.GetAccount(id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	h.rd.JSON(w, http.StatusOK, account)
}

func (h *accountHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(h.rd, w, http.StatusBadRequest, err.Error())
		return
	}
	txns, err := h.ledger.GetTransactionsForAccount(id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	if txns == nil {
		txns = []*model.Transaction{}
	}
	h.rd.JSON(w, http.StatusOK, txns)
}

type createAccountRequest struct {
	OwnerName string          `json:"owner_name"`
	Balance   decimal.Decimal `json:"balance"`
}

func (h *accountHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(h.rd, w, http.StatusBadRequest, err.Error())
		return
	}
	account, err := h.ledger.CreateAccount(req.OwnerName, req.Balance)
	if err != nil {
		if model.IsBusinessError(err) {
			writeError(h.rd, w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error("create account", zap.Error(err))
		writeError(h.rd, w, http.StatusInternalServerError, err.Error())
		return
	}
	h.rd.JSON(w, http.StatusCreated, account)
}

func (h *accountHandler) writeLookupError(w http.ResponseWriter, err error) {
	if model.IsNotFound(err) {
		writeError(h.rd, w, http.StatusNotFound, err.Error())
		return
	}
	log.Error("read ledger", zap.Error(err))
	writeError(h.rd, w, http.StatusInternalServerError, err.Error())
}
