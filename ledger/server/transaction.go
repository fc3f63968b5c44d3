package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/pingcap-incubator/tinyledger/ledger/model"
	"github.com/pingcap/log"
	"github.com/shopspring/decimal"
	"github.com/unrolled/render"
	"go.uber.org/zap"
)

const errUnexpectedTransfer = "unexpected error while processing the transaction"

type transactionHandler struct {
	ledger Ledger
	rd     *render.Render
}

func newTransactionHandler(ledger Ledger, rd *render.Render) *transactionHandler {
	return &transactionHandler{
		ledger: ledger,
		rd:     rd,
	}
}

type createTransactionRequest struct {
	SourceAccountID      uuid.UUID       `json:"source_account_id"`
	DestinationAccountID uuid.UUID       `json:"destination_account_id"`
	Amount               decimal.Decimal `json:"amount"`
}

func (h *transactionHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(h.rd, w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SourceAccountID == uuid.Nil || req.DestinationAccountID == uuid.Nil {
		writeError(h.rd, w, http.StatusBadRequest, "source_account_id and destination_account_id are required")
		return
	}
	txn, err := h.ledger.CreateTransaction(req.SourceAccountID, req.DestinationAccountID, req.Amount)
	if err != nil {
		if model.IsBusinessError(err) {
			writeError(h.rd, w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error("create transaction", zap.Error(err))
		writeError(h.rd, w, http.StatusInternalServerError, errUnexpectedTransfer)
		return
	}
	h.rd.JSON(w, http.StatusCreated, txn)
}

func (h *transactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(h.rd, w, http.StatusBadRequest, err.Error())
		return
	}
	txn, err := h.ledger.GetTransaction(id)
	if err != nil {
		if model.IsNotFound(err) {
			writeError(h.rd, w, http.StatusNotFound, err.Error())
			return
		}
		log.Error("get transaction", zap.Error(err))
		writeError(h.rd, w, http.StatusInternalServerError, err.Error())
		return
	}
	h.rd.JSON(w, http.StatusOK, txn)
}
