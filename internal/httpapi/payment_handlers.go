package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"estatehub.app/internal/estate"
)

func (a *API) listPayments(w http.ResponseWriter, r *http.Request) {
	q := queryOf(r)
	f := estate.PaymentFilter{
		Status: estate.PaymentStatus(strings.ToLower(q.str("status"))),
		From:   q.date("start_date"),
		To:     q.date("end_date"),
		Page:   q.page(),
	}
	if q.err != nil {
		writeError(w, r, q.err)
		return
	}
	list, err := a.svc.Estate.ListPayments(r.Context(), actorOf(r), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"payments": list.Items, "pagination": list.Pagination})
}

func (a *API) getPayment(w http.ResponseWriter, r *http.Request) {
	p, err := a.svc.Estate.GetPayment(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"payment": p})
}

func (a *API) paymentReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := a.svc.Estate.Receipt(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"receipt": receipt})
}

func (a *API) recordPayment(w http.ResponseWriter, r *http.Request) {
	var in estate.PaymentInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := a.svc.Estate.RecordPayment(r.Context(), actorOf(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.record(r, "payment.create", "payment", p.ID, map[string]any{
		"amount":         p.Amount,
		"receipt_number": p.ReceiptNumber,
	})
	respond(w, http.StatusCreated, map[string]any{
		"payment_id":     p.ID,
		"receipt_number": p.ReceiptNumber,
		"message":        "Payment recorded successfully",
	})
}
