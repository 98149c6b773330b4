package http

import (
	"fmt"
	"net/http"
	"strings"

	"mfn/internal/core"
	"mfn/internal/services"
)

func (s *Server) handleRegisterCard(w http.ResponseWriter, r *http.Request) {
	var req registerCardRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := toMoney(req.CreditLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	number := sanitizeInput(req.Number)
	if err := s.ledger.Cards.RegisterCard(r.Context(), number, req.BillingDay, sanitizeInput(req.HolderName), limit); err != nil {
		writeError(w, r, err)
		return
	}

	card, err := s.ledger.Cards.GetCard(r.Context(), number)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCardResponse(card))
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	numbers, err := s.ledger.Cards.ListCards(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"cards": numbers})
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.ledger.Cards.GetCard(r.Context(), r.PathValue("number"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCardResponse(card))
}

func (s *Server) handleAddDebt(w http.ResponseWriter, r *http.Request) {
	var req addDebtRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	debtReq, err := s.debtRequest(r, r.PathValue("number"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	debt, err := s.ledger.Debts.AddDebt(r.Context(), debtReq)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newDebtResponse(debt))
}

// debtRequest converts the body. Input the ledger cannot receive (a bad
// amount or date) is reported in the ledger's own order: unknown card
// first, then total, installments and date.
func (s *Server) debtRequest(r *http.Request, cardNumber string, req addDebtRequest) (services.DebtRequest, error) {
	total, totalErr := toMoney(req.Total)
	date, dateErr := core.ParseDate(req.PurchaseDate)
	if totalErr != nil || dateErr != nil {
		exists, err := s.ledger.Cards.CardExists(r.Context(), cardNumber)
		if err != nil {
			return services.DebtRequest{}, err
		}
		switch {
		case !exists:
			return services.DebtRequest{}, fmt.Errorf("%w: %s", core.ErrCardNotFound, cardNumber)
		case totalErr != nil:
			return services.DebtRequest{}, totalErr
		case req.Installments < 1:
			return services.DebtRequest{}, fmt.Errorf("%w: %d", core.ErrInvalidInstallments, req.Installments)
		default:
			return services.DebtRequest{}, dateErr
		}
	}

	return services.DebtRequest{
		CardNumber:   cardNumber,
		Category:     sanitizeInput(req.Category),
		PurchaseDate: date,
		Total:        total,
		Description:  sanitizeInput(req.Description),
		Installments: req.Installments,
	}, nil
}

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := s.ledger.Debts.ListDebts(r.Context(), r.PathValue("number"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]debtResponse, len(debts))
	for i, d := range debts {
		resp[i] = newDebtResponse(d)
	}
	writeJSON(w, http.StatusOK, map[string][]debtResponse{"debts": resp})
}

func (s *Server) handleLastDebt(w http.ResponseWriter, r *http.Request) {
	debt, err := s.ledger.Debts.GetLastExpense(r.Context(), r.PathValue("number"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDebtResponse(debt))
}

func (s *Server) handleListInstallments(w http.ResponseWriter, r *http.Request) {
	debtID, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	installments, err := s.ledger.Debts.ListInstallments(r.Context(), debtID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]installmentResponse, len(installments))
	for i, inst := range installments {
		resp[i] = newInstallmentResponse(inst)
	}
	writeJSON(w, http.StatusOK, map[string][]installmentResponse{"installments": resp})
}

func (s *Server) handlePayInstallment(w http.ResponseWriter, r *http.Request) {
	debtID, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	seq, err := pathInt(r, "seq")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req payInstallmentRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	wallet := strings.TrimSpace(req.Wallet)
	if err := s.ledger.Debts.PayInstallment(r.Context(), debtID, int(seq), wallet, date); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
