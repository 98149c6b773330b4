package http

import (
	"net/http"

	"mfn/internal/core"
)

func (s *Server) handleCreateWallet(w http.ResponseWriter, r *http.Request) {
	var req createWalletRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	initial, err := toMoney(req.InitialBalance)
	if err != nil {
		writeError(w, r, err)
		return
	}

	name := sanitizeInput(req.Name)
	if err := s.ledger.Wallets.CreateWallet(r.Context(), name, initial); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, walletResponse{Name: name, Balance: initial.String()})
}

func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := s.ledger.Wallets.ListWallets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]walletResponse, len(wallets))
	for i, wallet := range wallets {
		resp[i] = walletResponse{Name: wallet.Name, Balance: wallet.Balance.String()}
	}
	writeJSON(w, http.StatusOK, map[string][]walletResponse{"wallets": resp})
}

func (s *Server) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	balance, err := s.ledger.Wallets.GetBalance(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, walletResponse{Name: name, Balance: balance.String()})
}

func (s *Server) handleDeleteWallet(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Wallets.DeleteWallet(r.Context(), r.PathValue("name")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleIncome(w http.ResponseWriter, r *http.Request) {
	s.recordTransaction(w, r, core.Income)
}

func (s *Server) handleExpense(w http.ResponseWriter, r *http.Request) {
	s.recordTransaction(w, r, core.Expense)
}

func (s *Server) recordTransaction(w http.ResponseWriter, r *http.Request, kind core.TransactionType) {
	var req transactionRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := toMoney(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	record := s.ledger.Wallets.Income
	if kind == core.Expense {
		record = s.ledger.Wallets.Expense
	}
	tx, err := record(r.Context(), r.PathValue("name"), sanitizeInput(req.Category), date, sanitizeInput(req.Description), amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTransactionResponse(tx))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.Wallets.ListTransactions(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = newTransactionResponse(tx)
	}
	writeJSON(w, http.StatusOK, map[string][]transactionResponse{"transactions": resp})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := toMoney(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	transfer, err := s.ledger.Wallets.Transfer(r.Context(), sanitizeInput(req.From), sanitizeInput(req.To), date, amount, sanitizeInput(req.Description))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, transferResponse{
		ID:          transfer.ID,
		From:        transfer.Sender,
		To:          transfer.Receiver,
		Date:        transfer.Date.String(),
		Amount:      transfer.Amount.String(),
		Description: transfer.Description,
	})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.ledger.Categories.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]categoryResponse, len(categories))
	for i, c := range categories {
		resp[i] = categoryResponse{ID: c.ID, Name: c.Name}
	}
	writeJSON(w, http.StatusOK, map[string][]categoryResponse{"categories": resp})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	category, err := s.ledger.Categories.Create(r.Context(), sanitizeInput(req.Name))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryResponse{ID: category.ID, Name: category.Name})
}
