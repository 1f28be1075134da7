package api

import (
	"bytes"
	"net/http"
	"strconv"

	"agencyops/models"
)

type createExpenseRequest struct {
	DepartmentID int    `json:"department_id"`
	Period       string `json:"period"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	Amount       string `json:"amount"`
}

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request) {
	period, err := queryPeriod(r, "period")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	departmentID, err := queryInt64(r, "department_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	expenses, err := s.services.Expenses.ListExpenses(r.Context(), models.ExpenseFilter{
		Period:       period,
		DepartmentID: int(departmentID),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := readJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	period, err := models.ParsePeriod(req.Period)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	amount, err := models.ParseCents(req.Amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	expense, err := s.services.Expenses.CreateExpense(r.Context(), &models.Expense{
		DepartmentID: req.DepartmentID,
		Period:       period,
		Category:     req.Category,
		Description:  req.Description,
		Amount:       amount,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, expense)
}

func (s *Server) listLedger(w http.ResponseWriter, r *http.Request) {
	period, err := queryPeriod(r, "period")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	departmentID, err := queryInt64(r, "department_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	limit, err := queryInt64(r, "limit")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	entries, err := s.services.Ledger.ListEntries(r.Context(), models.LedgerFilter{
		DepartmentID: int(departmentID),
		Period:       period,
		EntryType:    models.LedgerEntryType(r.URL.Query().Get("entry_type")),
		Limit:        int(limit),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) ledgerBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.services.Ledger.Balances(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

func (s *Server) pnlReport(w http.ResponseWriter, r *http.Request) {
	period, err := requirePeriod(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	report, err := s.services.PnL.Report(r.Context(), period)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) pnlChart(w http.ResponseWriter, r *http.Request) {
	period, err := requirePeriod(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	report, err := s.services.PnL.Report(r.Context(), period)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := RenderPnLChart(&buf, report); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
