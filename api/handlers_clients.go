package api

import (
	"net/http"

	"agencyops/models"
)

type createClientRequest struct {
	Name         string            `json:"name"`
	DepartmentID int               `json:"department_id"`
	FeeConfig    *models.FeeConfig `json:"fee_config,omitempty"`
}

type feeQuoteRequest struct {
	Investment    string `json:"investment"`
	PlatformCount int    `json:"platform_count"`
}

func (s *Server) listDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := s.services.Clients.ListDepartments(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, departments)
}

func (s *Server) listClients(w http.ResponseWriter, r *http.Request) {
	activeOnly, err := queryBool(r, "active", false)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	clients, err := s.services.Clients.ListClients(r.Context(), activeOnly)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (s *Server) createClient(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if err := readJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	client, err := s.services.Clients.CreateClient(r.Context(), req.Name, req.DepartmentID, req.FeeConfig)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

func (s *Server) getClient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	client, err := s.services.Clients.GetClient(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (s *Server) updateClient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var update models.ClientUpdate
	if err := readJSON(w, r, &update); err != nil {
		writeServiceError(w, r, err)
		return
	}
	client, err := s.services.Clients.UpdateClient(r.Context(), id, update)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (s *Server) updateFeeConfig(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var cfg models.FeeConfig
	if err := readJSON(w, r, &cfg); err != nil {
		writeServiceError(w, r, err)
		return
	}
	client, err := s.services.Clients.UpdateFeeConfig(r.Context(), id, cfg)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (s *Server) quoteFee(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req feeQuoteRequest
	if err := readJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	investment, err := models.ParseCents(req.Investment)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	breakdown, err := s.services.Clients.QuoteFee(r.Context(), id, investment, req.PlatformCount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}
