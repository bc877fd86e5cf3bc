package service

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/counter-devnet/pkg/app/errors"
	apphttp "github.com/chainsafe/counter-devnet/pkg/app/http"
)

// DeployRequest is the body of POST /deployments
type DeployRequest struct {
	Tags []string `json:"tags"`
}

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service Service
	logger  *zap.Logger
}

// RegisterRoutes registers HTTP endpoints for the deploy service on the given chi router
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Post("/deployments", apphttp.HandleError(h.deploy))
	r.Get("/deployments", apphttp.HandleError(h.listDeployments))
	r.Get("/deployments/{network}/{name}", apphttp.HandleError(h.getDeployment))
	r.Get("/accounts", apphttp.HandleError(h.accounts))
}

func (h *HTTP) deploy(w http.ResponseWriter, r *http.Request) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}

	var req DeployRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return apperrors.BadRequestError(err, "invalid JSON")
		}
	}

	resp, err := h.service.Deploy(r.Context(), req.Tags)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) listDeployments(w http.ResponseWriter, r *http.Request) error {
	deployments, err := h.service.ListDeployments(r.Context(), r.URL.Query().Get("network"))
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, deployments)
	return nil
}

func (h *HTTP) getDeployment(w http.ResponseWriter, r *http.Request) error {
	d, err := h.service.GetDeployment(r.Context(), chi.URLParam(r, "network"), chi.URLParam(r, "name"))
	if err != nil {
		if apperrors.IsInternalError(err) {
			h.logger.Error("Failed to get deployment", zap.Error(err))
		}
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, d)
	return nil
}

func (h *HTTP) accounts(w http.ResponseWriter, r *http.Request) error {
	accounts, err := h.service.Accounts(r.Context())
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, accounts)
	return nil
}
