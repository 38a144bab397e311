package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/openmarket/market-server/internal/errors"
	"github.com/openmarket/market-server/internal/middleware"
	"github.com/openmarket/market-server/internal/model"
	"github.com/openmarket/market-server/internal/service"
)

// SellerManager is the part of the seller lifecycle the console drives.
type SellerManager interface {
	Get(ctx context.Context, id string) (*model.Seller, error)
	List(ctx context.Context, status model.SellerStatus, limit, offset int) ([]model.Seller, int, error)
	CountByStatus(ctx context.Context) (model.StatusCounts, error)
	Approve(ctx context.Context, actor *model.AdminPrincipal, id string) (*model.Seller, error)
	Reject(ctx context.Context, actor *model.AdminPrincipal, id string, input service.RejectInput) (*model.Seller, error)
	Suspend(ctx context.Context, actor *model.AdminPrincipal, id string, input service.SuspendInput) (*model.Seller, error)
	Unsuspend(ctx context.Context, actor *model.AdminPrincipal, id string) (*model.Seller, error)
}

type rejectForm struct {
	Reason    string `schema:"reason" json:"reason"`
	SendEmail bool   `schema:"send_email" json:"sendEmail"`
}

type suspendForm struct {
	Title     string `schema:"title" json:"title"`
	Reason    string `schema:"reason" json:"reason"`
	EndsAt    string `schema:"ends_at" json:"endsAt"`
	Permanent bool   `schema:"permanent" json:"permanent"`
}

func (h *AdminHandler) ListSellers(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sellers, total, err := h.sellers.List(r.Context(), q.Status, q.Limit, q.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": sellers,
		"total": total,
	})
}

func (h *AdminHandler) GetSeller(w http.ResponseWriter, r *http.Request) {
	seller, err := h.sellers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seller)
}

func (h *AdminHandler) ApproveSeller(w http.ResponseWriter, r *http.Request) {
	seller, err := h.sellers.Approve(r.Context(), middleware.GetAdminPrincipal(r.Context()), chi.URLParam(r, "id"))
	respond(w, r, seller, sellerNotice("approved", seller), err)
}

func (h *AdminHandler) RejectSeller(w http.ResponseWriter, r *http.Request) {
	var form rejectForm
	if err := decodeInput(r, &form); err != nil {
		respond(w, r, nil, "", err)
		return
	}

	seller, err := h.sellers.Reject(r.Context(), middleware.GetAdminPrincipal(r.Context()), chi.URLParam(r, "id"), service.RejectInput{
		Reason:          form.Reason,
		NotifyApplicant: form.SendEmail,
	})
	respond(w, r, seller, sellerNotice("rejected", seller), err)
}

func (h *AdminHandler) SuspendSeller(w http.ResponseWriter, r *http.Request) {
	var form suspendForm
	if err := decodeInput(r, &form); err != nil {
		respond(w, r, nil, "", err)
		return
	}

	endsAt, err := parseEndsAt(form.EndsAt)
	if err != nil {
		respond(w, r, nil, "", err)
		return
	}

	seller, err := h.sellers.Suspend(r.Context(), middleware.GetAdminPrincipal(r.Context()), chi.URLParam(r, "id"), service.SuspendInput{
		Title:     form.Title,
		Reason:    form.Reason,
		EndsAt:    endsAt,
		Permanent: form.Permanent,
	})
	respond(w, r, seller, sellerNotice("suspended", seller), err)
}

func (h *AdminHandler) UnsuspendSeller(w http.ResponseWriter, r *http.Request) {
	seller, err := h.sellers.Unsuspend(r.Context(), middleware.GetAdminPrincipal(r.Context()), chi.URLParam(r, "id"))
	respond(w, r, seller, sellerNotice("reinstated", seller), err)
}

func sellerNotice(verb string, seller *model.Seller) string {
	if seller == nil {
		return ""
	}
	return fmt.Sprintf("Seller %q %s", seller.StoreName, verb)
}

// SellerApplicant accepts applications from prospective sellers.
type SellerApplicant interface {
	Apply(ctx context.Context, input service.ApplyInput) (*model.Seller, error)
}

// ApplicationHandler serves the public application endpoint.
type ApplicationHandler struct {
	sellers SellerApplicant
}

func NewApplicationHandler(sellers SellerApplicant) *ApplicationHandler {
	return &ApplicationHandler{sellers: sellers}
}

func (h *ApplicationHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Apply)
	return r
}

func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var input service.ApplyInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body").WithCause(err))
		return
	}

	seller, err := h.sellers.Apply(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":        seller.ID,
		"storeName": seller.StoreName,
		"status":    seller.Status,
		"createdAt": seller.CreatedAt,
	})
}
