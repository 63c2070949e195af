package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/milltrade-erp/milltrade-erp/internal/platform/httpx"
	"github.com/milltrade-erp/milltrade-erp/internal/recon"
	"github.com/milltrade-erp/milltrade-erp/internal/shared"
)

// Handler exposes the ledger JSON API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds the Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes registers ledger routes on the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/entries", func(r chi.Router) {
		r.Get("/", h.listEntries)
		r.Post("/", h.createEntry)
		r.Get("/{serialNo}", h.getEntry)
	})
	r.Route("/payments", func(r chi.Router) {
		r.Get("/", h.listPayments)
		r.Post("/", h.createPayment)
		r.Get("/{id}", h.getPayment)
	})
	r.Route("/summaries", func(r chi.Router) {
		r.Get("/", h.listSummaries)
		r.Get("/{groupKey}", h.getSummary)
		r.Get("/{groupKey}/statement", h.getStatement)
		r.Get("/{groupKey}/filtered", h.getFilteredSummary)
	})
}

type listResponse[T any] struct {
	Items      []T               `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) createEntry(w http.ResponseWriter, r *http.Request) {
	var input CreateEntryInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	entry, err := h.service.CreateEntry(r.Context(), input)
	if err != nil {
		h.respondError(w, "create entry", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) getEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.GetEntry(r.Context(), chi.URLParam(r, "serialNo"))
	if err != nil {
		h.respondError(w, "get entry", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	entries, page, err := h.service.ListEntries(r.Context(), listOptions(r))
	if err != nil {
		h.respondError(w, "list entries", err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse[PurchaseEntry]{Items: entries, Pagination: page})
}

func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	var input CreatePaymentInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	payment, err := h.service.CreatePayment(r.Context(), input)
	if err != nil {
		h.respondError(w, "create payment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := h.service.GetPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "get payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, payment)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	payments, page, err := h.service.ListPayments(r.Context(), listOptions(r))
	if err != nil {
		h.respondError(w, "list payments", err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse[Payment]{Items: payments, Pagination: page})
}

func (h *Handler) listSummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.Summaries(r.Context())
	if err != nil {
		h.respondError(w, "list summaries", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summaries)
}

func (h *Handler) getSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GroupSummary(r.Context(), chi.URLParam(r, "groupKey"))
	if err != nil {
		h.respondError(w, "get summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) getStatement(w http.ResponseWriter, r *http.Request) {
	lines, err := h.service.Statement(r.Context(), chi.URLParam(r, "groupKey"))
	if err != nil {
		h.respondError(w, "get statement", err)
		return
	}
	httpx.JSON(w, http.StatusOK, lines)
}

func (h *Handler) getFilteredSummary(w http.ResponseWriter, r *http.Request) {
	opts, err := filterOptions(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", err.Error())
		return
	}
	summary, err := h.service.FilteredGroup(r.Context(), chi.URLParam(r, "groupKey"), opts)
	if err != nil {
		h.respondError(w, "get filtered summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	known := errors.Is(err, httpx.ErrNotFound) ||
		errors.Is(err, httpx.ErrDuplicate) ||
		errors.Is(err, httpx.ErrValidation)
	if !known && h.logger != nil {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func listOptions(r *http.Request) ListOptions {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	return ListOptions{Page: page, PerPage: perPage}
}

func filterOptions(r *http.Request) (recon.FilterOptions, error) {
	q := r.URL.Query()
	var opts recon.FilterOptions
	if raw := q.Get("start"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return recon.FilterOptions{}, err
		}
		opts.Start = t
	}
	if raw := q.Get("end"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return recon.FilterOptions{}, err
		}
		// Inclusive end of day.
		opts.End = t.Add(24*time.Hour - time.Nanosecond)
	}
	opts.Variety = q.Get("variety")
	if raw := q.Get("serials"); raw != "" {
		for _, sn := range strings.Split(raw, ",") {
			if sn = strings.TrimSpace(sn); sn != "" {
				opts.SerialNos = append(opts.SerialNos, sn)
			}
		}
	}
	return opts, nil
}
