/*
handlers.go - HTTP API handlers for the daily ledger system

PURPOSE:
  Exposes the reconciliation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Shops:
    GET    /api/shops                          List outlets
    POST   /api/shops                          Register outlet
    GET    /api/shops/{shopID}/products        List catalog
    POST   /api/shops/{shopID}/products        Add catalog item
    GET    /api/shops/{shopID}/debtors         List credit customers

  Shop-days:
    GET    /api/shops/{shopID}/days/{date}     Open (and roll forward) a day
    PUT    /api/shops/{shopID}/days/{date}     Save edits, recompute
    POST   .../days/{date}/lock                Staff: lock and submit
    POST   .../days/{date}/request-unlock      Staff: ask for unlock
    POST   .../days/{date}/approve             Admin: approve
    POST   .../days/{date}/reject              Admin: reject
    POST   .../days/{date}/unlock              Admin: unlock
    POST   .../days/{date}/archive-pdf         Index a generated report

  Workflow:
    GET    /api/shops/{shopID}/requests/pending  Pending approval queue

SESSION:
  Caller identity rides on two headers: X-Actor (display name) and
  X-Role ("admin" or "staff", default staff). Combined with the URL's
  shop and date they form the explicit Session every domain call takes.
  There is no ambient current-shop state anywhere.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 403: Admin-only action attempted by staff
  - 404: Record not found
  - 409: Lock/approval state conflicts
  - 500: Internal errors, partial rollover failures

SECURITY NOTE:
  The role header is trusted as-is. Put a real auth middleware in front
  of this router before exposing it beyond a trusted network.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/warp/daybook/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store ledger.ShopStore
	Days  *ledger.DayService
}

// NewHandler creates a new handler with the given store.
func NewHandler(store ledger.ShopStore) *Handler {
	return &Handler{
		Store: store,
		Days:  ledger.NewDayService(store),
	}
}

// session builds the explicit caller session from the URL and headers.
// An unparseable date is reported as ok=false with the response already
// written.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (ledger.Session, bool) {
	shop := ledger.ShopID(chi.URLParam(r, "shopID"))

	var date ledger.DayDate
	if raw := chi.URLParam(r, "date"); raw != "" {
		parsed, err := ledger.ParseDayDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date, want YYYY-MM-DD", err)
			return ledger.Session{}, false
		}
		date = parsed
	}

	actor := r.Header.Get("X-Actor")
	if actor == "" {
		actor = "anonymous"
	}
	role := ledger.RoleStaff
	if strings.EqualFold(r.Header.Get("X-Role"), string(ledger.RoleAdmin)) {
		role = ledger.RoleAdmin
	}

	return ledger.Session{Shop: shop, Date: date, Actor: actor, Role: role}, true
}

// =============================================================================
// SHOP & PRODUCT HANDLERS
// =============================================================================

// ListShops returns all outlets.
func (h *Handler) ListShops(w http.ResponseWriter, r *http.Request) {
	shops, err := h.Store.Shops(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list shops", err)
		return
	}
	dtos := make([]ShopDTO, len(shops))
	for i, s := range shops {
		dtos[i] = toShopDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateShop registers an outlet.
func (h *Handler) CreateShop(w http.ResponseWriter, r *http.Request) {
	var req CreateShopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Shop name is required", nil)
		return
	}

	shop := ledger.Shop{ID: ledger.ShopID(req.ID), Name: req.Name}
	if err := h.Store.SaveShop(r.Context(), shop); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save shop", err)
		return
	}
	writeJSON(w, http.StatusCreated, toShopDTO(shop))
}

// ListProducts returns the shop's catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	shop := ledger.ShopID(chi.URLParam(r, "shopID"))
	products, err := h.Store.Products(r.Context(), shop)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list products", err)
		return
	}
	dtos := make([]ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = toProductDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateProduct adds a catalog item.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	shop := ledger.ShopID(chi.URLParam(r, "shopID"))

	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.BrandName == "" {
		writeError(w, http.StatusBadRequest, "Brand name is required", nil)
		return
	}
	if req.MRP.Sign() < 0 {
		writeError(w, http.StatusBadRequest, "MRP must not be negative", nil)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	p := ledger.Product{
		ID:        ledger.ProductID(req.ID),
		ShopID:    shop,
		BrandName: req.BrandName,
		SizeML:    req.SizeML,
		MRP:       req.MRP,
		IsActive:  active,
	}
	if err := h.Store.SaveProduct(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save product", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(p))
}

// ListDebtors returns the shop's credit customers.
func (h *Handler) ListDebtors(w http.ResponseWriter, r *http.Request) {
	shop := ledger.ShopID(chi.URLParam(r, "shopID"))
	debtors, err := h.Store.Debtors(r.Context(), shop)
	if err != nil {
		if errors.Is(err, ledger.ErrCreditLedgerNotConfigured) {
			writeJSON(w, http.StatusOK, []DebtorDTO{})
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to list debtors", err)
		return
	}
	dtos := make([]DebtorDTO, len(debtors))
	for i, d := range debtors {
		dtos[i] = DebtorDTO{ID: d.ID, PersonName: d.PersonName}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SHOP-DAY HANDLERS
// =============================================================================

// OpenDay prepares and returns a shop-day (seeding and carry-forward
// included).
func (h *Handler) OpenDay(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	view, err := h.Days.OpenDay(r.Context(), s)
	if err != nil {
		writeDomainError(w, "Failed to open day", err)
		return
	}
	writeJSON(w, http.StatusOK, toDayViewDTO(view))
}

// SaveDay applies submitted edits and returns the recomputed day.
func (h *Handler) SaveDay(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SaveDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	input := ledger.DayInput{
		Coins:       req.Coins,
		BankDeposit: req.BankDeposit,
		CashToHouse: req.CashToHouse,
	}
	for _, l := range req.Lines {
		input.Lines = append(input.Lines, ledger.StockLineInput{
			ProductID:    ledger.ProductID(l.ProductID),
			Purchases:    l.Purchases,
			Transfer:     l.Transfer,
			ClosingStock: l.ClosingStock,
		})
	}
	for _, n := range req.Notes {
		input.Notes = append(input.Notes, ledger.NoteCount{Face: n.Face, Count: n.Count})
	}
	for _, d := range req.Digital {
		input.Digital = append(input.Digital, ledger.DigitalPayment{Channel: d.Channel, Amount: d.Amount})
	}
	for _, t := range req.Extras {
		typ := ledger.TransactionType(t.Type)
		if typ != ledger.TxIncome && typ != ledger.TxExpense {
			writeError(w, http.StatusBadRequest, "Extra transaction type must be income or expense", nil)
			return
		}
		input.Extras = append(input.Extras, ledger.ExtraTransactionInput{
			Type:        typ,
			Description: t.Description,
			Amount:      t.Amount,
		})
	}
	for _, c := range req.Credits {
		input.Credits = append(input.Credits, ledger.CreditInput{
			PersonName: c.PersonName,
			Amount:     c.Amount,
		})
	}

	view, err := h.Days.SaveDay(r.Context(), s, input)
	if err != nil {
		writeDomainError(w, "Failed to save day", err)
		return
	}
	writeJSON(w, http.StatusOK, toDayViewDTO(view))
}

// ArchivePDF indexes a generated report for the shop-day.
func (h *Handler) ArchivePDF(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req ArchivePDFRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.FileName == "" {
		writeError(w, http.StatusBadRequest, "File name is required", nil)
		return
	}
	if err := h.Days.ArchivePDF(r.Context(), s, req.FileName); err != nil {
		writeDomainError(w, "Failed to archive report", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CarryForward runs the backward rollover for a shop-day explicitly.
// Opening the day already does this; the endpoint exists for manual
// repair after a partial failure.
func (h *Handler) CarryForward(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	applied, err := h.Days.Rollover.CarryForward(r.Context(), s.Shop, s.Date)
	if err != nil {
		writeDomainError(w, "Failed to carry forward", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"applied": applied})
}

// =============================================================================
// WORKFLOW HANDLERS
// =============================================================================

// LockDay locks a shop-day and files the approval request.
func (h *Handler) LockDay(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req, err := h.Days.Workflow.LockAndSubmit(r.Context(), s)
	if err != nil {
		writeDomainError(w, "Failed to lock day", err)
		return
	}
	writeJSON(w, http.StatusOK, toApprovalRequestDTO(*req))
}

// RequestUnlock files an unlock request for a locked day.
func (h *Handler) RequestUnlock(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req, err := h.Days.Workflow.RequestUnlock(r.Context(), s)
	if err != nil {
		writeDomainError(w, "Failed to request unlock", err)
		return
	}
	writeJSON(w, http.StatusOK, toApprovalRequestDTO(*req))
}

// ApproveDay finalizes a locked shop-day.
func (h *Handler) ApproveDay(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := h.Days.Workflow.Approve(r.Context(), s); err != nil {
		writeDomainError(w, "Failed to approve day", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RejectDay rejects a shop-day's pending lock request.
func (h *Handler) RejectDay(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := h.Days.Workflow.Reject(r.Context(), s); err != nil {
		writeDomainError(w, "Failed to reject day", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnlockDay returns a locked shop-day to the editable state.
func (h *Handler) UnlockDay(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := h.Days.Workflow.Unlock(r.Context(), s); err != nil {
		writeDomainError(w, "Failed to unlock day", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPendingRequests returns the shop's pending approval queue.
func (h *Handler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	shop := ledger.ShopID(chi.URLParam(r, "shopID"))
	pending, err := h.Store.PendingApprovalRequests(r.Context(), shop)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list pending requests", err)
		return
	}
	dtos := make([]ApprovalRequestDTO, len(pending))
	for i, req := range pending {
		dtos[i] = toApprovalRequestDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain sentinels onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	code := ""
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		status = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, ledger.ErrNotAuthorized):
		status = http.StatusForbidden
		code = "not_authorized"
	case errors.Is(err, ledger.ErrDayLocked),
		errors.Is(err, ledger.ErrDayNotLocked),
		errors.Is(err, ledger.ErrDayAlreadyApproved),
		errors.Is(err, ledger.ErrRequestNotPending):
		status = http.StatusConflict
		code = "state_conflict"
	case errors.Is(err, ledger.ErrRolloverIncomplete):
		code = "rollover_incomplete"
	}
	resp := ErrorResponse{Error: message, Code: code, Details: err.Error()}
	writeJSON(w, status, resp)
}
