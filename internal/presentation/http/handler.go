package httppresentation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	appcart "github.com/Zhima-Mochi/candyshop/internal/application/cart"
	appinventory "github.com/Zhima-Mochi/candyshop/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/candyshop/internal/application/order"
	domcart "github.com/Zhima-Mochi/candyshop/internal/domain/cart"
	"github.com/Zhima-Mochi/candyshop/internal/domain/catalog"
	"github.com/Zhima-Mochi/candyshop/internal/domain/customer"
	domorder "github.com/Zhima-Mochi/candyshop/internal/domain/order"
	dompayment "github.com/Zhima-Mochi/candyshop/internal/domain/payment"
	infrapayment "github.com/Zhima-Mochi/candyshop/internal/infrastructure/payment"
	"github.com/Zhima-Mochi/candyshop/internal/observability"
	"github.com/Zhima-Mochi/candyshop/internal/observability/logctx"
)

const componentHTTPHandler = "http_server"

// Handler exposes the shop over HTTP for a single demo shopper. Formatting
// is presentation-only; all invariants live in the domain.
type Handler struct {
	cat         *catalog.Catalog
	shopper     *customer.Customer
	checkout    *appcart.CheckoutUseCase
	confirm     *apporder.ConfirmPaymentUseCase
	fulfillment *apporder.FulfillmentService
	stock       *appinventory.StockService
	log         observability.Logger
	tel         observability.Observability
}

func NewHandler(
	cat *catalog.Catalog,
	shopper *customer.Customer,
	checkout *appcart.CheckoutUseCase,
	confirm *apporder.ConfirmPaymentUseCase,
	fulfillment *apporder.FulfillmentService,
	stock *appinventory.StockService,
	tel observability.Observability,
) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Handler{
		cat:         cat,
		shopper:     shopper,
		checkout:    checkout,
		confirm:     confirm,
		fulfillment: fulfillment,
		stock:       stock,
		log:         tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:         tel,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	h.muxHandle(mux, http.MethodPost, "/catalog/items", h.handleAddCatalogItem)
	h.muxHandle(mux, http.MethodGet, "/catalog/search", h.handleSearch)
	h.muxHandle(mux, http.MethodPost, "/catalog/restock", h.handleRestock)
	h.muxHandle(mux, http.MethodPost, "/catalog/reviews", h.handleAddReview)
	h.muxHandle(mux, http.MethodGet, "/catalog/report", h.handleInventoryReport)
	h.muxHandle(mux, http.MethodPost, "/cart/items", h.handleAddToCart)
	h.muxHandle(mux, http.MethodPost, "/cart/remove", h.handleRemoveFromCart)
	h.muxHandle(mux, http.MethodGet, "/cart", h.handleViewCart)
	h.muxHandle(mux, http.MethodPost, "/checkout", h.handleCheckout)
	h.muxHandle(mux, http.MethodPost, "/orders/pay", h.handleConfirmPayment)
	h.muxHandle(mux, http.MethodPost, "/orders/ship", h.handleShip)
	h.muxHandle(mux, http.MethodPost, "/orders/refund", h.handleRefund)
	h.muxHandle(mux, http.MethodGet, "/order", h.handleGetOrder)
	h.muxHandle(mux, http.MethodGet, "/orders/report", h.handleSalesReport)
	h.muxHandle(mux, http.MethodGet, "/health", h.handleHealth)

	return mux
}

func (h *Handler) muxHandle(mux *http.ServeMux, method, route string, handler http.HandlerFunc) {
	mux.HandleFunc(route, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		// Stable route template for low-cardinality labels
		r = r.WithContext(contextWithRoute(r.Context(), route))

		// Trace → request logger → metrics → access log → handler
		wrapped := TraceMiddleware(
			ObservabilityMiddleware(h.log)(
				MetricsMiddleware(h.tel.Metrics())(
					h.withAccessLog(handler),
				),
			),
		)
		wrapped.ServeHTTP(w, r)
	})
}

// withAccessLog writes a single access log after the handler completes,
// using the request-scoped logger injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

type addItemRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
	Flavor   string `json:"flavor"`
}

type itemResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	Flavor    string `json:"flavor"`
	Available bool   `json:"available"`
}

func toItemResponse(item *catalog.Item) itemResponse {
	return itemResponse{
		ID:        item.ID,
		Name:      item.Name,
		Price:     item.Price.StringFixed(2),
		Quantity:  item.Quantity,
		Flavor:    item.Flavor,
		Available: item.IsAvailable(),
	}
}

func (h *Handler) handleAddCatalogItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, catalog.ErrInvalidPrice)
		return
	}

	item, err := catalog.NewItem(req.ID, req.Name, price, req.Quantity, req.Flavor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.cat.Add(item); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toItemResponse(item))
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	matches := h.cat.Search(r.URL.Query().Get("q"))
	out := make([]itemResponse, 0, len(matches))
	for _, item := range matches {
		out = append(out, toItemResponse(item))
	}
	writeJSON(w, http.StatusOK, out)
}

type restockRequest struct {
	ItemID string `json:"item_id"`
	Amount int    `json:"amount"`
}

func (h *Handler) handleRestock(w http.ResponseWriter, r *http.Request) {
	var req restockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	quantity, err := h.stock.Restock(r.Context(), req.ItemID, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"item_id":  req.ItemID,
		"quantity": quantity,
	})
}

type addReviewRequest struct {
	ItemID string `json:"item_id"`
	Text   string `json:"text"`
}

func (h *Handler) handleAddReview(w http.ResponseWriter, r *http.Request) {
	var req addReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	item, err := h.cat.Get(req.ItemID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	item.AddReview(req.Text)

	writeJSON(w, http.StatusOK, map[string]any{
		"item_id": item.ID,
		"reviews": item.Reviews,
	})
}

func (h *Handler) handleInventoryReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stock.InventoryReport(r.Context()))
}

type addToCartRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

func (h *Handler) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	item, err := h.cat.Get(req.ItemID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.shopper.AddToCart(item, req.Quantity); err != nil {
		writeDomainError(w, err)
		return
	}

	h.writeCartView(w)
}

type removeFromCartRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	var req removeFromCartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	removed := false
	if c := h.shopper.Cart(); c != nil {
		removed = c.RemoveItem(req.Name)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"name":    req.Name,
		"removed": removed,
	})
}

type cartLineResponse struct {
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Subtotal string `json:"subtotal"`
}

type cartResponse struct {
	Customer string             `json:"customer"`
	Contact  string             `json:"contact"`
	Lines    []cartLineResponse `json:"lines"`
	Total    string             `json:"total"`
}

func (h *Handler) handleViewCart(w http.ResponseWriter, _ *http.Request) {
	h.writeCartView(w)
}

func (h *Handler) writeCartView(w http.ResponseWriter) {
	resp := cartResponse{
		Customer: h.shopper.Name,
		Contact:  h.shopper.MaskedEmail(),
		Lines:    []cartLineResponse{},
		Total:    decimal.Zero.StringFixed(2),
	}
	if c := h.shopper.Cart(); c != nil {
		for _, l := range c.Lines() {
			resp.Lines = append(resp.Lines, cartLineResponse{
				ItemID:   l.Item.ID,
				Name:     l.Item.Name,
				Quantity: l.Quantity,
				Subtotal: l.Subtotal().StringFixed(2),
			})
		}
		resp.Total = c.Total().StringFixed(2)
	}
	writeJSON(w, http.StatusOK, resp)
}

type checkoutRequest struct {
	Method     string `json:"method"`
	CardNumber string `json:"card_number"`
	Holder     string `json:"holder"`
	Email      string `json:"email"`
}

type checkoutResponse struct {
	OrderID int64           `json:"order_id"`
	Status  domorder.Status `json:"status"`
	Total   string          `json:"total"`
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	method, err := buildPaymentMethod(req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	result, err := h.checkout.Execute(r.Context(), appcart.CheckoutInput{
		Customer: h.shopper,
		Method:   method,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, checkoutResponse{
		OrderID: result.OrderID,
		Status:  result.Status,
		Total:   result.Total,
	})
}

func buildPaymentMethod(req checkoutRequest) (dompayment.Method, error) {
	switch req.Method {
	case "credit_card":
		return infrapayment.NewCreditCard(req.CardNumber, req.Holder)
	case "paypal":
		return infrapayment.NewPayPal(req.Email)
	default:
		return nil, domorder.ErrMethodRequired
	}
}

type orderIDRequest struct {
	OrderID int64 `json:"order_id"`
}

func (h *Handler) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req orderIDRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.confirm.Execute(r.Context(), apporder.ConfirmPaymentInput{OrderID: req.OrderID})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"order_id": result.OrderID,
		"paid":     result.Paid,
		"status":   result.Status,
	})
}

func (h *Handler) handleShip(w http.ResponseWriter, r *http.Request) {
	var req orderIDRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	entity, err := h.fulfillment.Ship(r.Context(), req.OrderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"order_id": entity.ID,
		"status":   entity.Status(),
	})
}

type refundRequest struct {
	OrderID int64  `json:"order_id"`
	Amount  string `json:"amount"`
}

func (h *Handler) handleRefund(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, domorder.ErrInvalidAmount)
		return
	}

	entity, err := h.fulfillment.Refund(r.Context(), req.OrderID, amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"order_id": entity.ID,
		"status":   entity.Status(),
	})
}

type orderLineResponse struct {
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Subtotal string `json:"subtotal"`
}

type orderResponse struct {
	OrderID       int64               `json:"order_id"`
	Customer      string              `json:"customer"`
	Status        domorder.Status     `json:"status"`
	PaymentMethod string              `json:"payment_method"`
	Lines         []orderLineResponse `json:"lines"`
	Total         string              `json:"total"`
	CreatedAt     time.Time           `json:"created_at"`
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("order id must be an integer"))
		return
	}

	entity, err := h.fulfillment.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	lines := make([]orderLineResponse, 0)
	for _, l := range entity.Lines() {
		lines = append(lines, orderLineResponse{
			ItemID:   l.ItemID,
			Name:     l.ItemName,
			Quantity: l.Quantity,
			Subtotal: l.Subtotal.StringFixed(2),
		})
	}

	writeJSON(w, http.StatusOK, orderResponse{
		OrderID:       entity.ID,
		Customer:      entity.CustomerName,
		Status:        entity.Status(),
		PaymentMethod: entity.Method().Name(),
		Lines:         lines,
		Total:         entity.Total.StringFixed(2),
		CreatedAt:     entity.CreatedAt,
	})
}

func (h *Handler) handleSalesReport(w http.ResponseWriter, r *http.Request) {
	total, err := h.stock.SalesReport(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_sales": total.StringFixed(2),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, domorder.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, catalog.ErrConflict),
		errors.Is(err, domorder.ErrConflict),
		errors.Is(err, domorder.ErrInvalidStateTransition),
		errors.Is(err, domorder.ErrRefundDeclined):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domcart.ErrEmptyCart), errors.Is(err, customer.ErrNoCart):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, catalog.ErrInvalidPrice),
		errors.Is(err, catalog.ErrInvalidQuantity),
		errors.Is(err, domcart.ErrInvalidQuantity),
		errors.Is(err, domorder.ErrInvalidAmount),
		errors.Is(err, domorder.ErrMethodRequired),
		errors.Is(err, infrapayment.ErrInvalidCardNumber),
		errors.Is(err, infrapayment.ErrInvalidAccount):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
