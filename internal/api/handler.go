package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"ledger-service/internal/service"
	"ledger-service/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	products  *service.ProductService
	sales     *service.SalesService
	expenses  *service.ExpenseService
	customers *service.CustomerService
	payments  *service.PaymentService
	reports   *service.ReportService
	snapshots *service.SnapshotService
	backups   *service.BackupService

	defaultAccountID string
}

// NewHandler creates a new HTTP handler
func NewHandler(
	products *service.ProductService,
	sales *service.SalesService,
	expenses *service.ExpenseService,
	customers *service.CustomerService,
	payments *service.PaymentService,
	reports *service.ReportService,
	snapshots *service.SnapshotService,
	backups *service.BackupService,
	defaultAccountID string,
) *Handler {
	return &Handler{
		products:         products,
		sales:            sales,
		expenses:         expenses,
		customers:        customers,
		payments:         payments,
		reports:          reports,
		snapshots:        snapshots,
		backups:          backups,
		defaultAccountID: defaultAccountID,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(tenantMiddleware(h.defaultAccountID))
	{
		v1.GET("/products", h.listProducts)
		v1.POST("/products", h.createProduct)
		v1.GET("/products/:id", h.getProduct)
		v1.PUT("/products/:id", h.updateProduct)
		v1.DELETE("/products/:id", h.deleteProduct)
		v1.POST("/products/:id/undo", h.undoDeleteProduct)

		v1.GET("/sales", h.listSales)
		v1.POST("/sales", h.recordSale)
		v1.GET("/sales/:id", h.getSale)
		v1.DELETE("/sales/:id", h.deleteSale)
		v1.POST("/sales/:id/undo", h.undoDeleteSale)
		v1.POST("/sales/:id/payments", h.applyPayment)

		v1.GET("/expenses", h.listExpenses)
		v1.POST("/expenses", h.createExpense)
		v1.PUT("/expenses/:id", h.updateExpense)
		v1.DELETE("/expenses/:id", h.deleteExpense)
		v1.POST("/expenses/:id/undo", h.undoDeleteExpense)

		v1.GET("/customers", h.listCustomers)
		v1.POST("/customers", h.createCustomer)
		v1.GET("/customers/:id", h.customerDetail)
		v1.PUT("/customers/:id", h.updateCustomer)
		v1.POST("/customers/:id/payments", h.customerQuickPayment)

		v1.GET("/feed/:collection", h.feed)
		v1.GET("/dashboard", h.dashboard)

		v1.GET("/backup/export", h.exportBackup)
		v1.POST("/backup/restore", h.restoreBackup)
		v1.POST("/testdata/clear", h.clearTestData)
	}
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found", "details": err.Error()})
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidPartialAmount),
		errors.Is(err, service.ErrOverpayment),
		errors.Is(err, service.ErrInvalidBackup):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
	case errors.Is(err, service.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": "Insufficient stock", "details": err.Error()})
	case errors.Is(err, service.ErrDeletePending):
		c.JSON(http.StatusConflict, gin.H{"error": "Delete already pending", "details": err.Error()})
	case errors.Is(err, service.ErrUndoExpired):
		c.JSON(http.StatusGone, gin.H{"error": "Undo window elapsed", "details": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error", "details": err.Error()})
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context(), scopeFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) createProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	product, err := h.products.Create(c.Request.Context(), scopeFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) getProduct(c *gin.Context) {
	product, err := h.products.Get(c.Request.Context(), scopeFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	product, err := h.products.Update(c.Request.Context(), scopeFrom(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	if err := h.products.Delete(c.Request.Context(), scopeFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "pending_delete"})
}

func (h *Handler) undoDeleteProduct(c *gin.Context) {
	if err := h.products.UndoDelete(c.Request.Context(), scopeFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "restored"})
}

func (h *Handler) listSales(c *gin.Context) {
	sales, err := h.sales.ListSales(c.Request.Context(), scopeFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales": sales})
}

func (h *Handler) recordSale(c *gin.Context) {
	var req service.RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	sale, err := h.sales.RecordSale(c.Request.Context(), scopeFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

func (h *Handler) getSale(c *gin.Context) {
	sale, err := h.sales.GetSale(c.Request.Context(), scopeFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

func (h *Handler) deleteSale(c *gin.Context) {
	if err := h.sales.DeleteSale(c.Request.Context(), scopeFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "pending_delete"})
}

func (h *Handler) undoDeleteSale(c *gin.Context) {
	if err := h.sales.UndoDeleteSale(c.Request.Context(), scopeFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "restored"})
}

// paymentRequest is a payment against a sale's outstanding balance.
type paymentRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

func (h *Handler) applyPayment(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	sale, err := h.payments.ApplyPayment(c.Request.Context(), scopeFrom(c), c.Param("id"), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

func (h *Handler) listExpenses(c *gin.Context) {
	expenses, err := h.expenses.List(c.Request.Context(), scopeFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expenses": expenses})
}

func (h *Handler) createExpense(c *gin.Context) {
	var req service.ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	expense, err := h.expenses.Create(c.Request.Context(), scopeFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, expense)
}

func (h *Handler) updateExpense(c *gin.Context) {
	var req service.ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	expense, err := h.expenses.Update(c.Request.Context(), scopeFrom(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

func (h *Handler) deleteExpense(c *gin.Context) {
	if err := h.expenses.Delete(c.Request.Context(), scopeFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "pending_delete"})
}

func (h *Handler) undoDeleteExpense(c *gin.Context) {
	if err := h.expenses.UndoDelete(c.Request.Context(), scopeFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "restored"})
}

func (h *Handler) listCustomers(c *gin.Context) {
	customers, err := h.customers.ListWithStats(c.Request.Context(), scopeFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

func (h *Handler) createCustomer(c *gin.Context) {
	var req service.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	customer, err := h.customers.Create(c.Request.Context(), scopeFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (h *Handler) customerDetail(c *gin.Context) {
	detail, err := h.customers.Detail(c.Request.Context(), scopeFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) updateCustomer(c *gin.Context) {
	var req service.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	customer, err := h.customers.Update(c.Request.Context(), scopeFrom(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// quickPaymentRequest is a payment recorded from the customer view,
// targeted at one of the customer's outstanding sales.
type quickPaymentRequest struct {
	SaleID string  `json:"saleId" binding:"required"`
	Amount float64 `json:"amount" binding:"required"`
}

func (h *Handler) customerQuickPayment(c *gin.Context) {
	var req quickPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	scope := scopeFrom(c)
	customerID := c.Param("id")
	sale, err := h.payments.QuickPayment(c.Request.Context(), scope, customerID, req.SaleID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	balance, status, err := h.payments.CustomerBalanceFor(c.Request.Context(), scope, customerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sale": sale, "balance": balance, "status": status})
}

// feed serves the full current snapshot of one collection as raw JSON.
func (h *Handler) feed(c *gin.Context) {
	collection := c.Param("collection")
	if _, err := scopeFrom(c).Table(collection); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown collection", "details": err.Error()})
		return
	}

	payload, err := h.snapshots.Snapshot(c.Request.Context(), scopeFrom(c), collection)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", payload)
}

func (h *Handler) dashboard(c *gin.Context) {
	dashboard, err := h.reports.Dashboard(c.Request.Context(), scopeFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

func (h *Handler) exportBackup(c *gin.Context) {
	file, err := h.backups.Export(c.Request.Context(), scopeFrom(c).TenantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

func (h *Handler) restoreBackup(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body", "details": err.Error()})
		return
	}

	counts, err := h.backups.Restore(c.Request.Context(), scopeFrom(c).TenantID, raw)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "restored", "counts": counts})
}

func (h *Handler) clearTestData(c *gin.Context) {
	if err := h.backups.ClearTestData(c.Request.Context(), scopeFrom(c).TenantID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
