package api

import (
	"errors"
	"net/http"
	"time"

	"laundry-service/internal/apperr"
	"laundry-service/internal/models"
	"laundry-service/internal/service"
	"laundry-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Handler contains HTTP handlers
type Handler struct {
	orderService     *service.OrderService
	affiliateService *service.AffiliateService
	catalog          *service.CatalogClient
	auth             *AuthMiddleware
}

// NewHandler creates a new HTTP handler
func NewHandler(
	orderService *service.OrderService,
	affiliateService *service.AffiliateService,
	catalog *service.CatalogClient,
	auth *AuthMiddleware,
) *Handler {
	return &Handler{
		orderService:     orderService,
		affiliateService: affiliateService,
		catalog:          catalog,
		auth:             auth,
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
	{
		orders := v1.Group("/orders")
		{
			orders.POST("/flash",
				h.auth.RequireRole(models.RoleClient, models.RoleAdmin), h.createFlashOrder)
			orders.PATCH("/flash/:id/complete",
				h.auth.RequireRole(models.RoleAdmin), h.completeFlashOrder)
			orders.GET("/flash/draft",
				h.auth.RequireRole(models.RoleAdmin), h.listDraftOrders)
			orders.GET("/:id",
				h.auth.RequireRole(models.RoleClient, models.RoleAdmin, models.RoleAffiliate), h.getOrder)
		}

		affiliate := v1.Group("/affiliate")
		{
			affiliate.GET("/current-affiliate",
				h.auth.RequireRole(models.RoleClient), h.currentAffiliate)
			affiliate.GET("/linked-clients",
				h.auth.RequireRole(models.RoleAffiliate), h.linkedClients)
		}

		v1.PUT("/catalog/prices",
			h.auth.RequireRole(models.RoleAdmin), h.upsertPriceEntry)
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

// createFlashOrder handles the flash-order fast path
func (h *Handler) createFlashOrder(c *gin.Context) {
	var req service.CreateFlashOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.CreateFlashOrder(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": order})
}

// completeFlashOrder handles the admin DRAFT -> PENDING transition
func (h *Handler) completeFlashOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var req service.CompleteFlashOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, items, err := h.orderService.CompleteFlashOrder(c.Request.Context(), orderID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order, "items": items})
}

// listDraftOrders handles the admin draft listing
func (h *Handler) listDraftOrders(c *gin.Context) {
	orders, err := h.orderService.ListDraftOrders(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": orders})
}

// getOrder handles get order by ID, visible to the owner and admins
func (h *Handler) getOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, items, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, err)
		return
	}

	if currentRole(c) != models.RoleAdmin && order.UserID != currentUserID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order, "items": items})
}

// currentAffiliate handles the client-side current affiliate lookup
func (h *Handler) currentAffiliate(c *gin.Context) {
	profile, err := h.affiliateService.CurrentAffiliateFor(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": profile})
}

// linkedClients handles the affiliate-side linked clients report
func (h *Handler) linkedClients(c *gin.Context) {
	linked, err := h.affiliateService.LinkedClientsAndOrders(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": linked})
}

type upsertPriceRequest struct {
	ArticleID     string           `json:"articleId" binding:"required,uuid"`
	ServiceTypeID string           `json:"serviceTypeId" binding:"required,uuid"`
	ServiceID     string           `json:"serviceId" binding:"required,uuid"`
	BasePrice     *decimal.Decimal `json:"basePrice"`
	PremiumPrice  *decimal.Decimal `json:"premiumPrice"`
	PricePerKg    *decimal.Decimal `json:"pricePerKg"`
	IsAvailable   bool             `json:"isAvailable"`
	PricingType   string           `json:"pricingType" binding:"required,oneof=FLAT PER_WEIGHT"`
}

// upsertPriceEntry handles admin price table writes
func (h *Handler) upsertPriceEntry(c *gin.Context) {
	var req upsertPriceRequest
	if !bindJSON(c, &req) {
		return
	}

	entry := &models.PriceEntry{
		ArticleID:     uuid.MustParse(req.ArticleID),
		ServiceTypeID: uuid.MustParse(req.ServiceTypeID),
		ServiceID:     uuid.MustParse(req.ServiceID),
		BasePrice:     req.BasePrice,
		PremiumPrice:  req.PremiumPrice,
		PricePerKg:    req.PricePerKg,
		IsAvailable:   req.IsAvailable,
		PricingType:   models.PricingType(req.PricingType),
	}

	if err := h.catalog.UpsertPriceEntry(c.Request.Context(), entry); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entry})
}

// bindJSON binds the request body and maps binding failures to a
// VALIDATION_FAILED response listing every violation.
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			violations := make([]string, len(verrs))
			for i, fe := range verrs {
				violations[i] = fe.Field() + " failed validation: " + fe.Tag()
			}
			writeError(c, apperr.Validation(violations))
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return false
	}
	return true
}

// writeError maps error kinds to transport status codes. Internal failures
// stay opaque to the caller.
func writeError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperr.KindInternal {
		util.GetLogger().Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	body := gin.H{
		"error": appErr.Message,
		"code":  string(appErr.Kind),
	}
	if len(appErr.Violations) > 0 {
		body["violations"] = appErr.Violations
	}

	switch appErr.Kind {
	case apperr.KindNotFound:
		c.JSON(http.StatusNotFound, body)
	case apperr.KindInvalidStateTransition:
		c.JSON(http.StatusConflict, body)
	case apperr.KindNoPriceAvailable, apperr.KindWeightRequired:
		c.JSON(http.StatusUnprocessableEntity, body)
	default:
		c.JSON(http.StatusBadRequest, body)
	}
}
