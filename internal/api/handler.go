package api

import (
	"net/http"
	"strconv"
	"time"

	"storefront-core/internal/cart"
	"storefront-core/internal/catalog"
	"storefront-core/internal/entitlement"
	"storefront-core/internal/models"
	"storefront-core/internal/util"
	"storefront-core/internal/wishlist"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	aggregator *catalog.Aggregator
	resolver   *entitlement.Resolver
	carts      *cart.Service
	wishlists  *wishlist.Service
	pageSize   int
}

// NewHandler creates a new HTTP handler
func NewHandler(
	aggregator *catalog.Aggregator,
	resolver *entitlement.Resolver,
	carts *cart.Service,
	wishlists *wishlist.Service,
	pageSize int,
) *Handler {
	return &Handler{
		aggregator: aggregator,
		resolver:   resolver,
		carts:      carts,
		wishlists:  wishlists,
		pageSize:   pageSize,
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
		v1.GET("/plans", h.listPlans)
		v1.GET("/plans/:id/download", h.downloadPlan)

		v1.GET("/cart", h.getCart)
		v1.POST("/cart/items", h.addCartItem)
		v1.PATCH("/cart/items/:id", h.updateCartItem)
		v1.DELETE("/cart/items/:id", h.removeCartItem)
		v1.DELETE("/cart", h.clearCart)

		v1.GET("/wishlist", h.getWishlist)
		v1.PUT("/wishlist/:id", h.toggleWishlist)
		v1.DELETE("/wishlist/:id", h.removeWishlistItem)

		v1.POST("/checkout", h.checkout)
	}
}

// currentUser reads the authenticated user identity. Token verification is
// the gateway's job; an empty value means no session.
func currentUser(c *gin.Context) string {
	return c.GetHeader("X-User-ID")
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

// listPlans fetches one page from both sources and returns the aggregated
// listing. A source failure is surfaced in the listing body with its message
// kept verbatim; the other source's results are still included.
func (h *Handler) listPlans(c *gin.Context) {
	var filters models.FilterState
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid filter parameters",
			"details": err.Error(),
		})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}

	h.aggregator.Refresh(c.Request.Context(), filters, page, h.pageSize)
	listing := h.aggregator.Listing()

	status := http.StatusOK
	if listing.Status == models.StatusFailed {
		status = http.StatusBadGateway
	}
	c.JSON(status, listing)
}

// downloadPlan answers whether the user may download the plan's digital
// files. The file bytes themselves are served by the backend.
func (h *Handler) downloadPlan(c *gin.Context) {
	userID := currentUser(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
		return
	}

	productID := c.Param("id")
	entitled, err := h.resolver.Check(c.Request.Context(), userID, productID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Purchase history unavailable",
			"details": err.Error(),
		})
		return
	}

	if !entitled {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Plan not purchased",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product_id": productID,
		"entitled":   true,
	})
}

// addCartItemRequest mirrors the add-to-cart UI action: the product's display
// snapshot plus the requested quantity.
type addCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Price     int64  `json:"price" binding:"required,min=1"`
	SalePrice int64  `json:"sale_price"`
	Image     string `json:"image"`
	PlotSize  string `json:"plot_size"`
	Quantity  int    `json:"quantity"`
}

func (r *addCartItemRequest) item() models.CartItem {
	return models.CartItem{
		ProductID: r.ProductID,
		Name:      r.Name,
		Price:     r.Price,
		SalePrice: r.SalePrice,
		Image:     r.Image,
		PlotSize:  r.PlotSize,
	}
}

func (h *Handler) userCart(c *gin.Context) (*cart.Manager, bool) {
	userID := currentUser(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
		return nil, false
	}

	mgr, err := h.carts.ForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Cart unavailable",
			"details": err.Error(),
		})
		return nil, false
	}
	return mgr, true
}

// getCart returns the cart rows and derived totals.
func (h *Handler) getCart(c *gin.Context) {
	mgr, ok := h.userCart(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":  mgr.Items(),
		"totals": mgr.Totals(),
	})
}

// addCartItem adds quantity units of a product; repeat adds of the same
// product grow the existing row. On persistence failure nothing changes and
// the caller gets a failure notice to show.
func (h *Handler) addCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	mgr, ok := h.userCart(c)
	if !ok {
		return
	}

	if err := mgr.AddItem(c.Request.Context(), req.item(), req.Quantity); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Could not add to cart",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":  mgr.Items(),
		"totals": mgr.Totals(),
	})
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// updateCartItem replaces a row's quantity; zero or less removes the row.
func (h *Handler) updateCartItem(c *gin.Context) {
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	mgr, ok := h.userCart(c)
	if !ok {
		return
	}

	if err := mgr.UpdateQuantity(c.Request.Context(), c.Param("id"), req.Quantity); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Could not update cart",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":  mgr.Items(),
		"totals": mgr.Totals(),
	})
}

// removeCartItem removes a row; removing an absent product succeeds.
func (h *Handler) removeCartItem(c *gin.Context) {
	mgr, ok := h.userCart(c)
	if !ok {
		return
	}

	if err := mgr.RemoveItem(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Could not remove from cart",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":  mgr.Items(),
		"totals": mgr.Totals(),
	})
}

// clearCart empties the cart.
func (h *Handler) clearCart(c *gin.Context) {
	mgr, ok := h.userCart(c)
	if !ok {
		return
	}

	if err := mgr.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Could not clear cart",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":  mgr.Items(),
		"totals": mgr.Totals(),
	})
}

type wishlistItemRequest struct {
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	SalePrice int64  `json:"sale_price"`
	Image     string `json:"image"`
}

func (h *Handler) userWishlist(c *gin.Context) (*wishlist.Manager, bool) {
	userID := currentUser(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
		return nil, false
	}

	mgr, err := h.wishlists.ForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Wishlist unavailable",
			"details": err.Error(),
		})
		return nil, false
	}
	return mgr, true
}

// getWishlist returns the liked products.
func (h *Handler) getWishlist(c *gin.Context) {
	mgr, ok := h.userWishlist(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": mgr.Items(),
		"count": mgr.Size(),
	})
}

// toggleWishlist flips membership for the product.
func (h *Handler) toggleWishlist(c *gin.Context) {
	var req wishlistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	mgr, ok := h.userWishlist(c)
	if !ok {
		return
	}

	item := models.WishlistItem{
		ProductID: c.Param("id"),
		Name:      req.Name,
		Price:     req.Price,
		SalePrice: req.SalePrice,
		Image:     req.Image,
	}

	member, err := mgr.Toggle(c.Request.Context(), item)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Could not update wishlist",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product_id": item.ProductID,
		"member":     member,
		"count":      mgr.Size(),
	})
}

// removeWishlistItem removes a liked product; absent products succeed.
func (h *Handler) removeWishlistItem(c *gin.Context) {
	mgr, ok := h.userWishlist(c)
	if !ok {
		return
	}

	if err := mgr.Remove(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Could not update wishlist",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": mgr.Items(),
		"count": mgr.Size(),
	})
}

// checkout is the buy-now flow: add the item to the cart, and only after the
// mutation has succeeded hand back the checkout redirect. A failed add never
// navigates.
func (h *Handler) checkout(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	mgr, ok := h.userCart(c)
	if !ok {
		return
	}

	if err := mgr.AddItem(c.Request.Context(), req.item(), req.Quantity); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Could not add to cart",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"redirect": "/checkout",
		"totals":   mgr.Totals(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
