package http

import (
	"net/http"

	"github.com/charbel0004/Unishelf-sub000/internal/controllers/http/middleware"
	"github.com/charbel0004/Unishelf-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.orders.PlaceOrder(c.Request.Context(), middleware.Principal(c), req.toInput())
	if err != nil {
		respondCommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, CreateOrderResponse{OrderID: h.ids.Encode(order.ID)})
}

func (h *Handler) CreateGuestOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.orders.PlaceGuestOrder(c.Request.Context(), req.toInput())
	if err != nil {
		respondCommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, CreateOrderResponse{OrderID: h.ids.Encode(order.ID)})
}

func (h *Handler) GetAllOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponses(h.ids, orders))
}

func (h *Handler) GetUserOrders(c *gin.Context) {
	orders, err := h.orders.ListUserOrders(c.Request.Context(), middleware.Principal(c), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponses(h.ids, orders))
}

func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), middleware.Principal(c), c.Param("orderId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(h.ids, order))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), middleware.Principal(c), services.UpdateStatusInput{
		OrderID:   req.OrderID,
		Status:    req.Status,
		UpdatedBy: req.UpdatedBy,
	})
	if err != nil {
		respondCommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(h.ids, order))
}
