package http

import (
	"github.com/charbel0004/Unishelf-sub000/internal/controllers/http/middleware"
	"github.com/charbel0004/Unishelf-sub000/internal/domain"
	"github.com/charbel0004/Unishelf-sub000/internal/security"
	"github.com/charbel0004/Unishelf-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	orders  *services.OrderService
	catalog *services.CatalogService
	users   *services.UserService
	reports *services.ReportService
	ids     security.Obfuscator
}

func NewHandler(orders *services.OrderService, catalog *services.CatalogService, users *services.UserService, reports *services.ReportService, ids security.Obfuscator) *Handler {
	return &Handler{orders: orders, catalog: catalog, users: users, reports: reports, ids: ids}
}

// RegisterRoutes mounts the JSON API under /api. limiter guards the
// anonymous write endpoints.
func (h *Handler) RegisterRoutes(r gin.IRouter, authz *middleware.Authz, limiter gin.HandlerFunc) {
	staff := authz.Require(domain.RoleEmployee, domain.RoleManager)
	manager := authz.Require(domain.RoleManager)
	signedIn := authz.Require()

	api := r.Group("/api", authz.Authenticate())

	orders := api.Group("/Orders")
	{
		orders.POST("/Create", signedIn, h.CreateOrder)
		orders.POST("/CreateGuest", limiter, h.CreateGuestOrder)
		orders.GET("/GetAllOrders", staff, h.GetAllOrders)
		orders.GET("/user/:userId", signedIn, h.GetUserOrders)
		orders.GET("/:orderId", signedIn, h.GetOrder)
		orders.PUT("/UpdateStatus", staff, h.UpdateStatus)
	}

	users := api.Group("/Users")
	{
		users.POST("/Register", limiter, h.Register)
		users.POST("/Login", limiter, h.Login)
		users.GET("/Me", signedIn, h.Me)
		users.PUT("/:userId/Role", manager, h.SetRole)
	}

	products := api.Group("/Products")
	{
		products.GET("", h.ListProducts)
		products.GET("/:productId", h.GetProduct)
		products.POST("", manager, h.CreateProduct)
		products.PUT("/:productId/Stock", staff, h.AdjustStock)
	}

	api.GET("/Reports/Sales", manager, h.SalesReport)
}
