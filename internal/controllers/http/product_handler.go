package http

import (
	"net/http"
	"strconv"

	"github.com/charbel0004/Unishelf-sub000/internal/controllers/http/middleware"
	"github.com/charbel0004/Unishelf-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

// ListProducts accepts ?search=, ?available=true, ?limit= and ?offset=.
func (h *Handler) ListProducts(c *gin.Context) {
	q := services.ProductQuery{Search: c.Query("search")}
	if v := c.Query("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(c, err)
			return
		}
		q.OnlyAvailable = b
	}
	var err error
	if q.Limit, err = queryInt(c, "limit"); err != nil {
		badRequest(c, err)
		return
	}
	if q.Offset, err = queryInt(c, "offset"); err != nil {
		badRequest(c, err)
		return
	}

	products, err := h.catalog.ListProducts(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, toProductResponse(h.ids, &products[i]))
	}
	c.JSON(http.StatusOK, out)
}

func queryInt(c *gin.Context, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &queryError{key: key, value: v}
	}
	return n, nil
}

type queryError struct {
	key, value string
}

func (e *queryError) Error() string {
	return "invalid " + e.key + " " + strconv.Quote(e.value)
}

func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.catalog.GetProduct(c.Request.Context(), c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(h.ids, p))
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.catalog.CreateProduct(c.Request.Context(), middleware.Principal(c), services.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Available:   req.Available,
	})
	if err != nil {
		respondCommandError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProductResponse(h.ids, p))
}

func (h *Handler) AdjustStock(c *gin.Context) {
	var req AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.catalog.AdjustStock(c.Request.Context(), middleware.Principal(c), c.Param("productId"), req.Quantity, req.Available)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(h.ids, p))
}
