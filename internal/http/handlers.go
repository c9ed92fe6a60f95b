package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// Product handlers
type productReq struct {
	Name      string          `json:"product_name" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price" swaggertype:"string" example:"19.99"`
	Stock     int64           `json:"units_in_stock" binding:"gte=0"`
	Category  string          `json:"type" example:"ACCESSORY"`
}

func (r productReq) toDomain(id int64) domain.Product {
	return domain.Product{
		ID:        id,
		Name:      r.Name,
		UnitPrice: r.UnitPrice,
		Stock:     r.Stock,
		Category:  domain.ProductCategory(r.Category),
	}
}

// @Summary Create product
// @Tags products
// @Accept json
// @Produce json
// @Param input body productReq true "Product"
// @Success 201 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Router /products [post]
func (s *Server) createProduct(c *gin.Context) {
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := s.svc.Products.Create(c.Request.Context(), req.toDomain(0))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary Get product by id
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /products/{id} [get]
func (s *Server) getProduct(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	p, err := s.svc.Products.GetByID(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Update product
// @Description Changes name, price and type. units_in_stock is ignored; stock moves only through restock and fulfillment.
// @Tags products
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param input body productReq true "Update"
// @Success 200 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /products/{id} [put]
func (s *Server) updateProduct(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := s.svc.Products.Update(c.Request.Context(), req.toDomain(id))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Delete product
// @Tags products
// @Param id path int true "Product ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /products/{id} [delete]
func (s *Server) deleteProduct(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	if err := s.svc.Products.Delete(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type listProductsQuery struct {
	Page      int    `form:"page,default=1"`
	PageSize  int    `form:"page_size,default=3"`
	OrderBy   string `form:"order_by,default=product_id"`
	Direction string `form:"direction,default=asc"`
}

// @Summary List products
// @Tags products
// @Produce json
// @Param page query int false "Page, starting at 1" default(1)
// @Param page_size query int false "Page size" default(3)
// @Param order_by query string false "Sort column" Enums(product_id, product_name, unit_price, units_in_stock, type) default(product_id)
// @Param direction query string false "Sort direction" Enums(asc, desc) default(asc)
// @Success 200 {array} domain.Product
// @Failure 400 {object} map[string]string
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) {
	var q listProductsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	list, err := s.svc.Products.List(c.Request.Context(), repository.ProductQuery{
		Page:      q.Page,
		PageSize:  q.PageSize,
		OrderBy:   q.OrderBy,
		Direction: q.Direction,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type restockReq struct {
	Quantity int64 `json:"quantity" binding:"required,gt=0"`
}

// @Summary Restock product
// @Tags products
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param input body restockReq true "Units to add"
// @Success 200 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /products/{id}/restock [post]
func (s *Server) restockProduct(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var req restockReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := s.svc.Products.Restock(c.Request.Context(), id, req.Quantity)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
