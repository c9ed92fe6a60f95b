package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/service"
)

// Services groups everything the HTTP layer calls into.
type Services struct {
	Products  *service.ProductService
	Customers *service.CustomerService
	Employees *service.EmployeeService
	Orders    *service.OrderService
	Fulfiller *service.FulfillmentCoordinator
	Health    repository.Pinger
}

type Server struct {
	engine         *gin.Engine
	svc            Services
	logger         *zap.Logger
	fulfillTimeout time.Duration
}

// NewServer builds the gin engine. fulfillTimeout bounds each fulfillment request.
func NewServer(svc Services, logger *zap.Logger, fulfillTimeout time.Duration) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(requestLogger(logger), gin.Recovery())
	s := &Server{engine: r, svc: svc, logger: logger, fulfillTimeout: fulfillTimeout}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.engine.GET("/healthz", s.health)

	products := s.engine.Group("/products")
	{
		products.POST("", s.createProduct)
		products.GET("", s.listProducts)
		products.GET("/:id", s.getProduct)
		products.PUT("/:id", s.updateProduct)
		products.DELETE("/:id", s.deleteProduct)
		products.POST("/:id/restock", s.restockProduct)
	}

	customers := s.engine.Group("/customers")
	{
		customers.POST("", s.createCustomer)
		customers.GET("/:id", s.getCustomer)
		customers.GET("/:id/orders", s.listCustomerOrders)
	}

	employees := s.engine.Group("/employees")
	{
		employees.POST("", s.createEmployee)
		employees.GET("/:id", s.getEmployee)
	}

	orders := s.engine.Group("/orders")
	{
		orders.POST("", s.createOrder)
		orders.GET("/:id", s.getOrder)
		orders.DELETE("/:id", s.deleteOrder)
		orders.POST("/:id/items", s.addOrderItem)
		orders.POST("/:id/fulfill", s.fulfillOrder)
	}
}

const requestIDHeader = "X-Request-ID"

// requestLogger tags each request with an id and writes one access log line.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.New().String()
		}
		c.Set("request_id", rid)
		c.Header(requestIDHeader, rid)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", rid),
		)
	}
}

// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /healthz [get]
func (s *Server) health(c *gin.Context) {
	if s.svc.Health != nil {
		if err := s.svc.Health.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Invalid("id", "must be a positive integer")
	}
	return id, nil
}

// pathID parses :id and answers 400 itself when it is malformed.
func (s *Server) pathID(c *gin.Context) (int64, bool) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrAlreadyShipped),
		errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrTransport):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	body := gin.H{"error": err.Error()}
	if productID, ok := domain.InsufficientStockProduct(err); ok {
		body["product_id"] = productID
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		body["field"] = ve.Field
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("route", c.FullPath()),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
	}
	c.JSON(status, body)
}
