package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

const dateLayout = "2006-01-02"

type createCustomerReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	Email     string `json:"email"`
}

// @Summary Register customer
// @Tags customers
// @Accept json
// @Produce json
// @Param input body createCustomerReq true "Customer"
// @Success 201 {object} domain.Customer
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /customers [post]
func (s *Server) createCustomer(c *gin.Context) {
	var req createCustomerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	cu, err := s.svc.Customers.Create(c.Request.Context(), domain.Customer{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   req.Address,
		Email:     req.Email,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cu)
}

// @Summary Get customer
// @Tags customers
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {object} domain.Customer
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /customers/{id} [get]
func (s *Server) getCustomer(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	cu, err := s.svc.Customers.GetByID(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cu)
}

// @Summary List a customer's orders, newest first
// @Tags customers
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {array} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /customers/{id}/orders [get]
func (s *Server) listCustomerOrders(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	list, err := s.svc.Orders.ListByCustomer(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type createEmployeeReq struct {
	ManagerID *int64 `json:"manager_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsManager bool   `json:"is_manager"`
	// HireDate is YYYY-MM-DD; empty means today.
	HireDate string `json:"hire_date" example:"2024-05-01"`
}

// @Summary Hire employee
// @Tags employees
// @Accept json
// @Produce json
// @Param input body createEmployeeReq true "Employee"
// @Success 201 {object} domain.Employee
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /employees [post]
func (s *Server) createEmployee(c *gin.Context) {
	var req createEmployeeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	e := domain.Employee{
		ManagerID: req.ManagerID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsManager: req.IsManager,
	}
	if req.HireDate != "" {
		d, err := time.Parse(dateLayout, req.HireDate)
		if err != nil {
			s.writeError(c, domain.Invalid("hire_date", "expected YYYY-MM-DD"))
			return
		}
		e.HireDate = d
	}
	out, err := s.svc.Employees.Create(c.Request.Context(), e)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// @Summary Get employee
// @Tags employees
// @Produce json
// @Param id path int true "Employee ID"
// @Success 200 {object} domain.Employee
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /employees/{id} [get]
func (s *Server) getEmployee(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	e, err := s.svc.Employees.GetByID(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}
