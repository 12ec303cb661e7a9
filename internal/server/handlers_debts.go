package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/samuhcosta/meu-bolso-backend/internal/models"
	"github.com/samuhcosta/meu-bolso-backend/internal/service"
)

// DebtHandler serves debt CRUD and installment toggles.
type DebtHandler struct {
	Service *service.DebtService
}

const dateLayout = "2006-01-02"

type createDebtRequest struct {
	Name                 string `json:"name"`
	Category             string `json:"category"`
	TotalAmount          string `json:"total_amount"`
	InstallmentAmount    string `json:"installment_amount"`
	TotalInstallments    int    `json:"total_installments"`
	PaidInstallments     int    `json:"paid_installments"`
	FirstInstallmentDate string `json:"first_installment_date"`
	MonthlyDueDay        int    `json:"monthly_due_day"`
	Notes                string `json:"notes"`
	NotificationsEnabled *bool  `json:"notifications_enabled"`
}

type updateDebtRequest struct {
	Name                 *string `json:"name"`
	Category             *string `json:"category"`
	TotalAmount          *string `json:"total_amount"`
	InstallmentAmount    *string `json:"installment_amount"`
	TotalInstallments    *int    `json:"total_installments"`
	FirstInstallmentDate *string `json:"first_installment_date"`
	MonthlyDueDay        *int    `json:"monthly_due_day"`
	Notes                *string `json:"notes"`
	NotificationsEnabled *bool   `json:"notifications_enabled"`
}

type debtResponse struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Category             string `json:"category"`
	TotalAmount          string `json:"total_amount"`
	InstallmentAmount    string `json:"installment_amount"`
	TotalInstallments    int    `json:"total_installments"`
	PaidInstallments     int    `json:"paid_installments"`
	RemainingAmount      string `json:"remaining_amount"`
	FirstInstallmentDate string `json:"first_installment_date"`
	MonthlyDueDay        int    `json:"monthly_due_day"`
	Notes                string `json:"notes,omitempty"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
	CreatedAt            int64  `json:"created_at"`
	UpdatedAt            int64  `json:"updated_at"`
}

type installmentResponse struct {
	ID       string  `json:"id"`
	DebtID   string  `json:"debt_id"`
	Number   int     `json:"installment_number"`
	DueDate  string  `json:"due_date"`
	Amount   string  `json:"amount"`
	IsPaid   bool    `json:"is_paid"`
	PaidDate *string `json:"paid_date,omitempty"`
}

func toDebtResponse(d *models.Debt) debtResponse {
	return debtResponse{
		ID:                   d.ID,
		Name:                 d.Name,
		Category:             d.Category,
		TotalAmount:          d.TotalAmount.StringFixed(2),
		InstallmentAmount:    d.InstallmentAmount.StringFixed(2),
		TotalInstallments:    d.TotalInstallments,
		PaidInstallments:     d.PaidInstallments,
		RemainingAmount:      d.RemainingAmount().StringFixed(2),
		FirstInstallmentDate: d.FirstInstallmentDate.Format(dateLayout),
		MonthlyDueDay:        d.MonthlyDueDay,
		Notes:                d.Notes,
		NotificationsEnabled: d.NotificationsEnabled,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
}

func toInstallmentResponse(i *models.Installment) installmentResponse {
	resp := installmentResponse{
		ID:      i.ID,
		DebtID:  i.DebtID,
		Number:  i.Number,
		DueDate: i.DueDate.Format(dateLayout),
		Amount:  i.Amount.StringFixed(2),
		IsPaid:  i.IsPaid,
	}
	if i.PaidDate != nil {
		pd := i.PaidDate.Format(dateLayout)
		resp.PaidDate = &pd
	}
	return resp
}

// Create adds a debt and generates its installment schedule.
func (h *DebtHandler) Create(c *gin.Context) {
	var req createDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := service.AddDebtInput{
		Name:                 req.Name,
		Category:             req.Category,
		TotalInstallments:    req.TotalInstallments,
		PaidInstallments:     req.PaidInstallments,
		MonthlyDueDay:        req.MonthlyDueDay,
		Notes:                req.Notes,
		NotificationsEnabled: true,
	}
	if req.NotificationsEnabled != nil {
		in.NotificationsEnabled = *req.NotificationsEnabled
	}

	var fieldErrs []string
	if req.TotalAmount != "" {
		amt, err := decimal.NewFromString(req.TotalAmount)
		if err != nil {
			fieldErrs = append(fieldErrs, "total_amount")
		} else {
			in.TotalAmount = amt
		}
	}
	if req.InstallmentAmount != "" {
		amt, err := decimal.NewFromString(req.InstallmentAmount)
		if err != nil {
			fieldErrs = append(fieldErrs, "installment_amount")
		} else {
			in.InstallmentAmount = amt
		}
	}
	if req.FirstInstallmentDate != "" {
		d, err := time.Parse(dateLayout, req.FirstInstallmentDate)
		if err != nil {
			fieldErrs = append(fieldErrs, "first_installment_date")
		} else {
			in.FirstInstallmentDate = d
		}
	}
	if len(fieldErrs) > 0 {
		writeServiceError(c, &service.ValidationError{Fields: fieldErrs})
		return
	}

	debt, err := h.Service.AddDebt(c.Request.Context(), GetUserID(c), in)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toDebtResponse(debt))
}

// List returns all debts of the authenticated user.
func (h *DebtHandler) List(c *gin.Context) {
	debts, err := h.Service.ListDebts(c.Request.Context(), GetUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp := make([]debtResponse, len(debts))
	for i, d := range debts {
		resp[i] = toDebtResponse(d)
	}
	c.JSON(http.StatusOK, gin.H{"debts": resp})
}

// Get returns one debt.
func (h *DebtHandler) Get(c *gin.Context) {
	debt, err := h.Service.GetDebt(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDebtResponse(debt))
}

// Update merges partial edits into a debt.
func (h *DebtHandler) Update(c *gin.Context) {
	var req updateDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := service.UpdateDebtInput{
		Name:                 req.Name,
		Category:             req.Category,
		TotalInstallments:    req.TotalInstallments,
		MonthlyDueDay:        req.MonthlyDueDay,
		Notes:                req.Notes,
		NotificationsEnabled: req.NotificationsEnabled,
	}

	var fieldErrs []string
	if req.TotalAmount != nil {
		amt, err := decimal.NewFromString(*req.TotalAmount)
		if err != nil {
			fieldErrs = append(fieldErrs, "total_amount")
		} else {
			in.TotalAmount = &amt
		}
	}
	if req.InstallmentAmount != nil {
		amt, err := decimal.NewFromString(*req.InstallmentAmount)
		if err != nil {
			fieldErrs = append(fieldErrs, "installment_amount")
		} else {
			in.InstallmentAmount = &amt
		}
	}
	if req.FirstInstallmentDate != nil {
		d, err := time.Parse(dateLayout, *req.FirstInstallmentDate)
		if err != nil {
			fieldErrs = append(fieldErrs, "first_installment_date")
		} else {
			in.FirstInstallmentDate = &d
		}
	}
	if len(fieldErrs) > 0 {
		writeServiceError(c, &service.ValidationError{Fields: fieldErrs})
		return
	}

	debt, err := h.Service.UpdateDebt(c.Request.Context(), GetUserID(c), c.Param("id"), in)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDebtResponse(debt))
}

// Delete removes a debt and everything under it.
func (h *DebtHandler) Delete(c *gin.Context) {
	if err := h.Service.DeleteDebt(c.Request.Context(), GetUserID(c), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListInstallments returns the schedule of a debt.
func (h *DebtHandler) ListInstallments(c *gin.Context) {
	installments, err := h.Service.ListInstallments(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp := make([]installmentResponse, len(installments))
	for i, inst := range installments {
		resp[i] = toInstallmentResponse(inst)
	}
	c.JSON(http.StatusOK, gin.H{"installments": resp})
}

// MarkPaid marks an installment paid.
func (h *DebtHandler) MarkPaid(c *gin.Context) {
	inst, err := h.Service.MarkPaid(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toInstallmentResponse(inst))
}

// MarkUnpaid reverts an installment to unpaid.
func (h *DebtHandler) MarkUnpaid(c *gin.Context) {
	inst, err := h.Service.MarkUnpaid(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toInstallmentResponse(inst))
}

// writeServiceError maps the service error taxonomy onto HTTP status codes.
func writeServiceError(c *gin.Context, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error(), "fields": vErr.Fields})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict, retry"})
	case errors.Is(err, service.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "store timeout, retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
