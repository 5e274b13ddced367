package invoices

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	invoicesvc "github.com/homeward/settlement-backend/internal/invoices"
	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
)

type invoiceResponse struct {
	ID                        uuid.UUID            `json:"id"`
	ServiceRequestID          uuid.UUID            `json:"service_request_id"`
	Status                    enums.InvoiceStatus  `json:"status"`
	NextStatus                *enums.InvoiceStatus `json:"next_status,omitempty"`
	VendorTotal               decimal.Decimal      `json:"vendor_total"`
	VendorRemainingBalance    decimal.Decimal      `json:"vendor_remaining_balance"`
	FranchiseTotal            decimal.Decimal      `json:"franchise_total"`
	FranchiseRemainingBalance decimal.Decimal      `json:"franchise_remaining_balance"`
	DepositAmount             decimal.Decimal      `json:"deposit_amount"`
	DepositPaid               bool                 `json:"deposit_paid"`
	DiscountPercentage        decimal.Decimal      `json:"discount_percentage"`
	InvoiceUUID               *uuid.UUID           `json:"invoice_uuid,omitempty"`
	SentToOwnerAt             *time.Time           `json:"sent_to_owner_at,omitempty"`
	PaidAt                    *time.Time           `json:"paid_at,omitempty"`
	UpdatedAt                 time.Time            `json:"updated_at"`
}

type lineItemResponse struct {
	ID              uuid.UUID             `json:"id"`
	Title           string                `json:"title"`
	Description     *string               `json:"description,omitempty"`
	Price           decimal.Decimal       `json:"price"`
	HoursWorked     decimal.Decimal       `json:"hours_worked"`
	Section         enums.LineItemSection `json:"section"`
	ComputationType enums.ComputationType `json:"computation_type"`
	IsReadOnly      bool                  `json:"is_read_only"`
}

type autoChargeResponse struct {
	Failed      bool      `json:"failed"`
	Message     string    `json:"message,omitempty"`
	InvoiceUUID uuid.UUID `json:"invoice_uuid"`
}

type computeResponse struct {
	Invoice          invoiceResponse     `json:"invoice"`
	LineItems        []lineItemResponse  `json:"line_items"`
	HasPrevLineItems bool                `json:"has_prev_line_items"`
	Strategy         string              `json:"strategy"`
	AutoCharge       *autoChargeResponse `json:"auto_charge,omitempty"`
}

func newInvoiceResponse(inv *models.InvoiceMaster) invoiceResponse {
	return invoiceResponse{
		ID:                        inv.ID,
		ServiceRequestID:          inv.ServiceRequestID,
		Status:                    inv.Status,
		NextStatus:                inv.NextStatus,
		VendorTotal:               inv.VendorTotal,
		VendorRemainingBalance:    inv.VendorRemainingBalance,
		FranchiseTotal:            inv.FranchiseTotal,
		FranchiseRemainingBalance: inv.FranchiseRemainingBalance,
		DepositAmount:             inv.DepositAmount,
		DepositPaid:               inv.DepositPaid,
		DiscountPercentage:        inv.DiscountPercentage,
		InvoiceUUID:               inv.InvoiceUUID,
		SentToOwnerAt:             inv.SentToOwnerAt,
		PaidAt:                    inv.PaidAt,
		UpdatedAt:                 inv.UpdatedAt.UTC(),
	}
}

func newComputeResponse(result *invoicesvc.Result) computeResponse {
	resp := computeResponse{
		Invoice: newInvoiceResponse(result.Invoice),
		LineItems: lo.Map(result.LineItems, func(item models.InvoiceLineItem, _ int) lineItemResponse {
			return lineItemResponse{
				ID:              item.ID,
				Title:           item.Title,
				Description:     item.Description,
				Price:           item.Price,
				HoursWorked:     item.HoursWorked,
				Section:         item.Section,
				ComputationType: item.ComputationType,
				IsReadOnly:      item.IsReadOnly,
			}
		}),
		HasPrevLineItems: result.HasPrevLineItems,
		Strategy:         result.Strategy,
	}
	if charge := result.AutoCharge; charge != nil {
		resp.AutoCharge = &autoChargeResponse{
			Failed:      charge.Failed,
			Message:     charge.Message,
			InvoiceUUID: charge.InvoiceUUID,
		}
	}
	return resp
}
