package invoices

import pkgerrors "github.com/homeward/settlement-backend/pkg/errors"

var (
	ErrInvoiceNotFound            = pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	ErrServiceRequestNotFound     = pkgerrors.New(pkgerrors.CodeNotFound, "service request not found")
	ErrInvalidAction              = pkgerrors.New(pkgerrors.CodeStateConflict, "invalid action")
	ErrVendorIDMissing            = pkgerrors.New(pkgerrors.CodeValidation, "vendor id missing")
	ErrLineItemsRequired          = pkgerrors.New(pkgerrors.CodeValidation, "line items required")
	ErrServiceRequestNotCompleted = pkgerrors.New(pkgerrors.CodeStateConflict, "service request not completed")
	ErrGenerateInvoiceFailed      = pkgerrors.New(pkgerrors.CodeInternal, "failed to generate invoice")
	ErrConcurrentInvoice          = pkgerrors.New(pkgerrors.CodeConcurrent, "invoice is being created by another request")
)
