package invoices

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
)

// Aggregator builds and stores the two ledgers every invoice carries: the
// vendor-only items (no franchise admin) and the franchise-owned items.
type Aggregator struct{}

// ItemSpec is one charge before it is bound to an invoice.
type ItemSpec struct {
	Title       string
	Description *string
	Price       decimal.Decimal
	HoursWorked decimal.Decimal
	Section     enums.LineItemSection
	ReadOnly    bool
}

func specsFromInput(items []LineItemInput) []ItemSpec {
	return lo.Map(items, func(in LineItemInput, _ int) ItemSpec {
		section := in.Section
		if section == "" {
			section = enums.LineItemSectionMaterial
		}
		return ItemSpec{
			Title:       in.Title,
			Description: in.Description,
			Price:       in.Price,
			HoursWorked: in.HoursWorked,
			Section:     section,
		}
	})
}

// Owners identifies who each copy of a charge belongs to.
type Owners struct {
	Status           enums.ServiceRequestStatus
	VendorID         *uuid.UUID
	FranchiseAdminID uuid.UUID
}

// VendorOnly tags each charge as a vendor-only item.
func (Aggregator) VendorOnly(specs []ItemSpec, owners Owners) []models.InvoiceLineItem {
	return lo.Map(specs, func(s ItemSpec, _ int) models.InvoiceLineItem {
		return buildItem(s, owners, nil)
	})
}

// FranchiseOwned tags each charge as owned by the franchise admin.
func (Aggregator) FranchiseOwned(specs []ItemSpec, owners Owners) []models.InvoiceLineItem {
	admin := owners.FranchiseAdminID
	return lo.Map(specs, func(s ItemSpec, _ int) models.InvoiceLineItem {
		return buildItem(s, owners, &admin)
	})
}

// Mirror duplicates every charge into a vendor-only and a franchise-owned copy
// with identical prices.
func (a Aggregator) Mirror(specs []ItemSpec, owners Owners) []models.InvoiceLineItem {
	out := a.VendorOnly(specs, owners)
	return append(out, a.FranchiseOwned(specs, owners)...)
}

// ReplaceStale removes the items previously created under status and returns
// how many existed.
func (Aggregator) ReplaceStale(ctx context.Context, repo Repository, invoiceID uuid.UUID, status enums.ServiceRequestStatus) (int64, error) {
	return repo.DeleteLineItemsByStatus(ctx, invoiceID, status)
}

// Persist binds items to the invoice and inserts them.
func (Aggregator) Persist(ctx context.Context, repo Repository, invoiceID uuid.UUID, items []models.InvoiceLineItem) ([]models.InvoiceLineItem, error) {
	for i := range items {
		items[i].InvoiceMasterID = invoiceID
	}
	if err := repo.InsertLineItems(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func buildItem(s ItemSpec, owners Owners, franchiseAdminID *uuid.UUID) models.InvoiceLineItem {
	return models.InvoiceLineItem{
		Title:                s.Title,
		Description:          s.Description,
		Price:                s.Price,
		HoursWorked:          s.HoursWorked,
		Section:              s.Section,
		ComputationType:      enums.ComputationTypeAdd,
		IsReadOnly:           s.ReadOnly,
		ServiceRequestStatus: owners.Status,
		VendorID:             owners.VendorID,
		FranchiseAdminID:     franchiseAdminID,
	}
}

func sumSpecs(specs []ItemSpec) decimal.Decimal {
	return lo.Reduce(specs, func(sum decimal.Decimal, s ItemSpec, _ int) decimal.Decimal {
		return sum.Add(s.Price)
	}, decimal.Zero)
}

func sumItems(items []models.InvoiceLineItem) decimal.Decimal {
	return lo.Reduce(items, func(sum decimal.Decimal, it models.InvoiceLineItem, _ int) decimal.Decimal {
		return sum.Add(it.Price)
	}, decimal.Zero)
}

// hourlyTotal prices labor as rate times hours and everything else at face value.
func hourlyTotal(specs []ItemSpec) decimal.Decimal {
	return lo.Reduce(specs, func(sum decimal.Decimal, s ItemSpec, _ int) decimal.Decimal {
		if s.Section == enums.LineItemSectionLabor {
			return sum.Add(s.Price.Mul(s.HoursWorked))
		}
		return sum.Add(s.Price)
	}, decimal.Zero)
}
