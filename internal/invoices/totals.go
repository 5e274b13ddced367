package invoices

import (
	"github.com/shopspring/decimal"

	"github.com/homeward/settlement-backend/pkg/db/models"
)

// setTotals writes both sides and re-derives remaining balances. Once a deposit
// is paid, remaining = total - deposit on each side.
func setTotals(inv *models.InvoiceMaster, vendorTotal, franchiseTotal decimal.Decimal) {
	inv.VendorTotal = vendorTotal.Round(2)
	inv.FranchiseTotal = franchiseTotal.Round(2)
	inv.VendorRemainingBalance = inv.VendorTotal
	inv.FranchiseRemainingBalance = inv.FranchiseTotal
	inv.ApplyDepositOffset()
}

// rateSavings is the owner-side discount on a negotiated rate.
func rateSavings(rate *models.PropertyServiceTypeRate) decimal.Decimal {
	if rate == nil || !rate.DiscountPercentage.IsPositive() {
		return decimal.Zero
	}
	return rate.OwnerCharge.Mul(rate.DiscountPercentage).Div(decimal.NewFromInt(100)).Round(2)
}
