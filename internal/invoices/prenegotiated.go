package invoices

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
)

const (
	rateItemTitle  = "Property Service Rate"
	linenItemTitle = "Linen Service"
)

type sourceKind int

const (
	sourceAdHoc sourceKind = iota
	sourceEstimate
	sourceRate
	sourceLinen
)

func (k sourceKind) String() string {
	switch k {
	case sourceEstimate:
		return "estimate"
	case sourceRate:
		return "rate"
	case sourceLinen:
		return "linen"
	default:
		return "ad_hoc"
	}
}

// pricing is everything the flat-rate computation may draw from, loaded once.
type pricing struct {
	kind          sourceKind
	estimate      *models.EstimateDetail
	estimateLines []models.EstimateLineItem
	rate          *models.PropertyServiceTypeRate
	linen         *models.LinenDetail
}

func (p pricing) estimateVendorSum() decimal.Decimal {
	return sumEstimate(vendorLines(p.estimateLines))
}

func (p pricing) estimateFranchiseSum() decimal.Decimal {
	return sumEstimate(franchiseLines(p.estimateLines))
}

// discountedRate is the owner charge after the negotiated discount.
func (p pricing) discountedRate() decimal.Decimal {
	return p.rate.OwnerCharge.Sub(rateSavings(p.rate))
}

// preNegotiatedStrategy prices flat-rate work from an approved estimate, a
// property rate, linen pricing or ad-hoc items, in that order.
type preNegotiatedStrategy struct {
	*kit
}

func (preNegotiatedStrategy) Name() string { return "pre_negotiated" }

func (p preNegotiatedStrategy) Compute(s *session) (*outcome, error) {
	if err := p.checkVendor(s); err != nil {
		return nil, err
	}
	inv, _, err := p.loadOrCreate(s)
	if err != nil {
		return nil, err
	}
	if err := guardRecompute(inv); err != nil {
		return nil, err
	}
	previous := inv.Status

	src, err := p.loadPricing(s)
	if err != nil {
		return nil, err
	}
	historical, err := s.invoices.ListLineItemsByStatus(s.ctx, inv.ID, enums.ServiceRequestStatusInProgress)
	if err != nil {
		return nil, err
	}
	submitted := specsFromInput(s.input.LineItems)
	sendToOwner := len(submitted) == 0 && len(historical) == 0 && src.kind != sourceAdHoc
	if src.kind == sourceAdHoc && len(submitted) == 0 && len(historical) == 0 {
		return nil, ErrLineItemsRequired
	}

	admin, err := p.franchiseOwner(s)
	if err != nil {
		return nil, err
	}
	replaced, err := p.items.ReplaceStale(s.ctx, s.invoices, inv.ID, s.request().Status)
	if err != nil {
		return nil, err
	}
	owners := p.owners(s, admin)

	inv.DiscountPercentage = decimal.Zero
	var (
		vendorTotal, franchiseTotal decimal.Decimal
		items                       []models.InvoiceLineItem
	)
	if sendToOwner {
		vendorTotal, franchiseTotal, items = p.fromSource(inv, src, owners)
	} else {
		vendorTotal, franchiseTotal, items = p.fromItems(inv, src, submitted, historical, owners)
	}
	setTotals(inv, vendorTotal, franchiseTotal)

	candidate, err := p.candidate(s, src, sendToOwner)
	if err != nil {
		return nil, err
	}
	if err := p.settle(s, inv, candidate); err != nil {
		return nil, err
	}
	if err := p.touch(s, inv); err != nil {
		return nil, err
	}

	return &outcome{
		invoice:  inv,
		items:    items,
		kept:     historical,
		hasPrev:  replaced > 0 || len(historical) > 0,
		previous: previous,
		source:   src.kind.String(),
		autoCharge: sendToOwner &&
			inv.Status == enums.InvoiceStatusSentToOwner &&
			previous != enums.InvoiceStatusSentToOwner,
	}, nil
}

func (p preNegotiatedStrategy) loadPricing(s *session) (pricing, error) {
	sr := s.request()
	var src pricing

	estimate, lines, err := s.requests.FindApprovedEstimate(s.ctx, sr)
	if err != nil {
		return src, err
	}
	src.estimate, src.estimateLines = estimate, lines

	rate, err := s.requests.FindPropertyRate(s.ctx, sr.PropertyID, sr.ServiceTypeID)
	if err != nil {
		return src, err
	}
	if rate != nil && rate.IsComplete() {
		src.rate = rate
	}

	linen, err := s.requests.FindLinenDetail(s.ctx, sr.ID)
	if err != nil {
		return src, err
	}
	src.linen = linen

	switch {
	case src.estimate != nil:
		src.kind = sourceEstimate
	case src.rate != nil:
		src.kind = sourceRate
	case src.linen != nil:
		src.kind = sourceLinen
	default:
		src.kind = sourceAdHoc
	}
	return src, nil
}

// fromSource prices an invoice entirely from its flat-rate source.
func (p preNegotiatedStrategy) fromSource(inv *models.InvoiceMaster, src pricing, owners Owners) (decimal.Decimal, decimal.Decimal, []models.InvoiceLineItem) {
	switch src.kind {
	case sourceEstimate:
		return src.estimateVendorSum(), src.estimateFranchiseSum(), estimateItems(src.estimateLines, owners)
	case sourceRate:
		inv.DiscountPercentage = src.rate.DiscountPercentage
		franchise := src.discountedRate()
		items := p.items.VendorOnly([]ItemSpec{rateSpec(src.rate.VendorCharge)}, owners)
		items = append(items, p.items.FranchiseOwned([]ItemSpec{rateSpec(franchise)}, owners)...)
		return src.rate.VendorCharge, franchise, items
	default:
		items := p.items.VendorOnly([]ItemSpec{linenSpec(src.linen.BedroomPrice)}, owners)
		items = append(items, p.items.FranchiseOwned([]ItemSpec{linenSpec(src.linen.TotalCharges)}, owners)...)
		return src.linen.BedroomPrice, src.linen.TotalCharges, items
	}
}

// fromItems prices submitted and historical items. The vendor side prefers the
// estimate over the rate while the franchise side prefers the rate.
func (p preNegotiatedStrategy) fromItems(inv *models.InvoiceMaster, src pricing, submitted []ItemSpec, historical []models.InvoiceLineItem, owners Owners) (decimal.Decimal, decimal.Decimal, []models.InvoiceLineItem) {
	base := sumSpecs(submitted).Add(sumItems(historical))
	vendorTotal, franchiseTotal := base, base

	items := p.items.Mirror(submitted, owners)
	items = append(items, p.items.FranchiseOwned(specsFromItems(historical), owners)...)

	switch {
	case src.estimate != nil:
		vendorTotal = vendorTotal.Add(src.estimateVendorSum())
		items = append(items, estimateItems(vendorLines(src.estimateLines), owners)...)
	case src.rate != nil:
		vendorTotal = vendorTotal.Add(src.rate.VendorCharge)
		items = append(items, p.items.VendorOnly([]ItemSpec{rateSpec(src.rate.VendorCharge)}, owners)...)
	}

	switch {
	case src.rate != nil:
		inv.DiscountPercentage = src.rate.DiscountPercentage
		franchise := src.discountedRate()
		franchiseTotal = franchiseTotal.Add(franchise)
		items = append(items, p.items.FranchiseOwned([]ItemSpec{rateSpec(franchise)}, owners)...)
	case src.estimate != nil:
		franchiseTotal = franchiseTotal.Add(src.estimateFranchiseSum())
		items = append(items, estimateItems(franchiseLines(src.estimateLines), owners)...)
	}
	return vendorTotal, franchiseTotal, items
}

// candidate is the status the invoice wants before the bundle hold check.
func (p preNegotiatedStrategy) candidate(s *session, src pricing, sendToOwner bool) (enums.InvoiceStatus, error) {
	if !sendToOwner {
		if s.input.Actor.IsAdmin() {
			return enums.InvoiceStatusSentToOwner, nil
		}
		return enums.InvoiceStatusSubmittedToAdmin, nil
	}
	if src.kind == sourceLinen {
		return enums.InvoiceStatusSentToOwner, nil
	}
	if s.input.hasNote() {
		return enums.InvoiceStatusSubmittedToAdmin, nil
	}
	sr := s.request()
	if sr.VendorID != nil {
		pending, err := s.requests.HasUnresolvedNoteBy(s.ctx, sr.ID, *sr.VendorID)
		if err != nil {
			return "", err
		}
		if pending {
			return enums.InvoiceStatusSubmittedToAdmin, nil
		}
	}
	return enums.InvoiceStatusSentToOwner, nil
}

func rateSpec(price decimal.Decimal) ItemSpec {
	return ItemSpec{Title: rateItemTitle, Price: price, Section: enums.LineItemSectionService, ReadOnly: true}
}

func linenSpec(price decimal.Decimal) ItemSpec {
	return ItemSpec{Title: linenItemTitle, Price: price, Section: enums.LineItemSectionService, ReadOnly: true}
}

// estimateItems copies estimate lines read-only, keeping each line's owner.
func estimateItems(lines []models.EstimateLineItem, owners Owners) []models.InvoiceLineItem {
	return lo.Map(lines, func(l models.EstimateLineItem, _ int) models.InvoiceLineItem {
		return buildItem(ItemSpec{
			Title:       l.Title,
			Description: l.Description,
			Price:       l.Price,
			Section:     l.Section,
			ReadOnly:    true,
		}, owners, l.FranchiseAdminID)
	})
}

func vendorLines(lines []models.EstimateLineItem) []models.EstimateLineItem {
	return lo.Filter(lines, func(l models.EstimateLineItem, _ int) bool { return l.FranchiseAdminID == nil })
}

func franchiseLines(lines []models.EstimateLineItem) []models.EstimateLineItem {
	return lo.Filter(lines, func(l models.EstimateLineItem, _ int) bool { return l.FranchiseAdminID != nil })
}

func sumEstimate(lines []models.EstimateLineItem) decimal.Decimal {
	return lo.Reduce(lines, func(sum decimal.Decimal, l models.EstimateLineItem, _ int) decimal.Decimal {
		return sum.Add(l.Price)
	}, decimal.Zero)
}

func specsFromItems(items []models.InvoiceLineItem) []ItemSpec {
	return lo.Map(items, func(it models.InvoiceLineItem, _ int) ItemSpec {
		return ItemSpec{
			Title:       it.Title,
			Description: it.Description,
			Price:       it.Price,
			HoursWorked: it.HoursWorked,
			Section:     it.Section,
			ReadOnly:    it.IsReadOnly,
		}
	})
}
