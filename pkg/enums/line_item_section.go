package enums

import "fmt"

// LineItemSection groups invoice line items for display and hourly math.
type LineItemSection string

const (
	LineItemSectionService  LineItemSection = "service"
	LineItemSectionMaterial LineItemSection = "material"
	LineItemSectionLabor    LineItemSection = "labor"
)

var validLineItemSections = []LineItemSection{
	LineItemSectionService,
	LineItemSectionMaterial,
	LineItemSectionLabor,
}

// String implements fmt.Stringer.
func (l LineItemSection) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LineItemSection.
func (l LineItemSection) IsValid() bool {
	for _, candidate := range validLineItemSections {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLineItemSection converts raw input into a LineItemSection.
func ParseLineItemSection(value string) (LineItemSection, error) {
	for _, candidate := range validLineItemSections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid line item section %q", value)
}
