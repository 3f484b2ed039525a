package generation

import (
	"fmt"
	"strings"

	"github.com/property-report-ledger/internal/domain/report"
)

const systemPrompt = "You are a UK commercial property investment analyst. " +
	"Write a structured investment analysis with sections for Executive Summary, Market Context, " +
	"Development Opportunities, Financial Projections, Risks and Recommendations. " +
	"Use concrete figures and state assumptions explicitly."

var reportDepth = map[report.ReportType]string{
	report.ReportTypeBasic:        "a concise overview suitable for an initial screening",
	report.ReportTypeProfessional: "a detailed analysis suitable for an investment committee",
	report.ReportTypeDevelopment:  "a development appraisal with phased options and indicative costs",
}

func buildUserPrompt(p *report.InputParameters) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Prepare %s for the following property.\n\n", reportDepth[p.ReportType])
	fmt.Fprintf(&b, "Address: %s\n", p.PropertyAddress)
	fmt.Fprintf(&b, "Postcode: %s\n", p.PropertyPostcode)
	fmt.Fprintf(&b, "Purchase price: £%.0f\n", p.PurchasePrice)
	fmt.Fprintf(&b, "Property type: %s\n", p.PropertyType)
	fmt.Fprintf(&b, "Current condition: %s\n", p.CurrentCondition)
	if p.PropertySize != nil {
		fmt.Fprintf(&b, "Size: %.0f sq ft\n", *p.PropertySize)
	}
	if p.NumberOfUnits != nil {
		fmt.Fprintf(&b, "Units: %d\n", *p.NumberOfUnits)
	}
	if len(p.DevelopmentGoals) > 0 {
		fmt.Fprintf(&b, "Development goals: %s\n", strings.Join(p.DevelopmentGoals, ", "))
	}
	if p.AdditionalNotes != "" {
		fmt.Fprintf(&b, "Notes from the investor: %s\n", p.AdditionalNotes)
	}
	return b.String()
}
