package report

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ReportType selects the depth of the generated analysis
type ReportType string

const (
	ReportTypeBasic        ReportType = "basic"
	ReportTypeProfessional ReportType = "professional"
	ReportTypeDevelopment  ReportType = "development"
)

// InputParameters are the property details a report is generated from
type InputParameters struct {
	PropertyAddress  string     `json:"propertyAddress" validate:"required,min=5"`
	PropertyPostcode string     `json:"propertyPostcode" validate:"required,min=3"`
	PurchasePrice    float64    `json:"purchasePrice" validate:"gt=0"`
	PropertyType     string     `json:"propertyType" validate:"required,oneof=residential commercial office care_home mixed_use"`
	CurrentCondition string     `json:"currentCondition" validate:"required,oneof=operational vacant needs_renovation derelict"`
	PropertySize     *float64   `json:"propertySize,omitempty" validate:"omitempty,gt=0"`
	NumberOfUnits    *int       `json:"numberOfUnits,omitempty" validate:"omitempty,gt=0"`
	ReportType       ReportType `json:"reportType" validate:"required,oneof=basic professional development"`
	DevelopmentGoals []string   `json:"developmentGoals,omitempty" validate:"omitempty,dive,required"`
	AdditionalNotes  string     `json:"additionalNotes,omitempty" validate:"max=2000"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func inputValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate checks the parameters against their schema
func (p *InputParameters) Validate() error {
	if err := inputValidator().Struct(p); err != nil {
		return fmt.Errorf("invalid report input: %w", err)
	}
	return nil
}

// DebitDescription is the ledger description for the credit paying for this report
func (p *InputParameters) DebitDescription() string {
	return fmt.Sprintf("%s analysis for %s", p.ReportType, p.PropertyAddress)
}

// RefundDescription is the ledger description for the refund of a failed report
func (p *InputParameters) RefundDescription() string {
	return "Refund for failed analysis: " + p.PropertyAddress
}
