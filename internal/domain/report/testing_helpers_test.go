package report

func validInput() *InputParameters {
	size := 120.5
	return &InputParameters{
		PropertyAddress:  "12 Harbour Road, Bristol",
		PropertyPostcode: "BS1 5TT",
		PurchasePrice:    450000,
		PropertyType:     "residential",
		CurrentCondition: "operational",
		PropertySize:     &size,
		ReportType:       ReportTypeProfessional,
		DevelopmentGoals: []string{"hmo_conversion"},
	}
}
