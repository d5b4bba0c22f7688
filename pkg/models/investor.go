package models

// Investor is one row from the investor directory CSV
type Investor struct {
	Name            string
	Email           string
	FocusArea       string
	InvestmentStage string
	Industry        string
	Description     string
}
