package models

// Requests for the read-only result-set endpoints.

type IndicatorsRequest struct {
	Country      string `query:"country" json:"country" validate:"omitempty,len=3"`
	Year         int    `query:"year" json:"year" validate:"omitempty,gte=1950,lte=2100"`
	MaxYearsBack int    `query:"max_years_back" json:"max_years_back" default:"0" validate:"gte=0,lte=10"`
}

type ResolvedRequest struct {
	Indicator string `query:"indicator" json:"indicator" validate:"required"`
	Country   string `query:"country" json:"country" validate:"omitempty,len=3"`
}

type AggregatesRequest struct {
	Year int `query:"year" json:"year" validate:"omitempty,gte=1950,lte=2100"`
}

type PyramidRequest struct {
	Country string `query:"country" json:"country" validate:"required,len=3"`
	Year    int    `query:"year" json:"year" validate:"required,gte=1950,lte=2100"`
}

type RefreshRequest struct {
	Async bool `query:"async" json:"async" default:"false"`
}
