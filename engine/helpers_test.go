package engine

import (
	"time"
)

type item struct {
	ID        string
	Kind      string
	Category  string
	Condition string
	Status    string
	Title     string
	Desc      string
	Stock     string
	Currency  string
	Price     float64
	Created   time.Time
}

var itemAdapter = NewDomainAdapter[item]().
	Dimension("id", func(it item) string { return it.ID }).
	Dimension(DimType, func(it item) string { return it.Kind }).
	Dimension(DimCategory, func(it item) string { return it.Category }).
	Dimension(DimCondition, func(it item) string { return it.Condition }).
	Dimension(DimStatus, func(it item) string { return it.Status }).
	Dimension(DimTitle, func(it item) string { return it.Title }).
	Dimension(DimDescription, func(it item) string { return it.Desc }).
	Dimension(DimStock, func(it item) string { return it.Stock }).
	Dimension(DimCurrency, func(it item) string { return it.Currency }).
	Dimension(DimMonth, func(it item) string { return it.Created.Format(MonthFormat) }).
	Measure(MeasurePrice, func(it item) float64 { return it.Price }).
	Measure(MeasureTimestamp, func(it item) float64 { return float64(it.Created.Unix()) })

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ids(items []item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func catalog() []item {
	return []item{
		{ID: "1", Kind: "physical", Category: "camera", Condition: "new", Status: "listed", Title: "Cinema Camera", Desc: "Full-frame body", Stock: StockIn, Price: 2500, Created: day("2024-01-10")},
		{ID: "2", Kind: "digital", Category: "lut", Status: "listed", Title: "Film LUT Pack", Desc: "Colour grading presets", Price: 30, Created: day("2024-02-01")},
		{ID: "3", Kind: "physical", Category: "lighting", Condition: "good", Status: "sold", Title: "LED Panel", Desc: "Bi-colour light", Stock: StockOut, Price: 180, Created: day("2024-03-05")},
		{ID: "4", Kind: "physical", Category: "lighting", Condition: "fair", Status: "listed", Title: "Fresnel Lamp", Desc: "Tungsten CAMERA light", Stock: StockBackorder, Price: 180, Created: day("2024-03-05")},
		{ID: "5", Kind: "digital", Category: "music", Status: "draft", Title: "Score Library", Desc: "Royalty-free tracks", Price: 6000, Created: day("2023-12-24")},
	}
}

func ptr[T any](v T) *T { return &v }
