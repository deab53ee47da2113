package export

import "go-inventory-ledger/internal/model"

// Series is a label/value pair list ready for a bar or pie chart.
type Series struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

type Charts struct {
	Category  Series `json:"category"`
	Warehouse Series `json:"warehouse"`
}

// QuantitySeries plots stock units per group.
func QuantitySeries(groups []model.GroupTotal) Series {
	s := Series{Labels: make([]string, 0, len(groups)), Values: make([]float64, 0, len(groups))}
	for _, g := range groups {
		s.Labels = append(s.Labels, g.Name)
		s.Values = append(s.Values, float64(g.Quantity))
	}
	return s
}

// ValueSeries plots stock value per group.
func ValueSeries(groups []model.GroupTotal) Series {
	s := Series{Labels: make([]string, 0, len(groups)), Values: make([]float64, 0, len(groups))}
	for _, g := range groups {
		s.Labels = append(s.Labels, g.Name)
		s.Values = append(s.Values, g.Value.InexactFloat64())
	}
	return s
}

// BuildCharts derives the report charts from grouping output only.
func BuildCharts(byCategory, byWarehouse []model.GroupTotal) Charts {
	return Charts{
		Category:  QuantitySeries(byCategory),
		Warehouse: ValueSeries(byWarehouse),
	}
}
