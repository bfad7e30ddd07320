package recommend

import "github.com/jeffhong58/ai-stock-selector/internal/contracts"

// Weights combines the three sub-scores into one composite. They are
// kept normalized to sum 1 so the composite stays in [0,100].
type Weights struct {
	Technical   float64
	Flow        float64
	Fundamental float64
}

// normalize rescales the weights to sum 1, flooring each at 0.05 so no
// sub-score ever fully disappears from a category.
func (w Weights) normalize() Weights {
	const floor = 0.05
	if w.Technical < floor {
		w.Technical = floor
	}
	if w.Flow < floor {
		w.Flow = floor
	}
	if w.Fundamental < floor {
		w.Fundamental = floor
	}
	sum := w.Technical + w.Flow + w.Fundamental
	return Weights{
		Technical:   w.Technical / sum,
		Flow:        w.Flow / sum,
		Fundamental: w.Fundamental / sum,
	}
}

// ForCategory tilts the base weights toward the factor each category
// trades on: short horizons lean technical, long horizons lean
// fundamental, sector rotation follows institutional money.
func (w Weights) ForCategory(category contracts.Category) Weights {
	switch category {
	case contracts.CategoryShortTerm:
		w.Technical += 0.15
		w.Fundamental -= 0.15
	case contracts.CategoryLongTerm:
		w.Technical -= 0.20
		w.Fundamental += 0.20
	case contracts.CategorySectorRotation:
		w.Technical -= 0.10
		w.Fundamental -= 0.10
		w.Flow += 0.20
	}
	return w.normalize()
}

// composite applies the weights and clamps the result to [0,100].
func (w Weights) composite(technical, flow, fundamental float64) float64 {
	score := technical*w.Technical + flow*w.Flow + fundamental*w.Fundamental
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
