package recommend

import (
	"math"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
)

// Sub-score computation. Every scorer starts from a neutral 50 and
// shifts by bounded increments, so the result always lands in [0,100]
// after clamping and missing inputs degrade toward neutral instead of
// punishing the symbol.

const (
	rsiOverbought = 70.0
	rsiOversold   = 30.0

	stochasticHot  = 80.0
	stochasticCold = 20.0

	marginPressureRatio = 30.0
)

func clampScore(score float64) float64 {
	return math.Max(0, math.Min(100, score))
}

// technicalScore rates the momentum posture of one snapshot.
func technicalScore(bar *contracts.PriceBar, snap *contracts.IndicatorSnapshot) float64 {
	score := 50.0

	if snap.RSI14 != nil {
		switch rsi := *snap.RSI14; {
		case rsi >= rsiOverbought:
			score -= 10
		case rsi <= rsiOversold:
			score += 10
		default:
			// Mild trend credit inside the neutral band
			score += (rsi - 50) * 0.2
		}
	}

	if snap.MACDHistogram != nil {
		if *snap.MACDHistogram > 0 {
			score += 10
		} else if *snap.MACDHistogram < 0 {
			score -= 10
		}
	}

	if snap.MA5 != nil && snap.MA20 != nil {
		switch {
		case bar.Close > *snap.MA5 && *snap.MA5 > *snap.MA20:
			score += 15
		case bar.Close < *snap.MA5 && *snap.MA5 < *snap.MA20:
			score -= 15
		case bar.Close > *snap.MA20:
			score += 5
		default:
			score -= 5
		}
	}

	if snap.StochasticK != nil && snap.StochasticD != nil {
		k, d := *snap.StochasticK, *snap.StochasticD
		if k > d && k < stochasticHot {
			score += 10
		} else if k < d && k > stochasticCold {
			score -= 10
		}
	}

	if snap.BBUpper != nil && snap.BBLower != nil {
		if bar.Close >= *snap.BBUpper {
			score -= 5
		} else if bar.Close <= *snap.BBLower {
			score += 5
		}
	}

	return clampScore(score)
}

// flowScore rates institutional positioning from recent flow rows
// (ascending by date) and the latest margin balances.
func flowScore(flows []contracts.InstitutionalFlow, margin *contracts.MarginBalance) float64 {
	score := 50.0

	if len(flows) > 0 {
		latest := flows[len(flows)-1]

		// Net pressure as a share of total institutional turnover
		turnover := latest.ForeignBuy + latest.ForeignSell +
			latest.TrustBuy + latest.TrustSell +
			latest.DealerBuy + latest.DealerSell
		if turnover > 0 {
			ratio := float64(latest.TotalNet) / float64(turnover)
			score += math.Max(-1, math.Min(1, ratio)) * 20
		}

		if latest.ForeignNet > 0 {
			score += 10
		} else if latest.ForeignNet < 0 {
			score -= 10
		}

		score += float64(netStreak(flows)) * 4
	}

	if margin != nil && margin.ShortMarginRatio >= marginPressureRatio {
		score -= 10
	}

	return clampScore(score)
}

// netStreak counts consecutive trailing days of one-sided total net
// flow, positive for buying, negative for selling, capped at ±5.
func netStreak(flows []contracts.InstitutionalFlow) int {
	if len(flows) == 0 {
		return 0
	}

	direction := 0
	if flows[len(flows)-1].TotalNet > 0 {
		direction = 1
	} else if flows[len(flows)-1].TotalNet < 0 {
		direction = -1
	} else {
		return 0
	}

	streak := 0
	for i := len(flows) - 1; i >= 0 && streak < 5; i-- {
		if direction == 1 && flows[i].TotalNet > 0 {
			streak++
		} else if direction == -1 && flows[i].TotalNet < 0 {
			streak++
		} else {
			break
		}
	}
	return streak * direction
}

// fundamentalScore rates the latest quarterly filing. A missing filing
// reads neutral; confidence accounting happens in the engine.
func fundamentalScore(statement *contracts.FinancialStatement) float64 {
	if statement == nil {
		return 50.0
	}

	score := 50.0

	switch {
	case statement.ROE >= 15:
		score += 20
	case statement.ROE >= 8:
		score += 10
	case statement.ROE < 0:
		score -= 20
	}

	if statement.EPS > 0 {
		score += 10
	} else if statement.EPS < 0 {
		score -= 10
	}

	if statement.DebtRatio > 0 {
		if statement.DebtRatio <= 40 {
			score += 10
		} else if statement.DebtRatio >= 70 {
			score -= 10
		}
	}

	if statement.OperatingCashFlow > 0 {
		score += 10
	} else if statement.OperatingCashFlow < 0 {
		score -= 5
	}

	return clampScore(score)
}
