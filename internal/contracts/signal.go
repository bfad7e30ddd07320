package contracts

import (
	"encoding/json"
	"fmt"
)

// SignalKind tags the concrete type of a rationale signal.
type SignalKind string

const (
	KindMovingAverageCross   SignalKind = "moving_average_cross"
	KindRSIOverbought        SignalKind = "rsi_overbought"
	KindRSIOversold          SignalKind = "rsi_oversold"
	KindMACDCross            SignalKind = "macd_cross"
	KindStochasticCross      SignalKind = "stochastic_cross"
	KindBollingerTouch       SignalKind = "bollinger_touch"
	KindInstitutionalNetBuy  SignalKind = "institutional_net_buy"
	KindInstitutionalNetSell SignalKind = "institutional_net_sell"
	KindMarginPressure       SignalKind = "margin_pressure"
	KindFundamentalStrength  SignalKind = "fundamental_strength"
	KindFundamentalWeakness  SignalKind = "fundamental_weakness"
)

// Signal is one strongly typed entry in a recommendation rationale.
// Consumers switch on the concrete type instead of parsing free text.
type Signal interface {
	Kind() SignalKind
}

// MovingAverageCross records a price crossing relative to a moving
// average pair.
type MovingAverageCross struct {
	FastWindow int  `json:"fast_window"`
	SlowWindow int  `json:"slow_window"`
	Bullish    bool `json:"bullish"`
}

func (MovingAverageCross) Kind() SignalKind { return KindMovingAverageCross }

// RSIOverbought records RSI above the overbought threshold.
type RSIOverbought struct {
	RSI       float64 `json:"rsi"`
	Threshold float64 `json:"threshold"`
}

func (RSIOverbought) Kind() SignalKind { return KindRSIOverbought }

// RSIOversold records RSI below the oversold threshold.
type RSIOversold struct {
	RSI       float64 `json:"rsi"`
	Threshold float64 `json:"threshold"`
}

func (RSIOversold) Kind() SignalKind { return KindRSIOversold }

// MACDCross records the MACD line relative to its signal line.
type MACDCross struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
	Bullish   bool    `json:"bullish"`
}

func (MACDCross) Kind() SignalKind { return KindMACDCross }

// StochasticCross records the K/D oscillator position.
type StochasticCross struct {
	K       float64 `json:"k"`
	D       float64 `json:"d"`
	Bullish bool    `json:"bullish"`
}

func (StochasticCross) Kind() SignalKind { return KindStochasticCross }

// BollingerTouch records the close touching a Bollinger band.
type BollingerTouch struct {
	Close     float64 `json:"close"`
	Band      float64 `json:"band"`
	UpperBand bool    `json:"upper_band"`
}

func (BollingerTouch) Kind() SignalKind { return KindBollingerTouch }

// InstitutionalNetBuy records aggregate institutional net buying.
type InstitutionalNetBuy struct {
	ForeignNet int64 `json:"foreign_net"`
	TrustNet   int64 `json:"trust_net"`
	DealerNet  int64 `json:"dealer_net"`
	TotalNet   int64 `json:"total_net"`
}

func (InstitutionalNetBuy) Kind() SignalKind { return KindInstitutionalNetBuy }

// InstitutionalNetSell records aggregate institutional net selling.
type InstitutionalNetSell struct {
	ForeignNet int64 `json:"foreign_net"`
	TrustNet   int64 `json:"trust_net"`
	DealerNet  int64 `json:"dealer_net"`
	TotalNet   int64 `json:"total_net"`
}

func (InstitutionalNetSell) Kind() SignalKind { return KindInstitutionalNetSell }

// MarginPressure records a high short-to-margin balance ratio.
type MarginPressure struct {
	ShortMarginRatio float64 `json:"short_margin_ratio"`
}

func (MarginPressure) Kind() SignalKind { return KindMarginPressure }

// FundamentalStrength records favorable fundamentals from the latest
// filing.
type FundamentalStrength struct {
	ROE       float64 `json:"roe"`
	EPS       float64 `json:"eps"`
	DebtRatio float64 `json:"debt_ratio"`
}

func (FundamentalStrength) Kind() SignalKind { return KindFundamentalStrength }

// FundamentalWeakness records unfavorable fundamentals.
type FundamentalWeakness struct {
	ROE       float64 `json:"roe"`
	EPS       float64 `json:"eps"`
	DebtRatio float64 `json:"debt_ratio"`
}

func (FundamentalWeakness) Kind() SignalKind { return KindFundamentalWeakness }

// Rationale is an ordered, tagged list of the signals that contributed
// to a recommendation. It round-trips through JSON as
// [{"kind": ..., "data": {...}}, ...] for storage in a jsonb column.
type Rationale []Signal

type signalEnvelope struct {
	Kind SignalKind      `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON implements json.Marshaler.
func (r Rationale) MarshalJSON() ([]byte, error) {
	envelopes := make([]signalEnvelope, 0, len(r))
	for _, sig := range r {
		data, err := json.Marshal(sig)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, signalEnvelope{Kind: sig.Kind(), Data: data})
	}
	return json.Marshal(envelopes)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Rationale) UnmarshalJSON(data []byte) error {
	var envelopes []signalEnvelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return err
	}

	signals := make(Rationale, 0, len(envelopes))
	for _, env := range envelopes {
		sig, err := decodeSignal(env)
		if err != nil {
			return err
		}
		signals = append(signals, sig)
	}

	*r = signals
	return nil
}

func decodeSignal(env signalEnvelope) (Signal, error) {
	unmarshal := func(dest Signal) (Signal, error) {
		if err := json.Unmarshal(env.Data, dest); err != nil {
			return nil, err
		}
		return dest, nil
	}

	switch env.Kind {
	case KindMovingAverageCross:
		s, err := unmarshal(&MovingAverageCross{})
		if err != nil {
			return nil, err
		}
		return *s.(*MovingAverageCross), nil
	case KindRSIOverbought:
		s, err := unmarshal(&RSIOverbought{})
		if err != nil {
			return nil, err
		}
		return *s.(*RSIOverbought), nil
	case KindRSIOversold:
		s, err := unmarshal(&RSIOversold{})
		if err != nil {
			return nil, err
		}
		return *s.(*RSIOversold), nil
	case KindMACDCross:
		s, err := unmarshal(&MACDCross{})
		if err != nil {
			return nil, err
		}
		return *s.(*MACDCross), nil
	case KindStochasticCross:
		s, err := unmarshal(&StochasticCross{})
		if err != nil {
			return nil, err
		}
		return *s.(*StochasticCross), nil
	case KindBollingerTouch:
		s, err := unmarshal(&BollingerTouch{})
		if err != nil {
			return nil, err
		}
		return *s.(*BollingerTouch), nil
	case KindInstitutionalNetBuy:
		s, err := unmarshal(&InstitutionalNetBuy{})
		if err != nil {
			return nil, err
		}
		return *s.(*InstitutionalNetBuy), nil
	case KindInstitutionalNetSell:
		s, err := unmarshal(&InstitutionalNetSell{})
		if err != nil {
			return nil, err
		}
		return *s.(*InstitutionalNetSell), nil
	case KindMarginPressure:
		s, err := unmarshal(&MarginPressure{})
		if err != nil {
			return nil, err
		}
		return *s.(*MarginPressure), nil
	case KindFundamentalStrength:
		s, err := unmarshal(&FundamentalStrength{})
		if err != nil {
			return nil, err
		}
		return *s.(*FundamentalStrength), nil
	case KindFundamentalWeakness:
		s, err := unmarshal(&FundamentalWeakness{})
		if err != nil {
			return nil, err
		}
		return *s.(*FundamentalWeakness), nil
	default:
		return nil, fmt.Errorf("unknown signal kind %q", env.Kind)
	}
}
