package metric

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// noLossRatio is reported by the ratios below when there is nothing to divide by
const noLossRatio = 10

// Mean calculates the arithmetic mean of the values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// Volatility is the sample standard deviation of the values
func Volatility(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// Sharpe is the mean return over its volatility, zero risk-free rate
func Sharpe(values []float64) float64 {
	volatility := Volatility(values)
	if volatility == 0 {
		return 0
	}
	return Mean(values) / volatility
}

// Payoff calculates the ratio of the average gain to the average loss.
func Payoff(values []float64) float64 {
	gains, losses := partition(values)
	if len(losses) == 0 || len(gains) == 0 {
		return noLossRatio
	}

	avgLoss := stat.Mean(losses, nil)
	if avgLoss == 0 {
		return noLossRatio
	}

	return math.Abs(stat.Mean(gains, nil) / avgLoss)
}

// ProfitFactor calculates the ratio of total gains to total losses.
func ProfitFactor(values []float64) float64 {
	var gains, losses float64
	for _, value := range values {
		if value >= 0 {
			gains += value
		} else {
			losses += value
		}
	}

	if losses == 0 {
		return noLossRatio
	}

	return math.Abs(gains / losses)
}

// partition separates gains from losses, losses as absolute values
func partition(values []float64) (gains []float64, losses []float64) {
	for _, value := range values {
		if value >= 0 {
			gains = append(gains, value)
		} else {
			losses = append(losses, math.Abs(value))
		}
	}
	return gains, losses
}
