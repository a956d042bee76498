package model

import (
	"fmt"
	"math"
)

// LogisticClassifier is a linear model squashed through the logistic function.
type LogisticClassifier struct {
	weights   []float64
	intercept float64
}

// NewLogisticClassifier copies the weights.
func NewLogisticClassifier(weights []float64, intercept float64) *LogisticClassifier {
	return &LogisticClassifier{weights: append([]float64(nil), weights...), intercept: intercept}
}

// InputWidth is the number of inputs the classifier expects.
func (c *LogisticClassifier) InputWidth() int {
	return len(c.weights)
}

// PredictProbability returns P(duplicate) in [0, 1].
func (c *LogisticClassifier) PredictProbability(input []float64) (float64, error) {
	if len(input) != len(c.weights) {
		return 0, fmt.Errorf("classifier expects %d inputs, got %d", len(c.weights), len(input))
	}
	z := c.intercept
	for i, x := range input {
		if x == 0 {
			continue
		}
		z += c.weights[i] * x
	}
	return sigmoid(z), nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
