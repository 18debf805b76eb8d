package types

import (
	"github.com/m-mizutani/goerr/v2"
)

// Likelihood represents the likelihood level of a risk
type Likelihood string

const (
	LikelihoodRare     Likelihood = "rare"
	LikelihoodUnlikely Likelihood = "unlikely"
	LikelihoodPossible Likelihood = "possible"
	LikelihoodLikely   Likelihood = "likely"
	LikelihoodVeryHigh Likelihood = "very_high"
)

// AllLikelihoods returns all valid likelihood levels in ordinal order
func AllLikelihoods() []Likelihood {
	return []Likelihood{
		LikelihoodRare,
		LikelihoodUnlikely,
		LikelihoodPossible,
		LikelihoodLikely,
		LikelihoodVeryHigh,
	}
}

// IsValid checks if the likelihood is valid
func (l Likelihood) IsValid() bool {
	switch l {
	case LikelihoodRare,
		LikelihoodUnlikely,
		LikelihoodPossible,
		LikelihoodLikely,
		LikelihoodVeryHigh:
		return true
	default:
		return false
	}
}

// String returns the string representation of the likelihood
func (l Likelihood) String() string {
	return string(l)
}

// ParseLikelihood parses a string into a Likelihood
func ParseLikelihood(s string) (Likelihood, error) {
	likelihood := Likelihood(s)
	if !likelihood.IsValid() {
		return "", goerr.New("invalid likelihood", goerr.V("value", s))
	}
	return likelihood, nil
}
