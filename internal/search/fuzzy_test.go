package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartialRatio_ExactSubstringScoresMax(t *testing.T) {
	score := PartialRatio("deploy", "please deploy the new build to staging")
	assert.Equal(t, 100, score)
}

func TestPartialRatio_NoOverlapScoresLow(t *testing.T) {
	score := PartialRatio("xyzxyz", "completely unrelated content here")
	assert.Less(t, score, 50)
}

func TestPartialRatio_CaseInsensitive(t *testing.T) {
	assert.Equal(t, PartialRatio("Deploy", "deploy"), PartialRatio("deploy", "deploy"))
}

func TestPartialRatio_EmptyInputsScoreZero(t *testing.T) {
	assert.Equal(t, 0, PartialRatio("", "something"))
	assert.Equal(t, 0, PartialRatio("something", ""))
}

func TestPartialRatio_TypoStillScoresHigh(t *testing.T) {
	score := PartialRatio("depoy", "please deploy the new build")
	assert.GreaterOrEqual(t, score, 60)
}
