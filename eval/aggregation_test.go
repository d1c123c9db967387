package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateAnyTrueEmptyIsFalse(t *testing.T) {
	res := aggregateAnyTrue(nil)
	assert.Equal(t, Success, res.Status)
	assert.Equal(t, false, res.Value)
}

func TestAggregateAnyTrueFindsOneTrue(t *testing.T) {
	res := aggregateAnyTrue([]CriterionResult{
		{Status: Success, Value: false},
		{Status: Success, Value: true},
	})
	assert.Equal(t, Success, res.Status)
	assert.Equal(t, true, res.Value)
	assert.Contains(t, res.Reason, "At least one batch")
}

func TestAggregateAnyTrueOrderIndependent(t *testing.T) {
	a := aggregateAnyTrue([]CriterionResult{{Status: Success, Value: true}, {Status: Success, Value: false}})
	b := aggregateAnyTrue([]CriterionResult{{Status: Success, Value: false}, {Status: Success, Value: true}})
	assert.Equal(t, a.Value, b.Value)
}

func TestAggregateAllTrueEmptyIsVacuouslyTrue(t *testing.T) {
	res := aggregateAllTrue(nil)
	assert.Equal(t, Success, res.Status)
	assert.Equal(t, true, res.Value)
}

func TestAggregateAllTrueOneFalseFails(t *testing.T) {
	res := aggregateAllTrue([]CriterionResult{
		{Status: Success, Value: true},
		{Status: Success, Value: false},
	})
	assert.Equal(t, false, res.Value)
}

func TestAggregateErrorPropagates(t *testing.T) {
	res := aggregateAnyTrue([]CriterionResult{
		{Status: Success, Value: true},
		{Status: Error, Reason: "boom"},
	})
	assert.Equal(t, Error, res.Status)
	assert.Equal(t, "boom", res.Reason)
}

func TestAggregateTimeoutPropagatesWhenNoError(t *testing.T) {
	res := aggregateAllTrue([]CriterionResult{
		{Status: Success, Value: true},
		{Status: Timeout},
	})
	assert.Equal(t, Timeout, res.Status)
}

func TestAggregateMergeListsDedupesPreservingFirstSeenOrder(t *testing.T) {
	res := aggregateMergeLists([]CriterionResult{
		{Status: Success, Value: []any{"a", "b"}},
		{Status: Success, Value: []any{"b", "c"}},
	})
	assert.Equal(t, []any{"a", "b", "c"}, res.Value)
}

func TestAggregateMergeListsEmptyIsEmptySlice(t *testing.T) {
	res := aggregateMergeLists(nil)
	assert.Equal(t, []any{}, res.Value)
}

func TestAggregateMergeListsOrderIndependentGivenFixedIndexOrder(t *testing.T) {
	a := aggregateMergeLists([]CriterionResult{
		{Status: Success, Value: []any{"x"}},
		{Status: Success, Value: []any{"y"}},
	})
	b := aggregateMergeLists([]CriterionResult{
		{Status: Success, Value: []any{"y"}},
		{Status: Success, Value: []any{"x"}},
	})
	assert.ElementsMatch(t, a.Value, b.Value)
}
