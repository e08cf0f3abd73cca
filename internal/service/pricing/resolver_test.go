package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aledhemtek/BillingService/internal/domain"
)

var refTime = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func datePtr(t time.Time) *time.Time { return &t }

func TestResolveUnitPrice_OpenEndedRateAlwaysValid(t *testing.T) {
	resolver := NewResolver()
	task := &domain.Task{Rates: []domain.Rate{{Price: 42.0}}}

	// Тариф без окна действует в любой момент
	assert.Equal(t, 42.0, resolver.ResolveUnitPrice(task, refTime))
	assert.Equal(t, 42.0, resolver.ResolveUnitPrice(task, refTime.AddDate(-10, 0, 0)))
	assert.Equal(t, 42.0, resolver.ResolveUnitPrice(task, refTime.AddDate(10, 0, 0)))
}

func TestResolveUnitPrice_NoRates(t *testing.T) {
	resolver := NewResolver()

	assert.Equal(t, 0.0, resolver.ResolveUnitPrice(&domain.Task{}, refTime))
	assert.Equal(t, 0.0, resolver.ResolveUnitPrice(nil, refTime))
}

func TestResolveUnitPrice_NoValidRates(t *testing.T) {
	resolver := NewResolver()
	task := &domain.Task{Rates: []domain.Rate{
		{Price: 30.0, EndDate: datePtr(refTime.AddDate(0, -1, 0))},
		{Price: 40.0, StartDate: datePtr(refTime.AddDate(0, 1, 0))},
	}}

	assert.Equal(t, 0.0, resolver.ResolveUnitPrice(task, refTime))
}

func TestResolveUnitPrice_MinimumOfSimultaneouslyValid(t *testing.T) {
	resolver := NewResolver()
	task := &domain.Task{Rates: []domain.Rate{
		{Price: 60.0},
		{Price: 45.0, StartDate: datePtr(refTime.AddDate(0, -1, 0)), EndDate: datePtr(refTime.AddDate(0, 1, 0))},
		{Price: 80.0, StartDate: datePtr(refTime.AddDate(0, -2, 0))},
		{Price: 10.0, EndDate: datePtr(refTime.AddDate(0, -1, 0))}, // истёк, не участвует
	}}

	// Из одновременно действующих тарифов побеждает минимальный
	assert.Equal(t, 45.0, resolver.ResolveUnitPrice(task, refTime))
}

func TestResolveTotal(t *testing.T) {
	resolver := NewResolver()
	taskA := &domain.Task{Rates: []domain.Rate{{Price: 50.0}}}
	taskB := &domain.Task{Rates: []domain.Rate{{Price: 30.0}}}
	taskEmpty := &domain.Task{}

	total := resolver.ResolveTotal([]Line{
		{Task: taskA, Quantity: 2},
		{Task: taskB, Quantity: 1},
		{Task: taskEmpty, Quantity: 5},
	}, refTime)

	assert.Equal(t, 130.0, total)
}

func TestResolveTotal_Empty(t *testing.T) {
	resolver := NewResolver()

	assert.Equal(t, 0.0, resolver.ResolveTotal(nil, refTime))
}
