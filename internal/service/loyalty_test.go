package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/apperr"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/model"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierFromPoints(t *testing.T) {
	cases := []struct {
		points int64
		want   model.Tier
	}{
		{0, model.TierRegular},
		{99, model.TierRegular},
		{100, model.TierSilver},
		{499, model.TierSilver},
		{500, model.TierGold},
		{999, model.TierGold},
		{1000, model.TierPlatinum},
		{25000, model.TierPlatinum},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, TierFromPoints(c.points), "points=%d", c.points)
	}
}

func TestPointsFor(t *testing.T) {
	cases := []struct {
		amount float64
		want   int64
	}{
		{0, 0},
		{-40, 0},
		{9.99, 0},
		{10, 1},
		{59, 5},
		{150, 15},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, PointsFor(c.amount), "amount=%v", c.amount)
	}
}

func TestApplyDiscount(t *testing.T) {
	cases := []struct {
		name         string
		amount       float64
		tier         model.Tier
		wantDiscount float64
		wantFinal    float64
	}{
		{"regular pays full", 200, model.TierRegular, 0, 200},
		{"silver", 200, model.TierSilver, 10, 190},
		{"gold", 200, model.TierGold, 20, 180},
		{"platinum", 200, model.TierPlatinum, 30, 170},
		{"rounded", 75, model.TierSilver, 4, 71},
		{"unknown tier", 80, model.Tier("diamond"), 0, 80},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			discount, final := ApplyDiscount(c.amount, c.tier)
			assert.Equal(t, c.wantDiscount, discount)
			assert.Equal(t, c.wantFinal, final)
		})
	}
}

func TestRecordVisit(t *testing.T) {
	ctx := context.Background()
	svc := NewLoyaltyService(repository.NewMemoryStore())

	first, err := svc.RecordVisit(ctx, "ab12", 50, testNow)
	require.NoError(t, err)
	assert.Equal(t, testNow, first.FirstVisit)

	second := testNow.Add(24 * time.Hour)
	h, err := svc.RecordVisit(ctx, "AB12", 60, second)
	require.NoError(t, err)

	assert.Equal(t, "AB12", h.Plate)
	assert.Equal(t, 2, h.VisitCount)
	assert.Equal(t, 110.0, h.TotalSpent)
	assert.Equal(t, int64(11), h.Points)
	assert.Equal(t, model.TierRegular, h.Tier)
	assert.Equal(t, testNow, h.FirstVisit)
	assert.Equal(t, second, h.LastVisit)

	h, err = svc.RecordVisit(ctx, "AB12", 900, second)
	require.NoError(t, err)
	assert.Equal(t, int64(101), h.Points)
	assert.Equal(t, model.TierSilver, h.Tier)

	_, err = svc.RecordVisit(ctx, "AB12", -1, second)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.RecordVisit(ctx, " ", 10, second)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRecordVisitConcurrent(t *testing.T) {
	ctx := context.Background()
	svc := NewLoyaltyService(repository.NewMemoryStore())

	const visits = 50
	var wg sync.WaitGroup
	for i := 0; i < visits; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordVisit(ctx, "AB12", 10, testNow)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	h, err := svc.History(ctx, "AB12")
	require.NoError(t, err)
	assert.Equal(t, visits, h.VisitCount)
	assert.Equal(t, int64(visits), h.Points)
	assert.Equal(t, float64(visits*10), h.TotalSpent)
}

func TestQuote(t *testing.T) {
	ctx := context.Background()
	svc := NewLoyaltyService(repository.NewMemoryStore())

	q, err := svc.Quote(ctx, "new1", 100)
	require.NoError(t, err)
	assert.Equal(t, model.TierRegular, q.Tier)
	assert.Equal(t, 100.0, q.Final)

	_, err = svc.RecordVisit(ctx, "GOLD1", 10000, testNow)
	require.NoError(t, err)
	q, err = svc.Quote(ctx, "gold1", 100)
	require.NoError(t, err)
	assert.Equal(t, model.TierPlatinum, q.Tier)
	assert.Equal(t, 15.0, q.Percent)
	assert.Equal(t, 15.0, q.Discount)
	assert.Equal(t, 85.0, q.Final)

	_, err = svc.Quote(ctx, "gold1", -5)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
