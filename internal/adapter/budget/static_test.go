package budget

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/fintrack/internal/domain"
)

func TestStaticPolicy_Limit(t *testing.T) {
	p, err := NewStaticPolicy(map[string]string{"Food": "50000", " transport ": "12000.50"})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())

	ctx := context.Background()

	limit, ok := p.Limit(ctx, "alice", "food")
	require.True(t, ok)
	assert.True(t, limit.Equal(decimal.NewFromInt(50000)))

	limit, ok = p.Limit(ctx, "bob", "TRANSPORT")
	require.True(t, ok)
	assert.Equal(t, "12000.5", limit.String())

	_, ok = p.Limit(ctx, "alice", "rent")
	assert.False(t, ok)
}

func TestStaticPolicy_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]string
		want error
	}{
		{name: "not a number", raw: map[string]string{"food": "lots"}, want: domain.ErrInvalidAmount},
		{name: "zero", raw: map[string]string{"food": "0"}, want: domain.ErrInvalidAmount},
		{name: "negative", raw: map[string]string{"food": "-5"}, want: domain.ErrInvalidAmount},
		{name: "blank category", raw: map[string]string{"  ": "5"}, want: domain.ErrInvalidCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStaticPolicy(tt.raw)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStaticPolicy_Empty(t *testing.T) {
	p, err := NewStaticPolicy(nil)
	require.NoError(t, err)

	_, ok := p.Limit(context.Background(), "alice", "food")
	assert.False(t, ok)
}
