package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePlan(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Plan
	}{
		{"basic lowercase", "basic", PlanBasic},
		{"professional lowercase", "professional", PlanProfessional},
		{"premium lowercase", "premium", PlanPremium},
		{"mixed case", "PrOfEsSiOnAl", PlanProfessional},
		{"surrounding whitespace", "  premium  ", PlanPremium},
		{"empty falls back to basic", "", PlanBasic},
		{"unknown falls back to basic", "enterprise", PlanBasic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePlan(tt.input))
		})
	}
}

func TestValidPlan(t *testing.T) {
	assert.True(t, ValidPlan("basic"))
	assert.True(t, ValidPlan("Professional"))
	assert.True(t, ValidPlan(" PREMIUM "))
	assert.False(t, ValidPlan(""))
	assert.False(t, ValidPlan("enterprise"))
}

func TestQuotaFor_PlanCaps(t *testing.T) {
	tests := []struct {
		name         string
		plan         Plan
		wantProducts Limit
		wantLeads    Limit
		wantMessages Limit
	}{
		{"basic", PlanBasic, 3, 5, 5},
		{"professional", PlanProfessional, 20, Unlimited, Unlimited},
		{"premium", PlanPremium, Unlimited, Unlimited, Unlimited},
		{"unknown plan uses basic caps", Plan("enterprise"), 3, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := QuotaFor(tt.plan)
			assert.Equal(t, tt.wantProducts, q.MaxProducts)
			assert.Equal(t, tt.wantLeads, q.MaxLeads)
			assert.Equal(t, tt.wantMessages, q.MaxBoutiqueMessages)

			assert.Equal(t, tt.wantProducts, q.LimitFor(QuotaTypeProduct))
			assert.Equal(t, tt.wantLeads, q.LimitFor(QuotaTypeLead))
			assert.Equal(t, tt.wantMessages, q.LimitFor(QuotaTypeBoutiqueMessage))
		})
	}
}

func TestLimit_Allows(t *testing.T) {
	tests := []struct {
		name  string
		limit Limit
		used  int64
		want  bool
	}{
		{"below cap", 3, 2, true},
		{"at cap", 3, 3, false},
		{"over cap", 3, 4, false},
		{"zero cap admits nothing", 0, 0, false},
		{"unlimited admits at zero", Unlimited, 0, true},
		{"unlimited admits at large usage", Unlimited, 1_000_000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.limit.Allows(tt.used))
		})
	}
}

func TestLimit_IsUnlimited(t *testing.T) {
	assert.True(t, Unlimited.IsUnlimited())
	assert.False(t, Limit(0).IsUnlimited())
	assert.False(t, Limit(3).IsUnlimited())
}

// The deny wording is client-facing contract; upgrade flows key off it.
func TestQuotaDenyMessage(t *testing.T) {
	tests := []struct {
		name     string
		plan     Plan
		resource QuotaType
		limit    Limit
		want     string
	}{
		{
			"basic products",
			PlanBasic, QuotaTypeProduct, 3,
			"Your Basic plan allows only 3 products. Upgrade to add more.",
		},
		{
			"basic leads",
			PlanBasic, QuotaTypeLead, 5,
			"Your Basic plan allows only 5 leads. Upgrade to receive more.",
		},
		{
			"basic messages",
			PlanBasic, QuotaTypeBoutiqueMessage, 5,
			"Your Basic plan allows only 5 sent messages. Upgrade to continue.",
		},
		{
			"professional products",
			PlanProfessional, QuotaTypeProduct, 20,
			"Your Professional plan allows only 20 products. Upgrade to add more.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuotaDenyMessage(tt.plan, tt.resource, tt.limit))
		})
	}
}

func TestQuotaExceededError(t *testing.T) {
	err := QuotaExceeded("product.add", PlanBasic, QuotaTypeProduct, 3)

	assert.Equal(t, EQUOTA, ErrorCode(err))
	assert.True(t, IsQuotaExceeded(err))
	assert.Equal(t, "Your Basic plan allows only 3 products. Upgrade to add more.", ErrorMessage(err))
}
