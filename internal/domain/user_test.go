package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMapGatewayStatus(t *testing.T) {
	cases := map[string]SubscriptionStatus{
		"paid":     SubscriptionStatusPaid,
		"active":   SubscriptionStatusPaid,
		"PAID":     SubscriptionStatusPaid,
		"unpaid":   SubscriptionStatusUnpaid,
		"pending":  SubscriptionStatusUnpaid,
		"canceled": SubscriptionStatusCanceled,
		"ended":    SubscriptionStatusExpired,
		"expired":  SubscriptionStatusExpired,
		"trialing": SubscriptionStatusInactive,
		"":         SubscriptionStatusInactive,
	}

	for input, expected := range cases {
		assert.Equal(t, expected, MapGatewayStatus(input), "status %q", input)
	}
}

func TestIsAnnualPlanName(t *testing.T) {
	assert.True(t, IsAnnualPlanName("Plano Pro Anual"))
	assert.True(t, IsAnnualPlanName("plano anual"))
	assert.False(t, IsAnnualPlanName("Plano Pro Mensal"))
	assert.False(t, IsAnnualPlanName(""))
}

func TestMapPlanNameToNumber(t *testing.T) {
	assert.Equal(t, 1, MapPlanNameToNumber("Plano Iniciante Anual"))
	assert.Equal(t, 2, MapPlanNameToNumber("Especialista"))
	assert.Equal(t, 3, MapPlanNameToNumber("Plano PRO"))
	assert.Equal(t, 0, MapPlanNameToNumber("Basico"))
}

func TestSubscriptionUpdateApply(t *testing.T) {
	now := time.Now()
	status := SubscriptionStatusPaid
	subID := "sub_123"

	user := User{ID: "u1", Email: "user@example.com"}
	update := SubscriptionUpdate{
		SubscriptionID: &subID,
		Status:         &status,
		ExpiresAt:      &now,
		UpdatedAt:      now,
	}
	update.Apply(&user)

	assert.Equal(t, "sub_123", user.SubscriptionID)
	assert.Equal(t, SubscriptionStatusPaid, user.SubscriptionStatus)
	assert.Equal(t, &now, user.SubscriptionExpiresAt)
	assert.Equal(t, now, user.UpdatedAt)
	// Незатронутые поля не меняются
	assert.Equal(t, "user@example.com", user.Email)
	assert.Empty(t, user.PlanName)
}

func TestDetailsOmitsAuthToken(t *testing.T) {
	user := User{
		ID:                 "u1",
		AuthToken:          "secret-token",
		SubscriptionID:     "sub_1",
		SubscriptionStatus: SubscriptionStatusPaid,
		PlanName:           "Plano Pro",
	}

	details := user.Details()
	assert.Equal(t, "sub_1", details.SubscriptionID)
	assert.Equal(t, SubscriptionStatusPaid, details.SubscriptionStatus)
	assert.Equal(t, "Plano Pro", details.PlanName)
}
