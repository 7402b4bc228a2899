package pagarme

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matheusiack20/BackEndAutenticaTeste/internal/domain"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logger.Logger {
	return logger.New(logger.ERROR)
}

func testCard() CardRequest {
	return CardRequest{
		Number:     "4111111111111111",
		HolderName: "JOSE SILVA",
		ExpMonth:   12,
		ExpYear:    2030,
		CVV:        "123",
	}
}

func TestComputeSubscriptionTotal(t *testing.T) {
	// Годовой тариф: половина месячной ставки за 12 месяцев
	assert.Equal(t, int64(59400), ComputeSubscriptionTotal(9900, true))
	assert.Equal(t, int64(9900), ComputeSubscriptionTotal(9900, false))
}

func TestCreateCardDeclineCVVPrefixSkipsGateway(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:           "sk_test",
		BaseURL:          server.URL,
		DeclineCVVPrefix: "6",
		ValidationBINs:   []string{"4111"},
	}, testLogger())

	card := testCard()
	card.CVV = "600"

	_, err := client.CreateCard(context.Background(), "cus_1", card)
	assert.ErrorIs(t, err, domain.ErrGatewayDeclined)
	assert.Zero(t, calls, "gateway must not be called for simulated declines")
}

func TestCreateCardValidationFailureDeletesCard(t *testing.T) {
	var deleted bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/customers/cus_1/cards":
			json.NewEncoder(w).Encode(MaskedCard{ID: "card_1", Brand: "visa", LastFourDigits: "1111"})
		case r.Method == http.MethodPost && r.URL.Path == "/charges":
			json.NewEncoder(w).Encode(Charge{
				ID:              "ch_1",
				Status:          "refused",
				LastTransaction: &LastTransaction{AcquirerMessage: "insufficient funds"},
			})
		case r.Method == http.MethodDelete && r.URL.Path == "/customers/cus_1/cards/card_1":
			deleted = true
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:         "sk_test",
		BaseURL:        server.URL,
		ValidationBINs: []string{"4111"},
	}, testLogger())

	_, err := client.CreateCard(context.Background(), "cus_1", testCard())
	require.ErrorIs(t, err, domain.ErrGatewayDeclined)
	assert.Contains(t, err.Error(), "insufficient funds")
	assert.True(t, deleted, "card token must be deleted after failed validation")
}

func TestCreateCardSucceedsWhenRefundFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/customers/cus_1/cards":
			json.NewEncoder(w).Encode(MaskedCard{ID: "card_1", Brand: "visa", LastFourDigits: "1111"})
		case r.Method == http.MethodPost && r.URL.Path == "/charges":
			json.NewEncoder(w).Encode(Charge{ID: "ch_1", Status: "paid"})
		case r.Method == http.MethodPost && r.URL.Path == "/charges/ch_1/refunds":
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"message": "refund backend down"})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:         "sk_test",
		BaseURL:        server.URL,
		ValidationBINs: []string{"4111"},
	}, testLogger())

	card, err := client.CreateCard(context.Background(), "cus_1", testCard())
	require.NoError(t, err, "refund failure must not fail card creation")
	assert.Equal(t, "card_1", card.ID)
	assert.Equal(t, "1111", card.LastFourDigits)
}

func TestCreateCardSkipsValidationForUnknownBIN(t *testing.T) {
	var chargeCalled bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/customers/cus_1/cards":
			json.NewEncoder(w).Encode(MaskedCard{ID: "card_1"})
		case r.URL.Path == "/charges":
			chargeCalled = true
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:         "sk_test",
		BaseURL:        server.URL,
		ValidationBINs: []string{"5555"},
	}, testLogger())

	_, err := client.CreateCard(context.Background(), "cus_1", testCard())
	require.NoError(t, err)
	assert.False(t, chargeCalled, "card outside validation BIN list must not be charged")
}

func TestCreatePaymentTransactionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Charge{
			ID:              "ch_1",
			Status:          "refused",
			LastTransaction: &LastTransaction{AcquirerMessage: "card declined"},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "sk_test", BaseURL: server.URL}, testLogger())

	_, err := client.CreatePaymentTransaction(context.Background(), "cus_1", "card_1", 9900, "Jose")
	require.ErrorIs(t, err, domain.ErrGatewayDeclined)
	assert.Contains(t, err.Error(), "card declined")
}

func TestCreatePaymentTransactionPendingIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Charge{ID: "ch_1", Status: "processing"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "sk_test", BaseURL: server.URL}, testLogger())

	_, err := client.CreatePaymentTransaction(context.Background(), "cus_1", "card_1", 9900, "Jose")
	assert.ErrorIs(t, err, domain.ErrGatewayTransient)
}

func TestCreateSubscriptionAnnualTotal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		assert.EqualValues(t, 12, payload["interval_count"])
		json.NewEncoder(w).Encode(Subscription{ID: "sub_1", Status: "active"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "sk_test", BaseURL: server.URL}, testLogger())

	sub, err := client.CreateSubscription(context.Background(), "cus_1", "plan_1", "card_1", 9900, "Plano Pro Anual")
	require.NoError(t, err)
	// A * 0.5 * 12
	assert.Equal(t, int64(59400), sub.TotalAmount)
}

func TestCreateSubscriptionConflictReturnsExisting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/subscriptions":
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]string{"message": "Customer already has a subscription"})
		case r.Method == http.MethodGet && r.URL.Path == "/customers/cus_1/subscriptions":
			json.NewEncoder(w).Encode(SubscriptionList{Data: []Subscription{
				{ID: "sub_old", Status: "canceled"},
				{ID: "sub_live", Status: "active"},
			}})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "sk_test", BaseURL: server.URL}, testLogger())

	sub, err := client.CreateSubscription(context.Background(), "cus_1", "plan_1", "card_1", 9900, "Plano Pro")
	require.NoError(t, err)
	assert.Equal(t, "sub_live", sub.ID)
	assert.True(t, sub.AlreadyExisted)
}

func TestCreateSubscriptionValidation(t *testing.T) {
	client := NewClient(Config{APIKey: "sk_test", BaseURL: "http://unreachable.invalid"}, testLogger())

	_, err := client.CreateSubscription(context.Background(), "cus_1", "", "card_1", 0, "Plano Pro")
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.ElementsMatch(t, []string{"planId", "finalAmount"}, verrs.Fields())
}

func TestDeclineReasonTable(t *testing.T) {
	assert.Equal(t, "insufficient funds", refuseReasonMessage("insufficient_funds"))
	assert.Equal(t, "expired card", refuseReasonMessage("expired_card"))
	assert.Contains(t, refuseReasonMessage("weird_code"), "weird_code")
}

func TestClassifyHTTPError(t *testing.T) {
	declined := classifyHTTPError(422, &apiError{RefuseReason: "expired_card"}, nil)
	assert.ErrorIs(t, declined, domain.ErrGatewayDeclined)
	assert.Contains(t, declined.Error(), "expired card")

	transient := classifyHTTPError(503, &apiError{Message: "upstream down"}, nil)
	assert.ErrorIs(t, transient, domain.ErrGatewayTransient)

	conflict := classifyHTTPError(422, &apiError{Message: "Customer already has a subscription"}, nil)
	assert.ErrorIs(t, conflict, domain.ErrGatewayConflict)
	assert.NotErrorIs(t, conflict, domain.ErrGatewayDeclined)
}
