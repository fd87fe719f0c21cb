package order_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/order"
)

func TestAmountToMinorUnits(t *testing.T) {
	cases := []struct {
		amount float64
		want   int64
	}{
		{0.50, 50},
		{0.49, 49},
		{29.99, 2999},
		{19.999, 2000},
		{10.004, 1000},
		{0.005, 1},
		{100, 10000},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, order.AmountToMinorUnits(tc.amount), "amount %v", tc.amount)
	}
}

func TestNewStripeGatewayRequiresSecretKey(t *testing.T) {
	log := logger.NewLogger()
	defer log.Close()

	gateway, err := order.NewStripeGateway(config.StripeConfig{}, log)

	assert.Nil(t, gateway)
	assert.ErrorIs(t, err, order.ErrStripeClientInitFailed)
}

func TestCreatePaymentIntentRejectsSubMinimumAmount(t *testing.T) {
	log := logger.NewLogger()
	defer log.Close()

	gateway, err := order.NewStripeGateway(config.StripeConfig{
		SecretKey:          "sk_test_dummy",
		Currency:           "usd",
		MinimumChargeCents: 50,
	}, log)
	assert.NoError(t, err)

	// 0.49 rounds to 49 cents, one below the floor; rejected before any
	// network call so a dummy key is fine.
	resp, err := gateway.CreatePaymentIntent(models.PaymentIntentRequest{Amount: 0.49})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, order.ErrValidation)
}

func TestVerifyWebhookWithoutSecretIsConfigurationError(t *testing.T) {
	log := logger.NewLogger()
	defer log.Close()

	gateway, err := order.NewStripeGateway(config.StripeConfig{
		SecretKey: "sk_test_dummy",
	}, log)
	assert.NoError(t, err)

	_, err = gateway.VerifyWebhook([]byte("{}"), "sig")

	var webhookErr *order.WebhookError
	assert.ErrorAs(t, err, &webhookErr)
	assert.Equal(t, "configuration", webhookErr.Category)
	assert.Equal(t, 500, webhookErr.StatusCode)
}

func TestVerifyWebhookRejectsBadSignature(t *testing.T) {
	log := logger.NewLogger()
	defer log.Close()

	gateway, err := order.NewStripeGateway(config.StripeConfig{
		SecretKey:     "sk_test_dummy",
		WebhookSecret: "whsec_dummy",
	}, log)
	assert.NoError(t, err)

	_, err = gateway.VerifyWebhook([]byte("{}"), "t=1,v1=deadbeef")

	var webhookErr *order.WebhookError
	assert.ErrorAs(t, err, &webhookErr)
	assert.Equal(t, "validation", webhookErr.Category)
	assert.Equal(t, 400, webhookErr.StatusCode)
}
