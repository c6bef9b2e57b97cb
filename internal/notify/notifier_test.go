package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	got *ses.SendEmailInput
	err error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.got = in
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("m-1")}, nil
}

func TestSESNotifier_OrderConfirmed(t *testing.T) {
	fake := &fakeSES{}
	n := &SESNotifier{client: fake, sender: "shop@example.com"}

	err := n.OrderConfirmed(context.Background(), OrderConfirmation{
		Email:    "alice@example.com",
		OrderID:  12,
		Total:    decimal.RequireFromString("39.98"),
		Currency: "usd",
	})
	require.NoError(t, err)
	require.NotNil(t, fake.got)
	assert.Equal(t, "shop@example.com", aws.ToString(fake.got.Source))
	assert.Equal(t, []string{"alice@example.com"}, fake.got.Destination.ToAddresses)
	assert.Equal(t, "Order #12 confirmation", aws.ToString(fake.got.Message.Subject.Data))
	assert.Contains(t, aws.ToString(fake.got.Message.Body.Text.Data), "Total: 39.98 USD")
}

func TestSESNotifier_Errors(t *testing.T) {
	fake := &fakeSES{err: errors.New("throttled")}
	n := &SESNotifier{client: fake, sender: "shop@example.com"}

	err := n.OrderConfirmed(context.Background(), OrderConfirmation{Email: "a@example.com", OrderID: 1})
	assert.ErrorContains(t, err, "throttled")

	err = n.OrderConfirmed(context.Background(), OrderConfirmation{OrderID: 1})
	assert.Error(t, err)
}
