// Package notify sends customer notifications for placed orders.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/pkg/metrics"
)

type OrderConfirmation struct {
	Email    string
	OrderID  uint
	Total    decimal.Decimal
	Currency string
}

type Notifier interface {
	OrderConfirmed(ctx context.Context, oc OrderConfirmation) error
}

type Nop struct{}

func (Nop) OrderConfirmed(context.Context, OrderConfirmation) error { return nil }

type sesAPI interface {
	SendEmail(ctx context.Context, in *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESNotifier struct {
	client  sesAPI
	sender  string
	metrics *metrics.Metrics
}

func NewSESNotifier(ctx context.Context, region, sender string, m *metrics.Metrics) (*SESNotifier, error) {
	if sender == "" {
		return nil, errors.New("ses: sender address is not configured")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("ses: load aws config: %w", err)
	}
	return &SESNotifier{client: ses.NewFromConfig(awsCfg), sender: sender, metrics: m}, nil
}

func (n *SESNotifier) OrderConfirmed(ctx context.Context, oc OrderConfirmation) (err error) {
	defer func() { n.metrics.ObserveExternal("ses", "send_email", err) }()

	if oc.Email == "" {
		return errors.New("ses: recipient address is empty")
	}

	subject, text, html := render(oc)
	input := &ses.SendEmailInput{
		Source:      aws.String(n.sender),
		Destination: &types.Destination{ToAddresses: []string{oc.Email}},
		Message: &types.Message{
			Subject: &types.Content{Charset: aws.String("UTF-8"), Data: aws.String(subject)},
			Body: &types.Body{
				Html: &types.Content{Charset: aws.String("UTF-8"), Data: aws.String(html)},
				Text: &types.Content{Charset: aws.String("UTF-8"), Data: aws.String(text)},
			},
		},
	}

	if _, err := n.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("ses: send order %d confirmation: %w", oc.OrderID, err)
	}
	return nil
}

func render(oc OrderConfirmation) (subject, text, html string) {
	amount := oc.Total.StringFixed(2) + " " + strings.ToUpper(oc.Currency)
	subject = fmt.Sprintf("Order #%d confirmation", oc.OrderID)
	text = fmt.Sprintf("Thank you for your order!\n\nOrder ID: %d\nTotal: %s\n", oc.OrderID, amount)
	html = fmt.Sprintf(`<html><body>
<p>Thank you for your order!</p>
<ul>
<li>Order ID: %d</li>
<li>Total: %s</li>
</ul>
</body></html>`, oc.OrderID, amount)
	return subject, text, html
}
