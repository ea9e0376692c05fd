package twilio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"SalonAssistant/internal/dialogue/slot"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type ITwilio interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
}

type twilioSender struct {
	api  messageCreator
	from string
	log  *logrus.Logger
}

// New reads TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER.
// Messages go out over WhatsApp.
func New(log *logrus.Logger) (ITwilio, error) {
	sid := os.Getenv("TWILIO_ACCOUNT_SID")
	token := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_FROM_NUMBER")

	if sid == "" || token == "" {
		return nil, errors.New("twilio account SID and auth token must be provided")
	}
	if from == "" {
		return nil, errors.New("twilio from number must be provided")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: sid,
		Password: token,
	})

	return &twilioSender{api: client.Api, from: whatsappAddress(from), log: log}, nil
}

func (t *twilioSender) SendMessage(ctx context.Context, phoneNumber, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(whatsappAddress(phoneNumber))
	params.SetFrom(t.from)
	params.SetBody(message)

	resp, err := t.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	if resp != nil && resp.Sid != nil {
		t.log.WithField("sid", *resp.Sid).Debug("[twilio.SendMessage] message queued")
	}
	return nil
}

// whatsappAddress formats a phone number as a Twilio WhatsApp address.
func whatsappAddress(phone string) string {
	if strings.HasPrefix(phone, "whatsapp:") {
		return phone
	}
	return "whatsapp:+" + slot.InternationalPhone(strings.TrimPrefix(phone, "+"))
}
