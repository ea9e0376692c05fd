package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"SalonAssistant/database"
	"SalonAssistant/internal/dialogue/slot"

	"github.com/mdp/qrterminal/v3"
	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

const (
	defaultStoreDSN     = "file:./storage/whatsapp.db?_foreign_keys=on"
	defaultLoginTimeout = 2 * time.Minute
)

type IWhatsappSender interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
	Disconnect() error
	IsConnected() bool
}

type whatsappSender struct {
	client *whatsmeow.Client
	log    *logrus.Logger
}

// New connects the device stored under WHATSAPP_STORE_DSN. An unpaired
// device prints a login QR code to stdout and waits for the scan.
func New(log *logrus.Logger) (IWhatsappSender, error) {
	dsn := os.Getenv("WHATSAPP_STORE_DSN")
	if dsn == "" {
		dsn = defaultStoreDSN
	}
	driver := database.DetectDriver(dsn)
	if driver == database.DriverSQLite && !strings.Contains(dsn, "foreign_keys") {
		log.Warn("[whatsapp.New] sqlite device store without foreign keys, add ?_foreign_keys=on")
	}
	if driver == database.DriverSQLite {
		if err := os.MkdirAll("./storage", 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	ctx := context.Background()
	container, err := sqlstore.New(ctx, driver, dsn, waLog.Stdout("Database", "INFO", true))
	if err != nil {
		return nil, fmt.Errorf("failed to open device store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device store: %w", err)
	}

	client := whatsmeow.NewClient(deviceStore, waLog.Stdout("Client", "INFO", true))

	connected := make(chan struct{}, 1)
	client.AddEventHandler(func(evt interface{}) {
		if _, ok := evt.(*events.Connected); ok {
			select {
			case connected <- struct{}{}:
			default:
			}
		}
	})

	if client.Store.ID == nil {
		qrChan, _ := client.GetQRChannel(ctx)
		if err := client.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect: %w", err)
		}

		go func() {
			for evt := range qrChan {
				if evt.Event == "code" {
					fmt.Println("Scan the QR code below with the salon WhatsApp account:")
					qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
					continue
				}
				log.WithField("event", evt.Event).Info("[whatsapp.New] login event")
			}
		}()
	} else if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	timeout := defaultLoginTimeout
	if raw := os.Getenv("WHATSAPP_LOGIN_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			timeout = d
		}
	}

	select {
	case <-connected:
		log.Info("[whatsapp.New] WhatsApp connected")
	case <-time.After(timeout):
		client.Disconnect()
		return nil, errors.New("whatsapp connection timeout")
	}

	return &whatsappSender{
		client: client,
		log:    log,
	}, nil
}

func (w *whatsappSender) SendMessage(ctx context.Context, phoneNumber, message string) error {
	if message == "" {
		return errors.New("message body cannot be empty")
	}
	jid := types.NewJID(slot.InternationalPhone(phoneNumber), types.DefaultUserServer)

	waMsg := &waE2E.Message{
		Conversation: proto.String(message),
	}

	if _, err := w.client.SendMessage(ctx, jid, waMsg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	w.log.WithField("server", jid.Server).Debug("[whatsapp.SendMessage] message sent")
	return nil
}

func (w *whatsappSender) Disconnect() error {
	w.client.Disconnect()
	return nil
}

func (w *whatsappSender) IsConnected() bool {
	return w.client.IsConnected()
}
