package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aledhemtek/BillingService/internal/domain"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент сервиса уведомлений (email-рассылка клиентам)
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента сервиса уведомлений
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// SendInvoice отправляет клиенту счёт с приложенным документом
func (c *Client) SendInvoice(ctx context.Context, inv *domain.Invoice, document []byte) error {
	body := invoiceNotification{
		ClientID:      inv.ClientID,
		InvoiceNumber: inv.InvoiceNumber,
		TotalAmount:   inv.TotalAmount,
		DueDate:       inv.DueDate.Format(domain.DateFormat),
		Document:      document,
	}

	return c.post(ctx, "/internal/notifications/invoice", body)
}

// SendReminder отправляет клиенту напоминание о просроченном счёте
func (c *Client) SendReminder(ctx context.Context, inv *domain.Invoice) error {
	body := reminderNotification{
		ClientID:        inv.ClientID,
		InvoiceNumber:   inv.InvoiceNumber,
		RemainingAmount: inv.RemainingAmount(),
		DueDate:         inv.DueDate.Format(domain.DateFormat),
		ReminderNumber:  inv.ReminderCount + 1,
	}

	return c.post(ctx, "/internal/notifications/reminder", body)
}

// SendPaymentConfirmation отправляет клиенту подтверждение полученной оплаты
func (c *Client) SendPaymentConfirmation(ctx context.Context, inv *domain.Invoice) error {
	body := paymentConfirmation{
		ClientID:      inv.ClientID,
		InvoiceNumber: inv.InvoiceNumber,
		PaidAmount:    inv.TotalValidated(),
		FullyPaid:     inv.IsPaid(),
	}

	return c.post(ctx, "/internal/notifications/payment-confirmation", body)
}

// post выполняет POST запрос к сервису уведомлений
func (c *Client) post(ctx context.Context, path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal request: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrSendFailed, resp.StatusCode, string(respBody))
	}

	return nil
}
