package notifications

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
	"github.com/homeward/settlement-backend/pkg/logger"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

func (s *recordingSender) Send(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return s.err
}

func TestBatchSkipsNotificationsWithoutRecipients(t *testing.T) {
	var b Batch
	b.Add(Notification{Action: enums.NotificationInvoiceSentToOwner})
	b.Add(Notification{Action: enums.NotificationInvoiceSentToOwner, Recipients: []Recipient{{UserID: uuid.New()}}})
	if b.Len() != 1 {
		t.Fatalf("expected 1 notification, got %d", b.Len())
	}
}

func TestDispatchSendsEveryNotification(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, nil)

	var b Batch
	for i := 0; i < 3; i++ {
		b.Add(Notification{Action: enums.NotificationPaymentMethodAdded, Recipients: []Recipient{{UserID: uuid.New()}}})
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.Dispatch(ctx, &b)
	cancel()
	d.Wait()

	if len(sender.sent) != 3 {
		t.Fatalf("expected 3 sends, got %d", len(sender.sent))
	}
}

func TestDispatchSwallowsSenderErrors(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	sender := &recordingSender{err: errors.New("topic unavailable")}
	d := NewDispatcher(sender, logg)

	var b Batch
	b.Add(Notification{Action: enums.NotificationInvoicePaymentFailed, Recipients: []Recipient{{UserID: uuid.New()}}})
	d.Dispatch(context.Background(), &b)
	d.Wait()

	if !bytes.Contains(buf.Bytes(), []byte("notification dispatch failed")) {
		t.Fatalf("expected failure to be logged, got %s", buf.String())
	}
}

func TestDispatchNilSafe(t *testing.T) {
	var d *Dispatcher
	d.Dispatch(context.Background(), &Batch{})
	d.Wait()
	NewDispatcher(nil, nil).Dispatch(context.Background(), nil)
}

func TestRecipientsForSkipsUnreachableUsers(t *testing.T) {
	phone := "+15550100"
	reachable := &models.User{ID: uuid.New(), Email: "owner@example.com", Phone: &phone}
	silent := &models.User{ID: uuid.New()}

	got := RecipientsFor(reachable, nil, silent)
	if len(got) != 1 {
		t.Fatalf("expected one recipient, got %d", len(got))
	}
	if got[0].Phone != phone || got[0].Email != "owner@example.com" {
		t.Fatalf("unexpected recipient %+v", got[0])
	}
}
