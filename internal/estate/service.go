package estate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"estatehub.app/internal/obs"
)

// ImageStore persists uploaded property images and returns their public URLs.
type ImageStore interface {
	SaveImage(ctx context.Context, data []byte) (string, error)
}

// ReceiptSender delivers payment receipts to tenants.
type ReceiptSender interface {
	SendReceipt(ctx context.Context, to Person, r Receipt) error
}

// NotificationPublisher pushes stored notifications to live subscribers.
type NotificationPublisher interface {
	PublishNotification(n Notification)
}

// Service applies the domain rules of the estate on top of a Store.
type Service struct {
	store     Store
	people    Directory
	images    ImageStore
	receipts  ReceiptSender
	publisher NotificationPublisher
	now       func() time.Time
}

type Option func(*Service)

func WithImageStore(s ImageStore) Option { return func(svc *Service) { svc.images = s } }

func WithReceiptSender(s ReceiptSender) Option { return func(svc *Service) { svc.receipts = s } }

func WithNotificationPublisher(p NotificationPublisher) Option {
	return func(svc *Service) { svc.publisher = p }
}

func WithClock(fn func() time.Time) Option {
	return func(svc *Service) {
		if fn != nil {
			svc.now = fn
		}
	}
}

func NewService(store Store, people Directory, opts ...Option) *Service {
	s := &Service{store: store, people: people, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() Date { return DateOf(s.now()) }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func forbidden(msg string) error { return fmt.Errorf("%w: %s", ErrForbidden, msg) }

func requireAdmin(a Actor) error {
	if !a.IsAdmin() {
		return forbidden("admin role required")
	}
	return nil
}

// missing returns the names of blank string fields, in order.
func missing(fields ...[2]string) []string {
	var out []string
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			out = append(out, f[0])
		}
	}
	return out
}

func requireFields(fields ...[2]string) error {
	if m := missing(fields...); len(m) > 0 {
		return invalid("missing required fields: %s", strings.Join(m, ", "))
	}
	return nil
}

// notify stores a notification. Delivery failures never fail the caller.
func (s *Service) notify(ctx context.Context, userID, title, message string, typ NotificationType, cat NotificationCategory, actionURL string) {
	if userID == "" {
		return
	}
	n := &Notification{UserID: userID, Title: title, Message: message, Type: typ, Category: cat, ActionURL: actionURL}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		obs.Error("notification_failed", err, map[string]any{"user_id": userID, "category": string(cat)})
		return
	}
	if s.publisher != nil {
		s.publisher.PublishNotification(*n)
	}
}

func (s *Service) notifyAdmins(ctx context.Context, title, message string, cat NotificationCategory, actionURL string) {
	admins, err := s.people.Admins(ctx)
	if err != nil {
		obs.Error("notification_failed", err, map[string]any{"audience": "admins"})
		return
	}
	for _, a := range admins {
		s.notify(ctx, a.ID, title, message, NotifyInfo, cat, actionURL)
	}
}

func notFoundAs(err error, msg string) error {
	if errors.Is(err, ErrNotFound) {
		return invalid("%s", msg)
	}
	return err
}

func (s *Service) logDeliveryFailure(kind string, err error, ref string) {
	obs.Error("delivery_failed", err, map[string]any{"kind": kind, "ref": ref})
}
