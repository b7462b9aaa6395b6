package estate

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const receiptAttempts = 3

// NewReceiptNumber formats RCP + YYYYMMDD + four random digits.
func NewReceiptNumber(day Date) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("receipt number: %w", err)
	}
	return fmt.Sprintf("RCP%s%04d", day.Format("20060102"), n.Int64()), nil
}

// ListPayments lists all payments for admins and the caller's current
// tenancy payments for tenants.
func (s *Service) ListPayments(ctx context.Context, actor Actor, f PaymentFilter) (List[Payment], error) {
	f.Page = f.Page.normalized()
	if actor.IsAdmin() {
		if f.Status != "" && !f.Status.Valid() {
			return List[Payment]{}, invalid("status must be one of pending, paid, overdue, cancelled")
		}
		if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To.Time) {
			return List[Payment]{}, invalid("start_date must not be after end_date")
		}
	} else {
		t, err := s.store.ActiveTenancyForUser(ctx, actor.ID)
		if err != nil {
			return List[Payment]{}, err
		}
		f = PaymentFilter{TenancyID: t.ID, Page: f.Page}
	}
	items, total, err := s.store.ListPayments(ctx, f)
	if err != nil {
		return List[Payment]{}, err
	}
	return List[Payment]{Items: items, Pagination: f.Page.Describe(total)}, nil
}

func (s *Service) GetPayment(ctx context.Context, actor Actor, id string) (*Payment, error) {
	p, err := s.store.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && p.TenantUserID != actor.ID {
		return nil, forbidden("payment belongs to another tenant")
	}
	return p, nil
}

func (s *Service) Receipt(ctx context.Context, actor Actor, id string) (Receipt, error) {
	p, err := s.GetPayment(ctx, actor, id)
	if err != nil {
		return Receipt{}, err
	}
	return ReceiptOf(p), nil
}

func (s *Service) RecordPayment(ctx context.Context, actor Actor, in PaymentInput) (*Payment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := requireFields(
		[2]string{"tenant_id", in.TenantID}, [2]string{"property_id", in.PropertyID},
		[2]string{"payment_type", string(in.PaymentType)}, [2]string{"payment_method", string(in.PaymentMethod)},
		[2]string{"transaction_reference", in.TransactionReference},
		[2]string{"payment_date", in.PaymentDate.String()},
	); err != nil {
		return nil, err
	}
	if in.Amount <= 0 {
		return nil, invalid("amount must be greater than zero")
	}
	if !in.PaymentType.Valid() {
		return nil, invalid("payment_type must be one of rent, deposit, maintenance, penalty")
	}
	if !in.PaymentMethod.Valid() {
		return nil, invalid("payment_method must be one of mpesa, bank_transfer, cash, cheque")
	}
	tenancy, err := s.store.GetTenancy(ctx, in.TenantID)
	if err != nil {
		return nil, notFoundAs(err, "tenancy not found")
	}
	if tenancy.PropertyID != in.PropertyID {
		return nil, invalid("tenancy does not belong to this property")
	}

	due := in.DueDate
	if due.IsZero() {
		due = in.PaymentDate
	}
	p := &Payment{
		TenantID:             in.TenantID,
		PropertyID:           in.PropertyID,
		Amount:               in.Amount,
		PaymentType:          in.PaymentType,
		PaymentMethod:        in.PaymentMethod,
		TransactionReference: strings.TrimSpace(in.TransactionReference),
		PaymentDate:          in.PaymentDate,
		DueDate:              due,
		Status:               PaymentPaid,
		Notes:                strings.TrimSpace(in.Notes),
		CreatedBy:            actor.ID,
	}
	for attempt := 1; ; attempt++ {
		if p.ReceiptNumber, err = NewReceiptNumber(s.today()); err != nil {
			return nil, err
		}
		err = s.store.CreatePayment(ctx, p)
		if err == nil {
			break
		}
		switch {
		case errors.Is(err, ErrReceiptTaken) && attempt < receiptAttempts:
			p.ID = ""
			continue
		case errors.Is(err, ErrConflict):
			return nil, invalid("transaction_reference already recorded")
		}
		return nil, err
	}
	p.TenantName, p.PropertyName, p.TenantUserID = tenancy.TenantName, tenancy.PropertyName, tenancy.UserID

	s.notify(ctx, tenancy.UserID, "Payment received",
		fmt.Sprintf("We received %.2f for %s. Receipt %s.", p.Amount, p.PaymentType, p.ReceiptNumber),
		NotifySuccess, TopicPayment, "/payments/"+p.ID+"/receipt")
	if s.receipts != nil {
		if person, err := s.people.Person(ctx, tenancy.UserID); err == nil {
			if err := s.receipts.SendReceipt(ctx, *person, ReceiptOf(p)); err != nil {
				s.logDeliveryFailure("receipt", err, p.ID)
			}
		}
	}
	return p, nil
}
