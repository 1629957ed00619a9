package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"event-ticketing/internal/idempotency"
	"event-ticketing/internal/services/gateway"
	"event-ticketing/internal/services/gateway/mpesa"
	"event-ticketing/internal/status"
	"event-ticketing/models"
	"event-ticketing/monitoring"
	"event-ticketing/utils"

	pubnub "github.com/pubnub/go/v7"
	"github.com/shopspring/decimal"
)

// PaymentService owns the mobile-money flow: initiating an STK push for
// an existing ticket and reconciling the asynchronous provider
// callback against the pending transaction it created.
type PaymentService struct {
	store   Store
	gateway gateway.Gateway
	guard   *idempotency.Guard
	pn      *pubnub.PubNub
}

func NewPaymentService(store Store, gw gateway.Gateway, guard *idempotency.Guard, pn *pubnub.PubNub) *PaymentService {
	return &PaymentService{
		store:   store,
		gateway: gw,
		guard:   guard,
		pn:      pn,
	}
}

// InitiateMobileMoney prompts the buyer's phone to pay for a ticket
// they already hold. Inventory was decremented when the ticket was
// created; this call only adds a pending transaction. A gateway
// failure leaves no persistence change, so the ticket stays payable
// via a fresh initiation.
func (s *PaymentService) InitiateMobileMoney(ctx context.Context, ticketID, buyerID, phoneNumber string) (*models.Transaction, error) {
	if s.gateway == nil {
		return nil, status.ErrGatewayUnavailable
	}

	ticket, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.UserID != buyerID {
		return nil, status.ErrNotAuthorized
	}

	// Suffix the provider reference so retried attempts for the same
	// ticket stay distinguishable in provider statements.
	ref, _ := utils.GenerateCode(4)

	started := time.Now()
	res, err := s.gateway.InitiateSTKPush(ctx, &gateway.PaymentRequest{
		PhoneNumber: phoneNumber,
		Amount:      decimal.NewFromFloat(ticket.TotalPrice),
		Reference:   fmt.Sprintf("Ticket-%s-%s", ticket.ID, ref),
		Description: fmt.Sprintf("Payment for ticket %s", ticket.TicketNumber),
	})
	if err != nil {
		monitoring.ObserveGatewayRequest("error", time.Since(started))
		return nil, err
	}
	monitoring.ObserveGatewayRequest("success", time.Since(started))

	tr := &models.Transaction{
		UserID:        buyerID,
		TicketID:      ticket.ID,
		Amount:        ticket.TotalPrice,
		PaymentMethod: models.PaymentMethodMpesa,
		Status:        models.TransactionStatusPending,
		TransactionID: res.CorrelationID,
	}
	if err := s.store.CreateTransaction(ctx, tr); err != nil {
		return nil, err
	}

	slog.Info("payment initiated",
		"ticket", ticket.ID,
		"user", buyerID,
		"transaction_id", tr.TransactionID,
	)
	return tr, nil
}

// Reconcile applies an asynchronous payment result to the matching
// pending transaction. It is safe to call any number of times with the
// same callback: the transition is guarded on the pending status, so
// once a transaction is terminal further deliveries are no-ops.
func (s *PaymentService) Reconcile(ctx context.Context, cb *mpesa.STKCallback) error {
	if s.guard.AlreadyProcessed(ctx, cb.CheckoutRequestID) {
		monitoring.TrackReconciliation("duplicate")
		return nil
	}

	tr, err := s.store.GetTransactionByCorrelationID(ctx, cb.CheckoutRequestID)
	if errors.Is(err, status.ErrTransactionNotFound) {
		// Acknowledged but discarded; the provider should not retry
		// forever against an id we will never know.
		slog.Warn("callback matches no transaction", "correlation_id", cb.CheckoutRequestID)
		monitoring.TrackReconciliation("unmatched")
		return nil
	}
	if err != nil {
		return err
	}

	if tr.IsTerminal() {
		monitoring.TrackReconciliation("duplicate")
		s.guard.MarkProcessed(ctx, cb.CheckoutRequestID)
		return nil
	}

	if cb.Succeeded() {
		receipt, ok := cb.CallbackMetadata.Get(mpesa.MetadataReceiptNumber)
		if !ok {
			monitoring.TrackReconciliation("malformed")
			return fmt.Errorf("%w: missing %s item", status.ErrMalformedCallback, mpesa.MetadataReceiptNumber)
		}

		applied, err := s.store.CompleteTransaction(ctx, cb.CheckoutRequestID, receipt)
		if err != nil {
			return err
		}
		if applied {
			monitoring.TrackReconciliation("completed")
			slog.Info("payment completed",
				"transaction_id", cb.CheckoutRequestID,
				"receipt", receipt,
			)
			s.notify(tr, "payment_success")
		}
		s.guard.MarkProcessed(ctx, cb.CheckoutRequestID)
		return nil
	}

	// Failure codes mark the transaction failed. The ticket keeps its
	// reservation and stays payable through a new initiation.
	applied, err := s.store.FailTransaction(ctx, cb.CheckoutRequestID)
	if err != nil {
		return err
	}
	if applied {
		monitoring.TrackReconciliation("failed")
		slog.Info("payment failed",
			"transaction_id", cb.CheckoutRequestID,
			"result_code", cb.ResultCode,
			"result_desc", cb.ResultDesc,
		)
		s.notify(tr, "payment_failed")
	}
	s.guard.MarkProcessed(ctx, cb.CheckoutRequestID)
	return nil
}

// SweepStalePending fails mobile-money transactions that have waited
// for a callback longer than the grace period, so a lost callback
// cannot strand a transaction in pending forever.
func (s *PaymentService) SweepStalePending(ctx context.Context, gracePeriod, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			n, err := s.store.FailStalePending(ctx, models.PaymentMethodMpesa, time.Now().Add(-gracePeriod))
			if err != nil {
				slog.Error("stale pending sweep failed", "error", err)
				continue
			}
			if n > 0 {
				monitoring.TrackSweptPending(n)
				slog.Info("stale pending transactions failed", "count", n)
			}
		}
	}
}

func (s *PaymentService) notify(tr *models.Transaction, kind string) {
	if s.pn == nil {
		return
	}

	channel := fmt.Sprintf("user-%s", tr.UserID)
	_, _, err := s.pn.Publish().
		Channel(channel).
		Message(map[string]any{
			"type":           kind,
			"transaction_id": tr.TransactionID,
			"ticket_id":      tr.TicketID,
			"amount":         tr.Amount,
		}).
		Execute()
	if err != nil {
		slog.Error("payment notification publish failed", "channel", channel, "error", err)
	}
}
