package webhooks

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/vendora/vendora-backend/api/responses"
	"github.com/vendora/vendora-backend/internal/payments"
	pkgerrors "github.com/vendora/vendora-backend/pkg/errors"
	"github.com/vendora/vendora-backend/pkg/gateway"
	"github.com/vendora/vendora-backend/pkg/logger"
)

type verifier interface {
	VerifyAndParse(body []byte, signature string) (*gateway.VerifiedPayment, error)
}

type eventGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// PaystackWebhook ingests charge.success events from Paystack.
func PaystackWebhook(svc payments.Service, v verifier, guard eventGuard, logg *logger.Logger) http.HandlerFunc {
	return handleWebhook(svc, v, guard, logg, gateway.PaystackSignatureHeader)
}

// FlutterwaveWebhook ingests charge.completed events from Flutterwave.
func FlutterwaveWebhook(svc payments.Service, v verifier, guard eventGuard, logg *logger.Logger) http.HandlerFunc {
	return handleWebhook(svc, v, guard, logg, gateway.FlutterwaveSignatureHeader)
}

func handleWebhook(svc payments.Service, v verifier, guard eventGuard, logg *logger.Logger, signatureHeader string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		if v == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gateway verifier unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		verified, err := v.VerifyAndParse(body, r.Header.Get(signatureHeader))
		if err != nil {
			// Unhandled event types are acknowledged so the gateway stops retrying.
			if errors.Is(err, gateway.ErrIgnoredEvent) {
				responses.WriteSuccess(w, nil)
				return
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, verified.EventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			responses.WriteSuccess(w, nil)
			return
		}

		businessID, err := uuid.Parse(verified.BusinessID)
		if err != nil {
			_ = guard.Delete(ctx, verified.EventID)
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid business id in metadata"))
			return
		}

		result, err := svc.IngestPayment(ctx, payments.IngestInput{
			Reference:   verified.Reference,
			BusinessID:  businessID,
			BuyerKey:    verified.BuyerKey,
			AmountMinor: verified.AmountMinor,
			Currency:    verified.Currency,
			PaymentType: verified.PaymentType,
			Gateway:     verified.Gateway,
			BuyerInfo:   verified.BuyerInfo,
		})
		if err != nil {
			_ = guard.Delete(ctx, verified.EventID)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logCtx := logg.WithFields(ctx, map[string]any{
				"gateway":   verified.Gateway,
				"eventId":   verified.EventID,
				"reference": verified.Reference,
				"created":   result.Created,
			})
			logg.Info(logCtx, "gateway event processed")
		}
		responses.WriteSuccess(w, map[string]any{
			"reference": result.Order.Reference,
			"created":   result.Created,
		})
	}
}
