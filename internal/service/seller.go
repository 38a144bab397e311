package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/openmarket/market-server/internal/audit"
	"github.com/openmarket/market-server/internal/database"
	apperrors "github.com/openmarket/market-server/internal/errors"
	"github.com/openmarket/market-server/internal/mailer"
	"github.com/openmarket/market-server/internal/model"
	"github.com/openmarket/market-server/internal/repository"
	"github.com/openmarket/market-server/internal/util"
)

const (
	DefaultSellerPageSize = 50
	MaxSellerPageSize     = 200
	expiredSuspensionScan = 100
)

type ApplyInput struct {
	StoreName string `json:"storeName" validate:"required,max=120"`
	OwnerName string `json:"ownerName" validate:"required,max=120"`
	Email     string `json:"email" validate:"required,email,max=254"`
}

type RejectInput struct {
	Reason          string `json:"reason" validate:"max=2000"`
	NotifyApplicant bool   `json:"sendEmail"`
}

type SuspendInput struct {
	Title     string     `json:"title" validate:"required,max=120"`
	Reason    string     `json:"reason" validate:"required,max=2000"`
	EndsAt    *time.Time `json:"endsAt"`
	Permanent bool       `json:"permanent"`
}

type SellerService struct {
	tx            database.Transactor
	sellerRepo    repository.SellerRepository
	notifications repository.NotificationRepository
	mailer        mailer.Mailer
	now           func() time.Time
}

type SellerOption func(*SellerService)

func WithSellerClock(now func() time.Time) SellerOption {
	return func(s *SellerService) {
		s.now = now
	}
}

func NewSellerService(
	tx database.Transactor,
	sellerRepo repository.SellerRepository,
	notifications repository.NotificationRepository,
	m mailer.Mailer,
	opts ...SellerOption,
) *SellerService {
	s := &SellerService{
		tx:            tx,
		sellerRepo:    sellerRepo,
		notifications: notifications,
		mailer:        m,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply records a new seller application in the pending state.
func (s *SellerService) Apply(ctx context.Context, input ApplyInput) (*model.Seller, error) {
	input.StoreName = strings.TrimSpace(input.StoreName)
	input.OwnerName = strings.TrimSpace(input.OwnerName)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := util.ValidateStruct(input); err != nil {
		return nil, err
	}

	var seller *model.Seller
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		created, err := s.sellerRepo.WithTx(tx).Create(ctx, model.CreateSellerParams{
			StoreName: input.StoreName,
			OwnerName: input.OwnerName,
			Email:     input.Email,
		})
		if err != nil {
			return fmt.Errorf("create seller: %w", err)
		}

		_, err = s.notifications.WithTx(tx).Create(ctx, model.CreateNotificationParams{
			ActorName:  created.OwnerName,
			Action:     model.NotificationActionSellerApplied,
			Resource:   model.NotificationResourceSeller,
			ResourceID: created.ID,
			Message:    fmt.Sprintf("New seller application from %q", created.StoreName),
			CreatedAt:  s.now(),
		})
		if err != nil {
			return fmt.Errorf("create notification: %w", err)
		}

		seller = created
		return nil
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	audit.Log(ctx, audit.Event{
		Type:       audit.EventSellerApplied,
		Actor:      seller.Email,
		ResourceID: seller.ID,
	})
	return seller, nil
}

func (s *SellerService) Get(ctx context.Context, id string) (*model.Seller, error) {
	if !util.IsValidUUID(id) {
		return nil, apperrors.NotFound("Seller")
	}
	seller, err := s.sellerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if seller == nil {
		return nil, apperrors.NotFound("Seller")
	}
	return seller, nil
}

func (s *SellerService) List(ctx context.Context, status model.SellerStatus, limit, offset int) ([]model.Seller, int, error) {
	if status != "" && !status.Valid() {
		return nil, 0, apperrors.InvalidInput("status", "unknown seller status")
	}

	sellers, err := s.sellerRepo.FindAll(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Database(err)
	}
	total, err := s.sellerRepo.Count(ctx, status)
	if err != nil {
		return nil, 0, apperrors.Database(err)
	}
	return sellers, total, nil
}

func (s *SellerService) CountByStatus(ctx context.Context) (model.StatusCounts, error) {
	counts, err := s.sellerRepo.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return counts, nil
}

// Approve moves a pending seller to active.
func (s *SellerService) Approve(ctx context.Context, actor *model.AdminPrincipal, id string) (*model.Seller, error) {
	return s.transition(ctx, actor, id, sellerTransition{
		verb:   "approve",
		from:   []model.SellerStatus{model.SellerStatusPending},
		action: model.NotificationActionSellerApproved,
		event:  audit.EventSellerApproved,
		apply: func(current *model.Seller, now time.Time) model.SellerTransitionParams {
			return model.SellerTransitionParams{
				Status:     model.SellerStatusActive,
				ReviewedAt: &now,
				UpdatedAt:  now,
			}
		},
		message: func(actor *model.AdminPrincipal, current *model.Seller) string {
			return fmt.Sprintf("%s approved seller %q", actor.Email, current.StoreName)
		},
	})
}

// Reject moves a pending seller to rejected. When NotifyApplicant is set the
// applicant is emailed after the change is committed; delivery failures are
// logged and do not undo the rejection.
func (s *SellerService) Reject(ctx context.Context, actor *model.AdminPrincipal, id string, input RejectInput) (*model.Seller, error) {
	input.Reason = strings.TrimSpace(input.Reason)
	if err := util.ValidateStruct(input); err != nil {
		return nil, err
	}

	seller, err := s.transition(ctx, actor, id, sellerTransition{
		verb:   "reject",
		from:   []model.SellerStatus{model.SellerStatusPending},
		action: model.NotificationActionSellerRejected,
		event:  audit.EventSellerRejected,
		apply: func(current *model.Seller, now time.Time) model.SellerTransitionParams {
			return model.SellerTransitionParams{
				Status:          model.SellerStatusRejected,
				RejectionReason: optionalString(input.Reason),
				ReviewedAt:      &now,
				UpdatedAt:       now,
			}
		},
		message: func(actor *model.AdminPrincipal, current *model.Seller) string {
			msg := fmt.Sprintf("%s rejected seller %q", actor.Email, current.StoreName)
			if input.Reason != "" {
				msg += ": " + input.Reason
			}
			return msg
		},
	})
	if err != nil {
		return nil, err
	}

	if input.NotifyApplicant && s.mailer != nil {
		s.sendRejectionNotice(ctx, seller, input.Reason)
	}
	return seller, nil
}

// Suspend suspends an active seller, or replaces the terms of an existing
// suspension.
func (s *SellerService) Suspend(ctx context.Context, actor *model.AdminPrincipal, id string, input SuspendInput) (*model.Seller, error) {
	now := s.now()
	input, err := validateSuspension(input, now)
	if err != nil {
		return nil, err
	}

	return s.transitionAt(ctx, now, actor, id, sellerTransition{
		verb:   "suspend",
		from:   []model.SellerStatus{model.SellerStatusActive, model.SellerStatusSuspended},
		action: model.NotificationActionSellerSuspended,
		event:  audit.EventSellerSuspended,
		apply: func(current *model.Seller, now time.Time) model.SellerTransitionParams {
			suspendedAt := &now
			if current.Status == model.SellerStatusSuspended && current.SuspendedAt != nil {
				suspendedAt = current.SuspendedAt
			}
			return model.SellerTransitionParams{
				Status:              model.SellerStatusSuspended,
				SuspensionTitle:     &input.Title,
				SuspensionReason:    &input.Reason,
				SuspensionEndsAt:    input.EndsAt,
				SuspensionPermanent: input.Permanent,
				SuspendedAt:         suspendedAt,
				RejectionReason:     current.RejectionReason,
				ReviewedAt:          current.ReviewedAt,
				UpdatedAt:           now,
			}
		},
		message: func(actor *model.AdminPrincipal, current *model.Seller) string {
			verb := "suspended"
			if current.Status == model.SellerStatusSuspended {
				verb = "updated the suspension of"
			}
			term := "permanently"
			if input.EndsAt != nil {
				term = "until " + input.EndsAt.UTC().Format(time.RFC3339)
			}
			return fmt.Sprintf("%s %s seller %q %s: %s", actor.Email, verb, current.StoreName, term, input.Title)
		},
	})
}

// Unsuspend reinstates a suspended seller and clears the suspension terms.
func (s *SellerService) Unsuspend(ctx context.Context, actor *model.AdminPrincipal, id string) (*model.Seller, error) {
	return s.transition(ctx, actor, id, sellerTransition{
		verb:   "unsuspend",
		from:   []model.SellerStatus{model.SellerStatusSuspended},
		action: model.NotificationActionSellerUnsuspended,
		event:  audit.EventSellerUnsuspended,
		apply: func(current *model.Seller, now time.Time) model.SellerTransitionParams {
			return model.SellerTransitionParams{
				Status:          model.SellerStatusActive,
				RejectionReason: current.RejectionReason,
				ReviewedAt:      current.ReviewedAt,
				UpdatedAt:       now,
			}
		},
		message: func(actor *model.AdminPrincipal, current *model.Seller) string {
			return fmt.Sprintf("%s reinstated seller %q", actor.Email, current.StoreName)
		},
	})
}

// FlagExpiredSuspensions raises one notification per timed suspension whose
// end has passed. Sellers stay suspended until an admin unsuspends them.
func (s *SellerService) FlagExpiredSuspensions(ctx context.Context) (int64, error) {
	now := s.now()
	sellers, err := s.sellerRepo.FindExpiredSuspensions(ctx, now, expiredSuspensionScan)
	if err != nil {
		return 0, apperrors.Database(err)
	}

	var flagged int64
	var firstErr error
	for i := range sellers {
		seller := &sellers[i]
		raised := false
		err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
			marked, err := s.sellerRepo.WithTx(tx).MarkExpiryNotified(ctx, seller.ID, now)
			if err != nil || !marked {
				return err
			}

			_, err = s.notifications.WithTx(tx).Create(ctx, model.CreateNotificationParams{
				ActorName:  model.SystemActor,
				Action:     model.NotificationActionSellerSuspensionEnded,
				Resource:   model.NotificationResourceSeller,
				ResourceID: seller.ID,
				Message: fmt.Sprintf("Suspension of seller %q ended at %s; review and unsuspend",
					seller.StoreName, seller.SuspensionEndsAt.UTC().Format(time.RFC3339)),
				CreatedAt: now,
			})
			if err != nil {
				return err
			}
			raised = true
			return nil
		})
		if err != nil {
			log.Error().Err(err).Str("seller_id", seller.ID).Msg("failed to flag expired suspension")
			if firstErr == nil {
				firstErr = apperrors.Database(err)
			}
			continue
		}
		if raised {
			flagged++
		}
	}

	if flagged > 0 {
		audit.Log(ctx, audit.Event{
			Type:    audit.EventSuspensionExpired,
			Actor:   model.SystemActor,
			Details: map[string]interface{}{"count": flagged},
		})
	}
	return flagged, firstErr
}

// ComposeRejectionNotice renders the email sent to a rejected applicant.
func ComposeRejectionNotice(seller *model.Seller, reason string) (mailer.Message, error) {
	return mailer.Compose(mailer.SellerRejectedTemplate, seller.Email, struct {
		StoreName string
		OwnerName string
		Reason    string
		From      string
	}{
		StoreName: seller.StoreName,
		OwnerName: seller.OwnerName,
		Reason:    reason,
		From:      mailer.FromName,
	})
}

func (s *SellerService) sendRejectionNotice(ctx context.Context, seller *model.Seller, reason string) {
	msg, err := ComposeRejectionNotice(seller, reason)
	if err != nil {
		log.Error().Err(err).Str("seller_id", seller.ID).Msg("failed to compose rejection notice")
		return
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		log.Error().Err(err).Str("seller_id", seller.ID).Msg("failed to send rejection notice")
		return
	}
	log.Info().Str("seller_id", seller.ID).Msg("rejection notice sent")
}

type sellerTransition struct {
	verb    string
	from    []model.SellerStatus
	action  string
	event   audit.EventType
	apply   func(current *model.Seller, now time.Time) model.SellerTransitionParams
	message func(actor *model.AdminPrincipal, current *model.Seller) string
}

func (t sellerTransition) allows(status model.SellerStatus) bool {
	for _, from := range t.from {
		if from == status {
			return true
		}
	}
	return false
}

func (s *SellerService) transition(ctx context.Context, actor *model.AdminPrincipal, id string, t sellerTransition) (*model.Seller, error) {
	return s.transitionAt(ctx, s.now(), actor, id, t)
}

// transitionAt checks the rule against the stored status, then writes the
// new state conditioned on that status together with one notification.
func (s *SellerService) transitionAt(ctx context.Context, now time.Time, actor *model.AdminPrincipal, id string, t sellerTransition) (*model.Seller, error) {
	if actor == nil || actor.Role != model.RoleAdmin {
		return nil, apperrors.Unauthorized("Admin session required")
	}
	if !util.IsValidUUID(id) {
		return nil, apperrors.NotFound("Seller")
	}

	var previous model.SellerStatus
	var updated *model.Seller
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		sellers := s.sellerRepo.WithTx(tx)

		current, err := sellers.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("find seller: %w", err)
		}
		if current == nil {
			return apperrors.NotFound("Seller")
		}
		if !t.allows(current.Status) {
			return apperrors.InvalidTransition(invalidTransitionMessage(t, current.Status))
		}

		result, err := sellers.Transition(ctx, id, current.Status, t.apply(current, now))
		if err != nil {
			return fmt.Errorf("update seller: %w", err)
		}
		if result == nil {
			return apperrors.Conflict("Seller was changed by another admin; reload and try again")
		}

		_, err = s.notifications.WithTx(tx).Create(ctx, model.CreateNotificationParams{
			ActorName:  actor.Email,
			Action:     t.action,
			Resource:   model.NotificationResourceSeller,
			ResourceID: id,
			Message:    t.message(actor, current),
			CreatedAt:  now,
		})
		if err != nil {
			return fmt.Errorf("create notification: %w", err)
		}

		previous = current.Status
		updated = result
		return nil
	})
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeInvalidTransition) || apperrors.HasCode(err, apperrors.ErrCodeConflict) {
			audit.Log(ctx, audit.Event{
				Type:       audit.EventTransitionRejected,
				Actor:      actor.Email,
				ResourceID: id,
				Details:    map[string]interface{}{"action": t.verb, "code": string(apperrors.GetCode(err))},
			})
		}
		return nil, asServiceError(err)
	}

	audit.Log(ctx, audit.Event{
		Type:       t.event,
		Actor:      actor.Email,
		ResourceID: id,
		Details:    map[string]interface{}{"from": string(previous), "to": string(updated.Status)},
	})
	return updated, nil
}

func invalidTransitionMessage(t sellerTransition, status model.SellerStatus) string {
	if len(t.from) == 1 {
		return fmt.Sprintf("Cannot %s: seller is %s, not %s", t.verb, status, t.from[0])
	}
	return fmt.Sprintf("Cannot %s a %s seller", t.verb, status)
}

func validateSuspension(input SuspendInput, now time.Time) (SuspendInput, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Reason = strings.TrimSpace(input.Reason)
	if err := util.ValidateStruct(input); err != nil {
		return input, err
	}

	switch {
	case input.Permanent && input.EndsAt != nil:
		return input, apperrors.ValidationError("Choose either an end date or a permanent suspension, not both")
	case !input.Permanent && input.EndsAt == nil:
		return input, apperrors.MissingRequired("ends_at")
	case input.EndsAt != nil && !input.EndsAt.After(now):
		return input, apperrors.InvalidInput("ends_at", "must be in the future")
	}

	if input.EndsAt != nil {
		endsAt := input.EndsAt.UTC()
		input.EndsAt = &endsAt
	}
	return input, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// asServiceError passes AppErrors through and reports anything else as a
// database failure.
func asServiceError(err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.Database(err)
}
