package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/access"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

// NotificationFanout pushes stored inbox entries to an external channel.
type NotificationFanout interface {
	Publish(ctx context.Context, notification domain.Notification) error
}

// NotificationService delivers the intents attached to lifecycle events and
// serves each principal's inbox.
type NotificationService struct {
	guard
	dispatcher    events.Dispatcher
	notifications repository.NotificationRepository
	history       repository.HistoryRepository
	users         repository.UserRepository
	fanout        NotificationFanout
	clock         func() time.Time
}

// NotificationDependencies wires the notification service. Fanout is
// optional.
type NotificationDependencies struct {
	Gate             *access.Gate
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
	NotificationRepo repository.NotificationRepository
	HistoryRepo      repository.HistoryRepository
	UserRepo         repository.UserRepository
	Fanout           NotificationFanout
	Clock            func() time.Time
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &NotificationService{
		guard:         guard{gate: deps.Gate, logger: logger},
		dispatcher:    deps.Dispatcher,
		notifications: deps.NotificationRepo,
		history:       deps.HistoryRepo,
		users:         deps.UserRepo,
		fanout:        deps.Fanout,
		clock:         clock,
	}
}

// RegisterHandlers subscribes to every event type.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.SubscribeAll(n.handleEvent)
}

func (n *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("request_id", event.RequestID),
		zap.String("actor_id", event.ActorID),
		zap.Int("intents", len(event.Intents)))

	var errs []error
	for _, intent := range event.Intents {
		var err error
		switch intent.Type {
		case domain.IntentNotify:
			err = n.notify(ctx, event, intent)
		case domain.IntentLog:
			err = n.record(ctx, event, intent)
		default:
			err = fmt.Errorf("unsupported intent type %q", intent.Type)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *NotificationService) notify(ctx context.Context, event events.Event, intent domain.Intent) error {
	recipients, err := n.recipients(ctx, intent.Target)
	if err != nil {
		return fmt.Errorf("resolve recipients for %s: %w", intent.Target, err)
	}
	var errs []error
	for _, recipient := range recipients {
		if recipient == event.ActorID {
			continue
		}
		entry := &domain.Notification{
			ID:          uuid.NewString(),
			RecipientID: recipient,
			RequestID:   event.RequestID,
			Message:     intent.Message,
			CreatedAt:   n.clock(),
		}
		if err := n.notifications.Create(ctx, entry); err != nil {
			errs = append(errs, fmt.Errorf("store notification for %s: %w", recipient, err))
			continue
		}
		if n.fanout == nil {
			continue
		}
		if err := n.fanout.Publish(ctx, *entry); err != nil {
			errs = append(errs, fmt.Errorf("fan out notification %s: %w", entry.ID, err))
		}
	}
	return errors.Join(errs...)
}

// recipients expands role targets into active account ids.
func (n *NotificationService) recipients(ctx context.Context, target string) ([]string, error) {
	role, ok := strings.CutPrefix(target, "role:")
	if !ok {
		return []string{target}, nil
	}
	parsed, valid := domain.ParseRole(role)
	if !valid {
		return nil, fmt.Errorf("unknown role target %q", target)
	}
	active := true
	users, err := n.users.List(ctx, repository.UserFilter{Role: &parsed, Active: &active, Limit: 500})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

func (n *NotificationService) record(ctx context.Context, event events.Event, intent domain.Intent) error {
	entry := &domain.RequestHistory{
		ID:        uuid.NewString(),
		RequestID: intent.Target,
		ActorID:   event.ActorID,
		Action:    string(event.Type),
		Message:   intent.Message,
		CreatedAt: n.clock(),
	}
	if err := n.history.Create(ctx, entry); err != nil {
		return fmt.Errorf("record history for %s: %w", intent.Target, err)
	}
	return nil
}

// List returns the caller's inbox, newest first.
func (n *NotificationService) List(ctx context.Context, principal domain.Principal, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	if err := n.authorize(principal, access.ActionViewNotifications, nil, ""); err != nil {
		return nil, err
	}
	items, err := n.notifications.ListByRecipient(ctx, principal.ID, unreadOnly, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// MarkRead flags one of the caller's notifications as read.
func (n *NotificationService) MarkRead(ctx context.Context, principal domain.Principal, id string) error {
	if err := n.authorize(principal, access.ActionUpdateNotifications, nil, id); err != nil {
		return err
	}
	if _, err := n.owned(ctx, principal, id); err != nil {
		return err
	}
	if err := n.notifications.MarkRead(ctx, id); err != nil {
		return notFoundOr(err, "notification", "notification_id", id)
	}
	return nil
}

// Delete removes one of the caller's notifications.
func (n *NotificationService) Delete(ctx context.Context, principal domain.Principal, id string) error {
	if err := n.authorize(principal, access.ActionDeleteNotifications, nil, id); err != nil {
		return err
	}
	if _, err := n.owned(ctx, principal, id); err != nil {
		return err
	}
	if err := n.notifications.Delete(ctx, id); err != nil {
		return notFoundOr(err, "notification", "notification_id", id)
	}
	return nil
}

// owned loads a notification, hiding entries addressed to someone else.
func (n *NotificationService) owned(ctx context.Context, principal domain.Principal, id string) (*domain.Notification, error) {
	entry, err := n.notifications.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "notification", "notification_id", id)
	}
	if entry.RecipientID != principal.ID {
		return nil, apperrors.NewNotFound("notification", map[string]any{"notification_id": id})
	}
	return entry, nil
}
