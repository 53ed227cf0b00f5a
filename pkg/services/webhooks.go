package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/securereq/securereq-engine/pkg/apperrors"
	"github.com/securereq/securereq-engine/pkg/config"
	"github.com/securereq/securereq-engine/pkg/models"
	"github.com/securereq/securereq-engine/pkg/repositories"
	"github.com/securereq/securereq-engine/pkg/retry"
)

// Delivery headers. Receivers verify the payload by recomputing the HMAC of
// the exact request body with their copy of the secret.
const (
	headerSignature = "X-Signature-256"
	headerEventType = "X-SecureReq-Event"
)

// WebhookService registers notification endpoints and delivers events to them.
type WebhookService interface {
	Register(ctx context.Context, webhook *models.Webhook) error
	List(ctx context.Context, projectID uuid.UUID) ([]models.Webhook, error)
	Delete(ctx context.Context, projectID, webhookID uuid.UUID) error
	// Dispatch delivers the event to every active webhook of the project
	// subscribed to its type. A failed endpoint never affects the others,
	// and delivery failure is never surfaced to the triggering operation.
	Dispatch(ctx context.Context, projectID uuid.UUID, eventType string, data any)
	// Test delivers a synthetic event to one webhook, bypassing its
	// subscriptions, so the endpoint and secret can be verified.
	Test(ctx context.Context, webhookID uuid.UUID) error
}

type webhookService struct {
	repo     repositories.WebhookRepository
	projects repositories.ProjectRepository
	client   *http.Client
	cfg      config.WebhookConfig
	logger   *zap.Logger
}

// NewWebhookService creates a new webhook service. A nil httpClient falls
// back to a default client; the per-attempt timeout comes from cfg.
func NewWebhookService(
	repo repositories.WebhookRepository,
	projects repositories.ProjectRepository,
	httpClient *http.Client,
	cfg config.WebhookConfig,
	logger *zap.Logger,
) WebhookService {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &webhookService{
		repo:     repo,
		projects: projects,
		client:   httpClient,
		cfg:      cfg,
		logger:   logger.Named("webhook-service"),
	}
}

var _ WebhookService = (*webhookService)(nil)

func (s *webhookService) Register(ctx context.Context, webhook *models.Webhook) error {
	if _, err := s.projects.Get(ctx, webhook.ProjectID); err != nil {
		return err
	}

	u, err := url.Parse(webhook.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: webhook url must be an absolute http(s) URL", apperrors.ErrValidation)
	}
	if webhook.Secret == "" {
		return fmt.Errorf("%w: webhook secret is required", apperrors.ErrValidation)
	}
	if len(webhook.EventTypes) == 0 {
		return fmt.Errorf("%w: at least one event type is required", apperrors.ErrInvalidEvents)
	}
	for _, t := range webhook.EventTypes {
		if !models.ValidEventType(t) {
			return fmt.Errorf("%w: unknown event type %q", apperrors.ErrInvalidEvents, t)
		}
	}

	webhook.Active = true
	return s.repo.Create(ctx, webhook)
}

func (s *webhookService) List(ctx context.Context, projectID uuid.UUID) ([]models.Webhook, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListByProject(ctx, projectID)
}

func (s *webhookService) Delete(ctx context.Context, projectID, webhookID uuid.UUID) error {
	webhook, err := s.repo.Get(ctx, webhookID)
	if err != nil {
		return err
	}
	if webhook.ProjectID != projectID {
		return apperrors.ErrNotFound
	}
	return s.repo.Delete(ctx, webhookID)
}

func (s *webhookService) Dispatch(ctx context.Context, projectID uuid.UUID, eventType string, data any) {
	webhooks, err := s.repo.ListActiveForEvent(ctx, projectID, eventType)
	if err != nil {
		s.logger.Error("Failed to load webhooks for dispatch",
			zap.String("project_id", projectID.String()),
			zap.String("event", eventType),
			zap.Error(err))
		return
	}

	if len(webhooks) == 0 {
		return
	}

	body, err := json.Marshal(models.Event{
		Event:     eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		s.logger.Error("Failed to marshal webhook payload", zap.Error(err))
		return
	}

	for i := range webhooks {
		wh := &webhooks[i]
		err := s.deliver(ctx, wh, eventType, body)
		// last_triggered_at records the attempt, not its outcome: an endpoint
		// that keeps failing still shows when it was last fired.
		s.markTriggered(ctx, wh.ID)
		if err != nil {
			s.logger.Error("Webhook delivery failed",
				zap.String("webhook_id", wh.ID.String()),
				zap.String("url", wh.URL),
				zap.String("event", eventType),
				zap.Error(err))
			continue
		}
		s.logger.Info("Webhook fired",
			zap.String("event", eventType),
			zap.String("url", wh.URL))
	}
}

func (s *webhookService) Test(ctx context.Context, webhookID uuid.UUID) error {
	webhook, err := s.repo.Get(ctx, webhookID)
	if err != nil {
		return err
	}

	body, err := json.Marshal(models.Event{
		Event:     models.EventWebhookTest,
		Timestamp: time.Now().UTC(),
		Data:      map[string]string{"webhook_id": webhook.ID.String()},
	})
	if err != nil {
		return err
	}

	err = s.deliver(ctx, webhook, models.EventWebhookTest, body)
	s.markTriggered(ctx, webhook.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrDeliveryFailed, err)
	}
	return nil
}

func (s *webhookService) markTriggered(ctx context.Context, webhookID uuid.UUID) {
	if err := s.repo.MarkTriggered(ctx, webhookID, time.Now().UTC()); err != nil {
		s.logger.Warn("Failed to record webhook trigger time",
			zap.String("webhook_id", webhookID.String()),
			zap.Error(err))
	}
}

func (s *webhookService) deliver(ctx context.Context, wh *models.Webhook, eventType string, body []byte) error {
	signature := SignPayload(body, wh.Secret)

	backoff := &retry.Config{
		MaxRetries:   s.cfg.MaxAttempts - 1,
		InitialDelay: s.cfg.InitialBackoff,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}

	return retry.Do(ctx, backoff, func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.AttemptTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, wh.URL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(headerSignature, signature)
		req.Header.Set(headerEventType, eventType)

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck

		if resp.StatusCode >= 300 {
			return fmt.Errorf("endpoint returned status %d", resp.StatusCode)
		}
		return nil
	})
}

// SignPayload computes the delivery signature for a request body:
// "sha256=" followed by the hex HMAC-SHA256 of the body under the secret.
func SignPayload(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
