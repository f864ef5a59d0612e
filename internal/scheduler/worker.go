package scheduler

import (
	"context"
	"fmt"

	"orderdesk_backend/internal/inbox/domain"
	"orderdesk_backend/internal/inbox/repository"
	"orderdesk_backend/platform/config"
	"orderdesk_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageSender delivers a text message to a phone number. Satisfied
// by the whatsapp client; nil-safe implementations may drop sends.
type MessageSender interface {
	SendMessage(ctx context.Context, phoneNumber string, message string) error
}

const followUpText = "Thanks for your patience, we are looking into your question and will get back to you shortly."

type Worker struct {
	server      *asynq.Server
	mux         *asynq.ServeMux
	repo        repository.Repository
	sender      MessageSender
	log         *logger.Logger
	maxAttempts int
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, sender MessageSender, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetSchedulerConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	maxAttempts := cfg.GetOutboxMaxAttempts()
	if maxAttempts < 1 {
		maxAttempts = 5
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:      server,
		mux:         mux,
		repo:        repository.New(pool),
		sender:      sender,
		log:         log,
		maxAttempts: maxAttempts,
	}

	mux.HandleFunc(TaskOutboxDispatch, w.handleOutboxDispatch)
	mux.HandleFunc(TaskInquiryFollowUp, w.handleInquiryFollowUp)

	return w, nil
}

// handleOutboxDispatch delivers one outbox row. Delivery errors are
// returned so asynq retries, until the attempt budget runs out.
func (w *Worker) handleOutboxDispatch(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseOutboxDispatchPayload(task)
	if err != nil {
		return err
	}

	outboxID, err := uuid.Parse(payload.OutboxID)
	if err != nil {
		return err
	}

	row, err := w.repo.GetOutbox(ctx, outboxID)
	if err != nil {
		return err
	}
	if row.Status == domain.OutboxSent {
		return nil
	}

	if err := w.sender.SendMessage(ctx, row.ToPhone, row.Text); err != nil {
		if markErr := w.repo.MarkOutboxFailed(ctx, outboxID, err.Error()); markErr != nil {
			w.log.Error("outbox failure not recorded", "outbox_id", outboxID.String(), "error", markErr.Error())
		}
		if row.Attempts+1 >= w.maxAttempts {
			w.log.Error("outbox message abandoned after max attempts",
				"outbox_id", outboxID.String(), "attempts", row.Attempts+1, "error", err.Error())
			return nil
		}
		return err
	}

	if err := w.repo.MarkOutboxSent(ctx, outboxID); err != nil {
		return err
	}
	w.log.Info("outbox message delivered", "outbox_id", outboxID.String(), "phone", row.ToPhone)
	return nil
}

// handleInquiryFollowUp sends a holding message when a customer's
// inquiry is still unresolved after the configured delay. Customers
// who switched auto-reply off are left alone.
func (w *Worker) handleInquiryFollowUp(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseInquiryFollowUpPayload(task)
	if err != nil {
		return err
	}

	orgID, err := uuid.Parse(payload.OrganizationID)
	if err != nil {
		return err
	}

	state, err := w.repo.GetInteractionState(ctx, orgID, payload.CustomerPhone)
	if err != nil {
		return err
	}
	if state.LastInquiry == nil || state.LastInquiry.Status != domain.InquiryUnresolved {
		return nil
	}
	if !state.AutoReplyEnabled {
		return nil
	}

	if err := w.sender.SendMessage(ctx, payload.CustomerPhone, followUpText); err != nil {
		return err
	}

	_, err = w.repo.CreateMessage(ctx, repository.CreateMessageParams{
		OrganizationID: orgID,
		CustomerPhone:  payload.CustomerPhone,
		Direction:      domain.DirectionOut,
		Text:           followUpText,
	})
	if err != nil {
		return err
	}

	w.log.Info("inquiry follow-up sent", "phone", payload.CustomerPhone)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
