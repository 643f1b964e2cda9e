// Package worker executes queued background jobs: transactional email, AI
// insight precomputation and spreadsheet export. It shares the storage layer
// with the API but never serves requests itself.
package worker

import (
	"context"
	"fmt"
	"strings"

	"hisab/internal/amqp"
	"hisab/internal/core"
	"hisab/internal/log"
	"hisab/internal/services"
	"hisab/internal/sheets"
	"hisab/internal/storage"
)

// Mailer delivers one email. Satisfied by mail.Mailer.
type Mailer interface {
	Send(to, subject, body string) error
}

// SheetsExporter mirrors expenses to a spreadsheet. Satisfied by
// sheets.Client.
type SheetsExporter interface {
	ExportExpenses(ctx context.Context, expenses []core.Expense) error
}

var _ SheetsExporter = (*sheets.Client)(nil)

// Worker dispatches queued jobs to their handlers. Optional integrations are
// nil when unconfigured; their jobs are then dropped with a warning instead
// of requeued forever.
type Worker struct {
	repo   *storage.Repository
	mailer Mailer
	ai     *services.AIAssistService
	sheets SheetsExporter
	clock  core.Clock
	logger *log.Logger
}

func New(repo *storage.Repository, mailer Mailer, ai *services.AIAssistService, exporter SheetsExporter, clock core.Clock, logger *log.Logger) *Worker {
	return &Worker{
		repo:   repo,
		mailer: mailer,
		ai:     ai,
		sheets: exporter,
		clock:  clock,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Handle routes one job. A returned error requeues the job.
func (w *Worker) Handle(ctx context.Context, job amqp.Job) error {
	switch job.Kind {
	case amqp.JobSendEmail:
		return w.handleEmail(ctx, job)
	case amqp.JobAIInsight:
		return w.handleInsight(ctx, job)
	case amqp.JobSheetsExport:
		return w.handleSheetsExport(ctx, job)
	default:
		w.logger.WarnContext(ctx, "Dropping job of unknown kind", log.FieldJobKind, string(job.Kind))
		return nil
	}
}

func (w *Worker) handleEmail(ctx context.Context, job amqp.Job) error {
	if w.mailer == nil {
		w.logger.WarnContext(ctx, "No mailer configured, dropping email job")
		return nil
	}
	var p amqp.EmailPayload
	if err := job.DecodePayload(&p); err != nil {
		return err
	}
	if err := w.mailer.Send(p.To, p.Subject, p.Body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	w.logger.InfoContext(ctx, "Email delivered", log.FieldEmailAddress, p.To)
	return nil
}

// handleInsight refreshes a user's cached insights and surfaces them as an
// in-app notification.
func (w *Worker) handleInsight(ctx context.Context, job amqp.Job) error {
	if w.ai == nil || !w.ai.Enabled() {
		w.logger.WarnContext(ctx, "AI disabled, dropping insight job")
		return nil
	}
	var p amqp.UserPayload
	if err := job.DecodePayload(&p); err != nil {
		return err
	}

	w.ai.InvalidateInsights(p.UserID)
	insights, err := w.ai.Insights(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("compute insights: %w", err)
	}

	if _, err := w.repo.CreateNotification(ctx, core.Notification{
		UserID:    p.UserID,
		Kind:      core.NotifyMonthlySummary,
		Title:     "Your spending insights",
		Body:      strings.Join(insights, "\n"),
		CreatedAt: w.clock.Now(),
	}); err != nil {
		return fmt.Errorf("store insight notification: %w", err)
	}

	w.logger.InfoContext(ctx, "Insights refreshed", log.FieldUserID, p.UserID)
	return nil
}

func (w *Worker) handleSheetsExport(ctx context.Context, job amqp.Job) error {
	if w.sheets == nil {
		w.logger.WarnContext(ctx, "No sheets exporter configured, dropping export job")
		return nil
	}
	var p amqp.UserPayload
	if err := job.DecodePayload(&p); err != nil {
		return err
	}

	expenses, err := w.repo.ListAllExpenses(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("load expenses: %w", err)
	}
	if err := w.sheets.ExportExpenses(ctx, expenses); err != nil {
		return fmt.Errorf("export expenses: %w", err)
	}

	w.logger.InfoContext(ctx, "Expenses exported to spreadsheet",
		log.FieldUserID, p.UserID, "rows", len(expenses))
	return nil
}
