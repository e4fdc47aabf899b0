package repositories

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/hawkinslabdev/rideway-sub002/pkg/database"
	"github.com/hawkinslabdev/rideway-sub002/pkg/models"
	"github.com/hawkinslabdev/rideway-sub002/pkg/tracing"
)

const eventLogsTable = "integration_event_logs"

var eventLogStruct = database.NewStruct(new(models.IntegrationEventLog))

// EventLogRepository handles the append-only dispatch log
type EventLogRepository struct {
	*Repository
}

// NewEventLogRepository creates a new event log repository
func NewEventLogRepository(db database.DB, logger ectologger.Logger) *EventLogRepository {
	return &EventLogRepository{
		Repository: NewRepository(db, logger),
	}
}

// Append writes one dispatch attempt record. Not user-scoped through
// context; the dispatcher supplies the user explicitly.
func (r *EventLogRepository) Append(ctx context.Context, log *models.IntegrationEventLog) error {
	ctx, span := tracing.StartSpan(ctx, "EventLogRepository.Append")
	defer span.End()

	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(eventLogsTable).
		Cols("id", "user_id", "integration_id", "event_type", "status", "request", "response", "error", "duration_ms", "created_at").
		Values(log.ID, log.UserID, log.IntegrationID, log.EventType, log.Status,
			log.Request, log.Response, log.Error, log.DurationMS, sqlbuilder.Raw("NOW()")).
		Returning("created_at")

	query, args := ib.Build()
	err := r.DB().QueryRowContext(ctx, query, args...).Scan(&log.CreatedAt)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"integration_id": log.IntegrationID,
		}).Error("failed to append event log")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to append event log")
	}

	return nil
}

// List retrieves recent logs for the current user, newest first, optionally
// filtered to one integration.
func (r *EventLogRepository) List(ctx context.Context, integrationID *uuid.UUID, limit int) ([]models.IntegrationEventLog, error) {
	ctx, span := tracing.StartSpan(ctx, "EventLogRepository.List")
	defer span.End()

	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	sb := eventLogStruct.SelectFrom(eventLogsTable)
	sb.Where(sb.Equal("user_id", userID))
	if integrationID != nil {
		sb.Where(sb.Equal("integration_id", *integrationID))
	}
	sb.OrderBy("created_at DESC").Limit(limit)

	query, args := sb.Build()
	var logs []models.IntegrationEventLog
	err = r.DB().SelectContext(ctx, &logs, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list event logs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list event logs")
	}

	return logs, nil
}
