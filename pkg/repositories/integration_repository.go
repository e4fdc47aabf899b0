package repositories

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/hawkinslabdev/rideway-sub002/pkg/database"
	"github.com/hawkinslabdev/rideway-sub002/pkg/dispatch"
	"github.com/hawkinslabdev/rideway-sub002/pkg/events"
	"github.com/hawkinslabdev/rideway-sub002/pkg/models"
	"github.com/hawkinslabdev/rideway-sub002/pkg/tracing"
)

const (
	integrationsTable  = "integrations"
	subscriptionsTable = "integration_event_subscriptions"
)

var (
	integrationStruct  = database.NewStruct(new(models.Integration))
	subscriptionStruct = database.NewStruct(new(models.IntegrationEventSubscription))
)

// IntegrationRepository handles database operations for integrations and
// their event subscriptions
type IntegrationRepository struct {
	*Repository
}

// NewIntegrationRepository creates a new integration repository
func NewIntegrationRepository(db database.DB, logger ectologger.Logger) *IntegrationRepository {
	return &IntegrationRepository{
		Repository: NewRepository(db, logger),
	}
}

// Create creates a new integration. Config must already be encrypted.
func (r *IntegrationRepository) Create(ctx context.Context, integration *models.Integration) error {
	ctx, span := tracing.StartSpan(ctx, "IntegrationRepository.Create")
	defer span.End()

	userID, err := GetUserID(ctx)
	if err != nil {
		return err
	}
	integration.UserID = userID

	if integration.ID == uuid.Nil {
		integration.ID = uuid.New()
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(integrationsTable).
		Cols("id", "user_id", "type", "name", "active", "config", "created_at", "updated_at").
		Values(integration.ID, integration.UserID, integration.Type, integration.Name, integration.Active,
			integration.Config, sqlbuilder.Raw("NOW()"), sqlbuilder.Raw("NOW()")).
		Returning("created_at", "updated_at")

	query, args := ib.Build()
	err = r.DB().QueryRowContext(ctx, query, args...).Scan(&integration.CreatedAt, &integration.UpdatedAt)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"integration_id": integration.ID,
		}).Error("failed to create integration")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create integration")
	}

	return nil
}

// GetByID retrieves an integration by ID (user-scoped)
func (r *IntegrationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Integration, error) {
	ctx, span := tracing.StartSpan(ctx, "IntegrationRepository.GetByID")
	defer span.End()

	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	sb := integrationStruct.SelectFrom(integrationsTable)
	sb.Where(sb.Equal("user_id", userID), sb.Equal("id", id))

	query, args := sb.Build()
	var integration models.Integration
	err = r.DB().GetContext(ctx, &integration, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "integration %s does not exist", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"integration_id": id,
		}).Error("failed to get integration by ID")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get integration by ID")
	}

	return &integration, nil
}

// List retrieves all integrations for the current user
func (r *IntegrationRepository) List(ctx context.Context) ([]models.Integration, error) {
	ctx, span := tracing.StartSpan(ctx, "IntegrationRepository.List")
	defer span.End()

	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	sb := integrationStruct.SelectFrom(integrationsTable)
	sb.Where(sb.Equal("user_id", userID))
	sb.OrderBy("name")

	query, args := sb.Build()
	var integrations []models.Integration
	err = r.DB().SelectContext(ctx, &integrations, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list integrations")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list integrations")
	}

	return integrations, nil
}

// Update updates an integration. A nil Config leaves the stored config
// untouched.
func (r *IntegrationRepository) Update(ctx context.Context, integration *models.Integration) error {
	ctx, span := tracing.StartSpan(ctx, "IntegrationRepository.Update")
	defer span.End()

	userID, err := GetUserID(ctx)
	if err != nil {
		return err
	}

	ub := database.NewUpdateBuilder()
	assignments := []string{
		ub.Assign("name", integration.Name),
		ub.Assign("active", integration.Active),
		ub.Assign("updated_at", sqlbuilder.Raw("NOW()")),
	}
	if integration.Config != nil {
		assignments = append(assignments, ub.Assign("config", integration.Config))
	}

	ub.Update(integrationsTable).
		Set(assignments...).
		Where(ub.Equal("user_id", userID), ub.Equal("id", integration.ID))
	ub.SQL("RETURNING updated_at")

	query, args := ub.Build()
	err = r.DB().QueryRowContext(ctx, query, args...).Scan(&integration.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "integration %s does not exist", integration.ID)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"integration_id": integration.ID,
		}).Error("failed to update integration")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update integration")
	}

	return nil
}

// Delete removes an integration along with its subscriptions
func (r *IntegrationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "IntegrationRepository.Delete")
	defer span.End()

	userID, err := GetUserID(ctx)
	if err != nil {
		return err
	}

	db := database.NewDeleteBuilder()
	db.DeleteFrom(integrationsTable)
	db.Where(db.Equal("user_id", userID), db.Equal("id", id))
	db.SQL("RETURNING id")

	query, args := db.Build()
	var deletedID uuid.UUID
	err = r.DB().QueryRowContext(ctx, query, args...).Scan(&deletedID)
	if errors.Is(err, sql.ErrNoRows) {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "integration %s does not exist", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"integration_id": id,
		}).Error("failed to delete integration")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete integration")
	}

	return nil
}

// ListSubscriptions retrieves an integration's event subscriptions
func (r *IntegrationRepository) ListSubscriptions(ctx context.Context, integrationID uuid.UUID) ([]models.IntegrationEventSubscription, error) {
	ctx, span := tracing.StartSpan(ctx, "IntegrationRepository.ListSubscriptions")
	defer span.End()

	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	sb := subscriptionStruct.SelectFrom(subscriptionsTable)
	sb.Where(sb.Equal("user_id", userID), sb.Equal("integration_id", integrationID))
	sb.OrderBy("event_type")

	query, args := sb.Build()
	var subscriptions []models.IntegrationEventSubscription
	err = r.DB().SelectContext(ctx, &subscriptions, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"integration_id": integrationID,
		}).Error("failed to list subscriptions")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list subscriptions")
	}

	return subscriptions, nil
}

// UpsertSubscription creates or replaces an integration's subscription for
// one event type
func (r *IntegrationRepository) UpsertSubscription(ctx context.Context, subscription *models.IntegrationEventSubscription) error {
	ctx, span := tracing.StartSpan(ctx, "IntegrationRepository.UpsertSubscription")
	defer span.End()

	userID, err := GetUserID(ctx)
	if err != nil {
		return err
	}
	subscription.UserID = userID

	if subscription.ID == uuid.Nil {
		subscription.ID = uuid.New()
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(subscriptionsTable).
		Cols("id", "user_id", "integration_id", "event_type", "enabled", "template_data", "created_at", "updated_at").
		Values(subscription.ID, subscription.UserID, subscription.IntegrationID, subscription.EventType,
			subscription.Enabled, subscription.TemplateData,
			sqlbuilder.Raw("NOW()"), sqlbuilder.Raw("NOW()"))

	ub := ib.OnConflict("integration_id", "event_type")
	ub.Set(
		ub.Assign("enabled", database.Excluded("enabled")),
		ub.Assign("template_data", database.Excluded("template_data")),
		ub.Assign("updated_at", sqlbuilder.Raw("NOW()")),
	)
	ib.Returning("id", "created_at", "updated_at")

	query, args := ib.Build()
	err = r.DB().QueryRowContext(ctx, query, args...).
		Scan(&subscription.ID, &subscription.CreatedAt, &subscription.UpdatedAt)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"integration_id": subscription.IntegrationID,
			"event_type":     subscription.EventType,
		}).Error("failed to upsert subscription")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert subscription")
	}

	return nil
}

// ResolveSubscribed loads the user's active integrations that have an
// enabled subscription for the event type. Not scoped through context; the
// periodic sweep calls it for arbitrary users.
func (r *IntegrationRepository) ResolveSubscribed(ctx context.Context, userID uuid.UUID, event events.EventType) ([]dispatch.Subscribed, error) {
	ctx, span := tracing.StartSpan(ctx, "IntegrationRepository.ResolveSubscribed")
	defer span.End()

	query := `SELECT
			i.id, i.user_id, i.type, i.name, i.active, i.config, i.created_at, i.updated_at,
			s.id AS subscription_id, s.template_data
		FROM integrations i
		JOIN integration_event_subscriptions s ON s.integration_id = i.id
		WHERE i.user_id = $1 AND i.active = true AND s.event_type = $2 AND s.enabled = true
		ORDER BY i.name`

	rows, err := r.DB().QueryxContext(ctx, query, userID, event)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"event_type": event,
		}).Error("failed to resolve subscribed integrations")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve subscribed integrations")
	}
	defer rows.Close()

	var subscribed []dispatch.Subscribed
	for rows.Next() {
		var row struct {
			models.Integration
			SubscriptionID uuid.UUID                      `db:"subscription_id"`
			TemplateData   database.JSONB[map[string]any] `db:"template_data"`
		}
		if err := rows.StructScan(&row); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error("failed to scan subscribed integration")
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve subscribed integrations")
		}

		integration := row.Integration
		subscribed = append(subscribed, dispatch.Subscribed{
			Integration: &integration,
			Subscription: &models.IntegrationEventSubscription{
				ID:            row.SubscriptionID,
				UserID:        userID,
				IntegrationID: integration.ID,
				EventType:     event,
				Enabled:       true,
				TemplateData:  row.TemplateData,
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve subscribed integrations")
	}

	return subscribed, nil
}
