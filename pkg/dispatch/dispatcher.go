package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/hawkinslabdev/rideway-sub002/pkg/cryptox"
	"github.com/hawkinslabdev/rideway-sub002/pkg/database"
	"github.com/hawkinslabdev/rideway-sub002/pkg/events"
	"github.com/hawkinslabdev/rideway-sub002/pkg/httpclient"
	"github.com/hawkinslabdev/rideway-sub002/pkg/metrics"
	"github.com/hawkinslabdev/rideway-sub002/pkg/models"
	"github.com/hawkinslabdev/rideway-sub002/pkg/tracing"
)

// DefaultSendTimeout bounds a single integration send so one hung endpoint
// cannot stall the whole dispatch.
const DefaultSendTimeout = 10 * time.Second

// Subscribed pairs an integration with its enabled subscription for the
// triggering event.
type Subscribed struct {
	Integration  *models.Integration
	Subscription *models.IntegrationEventSubscription
}

// IntegrationResolver loads a user's active integrations subscribed to an
// event type.
type IntegrationResolver interface {
	ResolveSubscribed(ctx context.Context, userID uuid.UUID, event events.EventType) ([]Subscribed, error)
}

// EventLogWriter appends dispatch attempt records.
type EventLogWriter interface {
	Append(ctx context.Context, log *models.IntegrationEventLog) error
}

// IntegrationResult is the outcome of one integration's send.
type IntegrationResult struct {
	IntegrationID uuid.UUID `json:"integration_id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Success       bool      `json:"success"`
	Error         string    `json:"error,omitempty"`
	DurationMS    int64     `json:"duration_ms"`
}

// Result is the aggregate outcome of a dispatch call. Success is true only
// when every individual attempt succeeded.
type Result struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Results []IntegrationResult `json:"results"`
}

// Dispatcher fans an event out to all subscribed integrations:
// Resolve -> Filter -> Build Payload -> Send -> Log. Sends run concurrently
// and are isolated; one failure never blocks or aborts another.
type Dispatcher struct {
	resolver    IntegrationResolver
	logs        EventLogWriter
	cipher      *cryptox.Cipher
	transports  map[models.IntegrationType]Transport
	logger      ectologger.Logger
	sendTimeout time.Duration
}

// NewDispatcher creates a Dispatcher
func NewDispatcher(
	resolver IntegrationResolver,
	logs EventLogWriter,
	cipher *cryptox.Cipher,
	transports map[models.IntegrationType]Transport,
	logger ectologger.Logger,
	sendTimeout time.Duration,
) *Dispatcher {
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	return &Dispatcher{
		resolver:    resolver,
		logs:        logs,
		cipher:      cipher,
		transports:  transports,
		logger:      logger,
		sendTimeout: sendTimeout,
	}
}

// Dispatch sends an event to every active, subscribed integration of the
// user. eventData is merged into the base payload alongside the event name
// and timestamp.
func (d *Dispatcher) Dispatch(ctx context.Context, userID uuid.UUID, event events.EventType, eventData map[string]any) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "Dispatcher.Dispatch")
	defer span.End()

	subscribed, err := d.resolver.ResolveSubscribed(ctx, userID, event)
	if err != nil {
		return nil, err
	}

	if len(subscribed) == 0 {
		return &Result{Success: true, Message: "no active integrations"}, nil
	}

	basePayload := map[string]any{
		"event":     string(event),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for key, value := range eventData {
		basePayload[key] = value
	}

	results := make([]IntegrationResult, len(subscribed))

	var wg sync.WaitGroup
	for i, sub := range subscribed {
		wg.Add(1)
		go func(i int, sub Subscribed) {
			defer wg.Done()
			results[i] = d.sendOne(ctx, userID, event, sub, basePayload)
		}(i, sub)
	}
	wg.Wait()

	result := &Result{Success: true, Results: results}
	for _, r := range results {
		if !r.Success {
			result.Success = false
		}
	}
	if result.Success {
		result.Message = "dispatched"
	} else {
		result.Message = "one or more integrations failed"
	}

	return result, nil
}

// Test sends an example payload to a single integration, bypassing
// subscription filtering. Used by the integration test endpoint.
func (d *Dispatcher) Test(ctx context.Context, userID uuid.UUID, integration *models.Integration, event events.EventType, payload map[string]any) IntegrationResult {
	ctx, span := tracing.StartSpan(ctx, "Dispatcher.Test")
	defer span.End()

	sub := Subscribed{
		Integration: integration,
		Subscription: &models.IntegrationEventSubscription{
			IntegrationID: integration.ID,
			EventType:     event,
			Enabled:       true,
		},
	}

	basePayload := map[string]any{
		"event":     string(event),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for key, value := range payload {
		basePayload[key] = value
	}

	return d.sendOne(ctx, userID, event, sub, basePayload)
}

func (d *Dispatcher) sendOne(ctx context.Context, userID uuid.UUID, event events.EventType, sub Subscribed, basePayload map[string]any) IntegrationResult {
	integration := sub.Integration

	result := IntegrationResult{
		IntegrationID: integration.ID,
		Name:          integration.Name,
		Type:          string(integration.Type),
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	payload := make(map[string]any, len(basePayload))
	for key, value := range basePayload {
		payload[key] = value
	}
	if templateData := sub.Subscription.TemplateData.GetValue(); templateData != nil {
		for key, value := range templateData {
			payload[key] = value
		}
	}

	start := time.Now()
	attempt, resp, err := d.deliver(sendCtx, integration, event, payload)
	result.DurationMS = time.Since(start).Milliseconds()

	outcome := models.EventLogStatusSuccess
	if err != nil {
		result.Error = err.Error()
		outcome = models.EventLogStatusFailed
		d.logger.WithContext(ctx).WithError(err).WithFields(map[string]interface{}{
			"integration_id": integration.ID.String(),
			"event":          string(event),
		}).Warnf("integration dispatch failed")
	} else {
		result.Success = true
	}

	metrics.DispatchTotal.WithLabelValues(string(integration.Type), outcome).Inc()
	metrics.DispatchDuration.WithLabelValues(string(integration.Type)).Observe(time.Since(start).Seconds())

	d.writeLog(ctx, userID, integration, event, attempt, resp, result)

	return result
}

func (d *Dispatcher) deliver(ctx context.Context, integration *models.Integration, event events.EventType, payload map[string]any) (*Attempt, *httpclient.Response, error) {
	transport, ok := d.transports[integration.Type]
	if !ok {
		return nil, nil, errUnknownType(integration.Type)
	}

	plaintext, err := d.cipher.Decrypt(integration.Config)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := models.DecodeIntegrationConfig(integration.Type, plaintext)
	if err != nil {
		return nil, nil, err
	}

	return transport.Send(ctx, cfg, event, payload)
}

// maxLoggedBody caps how much of a response body is written to the log.
const maxLoggedBody = 2048

// writeLog persists a sanitized record of the attempt. Log failures are
// swallowed; the dispatch outcome already happened.
func (d *Dispatcher) writeLog(ctx context.Context, userID uuid.UUID, integration *models.Integration, event events.EventType, attempt *Attempt, resp *httpclient.Response, result IntegrationResult) {
	request := map[string]any{}
	if attempt != nil {
		request["url"] = attempt.URL
		request["method"] = attempt.Method
		request["payload"] = Sanitize(attempt.Payload)
	}

	response := map[string]any{}
	if resp != nil {
		response["status_code"] = resp.StatusCode
		body := resp.Body
		if len(body) > maxLoggedBody {
			body = body[:maxLoggedBody]
		}
		response["body"] = string(body)
	}

	log := &models.IntegrationEventLog{
		ID:            uuid.New(),
		UserID:        userID,
		IntegrationID: integration.ID,
		EventType:     event,
		DurationMS:    result.DurationMS,
		Request:       database.NewJSONB(request),
		Response:      database.NewJSONB(response),
	}
	if result.Success {
		log.Status = models.EventLogStatusSuccess
	} else {
		log.Status = models.EventLogStatusFailed
		errMsg := result.Error
		log.Error = &errMsg
	}

	if err := d.logs.Append(ctx, log); err != nil {
		d.logger.WithContext(ctx).WithError(err).Warnf("failed to write integration event log")
	}
}

type errUnknownType models.IntegrationType

func (e errUnknownType) Error() string {
	return "unknown integration type " + string(e)
}
