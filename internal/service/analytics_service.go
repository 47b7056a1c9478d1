package service

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/logger"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
)

const analyticsPublishTimeout = 2 * time.Second

var (
	_ AnalyticsSink = (*LogAnalytics)(nil)
	_ AnalyticsSink = (*RedisAnalytics)(nil)
)

// LogAnalytics writes analytics events as structured log lines.
type LogAnalytics struct {
	log zerolog.Logger
}

func NewLogAnalytics() *LogAnalytics {
	return &LogAnalytics{log: logger.Component("analytics")}
}

func (a *LogAnalytics) Identify(ctx context.Context, subjectID string, traits map[string]any) {
	a.log.Info().Str("event", models.EventIdentify).Str("subjectId", subjectID).Fields(traits).Msg("Analytics")
}

func (a *LogAnalytics) Track(ctx context.Context, event string, subjectID string, properties map[string]any) {
	a.log.Info().Str("event", event).Str("subjectId", subjectID).Fields(properties).Msg("Analytics")
}

// RedisAnalytics appends events to a Redis stream. Publishing happens in the
// background and failures are only logged.
type RedisAnalytics struct {
	client *redis.Client
	stream string
	now    func() time.Time
	log    zerolog.Logger
	wg     sync.WaitGroup
}

func NewRedisAnalytics(client *redis.Client, stream string) *RedisAnalytics {
	return &RedisAnalytics{
		client: client,
		stream: stream,
		now:    time.Now,
		log:    logger.Component("analytics"),
	}
}

func (a *RedisAnalytics) Identify(ctx context.Context, subjectID string, traits map[string]any) {
	a.publish(ctx, models.AnalyticsEvent{
		Name:       models.EventIdentify,
		SubjectID:  subjectID,
		Properties: traits,
		Timestamp:  a.now().UTC(),
	})
}

func (a *RedisAnalytics) Track(ctx context.Context, event string, subjectID string, properties map[string]any) {
	a.publish(ctx, models.AnalyticsEvent{
		Name:       event,
		SubjectID:  subjectID,
		Properties: properties,
		Timestamp:  a.now().UTC(),
	})
}

// Flush waits for in-flight publishes.
func (a *RedisAnalytics) Flush() {
	a.wg.Wait()
}

func (a *RedisAnalytics) publish(ctx context.Context, event models.AnalyticsEvent) {
	properties, err := json.Marshal(event.Properties)
	if err != nil {
		a.log.Error().Err(err).Str("event", event.Name).Msg("Failed to encode analytics properties")
		return
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), analyticsPublishTimeout)
		defer cancel()

		err := a.client.XAdd(ctx, &redis.XAddArgs{
			Stream: a.stream,
			Values: map[string]any{
				"name":       event.Name,
				"subjectId":  event.SubjectID,
				"properties": string(properties),
				"timestamp":  event.Timestamp.Format(time.RFC3339Nano),
			},
		}).Err()
		if err != nil {
			a.log.Warn().Err(err).Str("event", event.Name).Msg("Failed to publish analytics event")
		}
	}()
}
