package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
	"github.com/redis/go-redis/v9"
)

// DefaultMaxLen bounds the activity stream; older entries are trimmed approximately
const DefaultMaxLen = 10000

// ActivityPublisher receives one record per user interaction
type ActivityPublisher interface {
	Publish(ctx context.Context, activity *models.Activity) error
}

// StreamPublisher publishes dashboard activity to a Redis stream
type StreamPublisher struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

// NewStreamPublisher creates a new stream publisher
func NewStreamPublisher(client redis.Cmdable, stream string) *StreamPublisher {
	return &StreamPublisher{
		client: client,
		stream: stream,
		maxLen: DefaultMaxLen,
	}
}

// Publish appends the activity to the stream
func (p *StreamPublisher) Publish(ctx context.Context, activity *models.Activity) error {
	values, err := streamValues(activity)
	if err != nil {
		return err
	}

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: values,
	}).Err()
}

// streamValues flattens an activity into stream fields.
// The full record is kept under "data" and the common filter keys are duplicated alongside it.
func streamValues(activity *models.Activity) (map[string]interface{}, error) {
	data, err := json.Marshal(activity)
	if err != nil {
		return nil, fmt.Errorf("marshaling activity: %w", err)
	}

	values := map[string]interface{}{
		"data":       string(data),
		"type":       activity.Type,
		"session_id": activity.SessionID,
		"rows":       strconv.Itoa(activity.Rows),
	}
	if activity.Topic != "" {
		values["topic"] = string(activity.Topic)
	}
	if activity.Format != "" {
		values["format"] = activity.Format
	}
	return values, nil
}

// Noop discards every activity
type Noop struct{}

func (Noop) Publish(context.Context, *models.Activity) error { return nil }
