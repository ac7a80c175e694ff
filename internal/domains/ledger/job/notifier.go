package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"inventory-engine/internal/domains/ledger/model"
	"inventory-engine/internal/shared"
)

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueNotifier schedules a stock sync for the item of every posted entry.
type QueueNotifier struct {
	client Enqueuer
	source string
}

func NewQueueNotifier(client Enqueuer, source string) *QueueNotifier {
	return &QueueNotifier{client: client, source: source}
}

func (n *QueueNotifier) EntryPosted(ctx context.Context, entry model.Entry) error {
	payload, err := json.Marshal(shared.ItemStockSyncPayload{
		ItemID:        entry.ItemID.String(),
		EntryID:       entry.ID.String(),
		Source:        n.source,
		CorrelationID: entry.ID.String(),
		PostedAt:      entry.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal stock sync payload: %w", err)
	}

	task := asynq.NewTask(shared.TypeSyncItemStock, payload)
	_, err = n.client.EnqueueContext(ctx, task,
		asynq.Queue(shared.QueueDefault),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("enqueue stock sync: %w", err)
	}
	return nil
}
