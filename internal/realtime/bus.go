package realtime

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Bus is the pub/sub fan-out used for realtime notifications. Delivery is
// best-effort and at-most-once: publishing to a group with no subscribers
// drops the message.
type Bus interface {
	Publish(ctx context.Context, group string, payload []byte) error
	// Subscribe joins the group and returns a receive channel plus a cancel
	// function that must be called on disconnect to leave the group.
	Subscribe(ctx context.Context, group string) (<-chan []byte, func(), error)
	Close() error
}

// UserGroup returns the notification group key for a user id.
func UserGroup(userID uuid.UUID) string {
	return fmt.Sprintf("user_%s", userID)
}
