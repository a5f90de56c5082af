package syncer

import "context"

// Client drives the story feed mirror: it pages through the remote feed via
// the collection controller, archives unseen stories and fans them out to
// subscribed Telegram chats.
type Client interface {
	SyncOnce(ctx context.Context) error
	ScheduleSync(ctx context.Context) error
	ScheduleArchiveCleanup(ctx context.Context) error
}
