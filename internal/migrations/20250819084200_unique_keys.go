package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upUniqueKeys, downUniqueKeys)
}

// Duplicate mirror sends were observed when two sync runs raced; the unique
// keys let the archive insert act as the arbiter.
func upUniqueKeys(tx *sql.Tx) error {
	_, err := tx.Exec(`
	ALTER TABLE story_archive ADD CONSTRAINT story_archive_story_id_key UNIQUE (story_id);
	ALTER TABLE subscriptions ADD CONSTRAINT subscriptions_chat_id_key UNIQUE (chat_id);
	`)
	if err != nil {
		return err
	}
	return nil
}

func downUniqueKeys(tx *sql.Tx) error {
	_, err := tx.Exec(`
	ALTER TABLE subscriptions DROP CONSTRAINT subscriptions_chat_id_key;
	ALTER TABLE story_archive DROP CONSTRAINT story_archive_story_id_key;
	`)
	if err != nil {
		return err
	}
	return nil
}
