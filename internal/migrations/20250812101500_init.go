package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upInit, downInit)
}

func upInit(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE story_archive (
		id SERIAL PRIMARY KEY,
		story_id VARCHAR NOT NULL,
		author VARCHAR NOT NULL,
		photo_url VARCHAR NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE TABLE subscriptions (
		id SERIAL PRIMARY KEY,
		chat_id BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`)
	if err != nil {
		return err
	}
	return nil
}

func downInit(tx *sql.Tx) error {
	_, err := tx.Exec(`
	DROP TABLE subscriptions;
	DROP TABLE story_archive;
	`)
	if err != nil {
		return err
	}
	return nil
}
