package db

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
            id UUID PRIMARY KEY,
            username TEXT NOT NULL UNIQUE,
            email TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            nickname TEXT,
            avatar_public_id TEXT,
            is_admin BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS sessions (
            id UUID PRIMARY KEY,
            user_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            refresh_token TEXT NOT NULL UNIQUE,
            expires_at TIMESTAMPTZ NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS rooms (
            id UUID PRIMARY KEY,
            name TEXT NOT NULL DEFAULT '',
            is_group BOOLEAN NOT NULL DEFAULT FALSE,
            created_by UUID NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS room_participants (
            room_id UUID NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
            user_id UUID NOT NULL,
            PRIMARY KEY (room_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS messages (
            id BIGSERIAL PRIMARY KEY,
            room_id UUID NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
            user_id UUID NOT NULL,
            content TEXT,
            image_url TEXT,
            is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
            is_locked BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS read_statuses (
            message_id BIGINT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
            user_id UUID NOT NULL,
            PRIMARY KEY (message_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS user_bans (
            id BIGSERIAL PRIMARY KEY,
            user_id UUID NOT NULL,
            banned_by UUID NOT NULL,
            reason TEXT,
            expires_at TIMESTAMPTZ,
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS system_settings (
            id INT PRIMARY KEY CHECK (id = 1),
            studio_enabled BOOLEAN NOT NULL DEFAULT TRUE,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`INSERT INTO system_settings (id, studio_enabled) VALUES (1, TRUE)
            ON CONFLICT (id) DO NOTHING;`,
		notifyFunction,
	}

	for _, table := range []string{"messages", "read_statuses", "room_participants", "user_bans", "system_settings"} {
		migrations = append(migrations,
			fmt.Sprintf(`DROP TRIGGER IF EXISTS ychat_notify_%s ON %s;`, table, table),
			fmt.Sprintf(`CREATE TRIGGER ychat_notify_%s
                AFTER INSERT OR UPDATE OR DELETE ON %s
                FOR EACH ROW EXECUTE FUNCTION ychat_notify();`, table, table),
		)
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}

// notifyFunction backs the change-notification feed: every mutation on a
// watched table emits one pg_notify on the shared channel with enough
// context (table, op, room, user) for subscribers to decide relevance.
const notifyFunction = `
CREATE OR REPLACE FUNCTION ychat_notify() RETURNS trigger AS $$
DECLARE
    payload JSONB;
BEGIN
    payload := jsonb_build_object('table', TG_TABLE_NAME, 'op', TG_OP);
    IF TG_TABLE_NAME = 'messages' THEN
        IF TG_OP = 'DELETE' THEN
            payload := payload || jsonb_build_object('room_id', OLD.room_id, 'user_id', OLD.user_id);
        ELSE
            payload := payload || jsonb_build_object('room_id', NEW.room_id, 'user_id', NEW.user_id);
        END IF;
    ELSIF TG_TABLE_NAME = 'room_participants' THEN
        IF TG_OP = 'DELETE' THEN
            payload := payload || jsonb_build_object('room_id', OLD.room_id, 'user_id', OLD.user_id);
        ELSE
            payload := payload || jsonb_build_object('room_id', NEW.room_id, 'user_id', NEW.user_id);
        END IF;
    ELSIF TG_TABLE_NAME = 'read_statuses' THEN
        IF TG_OP = 'DELETE' THEN
            payload := payload || jsonb_build_object(
                'room_id', (SELECT m.room_id FROM messages m WHERE m.id = OLD.message_id),
                'user_id', OLD.user_id);
        ELSE
            payload := payload || jsonb_build_object(
                'room_id', (SELECT m.room_id FROM messages m WHERE m.id = NEW.message_id),
                'user_id', NEW.user_id);
        END IF;
    ELSIF TG_TABLE_NAME = 'user_bans' THEN
        IF TG_OP = 'DELETE' THEN
            payload := payload || jsonb_build_object('user_id', OLD.user_id);
        ELSE
            payload := payload || jsonb_build_object('user_id', NEW.user_id);
        END IF;
    END IF;
    PERFORM pg_notify('ychat_changes', payload::text);
    RETURN NULL;
END;
$$ LANGUAGE plpgsql;
`
