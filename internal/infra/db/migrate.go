package db

import (
	"database/sql"
)

// MigrateUp creates the catalog schema. Every statement is idempotent.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS contact_partners (
    id           BIGSERIAL PRIMARY KEY,
    first_name   VARCHAR(50) NOT NULL,
    last_name    VARCHAR(50) NOT NULL,
    phone_number VARCHAR(50) NOT NULL DEFAULT '',
    url          VARCHAR(2048) NOT NULL DEFAULT ''
)`); err != nil {
		return err
	}

	// child/parent pointers are cleared by the repository before a delete,
	// so those keys carry no ON DELETE action
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS articles (
    id                        BIGSERIAL PRIMARY KEY,
    title                     TEXT NOT NULL,
    text                      TEXT NOT NULL DEFAULT '',
    rubric                    VARCHAR(32) NOT NULL,
    priority                  VARCHAR(16) NOT NULL,
    target_group              VARCHAR(32) NOT NULL,
    support_type              VARCHAR(32) NOT NULL,
    subject                   VARCHAR(48) NOT NULL,
    state                     VARCHAR(16) NOT NULL,
    archive_date              TIMESTAMPTZ NOT NULL,
    application_deadline      TIMESTAMPTZ NOT NULL,
    is_recurrent              BOOLEAN NOT NULL DEFAULT FALSE,
    recurrent_check_from      TIMESTAMPTZ,
    next_application_deadline TIMESTAMPTZ,
    next_archive_date         TIMESTAMPTZ,
    contact_partner           BIGINT,
    child_article             BIGINT,
    parent_article            BIGINT,
    CONSTRAINT fk_articles_contact_partner FOREIGN KEY (contact_partner)
        REFERENCES contact_partners(id) ON DELETE SET NULL,
    CONSTRAINT fk_articles_child_article FOREIGN KEY (child_article) REFERENCES articles(id),
    CONSTRAINT fk_articles_parent_article FOREIGN KEY (parent_article) REFERENCES articles(id),
    CONSTRAINT uq_articles_child_article UNIQUE (child_article),
    CONSTRAINT chk_articles_no_self_link CHECK (child_article <> id AND parent_article <> id)
)`); err != nil {
		return err
	}

	indexes := []string{
		// default listing order
		`CREATE INDEX IF NOT EXISTS idx_articles_application_deadline ON articles(application_deadline)`,
		// archive listing
		`CREATE INDEX IF NOT EXISTS idx_articles_archive_date ON articles(archive_date DESC)`,
		// recurrence candidate scan
		`CREATE INDEX IF NOT EXISTS idx_articles_recurrence_candidates ON articles(application_deadline)
    WHERE is_recurrent AND child_article IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_articles_parent_article ON articles(parent_article)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_contact_partner ON articles(contact_partner)`,
		`CREATE INDEX IF NOT EXISTS idx_contact_partners_last_name ON contact_partners(last_name, first_name)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	// trigram indexes speed up keyword ILIKE; they need pg_trgm, which may
	// be unavailable without superuser rights, so failures are ignored
	_, _ = db.Exec(`CREATE EXTENSION IF NOT EXISTS pg_trgm`)
	searchIndexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_articles_title_gin ON articles USING gin(title gin_trgm_ops)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_text_gin ON articles USING gin(text gin_trgm_ops)`,
	}
	for _, idx := range searchIndexes {
		_, _ = db.Exec(idx)
	}

	return nil
}

// MigrateDown drops the catalog schema.
// Use with caution: this deletes all articles and contact partners.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS articles CASCADE`,
		`DROP TABLE IF EXISTS contact_partners CASCADE`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
