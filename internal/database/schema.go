// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
schema.go - Catalog Schema

Tables:
  - genres, artists, albums, tracks: the music catalog
  - track_genres: many-to-many track/genre link, the source of item tags
  - users: listeners with a stored password hash
  - user_favorite_genres: declared preferences, the fallback stream's tags
  - interactions: append-only listens and ratings that feed model fitting

Every statement is idempotent so InitSchema can run on each start.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
)

// schemaStatements returns the table and index creation SQL statements.
func schemaStatements() []string {
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS genres_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS genres (
			id BIGINT PRIMARY KEY DEFAULT nextval('genres_id_seq'),
			name TEXT NOT NULL UNIQUE
		)`,

		`CREATE SEQUENCE IF NOT EXISTS artists_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS artists (
			id BIGINT PRIMARY KEY DEFAULT nextval('artists_id_seq'),
			name TEXT NOT NULL
		)`,

		`CREATE SEQUENCE IF NOT EXISTS albums_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS albums (
			id BIGINT PRIMARY KEY DEFAULT nextval('albums_id_seq'),
			title TEXT NOT NULL,
			artist_id BIGINT NOT NULL REFERENCES artists(id),
			release_date DATE
		)`,

		`CREATE SEQUENCE IF NOT EXISTS tracks_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS tracks (
			id BIGINT PRIMARY KEY DEFAULT nextval('tracks_id_seq'),
			title TEXT NOT NULL,
			album_id BIGINT REFERENCES albums(id),
			duration_seconds DOUBLE NOT NULL DEFAULT 0,
			file_path TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS track_genres (
			track_id BIGINT NOT NULL REFERENCES tracks(id),
			genre_id BIGINT NOT NULL REFERENCES genres(id),
			PRIMARY KEY (track_id, genre_id)
		)`,

		`CREATE SEQUENCE IF NOT EXISTS users_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY DEFAULT nextval('users_id_seq'),
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS user_favorite_genres (
			user_id BIGINT NOT NULL REFERENCES users(id),
			genre_id BIGINT NOT NULL REFERENCES genres(id),
			PRIMARY KEY (user_id, genre_id)
		)`,

		// rating is NULL for a plain listen.
		`CREATE TABLE IF NOT EXISTS interactions (
			user_id BIGINT NOT NULL,
			track_id BIGINT NOT NULL,
			rating DOUBLE,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,

		`CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_albums_artist ON albums(artist_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tracks_album ON tracks(album_id)`,
	}
}

// InitSchema creates the catalog tables and indexes if they do not exist.
func (db *DB) InitSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements() {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %s: %w", stmt, err)
		}
	}
	return nil
}
