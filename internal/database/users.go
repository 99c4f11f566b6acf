// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/tomtom215/cadence/internal/recommend"
)

// Artist search result bounds.
const (
	DefaultArtistLimit = 50
	MaxArtistLimit     = 200
)

// User is a listener account. PasswordHash is returned for the caller to
// verify; it is never compared in SQL.
type User struct {
	ID           recommend.UserID `json:"id"`
	Username     string           `json:"username"`
	PasswordHash string           `json:"-"`
}

// Artist is an artist search result.
type Artist struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

// ArtistFilter narrows SearchArtists. Name and Genre are case-insensitive
// substrings; wildcard characters in them match literally.
type ArtistFilter struct {
	Name  string
	Genre string
	Limit int
}

// UserByName looks up a user by exact username.
func (db *DB) UserByName(ctx context.Context, username string) (u *User, err error) {
	start := time.Now()
	defer func() { observe("user_by_name", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var user User
	var id int64
	err = db.conn.QueryRowContext(ctx,
		`SELECT id, username, password_hash FROM users WHERE username = ?`, username,
	).Scan(&id, &user.Username, &user.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", recommend.ErrUserNotFound, username)
	}
	if err != nil {
		return nil, storeError("user by name", err)
	}
	user.ID = recommend.UserID(id)
	return &user, nil
}

// SearchArtists returns artists matching filter, ordered by name. An artist
// matches a genre filter when any of its tracks carries a matching genre.
func (db *DB) SearchArtists(ctx context.Context, filter ArtistFilter) (artists []Artist, err error) {
	start := time.Now()
	defer func() { observe("search_artists", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultArtistLimit
	}
	limit = min(limit, MaxArtistLimit)

	var b strings.Builder
	var args []any
	b.WriteString(`
		SELECT a.id, a.name, COALESCE(string_agg(DISTINCT g.name, chr(31)), '') AS genres
		FROM artists a
		LEFT JOIN albums al ON al.artist_id = a.id
		LEFT JOIN tracks t ON t.album_id = al.id
		LEFT JOIN track_genres tg ON tg.track_id = t.id
		LEFT JOIN genres g ON g.id = tg.genre_id`)
	if filter.Name != "" {
		b.WriteString(` WHERE lower(a.name) LIKE lower(?) ESCAPE '\'`)
		args = append(args, containsPattern(filter.Name))
	}
	b.WriteString(` GROUP BY a.id, a.name`)
	if filter.Genre != "" {
		b.WriteString(` HAVING bool_or(lower(g.name) LIKE lower(?) ESCAPE '\')`)
		args = append(args, containsPattern(filter.Genre))
	}
	b.WriteString(` ORDER BY a.name, a.id LIMIT ?`)
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, storeError("search artists", err)
	}
	defer closeWithLog(rows, "rows")

	artists = []Artist{}
	for rows.Next() {
		var a Artist
		var genres string
		if err := rows.Scan(&a.ID, &a.Name, &genres); err != nil {
			return nil, storeError("search artists", err)
		}
		a.Genres = splitTags(genres)
		slices.Sort(a.Genres)
		artists = append(artists, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("search artists", err)
	}
	return artists, nil
}

// escapeLike escapes LIKE wildcards so s matches literally under ESCAPE '\'.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func containsPattern(s string) string {
	return "%" + escapeLike(s) + "%"
}
