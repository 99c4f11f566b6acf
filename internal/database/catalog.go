// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package database

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/tomtom215/cadence/internal/recommend"
)

// maxBoundExclusions is the largest exclusion set bound as query parameters.
// Larger sets are filtered after the scan.
const maxBoundExclusions = 1000

// tagSeparator joins aggregated genre names. Unit separator, never typed.
const tagSeparator = "\x1f"

const eligibleItemsQuery = `
	SELECT t.id, t.title, COALESCE(ar.name, ''), COALESCE(al.title, ''), t.duration_seconds,
	       COALESCE(string_agg(g.name, chr(31) ORDER BY g.name), '') AS tags
	FROM tracks t
	LEFT JOIN albums al ON al.id = t.album_id
	LEFT JOIN artists ar ON ar.id = al.artist_id
	LEFT JOIN track_genres tg ON tg.track_id = t.id
	LEFT JOIN genres g ON g.id = tg.genre_id
	%s
	GROUP BY t.id, t.title, ar.name, al.title, t.duration_seconds
	ORDER BY t.id`

// EligibleItems returns every track not in exclude, ordered by id.
func (db *DB) EligibleItems(ctx context.Context, exclude map[recommend.ItemID]struct{}) (items []recommend.Item, err error) {
	start := time.Now()
	defer func() { observe("eligible_items", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	where := ""
	var args []any
	bound := len(exclude) <= maxBoundExclusions
	if len(exclude) > 0 && bound {
		ids := make([]int64, 0, len(exclude))
		for id := range exclude {
			ids = append(ids, int64(id))
		}
		slices.Sort(ids)
		args = make([]any, len(ids))
		for i, id := range ids {
			args[i] = id
		}
		where = "WHERE t.id NOT IN (" + placeholders(len(ids)) + ")"
	}

	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(eligibleItemsQuery, where), args...)
	if err != nil {
		return nil, storeError("eligible items", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var (
			id            int64
			title         string
			artist, album string
			durationSecs  float64
			tags          string
		)
		if err := rows.Scan(&id, &title, &artist, &album, &durationSecs, &tags); err != nil {
			return nil, storeError("eligible items", err)
		}
		if !bound {
			if _, skip := exclude[recommend.ItemID(id)]; skip {
				continue
			}
		}
		items = append(items, recommend.Item{
			ID:          recommend.ItemID(id),
			Title:       title,
			Attribution: attribution(artist, album),
			Tags:        splitTags(tags),
			Duration:    time.Duration(durationSecs * float64(time.Second)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("eligible items", err)
	}
	return items, nil
}

// PreferenceTags returns the user's favorite genres. It is also the
// existence check for the user: an unknown id yields ErrUserNotFound.
func (db *DB) PreferenceTags(ctx context.Context, user recommend.UserID) (tags map[string]struct{}, err error) {
	start := time.Now()
	defer func() { observe("preference_tags", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT g.name
		FROM users u
		LEFT JOIN user_favorite_genres f ON f.user_id = u.id
		LEFT JOIN genres g ON g.id = f.genre_id
		WHERE u.id = ?`

	rows, err := db.conn.QueryContext(ctx, query, int64(user))
	if err != nil {
		return nil, storeError("preference tags", err)
	}
	defer closeWithLog(rows, "rows")

	found := false
	tags = make(map[string]struct{})
	for rows.Next() {
		found = true
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, storeError("preference tags", err)
		}
		if name.Valid && name.String != "" {
			tags[name.String] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("preference tags", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %d", recommend.ErrUserNotFound, user)
	}
	return tags, nil
}

// ConsumedItems returns the ids of every track the user has interacted with.
func (db *DB) ConsumedItems(ctx context.Context, user recommend.UserID) (consumed map[recommend.ItemID]struct{}, err error) {
	start := time.Now()
	defer func() { observe("consumed_items", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT DISTINCT track_id FROM interactions WHERE user_id = ?`, int64(user))
	if err != nil {
		return nil, storeError("consumed items", err)
	}
	defer closeWithLog(rows, "rows")

	consumed = make(map[recommend.ItemID]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, storeError("consumed items", err)
		}
		consumed[recommend.ItemID(id)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("consumed items", err)
	}
	return consumed, nil
}

// Interactions returns the full interaction history for model fitting.
// Plain listens carry strength 1.
func (db *DB) Interactions(ctx context.Context) (out []recommend.Interaction, err error) {
	start := time.Now()
	defer func() { observe("interactions", start, err) }()

	// Full history scans run inside the refit timeout, not the query timeout.
	rows, err := db.conn.QueryContext(ctx, `
		SELECT user_id, track_id, rating, created_at
		FROM interactions
		ORDER BY created_at, user_id, track_id`)
	if err != nil {
		return nil, storeError("interactions", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var (
			in     recommend.Interaction
			user   int64
			track  int64
			rating sql.NullFloat64
		)
		if err := rows.Scan(&user, &track, &rating, &in.Timestamp); err != nil {
			return nil, storeError("interactions", err)
		}
		in.UserID = recommend.UserID(user)
		in.ItemID = recommend.ItemID(track)
		in.Strength = 1
		if rating.Valid {
			in.Strength = rating.Float64
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("interactions", err)
	}
	return out, nil
}

// RecordInteraction appends a listen or rating. A non-positive Strength is
// stored as a plain listen. A zero Timestamp means now.
func (db *DB) RecordInteraction(ctx context.Context, in recommend.Interaction) (err error) {
	start := time.Now()
	defer func() { observe("record_interaction", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var userExists, trackExists bool
	err = db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = ?), EXISTS (SELECT 1 FROM tracks WHERE id = ?)`,
		int64(in.UserID), int64(in.ItemID),
	).Scan(&userExists, &trackExists)
	if err != nil {
		return storeError("record interaction", err)
	}
	if !userExists {
		return fmt.Errorf("%w: %d", recommend.ErrUserNotFound, in.UserID)
	}
	if !trackExists {
		return fmt.Errorf("%w: %d", ErrTrackNotFound, in.ItemID)
	}

	var rating sql.NullFloat64
	if in.Strength > 0 {
		rating = sql.NullFloat64{Float64: in.Strength, Valid: true}
	}
	at := in.Timestamp
	if at.IsZero() {
		at = time.Now()
	}

	if _, err := db.conn.ExecContext(ctx,
		`INSERT INTO interactions (user_id, track_id, rating, created_at) VALUES (?, ?, ?, ?)`,
		int64(in.UserID), int64(in.ItemID), rating, at.UTC(),
	); err != nil {
		return storeError("record interaction", err)
	}
	return nil
}

// placeholders returns n comma-separated bind parameters.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func splitTags(joined string) []string {
	if joined == "" {
		return []string{}
	}
	return strings.Split(joined, tagSeparator)
}

// attribution is "Artist - Album", or whichever of the two is known.
func attribution(artist, album string) string {
	switch {
	case artist != "" && album != "":
		return artist + " - " + album
	case artist != "":
		return artist
	default:
		return album
	}
}

var (
	_ recommend.CatalogStore     = (*DB)(nil)
	_ recommend.ProfileStore     = (*DB)(nil)
	_ recommend.InteractionStore = (*DB)(nil)
)
