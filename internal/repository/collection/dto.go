package collection

import (
	"fmt"
	"strconv"
	"time"

	"github.com/abdul7867/SearchAi/internal/domain/collection"
)

// collectionToHash converts a domain Collection to a map for HSET. Members live in their own sorted set.
func collectionToHash(col collection.Collection) map[string]string {
	return map[string]string{
		"id":          col.ID(),
		"owner":       col.Owner(),
		"name":        col.Name(),
		"description": col.Description(),
		"color":       col.Color(),
		"created_at":  strconv.FormatInt(col.CreatedAt().UnixMilli(), 10),
		"updated_at":  strconv.FormatInt(col.UpdatedAt().UnixMilli(), 10),
	}
}

// collectionFromHash hydrates a domain Collection from an HGETALL result map.
func collectionFromHash(m map[string]string, members []string) (collection.Collection, error) {
	createdAt, err := parseMillis(m["created_at"])
	if err != nil {
		return collection.Collection{}, fmt.Errorf("invalid created_at: %w", err)
	}
	updatedAt := createdAt
	if v := m["updated_at"]; v != "" {
		if updatedAt, err = parseMillis(v); err != nil {
			return collection.Collection{}, fmt.Errorf("invalid updated_at: %w", err)
		}
	}
	return collection.Reconstruct(
		m["id"], m["owner"], m["name"], m["description"], m["color"],
		members, createdAt, updatedAt,
	), nil
}

func parseMillis(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}

func millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
