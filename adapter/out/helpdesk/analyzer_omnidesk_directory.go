package helpdesk

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"ticket_analyzer/core/port/out"
)

type staffEnvelope struct {
	Staff *struct {
		ID       int64  `json:"staff_id"`
		FullName string `json:"staff_full_name"`
	} `json:"staff"`
}

type groupEnvelope struct {
	Group *struct {
		ID    int64  `json:"group_id"`
		Title string `json:"group_title"`
	} `json:"group"`
}

// StaffDirectory maps staff_id to the staff member's full name.
func (c *Client) StaffDirectory(ctx context.Context) (map[int64]string, error) {
	var resp positional
	if err := c.getJSON(ctx, "/api/staff.json", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch staff: %w", err)
	}
	dir := make(map[int64]string, len(resp.records))
	for _, rec := range resp.records {
		var env staffEnvelope
		if err := json.Unmarshal(rec, &env); err != nil || env.Staff == nil {
			continue
		}
		dir[env.Staff.ID] = env.Staff.FullName
	}
	return dir, nil
}

// GroupDirectory maps group_id to the group title.
func (c *Client) GroupDirectory(ctx context.Context) (map[int64]string, error) {
	var resp positional
	if err := c.getJSON(ctx, "/api/groups.json", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch groups: %w", err)
	}
	dir := make(map[int64]string, len(resp.records))
	for _, rec := range resp.records {
		var env groupEnvelope
		if err := json.Unmarshal(rec, &env); err != nil || env.Group == nil {
			continue
		}
		dir[env.Group.ID] = env.Group.Title
	}
	return dir, nil
}

const (
	staffCacheKey = "directory:staff"
	groupCacheKey = "directory:groups"
)

// CachedDirectory serves directories from a cache and refills it from the helpdesk on a miss.
// Cache failures fall through to the helpdesk.
type CachedDirectory struct {
	src   out.DirectorySource
	cache out.Cache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCachedDirectory wraps src with cache.
func NewCachedDirectory(src out.DirectorySource, cache out.Cache, ttl time.Duration, log zerolog.Logger) *CachedDirectory {
	return &CachedDirectory{
		src:   src,
		cache: cache,
		ttl:   ttl,
		log:   log.With().Str("component", "directory_cache").Logger(),
	}
}

func (d *CachedDirectory) StaffDirectory(ctx context.Context) (map[int64]string, error) {
	return d.load(ctx, staffCacheKey, d.src.StaffDirectory)
}

func (d *CachedDirectory) GroupDirectory(ctx context.Context) (map[int64]string, error) {
	return d.load(ctx, groupCacheKey, d.src.GroupDirectory)
}

// Invalidate drops both cached directories.
func (d *CachedDirectory) Invalidate(ctx context.Context) error {
	if err := d.cache.Delete(ctx, staffCacheKey); err != nil {
		return err
	}
	return d.cache.Delete(ctx, groupCacheKey)
}

func (d *CachedDirectory) load(ctx context.Context, key string, fetch func(context.Context) (map[int64]string, error)) (map[int64]string, error) {
	var dir map[int64]string
	found, err := d.cache.GetJSON(ctx, key, &dir)
	if err != nil {
		d.log.Warn().Err(err).Str("key", key).Msg("directory cache read failed")
	}
	if found {
		return dir, nil
	}

	dir, err = fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := d.cache.SetJSON(ctx, key, dir, d.ttl); err != nil {
		d.log.Warn().Err(err).Str("key", key).Msg("directory cache write failed")
	}
	return dir, nil
}
