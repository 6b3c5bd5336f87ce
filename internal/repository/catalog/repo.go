// Package catalog stores the catalog facts searches depend on: libraries
// with their collections, lanes and license data sources.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/shelfdex/internal/db"
	"github.com/kailas-cloud/shelfdex/internal/domain"
	domcat "github.com/kailas-cloud/shelfdex/internal/domain/catalog"
)

// store is the consumer interface for catalog facts (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// DefaultKeyPrefix namespaces every catalog key.
const DefaultKeyPrefix = "shelfdex:"

// maxLaneDepth bounds the parent walk so that a cycle cannot hang a search.
const maxLaneDepth = 32

// Repo implements the search use case's catalog lookups.
type Repo struct {
	store  store
	prefix string
}

// New creates a catalog repository. An empty prefix uses DefaultKeyPrefix.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Repo{store: s, prefix: prefix}
}

// SaveLibrary stores a library and replaces its collection sets.
func (r *Repo) SaveLibrary(ctx context.Context, lib domcat.Library) error {
	hash, err := libraryToHash(lib)
	if err != nil {
		return err
	}
	if err := r.store.HSet(ctx, r.libraryKey(lib.ShortName), hash); err != nil {
		return fmt.Errorf("hset library %s: %w", lib.ShortName, err)
	}

	all := make([]int64, 0, len(lib.Collections))
	active := make([]int64, 0, len(lib.Collections))
	for _, c := range lib.Collections {
		all = append(all, c.ID)
		if c.Active {
			active = append(active, c.ID)
		}
	}
	for key, ids := range map[string][]int64{
		r.collectionsKey(lib.ShortName):       all,
		r.activeCollectionsKey(lib.ShortName): active,
	} {
		if err := r.store.Del(ctx, key); err != nil {
			return fmt.Errorf("del %s: %w", key, err)
		}
		if err := r.store.SAdd(ctx, key, idStrings(ids)...); err != nil {
			return fmt.Errorf("sadd %s: %w", key, err)
		}
	}
	return nil
}

// Library loads a library by short name.
func (r *Repo) Library(ctx context.Context, shortName string) (*domcat.Library, error) {
	m, err := r.hgetAll(ctx, r.libraryKey(shortName))
	if err != nil {
		return nil, fmt.Errorf("library %s: %w", shortName, err)
	}
	all, err := r.store.SMembers(ctx, r.collectionsKey(shortName))
	if err != nil {
		return nil, fmt.Errorf("smembers collections %s: %w", shortName, err)
	}
	active, err := r.store.SMembers(ctx, r.activeCollectionsKey(shortName))
	if err != nil {
		return nil, fmt.Errorf("smembers active collections %s: %w", shortName, err)
	}
	lib, err := libraryFromHash(m, all, active)
	if err != nil {
		return nil, fmt.Errorf("parse library %s: %w", shortName, err)
	}
	return lib, nil
}

// SaveLane stores a lane.
func (r *Repo) SaveLane(ctx context.Context, lane domcat.Lane) error {
	hash, err := laneToHash(lane)
	if err != nil {
		return err
	}
	if err := r.store.HSet(ctx, r.laneKey(lane.ID), hash); err != nil {
		return fmt.Errorf("hset lane %d: %w", lane.ID, err)
	}
	return nil
}

// SaveLanes stores many lanes in one round trip.
func (r *Repo) SaveLanes(ctx context.Context, lanes []domcat.Lane) error {
	items := make([]db.HashSetItem, 0, len(lanes))
	for _, lane := range lanes {
		hash, err := laneToHash(lane)
		if err != nil {
			return fmt.Errorf("lane %d: %w", lane.ID, err)
		}
		items = append(items, db.HashSetItem{Key: r.laneKey(lane.ID), Fields: hash})
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset lanes: %w", err)
	}
	return nil
}

// Lane loads one lane.
func (r *Repo) Lane(ctx context.Context, id int64) (*domcat.Lane, error) {
	m, err := r.hgetAll(ctx, r.laneKey(id))
	if err != nil {
		return nil, fmt.Errorf("lane %d: %w", id, err)
	}
	lane, err := laneFromHash(m)
	if err != nil {
		return nil, fmt.Errorf("parse lane %d: %w", id, err)
	}
	return lane, nil
}

// LaneChain returns the lane and its ancestors, root first.
func (r *Repo) LaneChain(ctx context.Context, id int64) ([]domcat.Lane, error) {
	var chain []domcat.Lane
	next := &id
	for next != nil {
		if len(chain) == maxLaneDepth {
			return nil, fmt.Errorf("%w: lane %d: ancestry deeper than %d", domain.ErrInvalidFilter, id, maxLaneDepth)
		}
		lane, err := r.Lane(ctx, *next)
		if err != nil {
			return nil, err
		}
		chain = append([]domcat.Lane{*lane}, chain...)
		next = lane.ParentID
	}
	return chain, nil
}

// SaveDataSource stores a license data source name.
func (r *Repo) SaveDataSource(ctx context.Context, id int64, name string) error {
	err := r.store.HSet(ctx, r.dataSourceKey(name), map[string]string{
		"id":   strconv.FormatInt(id, 10),
		"name": name,
	})
	if err != nil {
		return fmt.Errorf("hset data source %s: %w", name, err)
	}
	return nil
}

// DataSources returns every data source ID by name.
func (r *Repo) DataSources(ctx context.Context) (map[string]int64, error) {
	keys, err := r.store.Scan(ctx, r.dataSourceKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan data sources: %w", err)
	}
	out := make(map[string]int64, len(keys))
	for _, key := range keys {
		m, err := r.hgetAll(ctx, key)
		if errors.Is(err, domain.ErrNotFound) {
			// Deleted between SCAN and HGETALL.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("data source %s: %w", key, err)
		}
		id, err := strconv.ParseInt(m["id"], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse data source %s: %w", key, err)
		}
		out[m["name"]] = id
	}
	return out, nil
}

// hgetAll maps a missing or empty hash to domain.ErrNotFound.
func (r *Repo) hgetAll(ctx context.Context, key string) (map[string]string, error) {
	m, err := r.store.HGetAll(ctx, key)
	if errors.Is(err, db.ErrKeyNotFound) || (err == nil && len(m) == 0) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Key patterns: shelfdex:library:{short_name}, shelfdex:library:{short_name}:collections,
// shelfdex:library:{short_name}:collections:active, shelfdex:lane:{id},
// shelfdex:datasource:{name}.

func (r *Repo) libraryKey(shortName string) string {
	return fmt.Sprintf("%slibrary:%s", r.prefix, shortName)
}

func (r *Repo) collectionsKey(shortName string) string {
	return r.libraryKey(shortName) + ":collections"
}

func (r *Repo) activeCollectionsKey(shortName string) string {
	return r.collectionsKey(shortName) + ":active"
}

func (r *Repo) laneKey(id int64) string {
	return fmt.Sprintf("%slane:%d", r.prefix, id)
}

func (r *Repo) dataSourceKey(name string) string {
	return fmt.Sprintf("%sdatasource:%s", r.prefix, name)
}
