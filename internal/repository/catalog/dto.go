package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"

	domcat "github.com/kailas-cloud/shelfdex/internal/domain/catalog"
)

// libraryToHash converts a library to a map for HSET. Collections live
// in sets next to the hash.
func libraryToHash(lib domcat.Library) (map[string]string, error) {
	audiences, err := json.Marshal(lib.FilteredAudiences)
	if err != nil {
		return nil, fmt.Errorf("marshal filtered audiences: %w", err)
	}
	genres, err := json.Marshal(lib.FilteredGenres)
	if err != nil {
		return nil, fmt.Errorf("marshal filtered genres: %w", err)
	}
	return map[string]string{
		"id":                       strconv.FormatInt(lib.ID, 10),
		"short_name":               lib.ShortName,
		"allow_holds":              strconv.FormatBool(lib.AllowHolds),
		"filtered_audiences_json":  string(audiences),
		"filtered_genres_json":     string(genres),
		"minimum_featured_quality": strconv.FormatFloat(lib.MinimumFeaturedQuality, 'f', -1, 64),
	}, nil
}

// libraryFromHash hydrates a library from an HGETALL result and its
// collection sets.
func libraryFromHash(m map[string]string, all, active []string) (*domcat.Library, error) {
	id, err := strconv.ParseInt(m["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %w", err)
	}
	lib := &domcat.Library{ID: id, ShortName: m["short_name"]}

	if v := m["allow_holds"]; v != "" {
		if lib.AllowHolds, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("invalid allow_holds: %w", err)
		}
	}
	if v := m["minimum_featured_quality"]; v != "" {
		if lib.MinimumFeaturedQuality, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("invalid minimum_featured_quality: %w", err)
		}
	}
	if v := m["filtered_audiences_json"]; v != "" {
		if err := json.Unmarshal([]byte(v), &lib.FilteredAudiences); err != nil {
			return nil, fmt.Errorf("unmarshal filtered audiences: %w", err)
		}
	}
	if v := m["filtered_genres_json"]; v != "" {
		if err := json.Unmarshal([]byte(v), &lib.FilteredGenres); err != nil {
			return nil, fmt.Errorf("unmarshal filtered genres: %w", err)
		}
	}

	isActive := make(map[string]bool, len(active))
	for _, a := range active {
		isActive[a] = true
	}
	for _, member := range all {
		cid, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid collection id %q: %w", member, err)
		}
		lib.Collections = append(lib.Collections, domcat.Collection{ID: cid, Active: isActive[member]})
	}
	return lib, nil
}

// laneToHash stores the lane's restrictions as one JSON field. The
// scalar fields are kept alongside for inspection with redis-cli.
func laneToHash(lane domcat.Lane) (map[string]string, error) {
	raw, err := json.Marshal(lane)
	if err != nil {
		return nil, fmt.Errorf("marshal lane: %w", err)
	}
	m := map[string]string{
		"id":           strconv.FormatInt(lane.ID, 10),
		"library_id":   strconv.FormatInt(lane.LibraryID, 10),
		"display_name": lane.DisplayName,
		"lane_json":    string(raw),
	}
	if lane.ParentID != nil {
		m["parent_id"] = strconv.FormatInt(*lane.ParentID, 10)
	}
	return m, nil
}

func laneFromHash(m map[string]string) (*domcat.Lane, error) {
	var lane domcat.Lane
	if err := json.Unmarshal([]byte(m["lane_json"]), &lane); err != nil {
		return nil, fmt.Errorf("unmarshal lane: %w", err)
	}
	return &lane, nil
}

func idStrings(ids []int64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.FormatInt(id, 10)
	}
	return out
}
