package hits

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// maxEventFileSize bounds the size of an event file accepted by LoadEvent.
const maxEventFileSize = 64 * 1024 * 1024

// Event is one detector readout as stored on disk.
type Event struct {
	Run    int `json:"run"`
	Subrun int `json:"subrun"`
	Event  int `json:"event"`

	// Layout flattens wires; omitted means wire numbers are already global.
	Layout Layout `json:"layout"`

	// Hits are the raw hits. A hit's ID is its index in this slice.
	Hits []RawHit `json:"hits"`

	// Excluded lists the IDs of hits already attributed to tracks.
	Excluded []int `json:"excluded,omitempty"`
}

// Resolved flattens the event's hits and drops the excluded ones.
func (e *Event) Resolved() ([]Hit, error) {
	hs, err := Resolve(e.Hits, e.Layout)
	if err != nil {
		return nil, err
	}
	return Exclude(hs, IDSet(e.Excluded)), nil
}

// LoadEvent reads and decodes an event file.
func LoadEvent(path string) (*Event, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("event file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat event file: %w", err)
	}
	if info.Size() > maxEventFileSize {
		return nil, fmt.Errorf("event file too large: %d bytes (max %d)", info.Size(), maxEventFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read event file: %w", err)
	}

	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("failed to parse event JSON: %w", err)
	}
	return &ev, nil
}

// EventCache provides thread-safe caching of decoded events keyed by path.
//
// Cached events remain in memory until Evict or Clear is called. Events are
// shared between callers and must be treated as read-only.
type EventCache struct {
	mu     sync.RWMutex
	events map[string]*Event
}

// NewEventCache creates an empty cache.
func NewEventCache() *EventCache {
	return &EventCache{
		events: make(map[string]*Event),
	}
}

// Load returns the cached event for path, reading it from disk on first use.
// The path string is the key; different spellings of one file are cached
// separately.
func (c *EventCache) Load(path string) (*Event, error) {
	c.mu.RLock()
	if ev, ok := c.events[path]; ok {
		c.mu.RUnlock()
		return ev, nil
	}
	c.mu.RUnlock()

	ev, err := LoadEvent(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.events[path] = ev
	c.mu.Unlock()

	return ev, nil
}

// Clear removes all events from the cache.
func (c *EventCache) Clear() {
	c.mu.Lock()
	c.events = make(map[string]*Event)
	c.mu.Unlock()
}

// Evict removes the event cached under path, if any.
func (c *EventCache) Evict(path string) {
	c.mu.Lock()
	delete(c.events, path)
	c.mu.Unlock()
}

// Len reports the number of cached events.
func (c *EventCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.events)
}

// EventInfo summarizes an event without running any clustering.
type EventInfo struct {
	Run      int `json:"run"`
	Subrun   int `json:"subrun"`
	Event    int `json:"event"`
	RawHits  int `json:"raw_hits"`
	Excluded int `json:"excluded"`

	// Planes maps plane id to the number of hits left after exclusion.
	Planes map[int]PlaneInfo `json:"planes"`
}

// PlaneInfo is the hit count and wire/tick extent of one plane.
type PlaneInfo struct {
	Hits    int `json:"hits"`
	MinWire int `json:"min_wire"`
	MaxWire int `json:"max_wire"`
	MinTick int `json:"min_tick"`
	MaxTick int `json:"max_tick"`
}

// LoadEventInfo loads path through cache and summarizes it.
func LoadEventInfo(cache *EventCache, path string) (*EventInfo, error) {
	ev, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	hs, err := ev.Resolved()
	if err != nil {
		return nil, err
	}

	info := &EventInfo{
		Run:      ev.Run,
		Subrun:   ev.Subrun,
		Event:    ev.Event,
		RawHits:  len(ev.Hits),
		Excluded: len(ev.Hits) - len(hs),
		Planes:   make(map[int]PlaneInfo),
	}
	for plane, group := range ByPlane(hs) {
		pi := PlaneInfo{
			Hits:    len(group),
			MinWire: group[0].Wire,
			MaxWire: group[0].Wire,
			MinTick: group[0].Tick,
			MaxTick: group[0].Tick,
		}
		for _, h := range group[1:] {
			pi.MinWire = min(pi.MinWire, h.Wire)
			pi.MaxWire = max(pi.MaxWire, h.Wire)
			pi.MinTick = min(pi.MinTick, h.Tick)
			pi.MaxTick = max(pi.MaxTick, h.Tick)
		}
		info.Planes[plane] = pi
	}
	return info, nil
}
