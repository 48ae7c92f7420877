// Package colors assigns calendar colour ids to task lists.
package colors

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/harrisonrobin/taskline/pkg/logging"
)

// Google Calendar event colours are "1" through "11".
const (
	firstColor = 1
	lastColor  = 11

	// NoListColor is used for records without a list (graphite).
	NoListColor = "8"
)

// ListState is the colour held by one list.
type ListState struct {
	ColorID  string    `json:"color_id"`
	LastUsed time.Time `json:"last_used"`
}

// ColorCache hands out colour ids per list. Once all colours are taken the
// least recently used list gives its colour up.
type ColorCache struct {
	Path  string
	Lists map[string]*ListState `json:"lists"`

	now   func() time.Time
	dirty bool
}

// NewColorCache opens the cache stored at path. A missing file gives an empty cache.
func NewColorCache(path string) (*ColorCache, error) {
	cache := &ColorCache{
		Path:  path,
		Lists: make(map[string]*ListState),
		now:   time.Now,
	}
	if err := cache.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load colour cache %s: %w", path, err)
	}
	return cache, nil
}

func (c *ColorCache) Load() error {
	f, err := os.Open(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	lists := make(map[string]*ListState)
	if err := json.NewDecoder(f).Decode(&lists); err != nil {
		return err
	}
	c.Lists = lists
	return nil
}

func (c *ColorCache) Save() error {
	if !c.dirty {
		return nil
	}
	log := logging.Component("colors")

	dir := filepath.Dir(c.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		log.Error().Err(err).Str("dir", dir).Msg("creating colour cache directory")
		return err
	}

	f, err := os.Create(c.Path)
	if err != nil {
		log.Error().Err(err).Str("path", c.Path).Msg("creating colour cache file")
		return err
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(c.Lists); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

// GetColorID returns the colour id for a list, assigning one on first use.
func (c *ColorCache) GetColorID(list string) string {
	if list == "" {
		return NoListColor
	}

	if state, ok := c.Lists[list]; ok {
		state.LastUsed = c.now()
		c.dirty = true
		return state.ColorID
	}
	return c.assignColor(list)
}

func (c *ColorCache) assignColor(list string) string {
	used := make(map[string]bool)
	for _, s := range c.Lists {
		used[s.ColorID] = true
	}

	for i := firstColor; i <= lastColor; i++ {
		id := strconv.Itoa(i)
		if !used[id] {
			c.claim(list, id)
			return id
		}
	}

	// Every colour is taken: recycle the least recently used one.
	var oldest string
	var oldestTime time.Time
	for name, s := range c.Lists {
		if oldest == "" || s.LastUsed.Before(oldestTime) || (s.LastUsed.Equal(oldestTime) && name < oldest) {
			oldest, oldestTime = name, s.LastUsed
		}
	}
	recycled := c.Lists[oldest].ColorID
	delete(c.Lists, oldest)
	logger := logging.Component("colors")
	logger.Debug().
		Str("from", oldest).
		Str("to", list).
		Str("color_id", recycled).
		Msg("recycling colour")
	c.claim(list, recycled)
	return recycled
}

func (c *ColorCache) claim(list, id string) {
	c.Lists[list] = &ListState{ColorID: id, LastUsed: c.now()}
	c.dirty = true
}
