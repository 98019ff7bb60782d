package catalog

import (
	"embed"
	"fmt"
	"strconv"
	"strings"
	"sync"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/yaml.v3"

	"plume/internal/domain"
	"plume/internal/domain/models"
)

//go:embed data/*.yaml
var dataFiles embed.FS

type tracksFile struct {
	Tracks []models.LearningTrack `yaml:"tracks"`
}

type tourFile struct {
	Steps []models.TourStep `yaml:"steps"`
}

// Catalog holds the learning tracks and onboarding tour steps.
// Track HTML is sanitised once at load; markdown is derived from it.
type Catalog struct {
	tracks []models.LearningTrack
	byID   map[string]int
	tour   []models.TourStep
	mu     sync.RWMutex
}

// Load reads the embedded catalogue.
func Load() (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int)}

	var tracks tracksFile
	if err := loadFile("data/tracks.yaml", &tracks); err != nil {
		return nil, err
	}
	if err := c.setTracks(tracks.Tracks); err != nil {
		return nil, err
	}

	var tour tourFile
	if err := loadFile("data/tour.yaml", &tour); err != nil {
		return nil, err
	}
	if len(tour.Steps) == 0 {
		return nil, fmt.Errorf("tour.yaml defines no steps")
	}
	c.tour = tour.Steps

	return c, nil
}

// loadFile unmarshals one embedded YAML file
func loadFile(name string, dest interface{}) error {
	data, err := dataFiles.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", name, err)
	}
	return nil
}

func (c *Catalog) setTracks(tracks []models.LearningTrack) error {
	policy := bluemonday.UGCPolicy()
	converter := md.NewConverter("", true, nil)

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range tracks {
		t := &tracks[i]
		if t.ID == "" {
			return fmt.Errorf("track %d has no id", i)
		}
		if _, dup := c.byID[t.ID]; dup {
			return fmt.Errorf("duplicate track id %s", t.ID)
		}

		t.Content = strings.TrimSpace(policy.Sanitize(t.Content))
		markdown, err := converter.ConvertString(t.Content)
		if err != nil {
			return fmt.Errorf("convert track %s to markdown: %w", t.ID, err)
		}
		t.Markdown = markdown
		c.byID[t.ID] = i
	}
	c.tracks = tracks
	return nil
}

// Tracks returns track summaries in catalogue order, without lesson content.
func (c *Catalog) Tracks() []models.LearningTrack {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.LearningTrack, len(c.tracks))
	for i, t := range c.tracks {
		t.Content = ""
		t.Markdown = ""
		out[i] = t
	}
	return out
}

// Track returns a full track by slug. Numeric ids address tracks by
// position, as the first version of the app did.
func (c *Catalog) Track(id string) (*models.LearningTrack, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.byID[id]
	if !ok {
		n, err := strconv.Atoi(id)
		if err != nil || n < 0 || n >= len(c.tracks) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("learning track not found: %s", id)}
		}
		i = n
	}
	t := c.tracks[i]
	return &t, nil
}

// TrackMarkdown returns the lesson content of a track as markdown.
func (c *Catalog) TrackMarkdown(id string) (string, error) {
	t, err := c.Track(id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("# %s\n\n%s", t.Title, t.Markdown), nil
}

// TourSteps returns the onboarding tour in order.
func (c *Catalog) TourSteps() []models.TourStep {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.TourStep(nil), c.tour...)
}
