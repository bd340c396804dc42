// Package content serves the site's static educational material: species
// guides, technique guides and notable gardens to visit.
package content

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data
var dataFS embed.FS

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyExpert       Difficulty = "expert"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyExpert:
		return true
	}
	return false
}

type PruningCalendar struct {
	Spring string `yaml:"spring" json:"spring"`
	Summer string `yaml:"summer" json:"summer"`
	Autumn string `yaml:"autumn" json:"autumn"`
	Winter string `yaml:"winter" json:"winter"`
}

type Species struct {
	Slug            string          `yaml:"slug" json:"slug"`
	CommonName      string          `yaml:"commonName" json:"commonName"`
	ScientificName  string          `yaml:"scientificName" json:"scientificName"`
	JapaneseName    string          `yaml:"japaneseName" json:"japaneseName"`
	Difficulty      Difficulty      `yaml:"difficulty" json:"difficulty"`
	TimeToMature    string          `yaml:"timeToMature" json:"timeToMature"`
	ClimateZones    []string        `yaml:"climateZones" json:"climateZones"`
	Description     string          `yaml:"description" json:"description"`
	Characteristics []string        `yaml:"characteristics" json:"characteristics"`
	PruningCalendar PruningCalendar `yaml:"pruningCalendar" json:"pruningCalendar"`
	Techniques      []string        `yaml:"techniques" json:"techniques"`
	CommonMistakes  []string        `yaml:"commonMistakes" json:"commonMistakes"`
	BuyingTips      string          `yaml:"buyingTips" json:"buyingTips"`
	RelatedSpecies  []string        `yaml:"relatedSpecies" json:"relatedSpecies"`
}

type Principle struct {
	Name        string `yaml:"name" json:"name"`
	Meaning     string `yaml:"meaning" json:"meaning"`
	Application string `yaml:"application" json:"application"`
}

type Step struct {
	Step        int    `yaml:"step" json:"step"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

type Tool struct {
	Name string `yaml:"name" json:"name"`
	Use  string `yaml:"use" json:"use"`
}

type Technique struct {
	Slug           string      `yaml:"slug" json:"slug"`
	Title          string      `yaml:"title" json:"title"`
	JapaneseTitle  string      `yaml:"japaneseTitle" json:"japaneseTitle"`
	Difficulty     Difficulty  `yaml:"difficulty" json:"difficulty"`
	TimeRequired   string      `yaml:"timeRequired" json:"timeRequired"`
	Introduction   string      `yaml:"introduction" json:"introduction"`
	Philosophy     string      `yaml:"philosophy" json:"philosophy"`
	Principles     []Principle `yaml:"principles" json:"principles"`
	Steps          []Step      `yaml:"steps" json:"steps"`
	Tools          []Tool      `yaml:"tools" json:"tools"`
	CommonMistakes []string    `yaml:"commonMistakes" json:"commonMistakes"`
}

type Coordinates struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lng float64 `yaml:"lng" json:"lng"`
}

type PlaceLocation struct {
	City        string      `yaml:"city" json:"city"`
	Region      string      `yaml:"region" json:"region"`
	Country     string      `yaml:"country" json:"country"`
	Coordinates Coordinates `yaml:"coordinates" json:"coordinates"`
}

type PlaceSection struct {
	Name        string `yaml:"name" json:"name"`
	Style       string `yaml:"style" json:"style"`
	Description string `yaml:"description" json:"description"`
}

type PracticalInfo struct {
	Hours     string `yaml:"hours" json:"hours"`
	Admission string `yaml:"admission" json:"admission"`
	Address   string `yaml:"address" json:"address"`
	Website   string `yaml:"website" json:"website"`
}

// Place is a notable public garden worth visiting for its niwaki.
type Place struct {
	Slug          string         `yaml:"slug" json:"slug"`
	Name          string         `yaml:"name" json:"name"`
	JapaneseName  string         `yaml:"japaneseName" json:"japaneseName"`
	Location      PlaceLocation  `yaml:"location" json:"location"`
	Description   string         `yaml:"description" json:"description"`
	Highlights    []string       `yaml:"highlights" json:"highlights"`
	Gardens       []PlaceSection `yaml:"gardens" json:"gardens"`
	PracticalInfo PracticalInfo  `yaml:"practicalInfo" json:"practicalInfo"`
	NiwakiNotes   string         `yaml:"niwakiNotes" json:"niwakiNotes"`
	VisitingTips  []string       `yaml:"visitingTips" json:"visitingTips"`
}

// Library is the parsed, read-only content set.
type Library struct {
	species    []Species
	techniques []Technique
	places     []Place
}

// Load parses the embedded content.
func Load() (*Library, error) {
	return LoadFS(dataFS, "data")
}

// LoadFS parses content from fsys rooted at root. Each of the species,
// techniques and places directories holds one YAML document per entry.
func LoadFS(fsys fs.FS, root string) (*Library, error) {
	lib := &Library{}
	var err error
	if lib.species, err = loadDir[Species](fsys, path.Join(root, "species"), func(s Species) (string, Difficulty) { return s.Slug, s.Difficulty }); err != nil {
		return nil, err
	}
	if lib.techniques, err = loadDir[Technique](fsys, path.Join(root, "techniques"), func(t Technique) (string, Difficulty) { return t.Slug, t.Difficulty }); err != nil {
		return nil, err
	}
	if lib.places, err = loadDir[Place](fsys, path.Join(root, "places"), func(p Place) (string, Difficulty) { return p.Slug, DifficultyBeginner }); err != nil {
		return nil, err
	}
	return lib, nil
}

func loadDir[T any](fsys fs.FS, dir string, key func(T) (string, Difficulty)) ([]T, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("content: read %s: %w", dir, err)
	}
	seen := map[string]bool{}
	var out []T
	for _, e := range entries {
		if e.IsDir() || !(strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}
		raw, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("content: read %s: %w", e.Name(), err)
		}
		var item T
		if err := yaml.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("content: parse %s: %w", e.Name(), err)
		}
		slug, difficulty := key(item)
		if slug == "" {
			return nil, fmt.Errorf("content: %s has no slug", e.Name())
		}
		if seen[slug] {
			return nil, fmt.Errorf("content: duplicate slug %q", slug)
		}
		if !difficulty.Valid() {
			return nil, fmt.Errorf("content: %s has invalid difficulty %q", slug, difficulty)
		}
		seen[slug] = true
		out = append(out, item)
	}
	return out, nil
}

func (l *Library) Species() []Species      { return l.species }
func (l *Library) Techniques() []Technique { return l.techniques }
func (l *Library) Places() []Place         { return l.places }

func (l *Library) SpeciesBySlug(slug string) (Species, bool) {
	return findBySlug(l.species, slug, func(s Species) string { return s.Slug })
}

func (l *Library) TechniqueBySlug(slug string) (Technique, bool) {
	return findBySlug(l.techniques, slug, func(t Technique) string { return t.Slug })
}

func (l *Library) PlaceBySlug(slug string) (Place, bool) {
	return findBySlug(l.places, slug, func(p Place) string { return p.Slug })
}

func findBySlug[T any](items []T, slug string, key func(T) string) (T, bool) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	for _, it := range items {
		if key(it) == slug {
			return it, true
		}
	}
	var zero T
	return zero, false
}
