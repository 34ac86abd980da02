// Package structure is the static catalog of narrative structure templates
// used to shape generated scripts.
package structure

import (
	"errors"
	"fmt"

	"github.com/fpang/tubescript-ai/internal/assets"
)

// ID identifies a structure template.
type ID string

const (
	InMediasRes     ID = "in-medias-res"
	ProblemSolution ID = "problem-solution"
	HerosJourney    ID = "heros-journey"
	SaveTheCat      ID = "save-the-cat"
	Kishotenketsu   ID = "kishotenketsu"

	// Original keeps the reference's own structure. It has no guide text;
	// callers supply the analysed structure summary instead.
	Original ID = "original"
)

// ErrUnknown is returned for IDs outside the catalog.
var ErrUnknown = errors.New("unknown structure")

// ErrNoGuide is returned by GuideFor for Original.
var ErrNoGuide = errors.New("structure has no template guide")

// Template is a catalog entry as shown in menus.
type Template struct {
	ID      ID     `json:"id"`
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

var catalog = []Template{
	{InMediasRes, "In Medias Res", "Open on the climax, then rewind to explain how it happened."},
	{ProblemSolution, "Problem-Solution Curve", "Agitate a painful problem, then resolve it step by step."},
	{HerosJourney, "Hero's Journey", "A protagonist leaves the ordinary world, is tested, and returns changed."},
	{SaveTheCat, "Save the Cat", "Fourteen beats from opening image to final image."},
	{Kishotenketsu, "Kishotenketsu", "Four acts built on a twist instead of conflict."},
}

// All returns the template entries in menu order. Original is not included.
func All() []Template {
	out := make([]Template, len(catalog))
	copy(out, catalog)
	return out
}

// Valid reports whether id is a catalog template or Original.
func (id ID) Valid() bool {
	if id == Original {
		return true
	}
	for _, t := range catalog {
		if t.ID == id {
			return true
		}
	}
	return false
}

// Parse converts user input to an ID.
func Parse(s string) (ID, error) {
	id := ID(s)
	if !id.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknown, s)
	}
	return id, nil
}

// GuideFor returns the machine-usable guide text injected into script
// prompts.
func GuideFor(id ID) (string, error) {
	if id == Original {
		return "", ErrNoGuide
	}
	if !id.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknown, id)
	}
	return assets.StructureGuide(string(id))
}

// Guide is the resolved structure passed to script generation.
type Guide struct {
	ID   ID
	Text string
}

// Resolve returns the Guide for id. For Original the reference's own
// structure summary becomes the guide text.
func Resolve(id ID, structureSummary string) (Guide, error) {
	if id == Original {
		return Guide{ID: Original, Text: structureSummary}, nil
	}
	text, err := GuideFor(id)
	if err != nil {
		return Guide{}, err
	}
	return Guide{ID: id, Text: text}, nil
}
