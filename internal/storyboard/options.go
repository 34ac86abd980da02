// Package storyboard defines the closed option sets for storyboard settings
// and the scene record produced by the scene breakdown.
package storyboard

import "fmt"

// VisualStyle is the rendering style requested for every scene image.
type VisualStyle string

const (
	StyleCinematic    VisualStyle = "cinematic"
	StyleKDrama       VisualStyle = "k-drama"
	StyleWebtoon      VisualStyle = "webtoon"
	StylePixar        VisualStyle = "pixar"
	StyleFolkPainting VisualStyle = "folk-painting"
	StyleFairyTale    VisualStyle = "fairy-tale"
	StyleDiorama      VisualStyle = "diorama"
	StyleWoolFelt     VisualStyle = "wool-felt"
)

// StyleOption describes a visual style for menus and prompts.
type StyleOption struct {
	ID         VisualStyle `json:"id"`
	Name       string      `json:"name"`
	Descriptor string      `json:"descriptor"`
}

var styleOptions = []StyleOption{
	{StyleCinematic, "Cinematic", "cinematic live-action film still, dramatic lighting, shallow depth of field"},
	{StyleKDrama, "K-Drama", "Korean drama live-action still, soft natural light, warm emotional tone"},
	{StyleWebtoon, "Webtoon", "Korean webtoon illustration, clean line art, flat cel shading"},
	{StylePixar, "3D Animation", "3D animated feature film style, expressive characters, soft global illumination"},
	{StyleFolkPainting, "Folk Painting", "traditional Korean minhwa folk painting, mineral pigments on hanji paper"},
	{StyleFairyTale, "Fairy Tale", "storybook fairy tale illustration, watercolor textures, gentle pastel palette"},
	{StyleDiorama, "Diorama", "miniature diorama photograph, tilt-shift, handcrafted props"},
	{StyleWoolFelt, "Wool Felt", "needle-felted wool puppets, fuzzy textures, cozy stop-motion set"},
}

// Styles returns every visual style in display order.
func Styles() []StyleOption {
	out := make([]StyleOption, len(styleOptions))
	copy(out, styleOptions)
	return out
}

// Valid reports whether s is one of the known styles.
func (s VisualStyle) Valid() bool {
	_, ok := s.option()
	return ok
}

// Descriptor returns the prompt fragment for the style.
func (s VisualStyle) Descriptor() string {
	opt, _ := s.option()
	return opt.Descriptor
}

func (s VisualStyle) option() (StyleOption, bool) {
	for _, opt := range styleOptions {
		if opt.ID == s {
			return opt, true
		}
	}
	return StyleOption{}, false
}

// Engine selects the image model tier.
type Engine string

const (
	EngineNano   Engine = "nano"
	EngineBanana Engine = "banana"
	EnginePro    Engine = "pro"
)

// Engines returns every engine in display order.
func Engines() []Engine {
	return []Engine{EngineNano, EngineBanana, EnginePro}
}

// Valid reports whether e is a known engine.
func (e Engine) Valid() bool {
	switch e {
	case EngineNano, EngineBanana, EnginePro:
		return true
	}
	return false
}

// AspectRatio is the frame shape of every scene image.
type AspectRatio string

const (
	Landscape AspectRatio = "16:9"
	Portrait  AspectRatio = "9:16"
)

// AspectRatios returns both supported ratios.
func AspectRatios() []AspectRatio {
	return []AspectRatio{Landscape, Portrait}
}

// Valid reports whether r is a supported ratio.
func (r AspectRatio) Valid() bool {
	return r == Landscape || r == Portrait
}

// Dimensions returns the pixel size used for placeholders and backends
// that take explicit sizes.
func (r AspectRatio) Dimensions() (width, height int) {
	if r == Portrait {
		return 576, 1024
	}
	return 1024, 576
}

// Scene count bounds.
const (
	MinScenes = 5
	MaxScenes = 100
)

// ErrInvalidOption wraps every rejected settings value.
type ErrInvalidOption struct {
	Field string
	Value string
}

func (e *ErrInvalidOption) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}
