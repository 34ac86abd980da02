package storyboard

import "strconv"

// Settings configures one storyboard generation.
type Settings struct {
	VisualStyle VisualStyle `json:"visualStyle" dynamodbav:"visualStyle"`
	Engine      Engine      `json:"engine" dynamodbav:"engine"`
	AspectRatio AspectRatio `json:"aspectRatio" dynamodbav:"aspectRatio"`
	SceneCount  int         `json:"sceneCount" dynamodbav:"sceneCount"`
}

// DefaultSettings is what a new storyboard flow starts with.
func DefaultSettings() Settings {
	return Settings{
		VisualStyle: StyleCinematic,
		Engine:      EngineNano,
		AspectRatio: Landscape,
		SceneCount:  10,
	}
}

// Validate checks every field against its option set.
func (s Settings) Validate() error {
	if !s.VisualStyle.Valid() {
		return &ErrInvalidOption{Field: "visualStyle", Value: string(s.VisualStyle)}
	}
	if !s.Engine.Valid() {
		return &ErrInvalidOption{Field: "engine", Value: string(s.Engine)}
	}
	if !s.AspectRatio.Valid() {
		return &ErrInvalidOption{Field: "aspectRatio", Value: string(s.AspectRatio)}
	}
	if s.SceneCount < MinScenes || s.SceneCount > MaxScenes {
		return &ErrInvalidOption{Field: "sceneCount", Value: strconv.Itoa(s.SceneCount)}
	}
	return nil
}

// SettingsPatch is a partial update; nil fields are left unchanged.
type SettingsPatch struct {
	VisualStyle *VisualStyle `json:"visualStyle,omitempty"`
	Engine      *Engine      `json:"engine,omitempty"`
	AspectRatio *AspectRatio `json:"aspectRatio,omitempty"`
	SceneCount  *int         `json:"sceneCount,omitempty"`
}

// Apply merges the patch into s. If any resulting field is out of range the
// whole patch is rejected and s is returned unchanged.
func (p SettingsPatch) Apply(s Settings) (Settings, error) {
	next := s
	if p.VisualStyle != nil {
		next.VisualStyle = *p.VisualStyle
	}
	if p.Engine != nil {
		next.Engine = *p.Engine
	}
	if p.AspectRatio != nil {
		next.AspectRatio = *p.AspectRatio
	}
	if p.SceneCount != nil {
		next.SceneCount = *p.SceneCount
	}
	if err := next.Validate(); err != nil {
		return s, err
	}
	return next, nil
}

// Empty reports whether the patch changes nothing.
func (p SettingsPatch) Empty() bool {
	return p.VisualStyle == nil && p.Engine == nil && p.AspectRatio == nil && p.SceneCount == nil
}
