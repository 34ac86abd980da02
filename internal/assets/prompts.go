// Package assets provides embedded prompt templates and narrative structure
// guides.
//
// Prompt templates are stored as text files under prompts/ and embedded at
// compile time. Structure guides live under structures/, one file per
// template ID.
package assets

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

// SystemInstructionPrompt sets the writer persona and the no-copy rules for
// every text generation call.
//
//go:embed prompts/system.txt
var SystemInstructionPrompt string

//go:embed prompts/analyze.txt
var analyzeTemplate string

//go:embed prompts/analyze-multiple.txt
var analyzeMultipleTemplate string

//go:embed prompts/regenerate-topics.txt
var regenerateTopicsTemplate string

//go:embed prompts/script.txt
var scriptTemplate string

//go:embed prompts/storyboard.txt
var storyboardTemplate string

//go:embed structures/*.txt
var structureFS embed.FS

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

// Pre-parsed templates. template.Must panics on malformed templates,
// catching errors at program startup rather than at call time.
var (
	analyzeTmpl          = template.Must(template.New("analyze").Parse(analyzeTemplate))
	analyzeMultipleTmpl  = template.Must(template.New("analyze-multiple").Funcs(funcs).Parse(analyzeMultipleTemplate))
	regenerateTopicsTmpl = template.Must(template.New("regenerate-topics").Parse(regenerateTopicsTemplate))
	scriptTmpl           = template.Must(template.New("script").Parse(scriptTemplate))
	storyboardTmpl       = template.Must(template.New("storyboard").Parse(storyboardTemplate))
)

// RenderAnalyzePrompt renders the single-reference analysis prompt.
func RenderAnalyzePrompt(reference, keywords string) string {
	return render(analyzeTmpl, struct{ Reference, Keywords string }{reference, keywords})
}

// RenderAnalyzeMultiplePrompt renders the common-pattern analysis prompt
// over several references.
func RenderAnalyzeMultiplePrompt(references []string, keywords string) string {
	return render(analyzeMultipleTmpl, struct {
		References []string
		Keywords   string
	}{references, keywords})
}

// RenderRegenerateTopicsPrompt renders the topic regeneration prompt. The
// summary is passed through verbatim.
func RenderRegenerateTopicsPrompt(summary, reference, keywords string) string {
	return render(regenerateTopicsTmpl, struct{ Summary, Reference, Keywords string }{summary, reference, keywords})
}

// ScriptData holds the dynamic fields of the script prompt.
type ScriptData struct {
	Title     string
	Rationale string
	Guide     string
	Reference string
}

// RenderScriptPrompt renders the script synthesis prompt.
func RenderScriptPrompt(d ScriptData) string {
	return render(scriptTmpl, d)
}

// RenderStoryboardPrompt renders the scene breakdown prompt. style is the
// visual style's prompt descriptor.
func RenderStoryboardPrompt(script string, sceneCount int, style string) string {
	return render(storyboardTmpl, struct {
		Script     string
		SceneCount int
		Style      string
	}{script, sceneCount, style})
}

// StructureGuide returns the embedded guide text for a structure template.
func StructureGuide(id string) (string, error) {
	data, err := structureFS.ReadFile("structures/" + id + ".txt")
	if err != nil {
		return "", fmt.Errorf("no guide for structure %q: %w", id, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// render executes a pre-parsed template. Execution errors are not expected
// with these templates, so whatever was rendered is returned.
func render(tmpl *template.Template, data any) string {
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}
