package chat

// Gemini Model IDs
//
// | Model Name            | API Model ID          | Use Case                      |
// |-----------------------|-----------------------|-------------------------------|
// | Gemini 2.5 Pro        | gemini-2.5-pro        | Stable, high-reasoning tasks  |
// | Gemini 2.5 Flash      | gemini-2.5-flash      | Stable, balanced performance  |
// | Gemini 2.5 Flash-Lite | gemini-2.5-flash-lite | High-throughput, lowest cost  |
const (
	ModelGemini25Pro       = "gemini-2.5-pro"
	ModelGemini25Flash     = "gemini-2.5-flash"
	ModelGemini25FlashLite = "gemini-2.5-flash-lite"
)

// DefaultModelName is used when no model is configured.
// Can be overridden via GEMINI_MODEL or --model.
const DefaultModelName = ModelGemini25Flash

// ModelName returns override when set, otherwise DefaultModelName.
func ModelName(override string) string {
	if override != "" {
		return override
	}
	return DefaultModelName
}
