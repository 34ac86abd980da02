package storyboard

// Scene is one numbered storyboard frame. SceneNumber is 1-based and
// contiguous within a storyboard. ImageURL stays empty until the image
// filler resolves the scene; ImageFailed marks a scene it gave up on.
type Scene struct {
	SceneNumber  int    `json:"sceneNumber" dynamodbav:"sceneNumber"`
	Description  string `json:"description" dynamodbav:"description"`
	VisualPrompt string `json:"visualPrompt" dynamodbav:"visualPrompt"`
	ImageURL     string `json:"imageUrl,omitempty" dynamodbav:"imageUrl,omitempty"`
	IsGenerating bool   `json:"isGenerating" dynamodbav:"isGenerating"`
	ImageFailed  bool   `json:"imageFailed,omitempty" dynamodbav:"imageFailed,omitempty"`
}

// Renumber assigns SceneNumber = index+1 and clears image state, in place.
func Renumber(scenes []Scene) {
	for i := range scenes {
		scenes[i].SceneNumber = i + 1
		scenes[i].ImageURL = ""
		scenes[i].IsGenerating = false
		scenes[i].ImageFailed = false
	}
}
