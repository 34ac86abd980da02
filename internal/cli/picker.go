package cli

import (
	"errors"

	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"

	"github.com/fpang/tubescript-ai/internal/source"
)

// PickReferenceFiles opens a native file dialog for reference scripts. A
// canceled dialog returns no paths and no error.
func PickReferenceFiles() ([]string, error) {
	selected, err := zenity.SelectFileMultiple(
		zenity.Title("Select up to 3 reference scripts"),
		zenity.FileFilters{
			{Name: "Text files", Patterns: []string{"*.txt", "*.md"}},
		},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return nil, nil
		}
		return nil, err
	}
	if len(selected) > source.MaxFiles {
		return nil, source.ErrTooManyFiles
	}
	log.Info().Int("count", len(selected)).Msg("Files picked via native dialog")
	return selected, nil
}
