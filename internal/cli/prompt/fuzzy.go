package prompt

import (
	"fmt"

	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/snapshot"
)

// FuzzySelectSnapshot lets the user pick a snapshot with a full-screen fuzzy
// finder. It needs a terminal; callers fall back to SelectSnapshot otherwise.
func FuzzySelectSnapshot(snaps []snapshot.Summary) (*snapshot.Summary, error) {
	if len(snaps) == 0 {
		return nil, ErrNoSnapshots
	}

	idx, err := fuzzyfinder.Find(
		snaps,
		func(i int) string {
			return Describe(snaps[i])
		},
		fuzzyfinder.WithPromptString("restore> "),
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			s := snaps[i]
			return fmt.Sprintf("ID: %s\nCreated: %s\nRoot: %s\n\nFiles: %d\nCaptured: %d\nFailed: %d\nBytes: %d",
				s.ID,
				s.CreatedAt.Local().Format("2006-01-02 15:04:05 MST"),
				s.Root,
				s.TotalFiles,
				s.Captured,
				s.Failed,
				s.TotalBytes,
			)
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil, ErrSelectionCancelled
		}
		return nil, errors.Wrap(err, "interactive selection failed")
	}

	return &snaps[idx], nil
}
