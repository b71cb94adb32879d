// Package prompt provides interactive CLI prompts for user input.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/snapshot"
)

// Sentinel errors for snapshot selection.
var (
	ErrNoSnapshots        = errors.New("no snapshots to select from")
	ErrInvalidSelection   = errors.New("invalid selection")
	ErrSelectionCancelled = errors.New("selection cancelled")
)

// Selector handles interactive selection and confirmation prompts.
type Selector struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewSelector creates a new Selector using stdin and stdout.
func NewSelector() *Selector {
	return NewSelectorWithIO(os.Stdin, os.Stdout)
}

// NewSelectorWithIO creates a Selector with custom reader and writer for testing.
func NewSelectorWithIO(r io.Reader, w io.Writer) *Selector {
	return &Selector{
		reader: bufio.NewReader(r),
		writer: w,
	}
}

// Describe renders a snapshot as one line of a selection list.
func Describe(s snapshot.Summary) string {
	line := fmt.Sprintf("%s  %s  %d files, %s",
		s.ID,
		s.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		s.Captured,
		humanize.IBytes(uint64(max(s.TotalBytes, 0))),
	)
	if s.Failed > 0 {
		line += fmt.Sprintf(" (%d failed)", s.Failed)
	}
	return line
}

// SelectSnapshot prompts the user to choose one of snaps, which are
// expected newest first. Pressing enter picks the newest.
//
// Returns:
//   - ErrNoSnapshots if the list is empty
//   - The snapshot if only one exists (auto-selects without prompting)
//   - ErrInvalidSelection if the selection is not a listed number
//   - ErrSelectionCancelled if input is EOF (e.g., Ctrl+D)
func (s *Selector) SelectSnapshot(snaps []snapshot.Summary) (*snapshot.Summary, error) {
	if len(snaps) == 0 {
		return nil, ErrNoSnapshots
	}

	if len(snaps) == 1 {
		return &snaps[0], nil
	}

	fmt.Fprintln(s.writer, "Available snapshots:")
	for i, snap := range snaps {
		fmt.Fprintf(s.writer, "  [%d] %s\n", i+1, Describe(snap))
	}
	fmt.Fprintf(s.writer, "Select [1]: ")

	input, err := s.readLine()
	if err != nil {
		return nil, err
	}

	if input == "" {
		return &snaps[0], nil
	}

	selection, err := strconv.Atoi(input)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidSelection, "%q is not a number", input)
	}

	// Validate range (1-indexed)
	if selection < 1 || selection > len(snaps) {
		return nil, errors.Wrapf(ErrInvalidSelection, "%d is out of range [1-%d]", selection, len(snaps))
	}

	return &snaps[selection-1], nil
}

// Confirm asks a yes/no question. An empty answer means no.
func (s *Selector) Confirm(question string) (bool, error) {
	fmt.Fprintf(s.writer, "%s [y/N]: ", question)

	input, err := s.readLine()
	if err != nil {
		return false, err
	}

	switch strings.ToLower(input) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (s *Selector) readLine() (string, error) {
	input, err := s.reader.ReadString('\n')
	if err != nil {
		// A final line without a newline still counts
		if errors.Is(err, io.EOF) && input != "" {
			return strings.TrimSpace(input), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrSelectionCancelled
		}
		return "", errors.Wrap(err, "reading input")
	}
	return strings.TrimSpace(input), nil
}
