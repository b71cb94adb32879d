// Package cli holds checks and helpers shared by every snapkeep command.
package cli

import (
	"os"

	"github.com/thoreinstein/snapkeep/internal/errors"
)

// ErrPrivileged is returned when snapkeep runs with an effective uid of 0.
var ErrPrivileged = errors.New("refusing to run with elevated privileges")

// CheckPrivileges fails with ErrPrivileged when euid reports root. A nil
// euid uses os.Geteuid. Platforms without uids report -1 and pass.
func CheckPrivileges(euid func() int) error {
	if euid == nil {
		euid = os.Geteuid
	}
	if euid() == 0 {
		return errors.Wrap(ErrPrivileged, "effective uid 0")
	}
	return nil
}
