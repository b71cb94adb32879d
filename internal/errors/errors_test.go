package errors

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ExitError
		want string
	}{
		{
			name: "with underlying error",
			err:  NewExitError(ErrNotFound, ExitUser),
			want: "resource not found",
		},
		{
			name: "with wrapped error",
			err:  NewExitError(fmt.Errorf("loading config: %w", ErrInvalidConfig), ExitUser),
			want: "loading config: invalid configuration",
		},
		{
			name: "nil underlying error",
			err:  NewExitError(nil, ExitUser),
			want: "exit code 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("ExitError.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExitError_Unwrap(t *testing.T) {
	err := NewUserError(Wrap(ErrNotFound, "snapshot 20260101T000000"), "Run: snapkeep list-snapshots")
	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrInvalidConfig))

	var exitErr *ExitError
	require.True(t, As(Wrap(err, "outer"), &exitErr))
	assert.Equal(t, ExitUser, exitErr.Code)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ExitSuccess, CodeOf(nil))
	assert.Equal(t, ExitSystem, CodeOf(New("boom")))
	assert.Equal(t, ExitUser, CodeOf(NewUserError(New("bad"), "")))
	assert.Equal(t, ExitSystem, CodeOf(Wrap(NewSystemError(New("io"), ""), "context")))
}

func TestSummary_RedactsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil || home == "/" {
		t.Skip("no usable home directory")
	}

	target := filepath.Join(home, ".config", "Code", "chat.json")
	err = NewSystemError(Newf("restoring %s: permission denied", target), "Check permissions on "+home)

	got := Summary(err)
	assert.NotContains(t, got, home)
	assert.Contains(t, got, "~/.config/Code/chat.json")
	assert.Contains(t, got, "Check permissions on ~")
}

func TestSummary_Nil(t *testing.T) {
	assert.Empty(t, Summary(nil))
}
