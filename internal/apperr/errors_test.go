package apperr

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestKind_Wrapped(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("post %q: %w", "a", ErrNotFound), KindNotFound},
		{fmt.Errorf("create: %w", ErrConflict), KindConflict},
		{fmt.Errorf("title: %w", ErrValidation), KindValidation},
		{fmt.Errorf("update: %w", ErrStale), KindStale},
		{ErrUnauthorized, KindUnauthorized},
		{fmt.Errorf("read: %w", os.ErrPermission), KindInternal},
		{errors.New("disk on fire"), KindInternal},
	}
	for _, c := range cases {
		if got := Kind(c.err); got != c.want {
			t.Errorf("Kind(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}
