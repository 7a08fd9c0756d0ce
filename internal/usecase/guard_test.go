package usecase

import (
	"errors"
	"testing"
)

func TestCheckGuard_LockedDeniesEveryAction(t *testing.T) {
	locked := Branch{Path: "/data/alpha", Locked: true}
	for _, action := range []Action{ActionMirror, ActionForce, ActionDelete, ActionRepack} {
		err := CheckGuard(locked, action)
		if err == nil {
			t.Errorf("expected %s to be denied on a LOCKED branch", action)
			continue
		}
		if !errors.Is(err, ErrGuardDenied) {
			t.Errorf("expected ErrGuardDenied for %s, got %v", action, err)
		}
	}
}

func TestCheckGuard_OtherTagsNeverDeny(t *testing.T) {
	branches := []Branch{
		{Path: "/data/alpha"},
		{Path: "/data/alpha", Immutable: true},
		{Path: "/data/alpha", Compress: true, Encrypt: true},
	}
	for _, b := range branches {
		for _, action := range []Action{ActionMirror, ActionForce, ActionDelete, ActionRepack} {
			if err := CheckGuard(b, action); err != nil {
				t.Errorf("branch %+v: unexpected denial of %s: %v", b, action, err)
			}
		}
	}
}
