package auth

import "testing"

func TestCheckPasswordUnknownAccountStillCompares(t *testing.T) {
	calls := 0
	orig := compareHash
	compareHash = func(hash, pw []byte) error {
		calls++
		return orig(hash, pw)
	}
	t.Cleanup(func() { compareHash = orig })

	if CheckPassword("", "eventory-no-such-account") {
		t.Error("empty hash must never match, even the dummy password")
	}
	if calls != 1 {
		t.Errorf("compare calls = %d, want 1", calls)
	}
}
