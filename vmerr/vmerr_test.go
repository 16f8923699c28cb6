package vmerr

import "testing"

func TestErrorStrings(t *testing.T) {
	cases := []struct {
		err  Errno
		want string
	}{
		{ENOMEM, "vmcore: out of memory"},
		{EFAULT, "vmcore: bad address"},
		{ENOENT, "vmcore: backing data unavailable"},
		{Errno(99), "vmcore: unknown error"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("Errno(%d).Error() = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestErrnoSatisfiesError(t *testing.T) {
	var err error = ENOMEM
	if err.Error() == "" {
		t.Fatal("expected a non-empty error message")
	}
}
