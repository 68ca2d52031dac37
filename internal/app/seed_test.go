package app

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParseSeedOptions(t *testing.T) {
	opts, err := parseSeedOptions([]string{"-users", "5", "-posts", "1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.users != 5 || opts.postsPerUser != 1 || opts.friendsPerUser != 4 {
		t.Fatalf("unexpected options %+v", opts)
	}

	if _, err := parseSeedOptions([]string{"-users", "0"}); err == nil {
		t.Fatal("expected error for zero users")
	}
	if _, err := parseSeedOptions([]string{"-posts", "-1"}); err == nil {
		t.Fatal("expected error for negative posts")
	}
}

func TestSeedFlagsDescribeFriendships(t *testing.T) {
	fs := seedFlags(&seedOptions{})
	friends := fs.Lookup("friends")
	if friends == nil {
		t.Fatal("expected friends flag")
	}
	if strings.Contains(friends.Usage, "request") || !strings.Contains(friends.Usage, "friendships") {
		t.Fatalf("unexpected friends usage %q", friends.Usage)
	}
}

func TestSeedUsernameFitsLimits(t *testing.T) {
	tests := []string{"", "ab", "Schmidt1234", "averyveryveryverylongusernamefromfaker"}
	for _, base := range tests {
		got := seedUsername(base, 42)
		if n := utf8.RuneCountInString(got); n < 5 || n > 31 {
			t.Fatalf("seedUsername(%q) = %q has %d characters", base, got, n)
		}
	}
}

func TestSeedImageIsPNG(t *testing.T) {
	content, err := seedImage()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(content)); err != nil {
		t.Fatalf("seed image is not a png: %v", err)
	}
}
