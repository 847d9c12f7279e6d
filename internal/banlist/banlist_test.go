package banlist

import "testing"

func TestBanList_ExpiresStrictlyAfterDuration(t *testing.T) {
	const duration = 5
	b := New[string](duration)
	b.Ban("item:1", 10)

	for now := 10; now <= 10+duration; now++ {
		if !b.IsBanned("item:1", now) {
			t.Fatalf("key unbanned too early at tick %d", now)
		}
	}
	if b.IsBanned("item:1", 10+duration+1) {
		t.Error("key should be unbanned after duration")
	}
	if b.Len() != 0 {
		t.Errorf("expired entry should be purged lazily, Len = %d", b.Len())
	}
}

func TestBanList_RebanExtends(t *testing.T) {
	b := New[int](3)
	b.Ban(7, 0)
	b.Ban(7, 2)
	if !b.IsBanned(7, 5) {
		t.Error("re-ban should extend expiry")
	}
	if b.IsBanned(7, 6) {
		t.Error("should expire after extended duration")
	}
}

func TestBanList_PurgeAndUnban(t *testing.T) {
	b := New[string](1)
	b.Ban("a", 0)
	b.Ban("b", 5)
	if removed := b.Purge(3); removed != 1 {
		t.Errorf("Purge removed %d, want 1", removed)
	}
	if b.IsBanned("a", 3) {
		t.Error("a should be gone")
	}
	b.Unban("b")
	if b.IsBanned("b", 5) {
		t.Error("b should be unbanned")
	}
	if b.IsBanned("never", 0) {
		t.Error("unknown key should not be banned")
	}
}
