// Package banlist - временный "кулдаун" для целей, которые не удалось достичь.
package banlist

// BanList хранит ключи с тиком истечения.
// Ключ, забаненный на тике t, остается забаненным все тики t..t+duration
// и освобождается на t+duration+1. Просроченные записи удаляются лениво.
type BanList[K comparable] struct {
	duration int
	expiry   map[K]int
}

func New[K comparable](duration int) *BanList[K] {
	if duration < 0 {
		duration = 0
	}
	return &BanList[K]{
		duration: duration,
		expiry:   make(map[K]int),
	}
}

// Ban запрещает ключ начиная с тика now. Повторный бан продлевает срок.
func (b *BanList[K]) Ban(key K, now int) {
	b.expiry[key] = now + b.duration
}

// IsBanned проверяет ключ и заодно чистит его запись, если срок вышел
func (b *BanList[K]) IsBanned(key K, now int) bool {
	exp, ok := b.expiry[key]
	if !ok {
		return false
	}
	if now > exp {
		delete(b.expiry, key)
		return false
	}
	return true
}

// Unban снимает бан досрочно
func (b *BanList[K]) Unban(key K) {
	delete(b.expiry, key)
}

// Purge удаляет все просроченные записи и возвращает их количество
func (b *BanList[K]) Purge(now int) int {
	removed := 0
	for k, exp := range b.expiry {
		if now > exp {
			delete(b.expiry, k)
			removed++
		}
	}
	return removed
}

// Len - количество записей, включая еще не вычищенные просроченные
func (b *BanList[K]) Len() int { return len(b.expiry) }

func (b *BanList[K]) Clear() {
	clear(b.expiry)
}
