package persistence

import "testing"

func TestMemoryPlayerStore(t *testing.T) {
	runPlayerStoreContract(t, func(t *testing.T) PlayerStore {
		return NewMemoryPlayerStore()
	})
}
