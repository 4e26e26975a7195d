// persistence/memory.go
package persistence

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/wfunc/sketchparty/models"
)

// MemoryPlayerStore keeps players and topics in process memory.
type MemoryPlayerStore struct {
	mutex   sync.RWMutex
	players map[string]*models.PlayerProfile
	topics  map[string][]string
}

func NewMemoryPlayerStore() *MemoryPlayerStore {
	return &MemoryPlayerStore{
		players: make(map[string]*models.PlayerProfile),
		topics:  make(map[string][]string),
	}
}

func (m *MemoryPlayerStore) update(username string, fn func(p *models.PlayerProfile)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	p, ok := m.players[username]
	if !ok {
		p = &models.PlayerProfile{Username: username}
		m.players[username] = p
	}
	fn(p)
}

func (m *MemoryPlayerStore) IncrementWordsDrawn(_ context.Context, username string) error {
	m.update(username, func(p *models.PlayerProfile) { p.WordsDrawn++ })
	return nil
}

func (m *MemoryPlayerStore) IncrementWordsGuessed(_ context.Context, username string) error {
	m.update(username, func(p *models.PlayerProfile) { p.WordsGuessed++ })
	return nil
}

func (m *MemoryPlayerStore) IncrementTotalGuesses(_ context.Context, username string) error {
	m.update(username, func(p *models.PlayerProfile) { p.TotalGuesses++ })
	return nil
}

func (m *MemoryPlayerStore) UpdateAchievement(_ context.Context, username string, place int) error {
	if err := checkPlace(place); err != nil {
		return err
	}
	m.update(username, func(p *models.PlayerProfile) {
		switch place {
		case 1:
			p.FirstPlaces++
		case 2:
			p.SecondPlaces++
		case 3:
			p.ThirdPlaces++
		}
	})
	return nil
}

// UpdatePlayerRank orders players the same way as the SQL stores.
func (m *MemoryPlayerStore) UpdatePlayerRank(_ context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	all := make([]*models.PlayerProfile, 0, len(m.players))
	for _, p := range m.players {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		switch {
		case a.FirstPlaces != b.FirstPlaces:
			return a.FirstPlaces > b.FirstPlaces
		case a.SecondPlaces != b.SecondPlaces:
			return a.SecondPlaces > b.SecondPlaces
		case a.ThirdPlaces != b.ThirdPlaces:
			return a.ThirdPlaces > b.ThirdPlaces
		case a.WordsGuessed != b.WordsGuessed:
			return a.WordsGuessed > b.WordsGuessed
		}
		return a.Username < b.Username
	})
	for i, p := range all {
		p.Rank = i + 1
	}
	return nil
}

func (m *MemoryPlayerStore) GetPlayer(_ context.Context, username string) (*models.PlayerProfile, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	p, ok := m.players[username]
	if !ok {
		return nil, ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryPlayerStore) PlayersByUsernames(_ context.Context, usernames []string) ([]models.PlayerProfile, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var out []models.PlayerProfile
	for _, u := range usernames {
		if p, ok := m.players[u]; ok {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *MemoryPlayerStore) KeywordsForTopic(_ context.Context, topicID string) ([]string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return slices.Clone(m.topics[topicID]), nil
}

func (m *MemoryPlayerStore) SaveTopic(_ context.Context, slug, _ string, keywords []string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.topics[slug] = slices.Clone(keywords)
	return nil
}

func (m *MemoryPlayerStore) Close() error { return nil }
