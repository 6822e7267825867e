package cache

import (
	"strings"
	"sync"
	"time"

	"codinground/internal/models"
)

// AnalysisCache keeps the latest observer analysis per session interaction.
// Entries expire so abandoned sessions do not pin memory.
type AnalysisCache struct {
	cache map[string]*cacheEntry
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type cacheEntry struct {
	analysis  *models.ObserverAnalysis
	expiresAt time.Time
}

// NewAnalysisCache creates a cache with the given TTL and starts its cleanup loop.
func NewAnalysisCache(ttl time.Duration) *AnalysisCache {
	ac := &AnalysisCache{
		cache: make(map[string]*cacheEntry),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}

	go ac.cleanupLoop(5 * time.Minute)

	return ac
}

func key(sessionID, interactionID string) string {
	return sessionID + "/" + interactionID
}

// Set replaces the analysis for an interaction. A nil analysis clears it.
func (ac *AnalysisCache) Set(sessionID, interactionID string, analysis *models.ObserverAnalysis) {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	if analysis == nil {
		delete(ac.cache, key(sessionID, interactionID))
		return
	}
	ac.cache[key(sessionID, interactionID)] = &cacheEntry{
		analysis:  analysis,
		expiresAt: ac.now().Add(ac.ttl),
	}
}

// Get returns the latest unexpired analysis.
func (ac *AnalysisCache) Get(sessionID, interactionID string) (*models.ObserverAnalysis, bool) {
	ac.mu.RLock()
	defer ac.mu.RUnlock()

	entry, exists := ac.cache[key(sessionID, interactionID)]
	if !exists || ac.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.analysis, true
}

// DeleteSession drops every entry of a session.
func (ac *AnalysisCache) DeleteSession(sessionID string) {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	prefix := sessionID + "/"
	for k := range ac.cache {
		if strings.HasPrefix(k, prefix) {
			delete(ac.cache, k)
		}
	}
}

// Close stops the cleanup loop. Safe to call more than once.
func (ac *AnalysisCache) Close() {
	ac.stopOnce.Do(func() { close(ac.stop) })
}

func (ac *AnalysisCache) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ac.cleanup()
		case <-ac.stop:
			return
		}
	}
}

func (ac *AnalysisCache) cleanup() {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	now := ac.now()
	for k, entry := range ac.cache {
		if now.After(entry.expiresAt) {
			delete(ac.cache, k)
		}
	}
}

// Size returns the number of cached analyses, expired or not.
func (ac *AnalysisCache) Size() int {
	ac.mu.RLock()
	defer ac.mu.RUnlock()

	return len(ac.cache)
}
