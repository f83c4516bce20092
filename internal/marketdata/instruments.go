package marketdata

import "sync"

// instrumentMapper caches the symbol to instrument token mapping so the
// instrument dump is only fetched once per process.
type instrumentMapper struct {
	symbolToToken map[string]int
	mu            sync.RWMutex
	loaded        bool
}

func newInstrumentMapper() *instrumentMapper {
	return &instrumentMapper{symbolToToken: make(map[string]int)}
}

func (im *instrumentMapper) addMapping(symbol string, token int) {
	im.mu.Lock()
	defer im.mu.Unlock()

	im.symbolToToken[symbol] = token
}

func (im *instrumentMapper) getToken(symbol string) (int, bool) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	token, exists := im.symbolToToken[symbol]
	return token, exists
}

func (im *instrumentMapper) isLoaded() bool {
	im.mu.RLock()
	defer im.mu.RUnlock()

	return im.loaded
}

func (im *instrumentMapper) markLoaded() {
	im.mu.Lock()
	defer im.mu.Unlock()

	im.loaded = true
}
