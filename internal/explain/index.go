package explain

import (
	"encoding/json"
	"time"

	"github.com/ppiankov/verdict/internal/cache"
	"github.com/ppiankov/verdict/internal/model"
	"github.com/ppiankov/verdict/internal/session"
)

const indexNamespace = "explain"

// Index keeps the evidence of recent verdicts by query id.
// Only the newest maxQueries verdicts are kept; entries also expire after ttl.
type Index struct {
	store cache.Cache
	ttl   time.Duration
}

// NewIndex creates an index backed by an in-memory cache
func NewIndex(ttl time.Duration, maxQueries int) *Index {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Index{
		store: cache.NewMemoryCache(ttl, ttl/2, maxQueries),
		ttl:   ttl,
	}
}

// Put stores the verdict's evidence under its query id
func (i *Index) Put(verdict model.Verdict) error {
	data, err := json.Marshal(verdict)
	if err != nil {
		return err
	}
	return i.store.Set(cache.Key(indexNamespace, verdict.QueryID), data, i.ttl)
}

// Get returns the verdict indexed under queryID
func (i *Index) Get(queryID string) (*model.Verdict, bool) {
	data, ok := i.store.Get(cache.Key(indexNamespace, queryID))
	if !ok {
		return nil, false
	}
	var verdict model.Verdict
	if err := json.Unmarshal(data, &verdict); err != nil {
		return nil, false
	}
	return &verdict, true
}

// Observer indexes every verdict that becomes current in a session and
// re-indexes it when a question is asked, so the explainer finds it as the
// newest entry. It keeps no state; one observer may serve many sessions.
func (i *Index) Observer() session.Observer {
	return func(state session.State) {
		if !indexable(state) {
			return
		}
		_ = i.Put(*state.Verdict)
	}
}

// indexable reports whether state carries a new verdict or a new question
func indexable(state session.State) bool {
	if state.Phase != session.PhaseReady || state.Verdict == nil {
		return false
	}
	return state.Pending != nil || len(state.Transcript) == 0
}
