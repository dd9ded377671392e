// Package memory is an in-process contracts.Store used by tests and
// STORE=memory runs. Transactions are serialised and their writes are
// buffered until commit.
package memory

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"

	"github.com/wonny/tradingquiz/internal/contracts"
)

// Store implements contracts.Store in memory.
type Store struct {
	txMu sync.Mutex // serialises WithinTx

	mu          sync.RWMutex
	users       map[string]*contracts.User
	byName      map[string]string // lower(username) -> id
	samples     []*contracts.Sample
	sampleIdx   map[string]int
	predictions []*contracts.Prediction
	sessions    []*contracts.TradingSession
}

// New creates an empty store.
func New() *Store {
	return &Store{
		users:     make(map[string]*contracts.User),
		byName:    make(map[string]string),
		sampleIdx: make(map[string]int),
	}
}

func (s *Store) Users() contracts.UserRepository             { return userRepo{s} }
func (s *Store) Samples() contracts.SampleRepository         { return sampleRepo{s} }
func (s *Store) Predictions() contracts.PredictionRepository { return predictionRepo{s} }
func (s *Store) Sessions() contracts.SessionRepository       { return sessionRepo{s} }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// WithinTx runs fn with exclusive write access. Buffered writes are applied
// only when fn returns nil; a panic discards them and is re-raised.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx contracts.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	t := &tx{store: s, ratings: make(map[string]float64)}
	if err := fn(ctx, t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range t.ratings {
		s.users[id].Rating = r
	}
	s.predictions = append(s.predictions, t.predictions...)
	s.sessions = append(s.sessions, t.sessions...)
	return nil
}

type tx struct {
	store       *Store
	ratings     map[string]float64
	predictions []*contracts.Prediction
	sessions    []*contracts.TradingSession
}

func (t *tx) LockUser(ctx context.Context, id string) (*contracts.User, error) {
	t.store.mu.RLock()
	u, ok := t.store.users[id]
	var cp contracts.User
	if ok {
		cp = *u
	}
	t.store.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, contracts.ErrNotFound)
	}
	if r, ok := t.ratings[id]; ok {
		cp.Rating = r
	}
	return &cp, nil
}

func (t *tx) GetSample(ctx context.Context, id string) (*contracts.Sample, error) {
	return sampleRepo{t.store}.GetByID(ctx, id)
}

func (t *tx) UpdateRating(ctx context.Context, userID string, rating float64) error {
	t.store.mu.RLock()
	_, ok := t.store.users[userID]
	t.store.mu.RUnlock()
	if !ok {
		return fmt.Errorf("user %s: %w", userID, contracts.ErrNotFound)
	}
	t.ratings[userID] = rating
	return nil
}

func (t *tx) InsertPrediction(ctx context.Context, p *contracts.Prediction) error {
	cp := *p
	t.predictions = append(t.predictions, &cp)
	return nil
}

func (t *tx) InsertTradingSession(ctx context.Context, sess *contracts.TradingSession) error {
	cp := *sess
	t.sessions = append(t.sessions, &cp)
	return nil
}

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, user *contracts.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := strings.ToLower(user.Username)
	if _, ok := r.s.byName[key]; ok {
		return fmt.Errorf("username %q: %w", user.Username, contracts.ErrAlreadyExists)
	}
	if _, ok := r.s.users[user.ID]; ok {
		return fmt.Errorf("user %s: %w", user.ID, contracts.ErrAlreadyExists)
	}
	cp := *user
	r.s.users[user.ID] = &cp
	r.s.byName[key] = user.ID
	return nil
}

func (r userRepo) GetByID(ctx context.Context, id string) (*contracts.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, contracts.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (r userRepo) GetByUsername(ctx context.Context, username string) (*contracts.User, error) {
	r.s.mu.RLock()
	id, ok := r.s.byName[strings.ToLower(username)]
	r.s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("username %q: %w", username, contracts.ErrNotFound)
	}
	return r.GetByID(ctx, id)
}

func (r userRepo) Top(ctx context.Context, limit int) ([]*contracts.User, error) {
	r.s.mu.RLock()
	all := make([]*contracts.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		cp := *u
		all = append(all, &cp)
	}
	r.s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	if limit >= 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r userRepo) CountAbove(ctx context.Context, rating float64) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, u := range r.s.users {
		if u.Rating > rating {
			n++
		}
	}
	return n, nil
}

type sampleRepo struct{ s *Store }

func (r sampleRepo) Create(ctx context.Context, sample *contracts.Sample) error {
	return r.CreateBatch(ctx, []*contracts.Sample{sample})
}

func (r sampleRepo) CreateBatch(ctx context.Context, samples []*contracts.Sample) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, sample := range samples {
		if !sample.Outcome.Valid() {
			return fmt.Errorf("sample outcome %q: %w", sample.Outcome, contracts.ErrInvalidInput)
		}
		if _, ok := r.s.sampleIdx[sample.ID]; ok {
			return fmt.Errorf("sample %s: %w", sample.ID, contracts.ErrAlreadyExists)
		}
	}
	for _, sample := range samples {
		cp := *sample
		r.s.sampleIdx[sample.ID] = len(r.s.samples)
		r.s.samples = append(r.s.samples, &cp)
	}
	return nil
}

func (r sampleRepo) GetByID(ctx context.Context, id string) (*contracts.Sample, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	i, ok := r.s.sampleIdx[id]
	if !ok {
		return nil, fmt.Errorf("sample %s: %w", id, contracts.ErrNotFound)
	}
	cp := *r.s.samples[i]
	return &cp, nil
}

func (r sampleRepo) Random(ctx context.Context) (*contracts.Sample, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if len(r.s.samples) == 0 {
		return nil, fmt.Errorf("no charts available: %w", contracts.ErrNotAvailable)
	}
	cp := *r.s.samples[rand.IntN(len(r.s.samples))]
	return &cp, nil
}

func (r sampleRepo) Count(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.samples), nil
}

type predictionRepo struct{ s *Store }

// ListByUser returns the newest predictions first.
func (r predictionRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*contracts.Prediction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*contracts.Prediction
	for i := len(r.s.predictions) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		if p := r.s.predictions[i]; p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r predictionRepo) StatsByUser(ctx context.Context, userID string) (contracts.PredictionStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var stats contracts.PredictionStats
	for _, p := range r.s.predictions {
		if p.UserID != userID {
			continue
		}
		stats.Total++
		if p.Correct() {
			stats.Correct++
		}
	}
	return stats, nil
}

type sessionRepo struct{ s *Store }

// ListByUser returns the newest sessions first.
func (r sessionRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*contracts.TradingSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*contracts.TradingSession
	for i := len(r.s.sessions) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		if sess := r.s.sessions[i]; sess.UserID == userID {
			cp := *sess
			out = append(out, &cp)
		}
	}
	return out, nil
}

var _ contracts.Store = (*Store)(nil)
