package quiz

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"trivia-quiz/internal/logger"
	"trivia-quiz/internal/metrics"
	"trivia-quiz/internal/opentdb"
	"trivia-quiz/internal/storage"
)

const DefaultCacheFreshness = 10 * time.Minute

type QuestionSource interface {
	FetchQuestions(ctx context.Context, query opentdb.Query) ([]opentdb.RawQuestion, error)
	FetchCategories(ctx context.Context) ([]opentdb.Category, error)
}

type ProviderOptions struct {
	Source   QuestionSource
	Store    storage.Store
	Logger   logrus.FieldLogger
	Metrics  *metrics.Metrics
	Now      func() time.Time
	Rand     *rand.Rand
	FreshFor time.Duration
}

// Provider fetches questions through a per-query cache kept in the store.
type Provider struct {
	source   QuestionSource
	store    storage.Store
	log      logrus.FieldLogger
	metrics  *metrics.Metrics
	now      func() time.Time
	freshFor time.Duration

	// *rand.Rand is not safe for concurrent use.
	rngMu sync.Mutex
	rng   *rand.Rand
}

type FetchResult struct {
	Questions []Question
	FromCache bool
	// Stale marks a cached entry served because the live call failed.
	Stale bool
}

type questionsCacheEntry struct {
	Questions []Question `json:"questions"`
	FetchedAt time.Time  `json:"fetched_at"`
}

type categoriesCacheEntry struct {
	Categories []opentdb.Category `json:"categories"`
	FetchedAt  time.Time          `json:"fetched_at"`
}

func NewProvider(opts ProviderOptions) *Provider {
	p := &Provider{
		source:   opts.Source,
		store:    opts.Store,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		now:      opts.Now,
		freshFor: opts.FreshFor,
		rng:      opts.Rand,
	}
	if p.log == nil {
		p.log = logger.Discard()
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.freshFor <= 0 {
		p.freshFor = DefaultCacheFreshness
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return p
}

func (p *Provider) Fetch(ctx context.Context, cfg Config) (FetchResult, error) {
	cfg = cfg.Normalize()
	key := cfg.CacheKey()
	log := p.log.WithField("cache_key", key)

	cached, hasCached := p.loadQuestions(ctx, key)
	if hasCached && p.now().Sub(cached.FetchedAt) < p.freshFor {
		p.metrics.ObserveFetch(metrics.OutcomeCache)
		return FetchResult{Questions: cached.Questions, FromCache: true}, nil
	}

	raw, err := p.source.FetchQuestions(ctx, cfg.query())
	if err != nil {
		if ctx.Err() != nil {
			return FetchResult{}, errors.Wrap(ctx.Err(), "fetch cancelled")
		}
		if hasCached {
			log.WithError(err).Warn("question source failed, serving stale cache")
			p.metrics.ObserveFetch(metrics.OutcomeStale)
			return FetchResult{Questions: cached.Questions, FromCache: true, Stale: true}, nil
		}
		p.metrics.ObserveFetch(metrics.OutcomeError)
		return FetchResult{}, err
	}

	p.rngMu.Lock()
	questions := BuildQuestions(raw, p.rng)
	p.rngMu.Unlock()

	entry := questionsCacheEntry{Questions: questions, FetchedAt: p.now()}
	if err := p.store.Set(ctx, key, entry); err != nil {
		log.WithError(err).Warn("failed to cache questions")
	}

	p.metrics.ObserveFetch(metrics.OutcomeLive)
	return FetchResult{Questions: questions}, nil
}

// Categories never fails; an unreachable source yields the stale list or
// an empty one.
func (p *Provider) Categories(ctx context.Context) []opentdb.Category {
	var cached categoriesCacheEntry
	found, err := p.store.Get(ctx, storage.CategoriesCacheKey, &cached)
	if err != nil {
		p.log.WithError(err).Warn("ignoring unreadable categories cache")
		found = false
	}
	if found && p.now().Sub(cached.FetchedAt) < p.freshFor {
		return cached.Categories
	}

	categories, err := p.source.FetchCategories(ctx)
	if err != nil {
		p.log.WithError(err).Warn("failed to fetch categories")
		if found {
			return cached.Categories
		}
		return []opentdb.Category{}
	}

	entry := categoriesCacheEntry{Categories: categories, FetchedAt: p.now()}
	if err := p.store.Set(ctx, storage.CategoriesCacheKey, entry); err != nil {
		p.log.WithError(err).Warn("failed to cache categories")
	}
	return categories
}

func (p *Provider) loadQuestions(ctx context.Context, key string) (questionsCacheEntry, bool) {
	var entry questionsCacheEntry
	found, err := p.store.Get(ctx, key, &entry)
	if err != nil {
		p.log.WithError(err).WithField("cache_key", key).Warn("ignoring unreadable question cache")
		return questionsCacheEntry{}, false
	}
	if !found || len(entry.Questions) == 0 {
		return questionsCacheEntry{}, false
	}
	return entry, true
}
