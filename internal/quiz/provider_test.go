package quiz

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"trivia-quiz/internal/opentdb"
	"trivia-quiz/internal/storage"
)

type fakeSource struct {
	questions     []opentdb.RawQuestion
	categories    []opentdb.Category
	err           error
	categoriesErr error
	calls         int
	categoryCalls int
	lastQuery     opentdb.Query
}

func (f *fakeSource) FetchQuestions(_ context.Context, query opentdb.Query) ([]opentdb.RawQuestion, error) {
	f.calls++
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return f.questions, nil
}

func (f *fakeSource) FetchCategories(context.Context) ([]opentdb.Category, error) {
	f.categoryCalls++
	if f.categoriesErr != nil {
		return nil, f.categoriesErr
	}
	return f.categories, nil
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func rawQuestions(n int) []opentdb.RawQuestion {
	raw := make([]opentdb.RawQuestion, 0, n)
	for i := 0; i < n; i++ {
		raw = append(raw, opentdb.RawQuestion{
			Category:         "General Knowledge",
			Difficulty:       "easy",
			Type:             "multiple",
			Question:         "Question " + string(rune('A'+i)),
			CorrectAnswer:    "right",
			IncorrectAnswers: []string{"wrong 1", "wrong 2", "wrong 3"},
		})
	}
	return raw
}

func newTestProvider(source *fakeSource, store storage.Store, clock *fakeClock) *Provider {
	return NewProvider(ProviderOptions{
		Source: source,
		Store:  store,
		Now:    clock.Now,
		Rand:   rand.New(rand.NewSource(1)),
	})
}

func TestProviderFetchCachesFreshResults(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{questions: rawQuestions(3)}
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	provider := newTestProvider(source, storage.NewMemory(), clock)
	cfg := Config{Amount: 3, Category: 9, Difficulty: "easy", Type: "multiple"}

	first, err := provider.Fetch(ctx, cfg)
	require.NoError(t, err)
	require.Len(t, first.Questions, 3)
	require.False(t, first.FromCache)
	require.Equal(t, opentdb.Query{Amount: 3, Category: 9, Difficulty: "easy", Type: "multiple"}, source.lastQuery)

	clock.now = clock.now.Add(9 * time.Minute)
	second, err := provider.Fetch(ctx, cfg)
	require.NoError(t, err)
	require.True(t, second.FromCache)
	require.False(t, second.Stale)
	require.Equal(t, first.Questions, second.Questions, "cached options keep their order")
	require.Equal(t, 1, source.calls)
}

func TestProviderFetchRefreshesAfterFreshnessWindow(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{questions: rawQuestions(2)}
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	provider := newTestProvider(source, storage.NewMemory(), clock)

	_, err := provider.Fetch(ctx, Config{Amount: 2})
	require.NoError(t, err)

	clock.now = clock.now.Add(10 * time.Minute)
	result, err := provider.Fetch(ctx, Config{Amount: 2})
	require.NoError(t, err)
	require.False(t, result.FromCache)
	require.Equal(t, 2, source.calls)
}

func TestProviderFetchKeysCacheByParameters(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{questions: rawQuestions(2)}
	provider := newTestProvider(source, storage.NewMemory(), &fakeClock{now: time.Now()})

	_, err := provider.Fetch(ctx, Config{Amount: 2, Difficulty: "easy"})
	require.NoError(t, err)
	_, err = provider.Fetch(ctx, Config{Amount: 2, Difficulty: "hard"})
	require.NoError(t, err)
	require.Equal(t, 2, source.calls)
}

func TestProviderFetchServesStaleCacheOnFailure(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{questions: rawQuestions(2)}
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	provider := newTestProvider(source, storage.NewMemory(), clock)

	first, err := provider.Fetch(ctx, Config{Amount: 2})
	require.NoError(t, err)

	for _, failure := range []error{
		errors.Wrap(opentdb.ErrTransport, "dial tcp"),
		opentdb.ErrRateLimited,
		opentdb.ErrNoResults,
	} {
		clock.now = clock.now.Add(time.Hour)
		source.err = failure

		result, err := provider.Fetch(ctx, Config{Amount: 2})
		require.NoError(t, err)
		require.True(t, result.Stale)
		require.Equal(t, first.Questions, result.Questions)
	}
}

func TestProviderFetchPropagatesErrorWithoutCache(t *testing.T) {
	source := &fakeSource{err: opentdb.ErrNoResults}
	provider := newTestProvider(source, storage.NewMemory(), &fakeClock{now: time.Now()})

	_, err := provider.Fetch(context.Background(), Config{Amount: 50, Category: 30})
	require.ErrorIs(t, err, ErrInsufficientQuestions)
}

func TestProviderFetchIgnoresCorruptCache(t *testing.T) {
	store := storage.NewMemory()
	cfg := Config{Amount: 2}
	store.PutRaw(cfg.CacheKey(), []byte("{broken"))

	source := &fakeSource{questions: rawQuestions(2)}
	provider := newTestProvider(source, store, &fakeClock{now: time.Now()})

	result, err := provider.Fetch(context.Background(), cfg)
	require.NoError(t, err)
	require.False(t, result.FromCache)
	require.Len(t, result.Questions, 2)
}

func TestProviderCategoriesCachesAndFallsBack(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{categories: []opentdb.Category{{ID: 9, Name: "General Knowledge"}}}
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	provider := newTestProvider(source, storage.NewMemory(), clock)

	require.Len(t, provider.Categories(ctx), 1)
	require.Len(t, provider.Categories(ctx), 1)
	require.Equal(t, 1, source.categoryCalls)

	clock.now = clock.now.Add(time.Hour)
	source.categoriesErr = opentdb.ErrTransport
	require.Equal(t, []opentdb.Category{{ID: 9, Name: "General Knowledge"}}, provider.Categories(ctx))
}

func TestProviderCategoriesEmptyOnFailureWithoutCache(t *testing.T) {
	source := &fakeSource{categoriesErr: opentdb.ErrTransport}
	provider := newTestProvider(source, storage.NewMemory(), &fakeClock{now: time.Now()})

	categories := provider.Categories(context.Background())
	require.NotNil(t, categories)
	require.Empty(t, categories)
}

func TestUserMessageIsDistinctPerFailure(t *testing.T) {
	failures := []error{
		opentdb.ErrNoResults,
		opentdb.ErrInvalidParameter,
		opentdb.ErrTokenEmpty,
		opentdb.ErrRateLimited,
		opentdb.ErrTransport,
		opentdb.ErrUnknownResponse,
	}

	seen := make(map[string]bool)
	for _, failure := range failures {
		message := UserMessage(errors.Wrap(failure, "context"))
		require.NotEmpty(t, message)
		require.False(t, seen[message], "duplicate message %q", message)
		seen[message] = true
	}
	require.Empty(t, UserMessage(nil))
	require.True(t, IsSemantic(opentdb.ErrRateLimited))
	require.False(t, IsSemantic(opentdb.ErrTransport))
}
