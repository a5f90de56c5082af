package collectionimpl

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/orgball2608/story-sync-telegram-bot/internal/domain"
	"github.com/orgball2608/story-sync-telegram-bot/internal/storyapi"
	"github.com/orgball2608/story-sync-telegram-bot/internal/tokenstore"
	apperrors "github.com/orgball2608/story-sync-telegram-bot/pkg/errors"
	"github.com/orgball2608/story-sync-telegram-bot/pkg/logger"
)

// scriptAPI answers Stories from a queue of canned pages and counts every
// network-shaped call. A non-nil gate blocks each Stories call until the gate
// is closed, to simulate an in-flight request.
type scriptAPI struct {
	mu          sync.Mutex
	pages       [][]domain.Story
	pageErr     error
	storyCalls  int
	uploadCalls int
	uploadErr   error
	detail      *domain.Story
	located     []domain.Story
	gate        chan struct{}
}

func storiesOf(ids ...string) []domain.Story {
	stories := make([]domain.Story, 0, len(ids))
	for _, id := range ids {
		stories = append(stories, domain.Story{ID: id, Name: "user", Description: "d"})
	}
	return stories
}

func (s *scriptAPI) Stories(_ context.Context, _ string, _, _ int) ([]domain.Story, error) {
	s.mu.Lock()
	s.storyCalls++
	gate := s.gate
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pageErr != nil {
		err := s.pageErr
		s.pageErr = nil
		return nil, err
	}
	if len(s.pages) == 0 {
		return nil, nil
	}
	page := s.pages[0]
	s.pages = s.pages[1:]
	return page, nil
}

func (s *scriptAPI) StoryByID(_ context.Context, _, id string) (*domain.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storyCalls++
	if s.detail == nil || s.detail.ID != id {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "story not found")
	}
	return s.detail, nil
}

func (s *scriptAPI) Upload(context.Context, string, domain.UploadJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploadCalls++
	return s.uploadErr
}

func (s *scriptAPI) Login(context.Context, string, string) (*storyapi.LoginResult, error) {
	return nil, fmt.Errorf("not implemented")
}
func (s *scriptAPI) Register(context.Context, string, string, string) (string, error) {
	return "", fmt.Errorf("not implemented")
}
func (s *scriptAPI) StoriesWithLocation(context.Context, string) ([]domain.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storyCalls++
	return s.located, nil
}

func (s *scriptAPI) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storyCalls
}

func waitForCalls(t *testing.T, api *scriptAPI, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for api.calls() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d API calls, saw %d", n, api.calls())
		}
		time.Sleep(time.Millisecond)
	}
}

func newCollection(t *testing.T, api storyapi.Client, token string) *CollectionImpl {
	t.Helper()
	log := logger.New(logger.Opts{})
	store := newMemStore(token)
	return NewManual(api, store, log, 2)
}

// memStore is an in-memory token store for tests.
type memStore struct {
	mu    sync.Mutex
	token string
}

var _ tokenstore.Store = (*memStore)(nil)

func newMemStore(token string) *memStore { return &memStore{token: token} }

func (m *memStore) Token(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *memStore) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *memStore) Clear(ctx context.Context) error { return m.Save(ctx, "") }

func (m *memStore) Watch(context.Context) <-chan string {
	ch := make(chan string, 1)
	m.mu.Lock()
	ch <- m.token
	m.mu.Unlock()
	return ch
}

func TestRefresh_ReplacesCollection(t *testing.T) {
	api := &scriptAPI{pages: [][]domain.Story{storiesOf("a", "b")}}
	ctrl := newCollection(t, api, "tok")
	ctx := context.Background()

	if err := ctrl.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	snap := ctrl.Snapshot()
	if len(snap.Stories) != 2 {
		t.Fatalf("expected 2 stories, got %d", len(snap.Stories))
	}
	if !snap.HasMore {
		t.Error("a full page must leave more data available")
	}
	if snap.Loading {
		t.Error("loading must be cleared after refresh")
	}

	// A later refresh replaces, never appends.
	api.mu.Lock()
	api.pages = [][]domain.Story{storiesOf("c", "d")}
	api.mu.Unlock()
	if err := ctrl.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	snap = ctrl.Snapshot()
	if len(snap.Stories) != 2 || snap.Stories[0].ID != "c" {
		t.Fatalf("refresh must replace contents, got %+v", snap.Stories)
	}
}

func TestLoadMore_AppendsInOrderAndStopsAtEnd(t *testing.T) {
	api := &scriptAPI{pages: [][]domain.Story{
		storiesOf("a", "b"),
		storiesOf("c", "d"),
		storiesOf("e"),
		nil,
	}}
	ctrl := newCollection(t, api, "tok")
	ctx := context.Background()

	if err := ctrl.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := ctrl.LoadMore(ctx); err != nil {
			t.Fatal(err)
		}
	}

	snap := ctrl.Snapshot()
	want := []string{"a", "b", "c", "d", "e"}
	if len(snap.Stories) != len(want) {
		t.Fatalf("expected %d stories, got %d", len(want), len(snap.Stories))
	}
	for i, id := range want {
		if snap.Stories[i].ID != id {
			t.Errorf("story %d = %q, want %q", i, snap.Stories[i].ID, id)
		}
	}
	if snap.HasMore {
		t.Error("empty page must mark end of data")
	}

	// Further calls at end of data never hit the API.
	before := api.calls()
	if err := ctrl.LoadMore(ctx); err != nil {
		t.Fatal(err)
	}
	if api.calls() != before {
		t.Error("LoadMore at end of data must not call the API")
	}
}

func TestLoadMore_DropsDuplicates(t *testing.T) {
	api := &scriptAPI{pages: [][]domain.Story{
		storiesOf("a", "b"),
		storiesOf("b", "c"),
	}}
	ctrl := newCollection(t, api, "tok")
	ctx := context.Background()

	if err := ctrl.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.LoadMore(ctx); err != nil {
		t.Fatal(err)
	}

	snap := ctrl.Snapshot()
	want := []string{"a", "b", "c"}
	if len(snap.Stories) != len(want) {
		t.Fatalf("duplicates must be dropped, got %d stories", len(snap.Stories))
	}
	for i, id := range want {
		if snap.Stories[i].ID != id {
			t.Errorf("story %d = %q, want %q", i, snap.Stories[i].ID, id)
		}
	}
}

func TestLoadMore_ErrorKeepsStateForRetry(t *testing.T) {
	api := &scriptAPI{pages: [][]domain.Story{
		storiesOf("a", "b"),
		storiesOf("c", "d"),
	}}
	ctrl := newCollection(t, api, "tok")
	ctx := context.Background()

	if err := ctrl.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	api.mu.Lock()
	api.pageErr = apperrors.Transport(fmt.Errorf("connection reset"))
	api.mu.Unlock()
	if err := ctrl.LoadMore(ctx); !apperrors.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}

	snap := ctrl.Snapshot()
	if len(snap.Stories) != 2 {
		t.Fatalf("loaded stories must survive a failed append, got %d", len(snap.Stories))
	}
	if !snap.HasMore {
		t.Error("a failed append must keep the next key for retry")
	}
	if snap.Loading {
		t.Error("loading must be cleared after a failed append")
	}
	if snap.ErrorMessage == "" {
		t.Error("error message must be exposed")
	}

	// The retry loads the same page.
	if err := ctrl.LoadMore(ctx); err != nil {
		t.Fatal(err)
	}
	snap = ctrl.Snapshot()
	if len(snap.Stories) != 4 {
		t.Fatalf("retry must append the missing page, got %d stories", len(snap.Stories))
	}
	if snap.ErrorMessage != "" {
		t.Errorf("error message must be cleared on success, got %q", snap.ErrorMessage)
	}
}

func TestLoadMore_CoalescesConcurrentAppends(t *testing.T) {
	gate := make(chan struct{})
	api := &scriptAPI{
		pages: [][]domain.Story{storiesOf("a", "b"), storiesOf("c", "d")},
	}
	ctrl := newCollection(t, api, "tok")
	ctx := context.Background()

	if err := ctrl.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	api.mu.Lock()
	api.gate = gate
	api.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- ctrl.LoadMore(ctx) }()

	// Wait for the first append to reach the API, then issue a second one.
	waitForCalls(t, api, 2)
	if err := ctrl.LoadMore(ctx); err != nil {
		t.Fatal(err)
	}
	if api.calls() != 2 {
		t.Error("a second LoadMore while one is in flight must not call the API")
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if got := len(ctrl.Snapshot().Stories); got != 4 {
		t.Fatalf("expected 4 stories, got %d", got)
	}
}

func TestInvalidate_DiscardsInFlightLoad(t *testing.T) {
	gate := make(chan struct{})
	api := &scriptAPI{pages: [][]domain.Story{storiesOf("a", "b")}}
	ctrl := newCollection(t, api, "tok")
	ctx := context.Background()

	api.mu.Lock()
	api.gate = gate
	api.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- ctrl.Refresh(ctx) }()

	waitForCalls(t, api, 1)
	ctrl.Invalidate()
	close(gate)

	if err := <-done; err != nil {
		t.Fatal(err)
	}

	snap := ctrl.Snapshot()
	if len(snap.Stories) != 0 {
		t.Fatalf("a load started before invalidation must be discarded, got %d stories", len(snap.Stories))
	}
	if snap.Loading {
		t.Error("loading must be cleared by invalidation")
	}
	if snap.HasMore {
		t.Error("invalidation must drop the next key")
	}
}

func TestRefresh_WithoutSessionFailsFast(t *testing.T) {
	api := &scriptAPI{pages: [][]domain.Story{storiesOf("a")}}
	ctrl := newCollection(t, api, "")

	err := ctrl.Refresh(context.Background())
	if !apperrors.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if api.calls() != 0 {
		t.Error("no API call may happen without a session token")
	}
	if msg := ctrl.Snapshot().ErrorMessage; msg == "" {
		t.Error("the auth failure must be exposed in the snapshot")
	}
}

func TestUpload_ValidatesBeforeTokenAndNetwork(t *testing.T) {
	api := &scriptAPI{}
	ctrl := newCollection(t, api, "")
	ctx := context.Background()

	// Missing token, but validation runs first and wins.
	if err := ctrl.Upload(ctx, domain.UploadJob{Image: []byte("x")}); !apperrors.IsValidation(err) {
		t.Fatalf("expected validation error for missing description, got %v", err)
	}
	if err := ctrl.Upload(ctx, domain.UploadJob{Description: "d"}); !apperrors.IsValidation(err) {
		t.Fatalf("expected validation error for missing photo, got %v", err)
	}

	api.mu.Lock()
	uploads := api.uploadCalls
	api.mu.Unlock()
	if uploads != 0 {
		t.Error("invalid jobs must not reach the API")
	}
}

func TestUpload_SuccessSetsFlag(t *testing.T) {
	api := &scriptAPI{}
	ctrl := newCollection(t, api, "tok")
	ctx := context.Background()

	job := domain.UploadJob{Description: "d", Image: []byte("x")}
	if err := ctrl.Upload(ctx, job); err != nil {
		t.Fatal(err)
	}

	snap := ctrl.Snapshot()
	if !snap.Success {
		t.Error("expected success flag after upload")
	}
	if snap.Loading {
		t.Error("loading must be cleared after upload")
	}

	// The collection itself is untouched until the next refresh.
	if len(snap.Stories) != 0 {
		t.Errorf("upload must not mutate the collection, got %d stories", len(snap.Stories))
	}
}

func TestUpload_FailureClearsSuccess(t *testing.T) {
	api := &scriptAPI{uploadErr: apperrors.Application("photo too large")}
	ctrl := newCollection(t, api, "tok")

	err := ctrl.Upload(context.Background(), domain.UploadJob{Description: "d", Image: []byte("x")})
	if !apperrors.IsApplication(err) {
		t.Fatalf("expected application error, got %v", err)
	}

	snap := ctrl.Snapshot()
	if snap.Success {
		t.Error("success flag must be false after a failed upload")
	}
	if snap.ErrorMessage != "photo too large" {
		t.Errorf("error message = %q", snap.ErrorMessage)
	}
}

func TestFetchDetail(t *testing.T) {
	api := &scriptAPI{detail: &domain.Story{ID: "s1", Name: "A", Description: "hello"}}
	ctrl := newCollection(t, api, "tok")
	ctx := context.Background()

	story, err := ctrl.FetchDetail(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if story.ID != "s1" {
		t.Fatalf("unexpected story %+v", story)
	}
	if got := ctrl.Snapshot().Detail; got == nil || got.ID != "s1" {
		t.Error("detail slot must hold the fetched story")
	}

	if _, err := ctrl.FetchDetail(ctx, "missing"); !apperrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if ctrl.Snapshot().Loading {
		t.Error("loading must be cleared after a failed detail fetch")
	}
}

func TestFetchLocated(t *testing.T) {
	lat, lon := -6.2, 106.8
	api := &scriptAPI{located: []domain.Story{
		{ID: "s1", Name: "A", Lat: &lat, Lon: &lon},
	}}
	ctrl := newCollection(t, api, "tok")

	stories, err := ctrl.FetchLocated(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(stories) != 1 || !stories[0].HasLocation() {
		t.Fatalf("unexpected stories: %+v", stories)
	}

	snap := ctrl.Snapshot()
	if snap.Loading {
		t.Error("loading must be cleared after the fetch")
	}
	if len(snap.Stories) != 0 {
		t.Errorf("geotagged fetch must not mutate the collection, got %d stories", len(snap.Stories))
	}
}

func TestFetchLocated_WithoutSessionFailsFast(t *testing.T) {
	api := &scriptAPI{located: storiesOf("a")}
	ctrl := newCollection(t, api, "")

	_, err := ctrl.FetchLocated(context.Background())
	if !apperrors.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if api.calls() != 0 {
		t.Error("no API call may happen without a session token")
	}
}

func TestWatch_SeesRefreshTransitions(t *testing.T) {
	api := &scriptAPI{pages: [][]domain.Story{storiesOf("a", "b")}}
	ctrl := newCollection(t, api, "tok")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := ctrl.Watch(ctx)
	first := <-ch
	if first.Loading || len(first.Stories) != 0 {
		t.Fatalf("initial snapshot must be empty and idle, got %+v", first)
	}

	if err := ctrl.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	sawLoading := false
	for snap := range ch {
		if snap.Loading {
			sawLoading = true
			continue
		}
		if len(snap.Stories) == 2 {
			if !sawLoading {
				t.Error("watchers must observe the loading phase before results")
			}
			return
		}
	}
	t.Fatal("watch channel closed before the refreshed snapshot arrived")
}
