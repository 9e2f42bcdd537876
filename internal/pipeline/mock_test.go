package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/render"
	"github.com/sells-group/prospect-cli/internal/store"
	"github.com/sells-group/prospect-cli/pkg/facebook"
	"github.com/sells-group/prospect-cli/pkg/gsearch"
	"github.com/sells-group/prospect-cli/pkg/instagram"
	"github.com/sells-group/prospect-cli/pkg/linkedin"
)

// --- Instagram Mock ---

type mockInstagram struct {
	mock.Mock
}

func (m *mockInstagram) FetchProfile(ctx context.Context, handle string) (*instagram.Profile, error) {
	args := m.Called(ctx, handle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*instagram.Profile), args.Error(1)
}

// --- Search Mock ---

type mockSearch struct {
	mock.Mock
}

func (m *mockSearch) Search(ctx context.Context, query string) ([]gsearch.Result, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gsearch.Result), args.Error(1)
}

// --- LinkedIn Mock ---

type mockLinkedin struct {
	mock.Mock
}

func (m *mockLinkedin) FetchCompany(ctx context.Context, pageURL string) (*linkedin.CompanyPage, error) {
	args := m.Called(ctx, pageURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*linkedin.CompanyPage), args.Error(1)
}

// --- Facebook Mock ---

type mockFacebook struct {
	mock.Mock
}

func (m *mockFacebook) FetchContact(ctx context.Context, pageURL string) (*facebook.ContactInfo, error) {
	args := m.Called(ctx, pageURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*facebook.ContactInfo), args.Error(1)
}

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateRun(ctx context.Context, handle string) (*model.Run, error) {
	args := m.Called(ctx, handle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	args := m.Called(ctx, runID, status)
	return args.Error(0)
}

func (m *mockStore) UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error {
	args := m.Called(ctx, runID, result)
	return args.Error(0)
}

func (m *mockStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Run), args.Error(1)
}

func (m *mockStore) GetCachedSource(ctx context.Context, source, key string) ([]byte, error) {
	args := m.Called(ctx, source, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockStore) SetCachedSource(ctx context.Context, source, key string, payload []byte, ttl time.Duration) error {
	args := m.Called(ctx, source, key, payload, ttl)
	return args.Error(0)
}

func (m *mockStore) DeleteExpiredSources(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// --- Renderer fake ---

// fakeRenderer serves canned pages by URL. Unknown URLs fail the way a
// dead host would; URLs in hanging block until the caller's deadline,
// the way a stalled server would.
type fakeRenderer struct {
	pages   map[string]*render.Page
	hanging map[string]bool
}

func (f *fakeRenderer) Render(ctx context.Context, url string) (*render.Page, error) {
	if f.hanging[url] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if p, ok := f.pages[url]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("render %s: host unreachable", url)
}
