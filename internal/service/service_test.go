package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/itlibrary/internal/adapter"
	"github.com/prn-tf/itlibrary/internal/domain"
	"github.com/prn-tf/itlibrary/internal/lock"
	"github.com/prn-tf/itlibrary/internal/repository"
	"github.com/prn-tf/itlibrary/internal/storage/memory"
)

var testNow = time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

type fixture struct {
	backend *memory.Store
	adapter *adapter.Adapter
	repos   *repository.Repositories
	opts    Options
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := memory.NewStore()
	a := adapter.New(backend, adapter.Options{Prefix: "itlibrary_"}, zerolog.Nop())
	return &fixture{
		backend: backend,
		adapter: a,
		repos:   repository.New(a),
		opts: Options{
			Locker: lock.NewMemoryLocker(),
			Lock:   lock.Options{TTL: time.Second, MaxRetries: 1, RetryDelay: time.Millisecond},
			Clock:  func() time.Time { return testNow },
		},
	}
}

func (f *fixture) catalog() *CatalogService {
	return NewCatalogService(f.repos.Subjects, f.repos.Resources, f.repos, f.opts, zerolog.Nop())
}

func (f *fixture) users() *UserService {
	return NewUserService(f.repos.Users, f.opts, zerolog.Nop())
}

func (f *fixture) transfer() *TransferService {
	return NewTransferService(f.repos.Users, f.repos.Subjects, f.repos.Resources, f.repos, f.opts, zerolog.Nop())
}

func (f *fixture) initializer() *InitService {
	return NewInitService(f.adapter, f.repos, f.catalog(), f.opts, zerolog.Nop())
}

// failingCommitter rejects every combined write.
type failingCommitter struct{ err error }

func (c failingCommitter) SaveCollections(context.Context, repository.Collections) error {
	return c.err
}

func (c failingCommitter) SaveCatalog(context.Context, []domain.Subject, []domain.Resource) error {
	return c.err
}

// failingSubjects loads real data but refuses to save.
type failingSubjects struct {
	repository.SubjectRepository
	err error
}

func (r failingSubjects) Save(context.Context, []domain.Subject) error { return r.err }

func TestNewResult(t *testing.T) {
	tests := []struct {
		name string
		err  error
		ok   string
		want Result
	}{
		{name: "success", ok: MsgRegistered, want: Result{Success: true, Message: "تم إنشاء الحساب بنجاح"}},
		{name: "login", ok: MsgLoggedIn, want: Result{Success: true, Message: "تم تسجيل الدخول بنجاح!"}},
		{
			name: "duplicate username",
			err:  domain.NewDomainError(domain.ErrDuplicateUsername, "", "ahmed123"),
			want: Result{Message: "اسم المستخدم موجود مسبقاً"},
		},
		{
			name: "bad credentials",
			err:  domain.ErrInvalidCredentials,
			want: Result{Message: "اسم المستخدم أو كلمة المرور غير صحيحة"},
		},
		{
			name: "wrapped storage failure",
			err:  fmt.Errorf("%w: save itlibrary_users: disk full", domain.ErrStorageUnavailable),
			want: Result{Message: "تعذر حفظ البيانات، حاول مرة أخرى"},
		},
		{
			name: "lock busy",
			err:  fmt.Errorf("%w: %s", lock.ErrNotAcquired, lock.KeyCatalog),
			want: Result{Message: "النظام مشغول حالياً، حاول مرة أخرى"},
		},
		{name: "unknown", err: errors.New("boom"), want: Result{Message: msgUnexpected}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, NewResult(tt.err, tt.ok))
		})
	}
}

func TestRunner_TakesKeysInOrder(t *testing.T) {
	locker := lock.NewMemoryLocker()
	r := newRunner(Options{Locker: locker, Lock: DefaultLockOptions})
	ctx := context.Background()

	err := r.run(ctx, "test", []string{lock.KeyCatalog, lock.KeyUsers}, func() error {
		for _, key := range []string{lock.KeyCatalog, lock.KeyUsers} {
			held, err := locker.IsHeld(ctx, key)
			require.NoError(t, err)
			require.True(t, held, key)
		}
		return nil
	})
	require.NoError(t, err)

	for _, key := range []string{lock.KeyCatalog, lock.KeyUsers} {
		held, err := locker.IsHeld(ctx, key)
		require.NoError(t, err)
		require.False(t, held, key)
	}
}

func TestRunner_PropagatesError(t *testing.T) {
	r := newRunner(Options{}.withDefaults())
	want := errors.New("inner")
	require.ErrorIs(t, r.run(context.Background(), "test", []string{lock.KeyUsers}, func() error { return want }), want)
}

func TestLockContention_ReturnsNotAcquired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, err := f.opts.Locker.Acquire(ctx, lock.KeyCatalog, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = f.catalog().AddSubject(ctx, AddSubjectInput{ID: "IT301", Name: "Networks", Stage: "3"})
	require.ErrorIs(t, err, lock.ErrNotAcquired)

	// Nothing was written.
	require.Zero(t, f.backend.Len())
}

func TestConcurrentAddResource_CountsStayConsistent(t *testing.T) {
	f := newFixture(t)
	f.opts.Lock = lock.Options{TTL: 5 * time.Second, MaxRetries: 500, RetryDelay: time.Millisecond}
	svc := f.catalog()
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.AddResource(ctx, AddResourceInput{
				ID:        fmt.Sprintf("C%03d", i),
				SubjectID: "IT202",
				Title:     "concurrent",
				Type:      "pdf",
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	subject, err := svc.Subject(ctx, "IT202")
	require.NoError(t, err)
	require.Equal(t, n, subject.ResourcesCount)
	require.Len(t, svc.ResourcesBySubject(ctx, "IT202"), n)
}
