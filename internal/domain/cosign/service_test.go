package cosign

import (
	"context"
	"errors"
	"testing"
	"time"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

var errRepoNotFound = errors.New("repo: not found")

type testRepo struct {
	byAdmin map[string]Request
}

func newTestRepo() *testRepo {
	return &testRepo{byAdmin: map[string]Request{}}
}

func (r *testRepo) put(req Request) {
	r.byAdmin[req.AdministrationID] = req
}

func (r *testRepo) GetByAdministration(ctx context.Context, administrationID string) (Request, error) {
	req, ok := r.byAdmin[administrationID]
	if !ok {
		return Request{}, errRepoNotFound
	}
	return req, nil
}

func (r *testRepo) Update(ctx context.Context, req Request) error {
	if _, ok := r.byAdmin[req.AdministrationID]; !ok {
		return errRepoNotFound
	}
	r.byAdmin[req.AdministrationID] = req
	return nil
}

// -------------------------
// Fixture
// -------------------------

var testNow = time.Date(2026, 6, 10, 8, 30, 0, 0, time.UTC)

func pendingRequest() Request {
	return Request{
		AdministrationID: "adm-1",
		HouseholdID:      "house-1",
		RecordedBy:       "user-1",
		RequiredAt:       testNow,
		ExpiresAt:        testNow.Add(Window),
		Status:           StatusPending,
	}
}

func newSvc(repo *testRepo, now time.Time) *Service {
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return now }
	return svc
}

// -------------------------
// Tests
// -------------------------

func TestService_Complete_SecondCaregiver(t *testing.T) {
	repo := newTestRepo()
	repo.put(pendingRequest())
	svc := newSvc(repo, testNow.Add(5*time.Minute))

	r, err := svc.Complete(context.Background(), "house-1", "adm-1", "user-2")
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", r.Status)
	}
	if r.CoSignerID != "user-2" {
		t.Fatalf("expected cosigner user-2, got %s", r.CoSignerID)
	}
	if r.CompletedAt == nil {
		t.Fatal("expected CompletedAt")
	}
}

func TestService_Complete_SelfSignRejected(t *testing.T) {
	repo := newTestRepo()
	repo.put(pendingRequest())
	svc := newSvc(repo, testNow.Add(5*time.Minute))

	// Quien registró la dosis no puede co-firmarla.
	if _, err := svc.Complete(context.Background(), "house-1", "adm-1", "user-1"); !errors.Is(err, ErrBadState) {
		t.Fatalf("expected ErrBadState, got %v", err)
	}
}

func TestService_Complete_AfterWindowExpires(t *testing.T) {
	repo := newTestRepo()
	repo.put(pendingRequest())
	svc := newSvc(repo, testNow.Add(Window+time.Minute))

	if _, err := svc.Complete(context.Background(), "house-1", "adm-1", "user-2"); !errors.Is(err, ErrBadState) {
		t.Fatalf("expected ErrBadState, got %v", err)
	}

	// El vencimiento quedó estampado, no solo rechazado.
	stored := repo.byAdmin["adm-1"]
	if stored.Status != StatusExpired {
		t.Fatalf("expected expired stamp, got %s", stored.Status)
	}
}

func TestService_Complete_TerminalStatesReject(t *testing.T) {
	repo := newTestRepo()
	req := pendingRequest()
	svc := newSvc(repo, testNow.Add(5*time.Minute))

	completed := testNow.Add(2 * time.Minute)
	req.Status = StatusCompleted
	req.CoSignerID = "user-2"
	req.CompletedAt = &completed
	repo.put(req)

	// Completar dos veces es ErrBadState, nunca una sobreescritura.
	if _, err := svc.Complete(context.Background(), "house-1", "adm-1", "user-3"); !errors.Is(err, ErrBadState) {
		t.Fatalf("expected ErrBadState, got %v", err)
	}
	if repo.byAdmin["adm-1"].CoSignerID != "user-2" {
		t.Fatal("completed request must not change signer")
	}
}

func TestService_Get_LazyExpiry(t *testing.T) {
	repo := newTestRepo()
	repo.put(pendingRequest())
	svc := newSvc(repo, testNow.Add(Window+time.Minute))

	r, err := svc.Get(context.Background(), "house-1", "adm-1")
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != StatusExpired {
		t.Fatalf("expected lazy expiry on read, got %s", r.Status)
	}
	if repo.byAdmin["adm-1"].Status != StatusExpired {
		t.Fatal("expiry must be persisted")
	}
}

func TestService_Get_HouseholdIsolation(t *testing.T) {
	repo := newTestRepo()
	repo.put(pendingRequest())
	svc := newSvc(repo, testNow)

	if _, err := svc.Get(context.Background(), "house-2", "adm-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
