package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/apporbit/apporbit-server/internal/domain"
	"github.com/apporbit/apporbit-server/internal/service"
)

// ---------- Mocks ----------

// mockProductRepo mirrors the storage contract: the membership check and
// the mutation for votes/reports happen under one lock, the same way the
// database applies them as one guarded statement.
type mockProductRepo struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]*domain.Product
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{nextID: 1, products: make(map[int64]*domain.Product)}
}

func copyProduct(p *domain.Product) *domain.Product {
	cp := *p
	cp.Tags = append([]string(nil), p.Tags...)
	cp.VotedUsers = append([]string(nil), p.VotedUsers...)
	cp.Reports = append([]domain.Report(nil), p.Reports...)
	cp.ReportedUsers = append([]string(nil), p.ReportedUsers...)
	return &cp
}

func (m *mockProductRepo) Create(_ context.Context, ownerEmail string, req *domain.ProductCreate) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	p := &domain.Product{
		ID:            id,
		OwnerEmail:    strings.ToLower(ownerEmail),
		Name:          req.Name,
		Image:         req.Image,
		Description:   req.Description,
		Tags:          req.Tags,
		ExternalLink:  req.ExternalLink,
		Status:        domain.ProductPending,
		VotedUsers:    []string{},
		Reports:       []domain.Report{},
		ReportedUsers: []string{},
		SubmittedAt:   time.Now(),
		UpdatedAt:     time.Now(),
	}
	m.products[id] = p
	return copyProduct(p), nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return copyProduct(p), nil
}

func (m *mockProductRepo) List(_ context.Context, _, _ int) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Product
	for _, p := range m.products {
		out = append(out, *copyProduct(p))
	}
	return out, nil
}

func (m *mockProductRepo) ListByStatus(_ context.Context, status domain.ProductStatus, _, _ int) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Product
	for _, p := range m.products {
		if p.Status == status {
			out = append(out, *copyProduct(p))
		}
	}
	return out, nil
}

func (m *mockProductRepo) ListByOwner(_ context.Context, email string, _, _ int) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Product
	for _, p := range m.products {
		if strings.EqualFold(p.OwnerEmail, email) {
			out = append(out, *copyProduct(p))
		}
	}
	return out, nil
}

func (m *mockProductRepo) ListFeatured(_ context.Context, limit int) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Product
	for _, p := range m.products {
		if p.IsFeatured && len(out) < limit {
			out = append(out, *copyProduct(p))
		}
	}
	return out, nil
}

func (m *mockProductRepo) ListTrending(_ context.Context, limit int) ([]domain.Product, error) {
	return m.List(context.Background(), limit, 0)
}

func (m *mockProductRepo) ListReported(_ context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Product
	for _, p := range m.products {
		if len(p.Reports) > 0 {
			out = append(out, *copyProduct(p))
		}
	}
	return out, nil
}

func (m *mockProductRepo) Update(_ context.Context, id int64, patch domain.ProductPatch) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	p.UpdatedAt = time.Now()
	return copyProduct(p), nil
}

func (m *mockProductRepo) SetStatus(_ context.Context, id int64, status domain.ProductStatus) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	return copyProduct(p), nil
}

func (m *mockProductRepo) SetFeatured(_ context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	p.IsFeatured = true
	p.UpdatedAt = time.Now()
	return copyProduct(p), nil
}

func (m *mockProductRepo) Upvote(_ context.Context, id int64, voterEmail string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	voter := strings.ToLower(voterEmail)
	for _, e := range p.VotedUsers {
		if e == voter {
			return 0, domain.ErrAlreadyVoted
		}
	}
	p.VotedUsers = append(p.VotedUsers, voter)
	p.Upvotes++
	return p.Upvotes, nil
}

func (m *mockProductRepo) Report(_ context.Context, id int64, reporterEmail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	reporter := strings.ToLower(reporterEmail)
	for _, e := range p.ReportedUsers {
		if e == reporter {
			return domain.ErrAlreadyReported
		}
	}
	p.ReportedUsers = append(p.ReportedUsers, reporter)
	p.Reports = append(p.Reports, domain.Report{ReporterEmail: reporter, ReportedAt: time.Now()})
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return false, nil
	}
	delete(m.products, id)
	return true, nil
}

type mockBus struct {
	mu        sync.Mutex
	published []string
}

func (m *mockBus) Publish(_ context.Context, subject string, _ interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, subject)
	return nil
}

func (m *mockBus) Close() error { return nil }

func (m *mockBus) subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.published...)
}

type mockMailer struct {
	mu       sync.Mutex
	lastTo   string
	verdicts int
}

func (m *mockMailer) Send(toEmail, _, _, _, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTo = toEmail
	return "mock-id", nil
}

func (m *mockMailer) SendVerdict(toEmail, _ string, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTo = toEmail
	m.verdicts++
	return nil
}

// ---------- Helpers ----------

func newProductService(t *testing.T) (service.ProductService, *mockProductRepo, *mockBus, *mockMailer) {
	t.Helper()
	repo := newMockProductRepo()
	bus := &mockBus{}
	mail := &mockMailer{}
	return service.NewProductService(repo, nil, bus, mail), repo, bus, mail
}

func mustSubmit(t *testing.T, svc service.ProductService, owner, name string) *domain.Product {
	t.Helper()
	p, err := svc.Submit(context.Background(), owner, &domain.ProductCreate{Name: name})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return p
}

// ---------- Tests ----------

func TestSubmitStartsPending(t *testing.T) {
	svc, _, bus, _ := newProductService(t)

	p := mustSubmit(t, svc, "a@x.com", "Widget")

	if p.Status != domain.ProductPending {
		t.Errorf("status = %q, want pending", p.Status)
	}
	if p.IsFeatured {
		t.Error("new product must not be featured")
	}
	if p.Upvotes != 0 || len(p.VotedUsers) != 0 {
		t.Errorf("new product has votes: %d / %v", p.Upvotes, p.VotedUsers)
	}
	if got := bus.subjects(); len(got) != 1 || got[0] != "product.submitted" {
		t.Errorf("published = %v, want [product.submitted]", got)
	}
}

func TestSubmitRequiresName(t *testing.T) {
	svc, _, _, _ := newProductService(t)

	if _, err := svc.Submit(context.Background(), "a@x.com", &domain.ProductCreate{}); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestTransitionSetsVerdictAndNotifiesOwner(t *testing.T) {
	svc, _, bus, mail := newProductService(t)
	p := mustSubmit(t, svc, "a@x.com", "Widget")

	updated, err := svc.Transition(context.Background(), p.ID, domain.ProductAccepted)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if updated.Status != domain.ProductAccepted {
		t.Errorf("status = %q, want accepted", updated.Status)
	}
	if mail.verdicts != 1 || mail.lastTo != "a@x.com" {
		t.Errorf("verdict mail: count=%d to=%q", mail.verdicts, mail.lastTo)
	}

	found := false
	for _, s := range bus.subjects() {
		if s == "product.accepted" {
			found = true
		}
	}
	if !found {
		t.Errorf("product.accepted not published: %v", bus.subjects())
	}
}

func TestTransitionIsIdempotentOverwrite(t *testing.T) {
	svc, _, _, _ := newProductService(t)
	p := mustSubmit(t, svc, "a@x.com", "Widget")

	if _, err := svc.Transition(context.Background(), p.ID, domain.ProductAccepted); err != nil {
		t.Fatalf("first transition: %v", err)
	}
	updated, err := svc.Transition(context.Background(), p.ID, domain.ProductRejected)
	if err != nil {
		t.Fatalf("second transition: %v", err)
	}
	if updated.Status != domain.ProductRejected {
		t.Errorf("status = %q, want rejected", updated.Status)
	}
}

func TestTransitionUnknownProduct(t *testing.T) {
	svc, _, _, _ := newProductService(t)

	if _, err := svc.Transition(context.Background(), 999, domain.ProductAccepted); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTransitionRejectsBadVerdict(t *testing.T) {
	svc, _, _, _ := newProductService(t)
	p := mustSubmit(t, svc, "a@x.com", "Widget")

	if _, err := svc.Transition(context.Background(), p.ID, domain.ProductPending); !errors.Is(err, service.ErrInvalidVerdict) {
		t.Errorf("err = %v, want ErrInvalidVerdict", err)
	}
}

func TestFeatureWorksInAnyStatus(t *testing.T) {
	svc, _, _, _ := newProductService(t)

	for _, verdict := range []domain.ProductStatus{"", domain.ProductAccepted, domain.ProductRejected} {
		p := mustSubmit(t, svc, "a@x.com", "Widget")
		if verdict != "" {
			if _, err := svc.Transition(context.Background(), p.ID, verdict); err != nil {
				t.Fatalf("Transition(%s): %v", verdict, err)
			}
		}
		featured, err := svc.Feature(context.Background(), p.ID)
		if err != nil {
			t.Fatalf("Feature in status %q: %v", verdict, err)
		}
		if !featured.IsFeatured {
			t.Errorf("product not featured in status %q", verdict)
		}
	}
}

func TestUpvoteAndDuplicate(t *testing.T) {
	svc, repo, _, _ := newProductService(t)
	p := mustSubmit(t, svc, "a@x.com", "Widget")

	upvotes, err := svc.Upvote(context.Background(), p.ID, "b@x.com")
	if err != nil {
		t.Fatalf("Upvote: %v", err)
	}
	if upvotes != 1 {
		t.Errorf("upvotes = %d, want 1", upvotes)
	}

	if _, err := svc.Upvote(context.Background(), p.ID, "b@x.com"); !errors.Is(err, domain.ErrAlreadyVoted) {
		t.Errorf("duplicate err = %v, want ErrAlreadyVoted", err)
	}

	stored, _ := repo.GetByID(context.Background(), p.ID)
	if stored.Upvotes != 1 || len(stored.VotedUsers) != 1 {
		t.Errorf("stored votes: upvotes=%d voted=%v", stored.Upvotes, stored.VotedUsers)
	}
}

func TestUpvoteUnknownProduct(t *testing.T) {
	svc, _, _, _ := newProductService(t)

	if _, err := svc.Upvote(context.Background(), 42, "b@x.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestConcurrentDistinctVoters(t *testing.T) {
	svc, repo, _, _ := newProductService(t)
	p := mustSubmit(t, svc, "a@x.com", "Widget")

	const voters = 50
	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Upvote(context.Background(), p.ID, fmt.Sprintf("voter%d@x.com", i))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("distinct voter failed: %v", err)
		}
	}

	stored, _ := repo.GetByID(context.Background(), p.ID)
	if stored.Upvotes != voters {
		t.Errorf("upvotes = %d, want %d", stored.Upvotes, voters)
	}
	if stored.Upvotes != len(stored.VotedUsers) {
		t.Errorf("invariant broken: upvotes=%d |votedUsers|=%d", stored.Upvotes, len(stored.VotedUsers))
	}
}

func TestConcurrentSameVoter(t *testing.T) {
	svc, repo, _, _ := newProductService(t)
	p := mustSubmit(t, svc, "a@x.com", "Widget")

	const attempts = 20
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Upvote(context.Background(), p.ID, "same@x.com")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	successes, conflicts := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrAlreadyVoted):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != attempts-1 {
		t.Errorf("successes=%d conflicts=%d, want 1/%d", successes, conflicts, attempts-1)
	}

	stored, _ := repo.GetByID(context.Background(), p.ID)
	if stored.Upvotes != 1 || len(stored.VotedUsers) != 1 {
		t.Errorf("stored votes after race: upvotes=%d voted=%v", stored.Upvotes, stored.VotedUsers)
	}
}

func TestReportLedger(t *testing.T) {
	svc, repo, _, _ := newProductService(t)
	p := mustSubmit(t, svc, "a@x.com", "Widget")

	if err := svc.Report(context.Background(), p.ID, "b@x.com"); err != nil {
		t.Fatalf("Report: %v", err)
	}
	if err := svc.Report(context.Background(), p.ID, "b@x.com"); !errors.Is(err, domain.ErrAlreadyReported) {
		t.Errorf("duplicate err = %v, want ErrAlreadyReported", err)
	}
	if err := svc.Report(context.Background(), p.ID, "c@x.com"); err != nil {
		t.Fatalf("second reporter: %v", err)
	}
	if err := svc.Report(context.Background(), 999, "b@x.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing product err = %v, want ErrNotFound", err)
	}

	stored, _ := repo.GetByID(context.Background(), p.ID)
	if len(stored.ReportedUsers) != 2 || len(stored.Reports) != 2 {
		t.Fatalf("ledger: reportedUsers=%v reports=%v", stored.ReportedUsers, stored.Reports)
	}
	// every reported user has exactly one report record
	for _, email := range stored.ReportedUsers {
		count := 0
		for _, rep := range stored.Reports {
			if rep.ReporterEmail == email {
				count++
			}
		}
		if count != 1 {
			t.Errorf("reporter %q has %d report records, want 1", email, count)
		}
	}

	reported, err := svc.ListReported(context.Background())
	if err != nil {
		t.Fatalf("ListReported: %v", err)
	}
	if len(reported) != 1 || reported[0].ID != p.ID {
		t.Errorf("ListReported = %v", reported)
	}

	if err := svc.DeleteReported(context.Background(), p.ID); err != nil {
		t.Fatalf("DeleteReported: %v", err)
	}
	if got, _ := repo.GetByID(context.Background(), p.ID); got != nil {
		t.Error("product still present after moderation cleanup")
	}
}

// Submit -> accept -> upvote -> duplicate upvote, end to end.
func TestModerationAndVotingScenario(t *testing.T) {
	svc, repo, _, _ := newProductService(t)
	ctx := context.Background()

	p := mustSubmit(t, svc, "a@x.com", "Widget")
	if p.Status != domain.ProductPending || p.Upvotes != 0 {
		t.Fatalf("after submit: status=%q upvotes=%d", p.Status, p.Upvotes)
	}

	if _, err := svc.Transition(ctx, p.ID, domain.ProductAccepted); err != nil {
		t.Fatalf("Transition: %v", err)
	}

	upvotes, err := svc.Upvote(ctx, p.ID, "b@x.com")
	if err != nil {
		t.Fatalf("Upvote: %v", err)
	}
	if upvotes != 1 {
		t.Errorf("upvotes = %d, want 1", upvotes)
	}

	if _, err := svc.Upvote(ctx, p.ID, "b@x.com"); !errors.Is(err, domain.ErrAlreadyVoted) {
		t.Errorf("duplicate err = %v, want ErrAlreadyVoted", err)
	}

	stored, _ := repo.GetByID(ctx, p.ID)
	if stored.Status != domain.ProductAccepted || stored.Upvotes != 1 {
		t.Errorf("final state: status=%q upvotes=%d", stored.Status, stored.Upvotes)
	}
	if len(stored.VotedUsers) != 1 || stored.VotedUsers[0] != "b@x.com" {
		t.Errorf("votedUsers = %v, want [b@x.com]", stored.VotedUsers)
	}
}
