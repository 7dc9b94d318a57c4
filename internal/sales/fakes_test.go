package sales

import (
	"context"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kcgaragesales/kc-garage-sales/internal/access"
	"github.com/kcgaragesales/kc-garage-sales/internal/geocoding"
	"github.com/kcgaragesales/kc-garage-sales/internal/notify"
)

// memRepo implements Repository in memory, mimicking the column defaults
// Postgres would fill on insert.
type memRepo struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]Listing
	inserts int
	updates int
	deletes int
	err     error
}

func newMemRepo() *memRepo { return &memRepo{rows: map[uuid.UUID]Listing{}} }

func randomToken() string {
	b := uuid.New()
	c := uuid.New()
	return hex.EncodeToString(b[:]) + hex.EncodeToString(c[:])
}

func (m *memRepo) Insert(ctx context.Context, l *Listing) (Inserted, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return Inserted{}, m.err
	}
	l.ID = uuid.New()
	l.VerificationToken = randomToken()
	l.EditToken = randomToken()
	l.IsVerified = false
	l.CreatedAt = time.Now().Add(time.Duration(len(m.rows)) * time.Second)
	l.UpdatedAt = l.CreatedAt
	m.rows[l.ID] = *l
	m.inserts++
	return Inserted{ID: l.ID, VerificationToken: l.VerificationToken, EditToken: l.EditToken, Title: l.Title}, nil
}

func (m *memRepo) find(match func(Listing) bool) (Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.rows {
		if match(l) {
			return l, nil
		}
	}
	return Listing{}, ErrNotFound
}

func (m *memRepo) FindByID(ctx context.Context, id uuid.UUID) (Listing, error) {
	return m.find(func(l Listing) bool { return l.ID == id })
}

func (m *memRepo) FindPublicByID(ctx context.Context, id uuid.UUID) (Listing, error) {
	return m.find(func(l Listing) bool { return l.ID == id && l.IsVerified })
}

func (m *memRepo) FindByVerificationToken(ctx context.Context, token string) (Listing, error) {
	return m.find(func(l Listing) bool { return token != "" && l.VerificationToken == token })
}

func (m *memRepo) FindByEditToken(ctx context.Context, token string) (Listing, error) {
	return m.find(func(l Listing) bool { return token != "" && l.EditToken == token })
}

func (m *memRepo) ListPublicUpcoming(ctx context.Context, today Date, f Filter) ([]Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Listing
	for _, l := range m.rows {
		if !l.IsVerified || l.EndDate < today {
			continue
		}
		if f.Category != "" && !contains(l.Categories, f.Category) {
			continue
		}
		if f.City != "" && !strings.EqualFold(l.City, f.City) {
			continue
		}
		if f.Query != "" {
			q := strings.ToLower(f.Query)
			if !strings.Contains(strings.ToLower(l.Title), q) && !strings.Contains(strings.ToLower(l.Description), q) {
				continue
			}
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate < out[j].StartDate })
	return out, nil
}

func (m *memRepo) ListAllForModeration(ctx context.Context) ([]Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Listing, 0, len(m.rows))
	for _, l := range m.rows {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memRepo) MarkVerified(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[id]
	if !ok || l.IsVerified {
		return false, nil
	}
	l.IsVerified = true
	m.rows[id] = l
	m.updates++
	return true, nil
}

func (m *memRepo) SetVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	l.IsVerified = verified
	m.rows[id] = l
	m.updates++
	return nil
}

func (m *memRepo) UpdateEditableFields(ctx context.Context, id uuid.UUID, f EditableFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	l.Title, l.Description = f.Title, f.Description
	l.StartDate, l.EndDate = f.StartDate, f.EndDate
	l.StartTime, l.EndTime = f.StartTime, f.EndTime
	l.Categories = f.Categories
	l.UpdatedAt = time.Now()
	m.rows[id] = l
	m.updates++
	return nil
}

func (m *memRepo) DeleteByID(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	m.deletes++
	return nil
}

func (m *memRepo) only(t *testing.T) Listing {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.rows) != 1 {
		t.Fatalf("expected exactly one row, got %d", len(m.rows))
	}
	for _, l := range m.rows {
		return l
	}
	return Listing{}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

type fakeGeocoder struct {
	calls int
	last  geocoding.Address
	err   error
}

func (f *fakeGeocoder) Name() string { return "fake" }

func (f *fakeGeocoder) Resolve(ctx context.Context, addr geocoding.Address) (geocoding.Coordinates, error) {
	f.calls++
	f.last = addr
	if f.err != nil {
		return geocoding.Coordinates{}, f.err
	}
	return geocoding.Coordinates{Lat: 38.9108, Lng: -94.6714}, nil
}

type fakeCaptcha struct {
	ok    bool
	calls int
}

func (f *fakeCaptcha) Verify(ctx context.Context, token string) bool {
	f.calls++
	return f.ok
}

type fakeMedia struct {
	mu      sync.Mutex
	stored  map[string][]byte
	deleted []string
	putErr  error
	delErr  error
	n       int
}

func newFakeMedia() *fakeMedia { return &fakeMedia{stored: map[string][]byte{}} }

func (f *fakeMedia) Put(ctx context.Context, data []byte, contentType, originalName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return "", f.putErr
	}
	f.n++
	url := "https://storage.example/sale-photos/" + uuid.NewString() + "-" + originalName
	f.stored[url] = data
	return url, nil
}

func (f *fakeMedia) Delete(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.stored, url)
	return nil
}

type fakeMailer struct {
	verifications []notify.Verification
	reports       []notify.Report
	err           error
}

func (f *fakeMailer) SendVerification(ctx context.Context, v notify.Verification) error {
	f.verifications = append(f.verifications, v)
	return f.err
}

func (f *fakeMailer) SendReport(ctx context.Context, r notify.Report) error {
	f.reports = append(f.reports, r)
	return f.err
}

// memSessions backs an access.Guard so tests can obtain a real Admin.
type memSessions struct {
	m map[string]access.Session
}

func (s *memSessions) Create(ctx context.Context, session access.Session) error {
	s.m[session.SessionID] = session
	return nil
}

func (s *memSessions) Find(ctx context.Context, id string) (access.Session, error) {
	session, ok := s.m[id]
	if !ok {
		return access.Session{}, access.ErrSessionNotFound
	}
	return session, nil
}

func (s *memSessions) Delete(ctx context.Context, id string) error {
	delete(s.m, id)
	return nil
}

func (s *memSessions) DeleteExpired(ctx context.Context, now time.Time) error { return nil }

func newTestAdmin(t *testing.T) access.Admin {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pw"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt error: %v", err)
	}
	g := access.NewGuard(string(hash), &memSessions{m: map[string]access.Session{}}, time.Hour)
	session, err := g.Login(context.Background(), "admin-pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	admin, err := g.Authorize(context.Background(), session.SessionID)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	return admin
}

var errBoom = errors.New("boom")
