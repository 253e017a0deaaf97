package leads

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/caregate/lead-platform/internal/hospitals"
	"github.com/caregate/lead-platform/internal/session"
)

type fakeNotifier struct {
	mu     sync.Mutex
	events []struct {
		lead     *Lead
		previous Status
	}
}

func (n *fakeNotifier) LeadStatusChanged(lead *Lead, previous Status) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, struct {
		lead     *Lead
		previous Status
	}{lead, previous})
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

type serviceFixture struct {
	svc       *Service
	repo      *InMemoryRepository
	hospitals *hospitals.InMemoryRepository
	notifier  *fakeNotifier
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	repo := NewInMemoryRepository()
	hospitalRepo := hospitals.NewInMemoryRepository()
	notifier := &fakeNotifier{}
	svc := NewService(repo, hospitalRepo, NewStateMachine(NewCalculator()), notifier, nil, nil)
	return &serviceFixture{svc: svc, repo: repo, hospitals: hospitalRepo, notifier: notifier}
}

func (f *serviceFixture) addHospital(t *testing.T, name string, discount int) *hospitals.Hospital {
	t.Helper()
	h, err := f.hospitals.Create(context.Background(), &hospitals.UpsertHospitalRequest{
		Name:            name,
		City:            "Pune",
		DiscountPercent: discount,
	})
	if err != nil {
		t.Fatalf("create hospital: %v", err)
	}
	return h
}

func (f *serviceFixture) newLead(t *testing.T, phone string) *Lead {
	t.Helper()
	lead, err := f.svc.Create(context.Background(), &CreateLeadRequest{
		SurgeryID: "surg-1",
		FullName:  "Asha Verma",
		Phone:     phone,
		Email:     "asha@example.com",
		City:      "Pune",
		HasCard:   true,
	})
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	return lead
}

func TestServiceIntakeThenAdminDrivesLifecycle(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	admin := session.AdminPrincipal("admin-1")
	hospital := f.addHospital(t, "City Care", 20)
	lead := f.newLead(t, "+919800000001")

	steps := []TransitionRequest{
		{To: StatusContacted},
		{To: StatusQualified, OriginalCost: int64p(100000)},
		{To: StatusAssigned, HospitalID: &hospital.ID},
		{To: StatusScheduled},
		{To: StatusCompleted},
		{To: StatusClosed},
	}
	var current *Lead = lead
	for _, step := range steps {
		next, err := f.svc.Transition(ctx, admin, lead.ID, step)
		if err != nil {
			t.Fatalf("transition to %s: %v", step.To, err)
		}
		if next.Version != current.Version+1 {
			t.Errorf("version %d -> %d, want increment", current.Version, next.Version)
		}
		current = next
	}

	if current.Status != StatusClosed {
		t.Fatalf("Status = %s, want CLOSED", current.Status)
	}
	// Cost was set at QUALIFIED with no hospital; the discount only landed at
	// ASSIGNED when a 20% hospital joined a card-holding lead.
	if current.Discount != 20000 || current.DiscountedCost != 80000 || current.Revenue != 12000 {
		t.Errorf("final money = %d/%d/%d, want 20000/80000/12000",
			current.Discount, current.DiscountedCost, current.Revenue)
	}
	if f.notifier.count() != len(steps) {
		t.Errorf("notifications = %d, want %d", f.notifier.count(), len(steps))
	}
}

func TestServicePartnerScopedAccess(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	admin := session.AdminPrincipal("admin-1")
	hospA := f.addHospital(t, "Hospital A", 10)
	hospB := f.addHospital(t, "Hospital B", 10)

	leadA := f.newLead(t, "+911111111111")
	leadB := f.newLead(t, "+912222222222")

	assign := func(lead *Lead, hospitalID string) *Lead {
		t.Helper()
		next, err := f.svc.Transition(ctx, admin, lead.ID, TransitionRequest{
			To:         StatusAssigned,
			HospitalID: &hospitalID,
		})
		if err != nil {
			t.Fatalf("assign: %v", err)
		}
		return next
	}
	assign(leadA, hospA.ID)
	assign(leadB, hospB.ID)

	partnerA := session.PartnerPrincipal(hospA.ID)

	listed, err := f.svc.List(ctx, partnerA, ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != leadA.ID {
		t.Fatalf("partner list = %v", listed)
	}

	// Another hospital's lead answers Forbidden, not NotFound: no existence
	// signal leaks across hospitals.
	if _, err := f.svc.Get(ctx, partnerA, leadB.ID); !errors.Is(err, session.ErrForbidden) {
		t.Errorf("cross-hospital get = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.Get(ctx, partnerA, "no-such-lead"); !errors.Is(err, session.ErrForbidden) {
		t.Errorf("missing lead get = %v, want ErrForbidden", err)
	}

	// Partner works its own lead forward.
	next, err := f.svc.Transition(ctx, partnerA, leadA.ID, TransitionRequest{To: StatusScheduled})
	if err != nil {
		t.Fatalf("partner transition: %v", err)
	}
	if next.Status != StatusScheduled {
		t.Errorf("Status = %s", next.Status)
	}

	// But never another hospital's.
	if _, err := f.svc.Transition(ctx, partnerA, leadB.ID, TransitionRequest{To: StatusScheduled}); !errors.Is(err, session.ErrForbidden) {
		t.Errorf("cross-hospital transition = %v, want ErrForbidden", err)
	}
}

func TestServicePartnerCannotSkipStages(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	admin := session.AdminPrincipal("admin-1")
	hosp := f.addHospital(t, "Hospital A", 10)
	lead := f.newLead(t, "+919800000001")

	if _, err := f.svc.Transition(ctx, admin, lead.ID, TransitionRequest{
		To:         StatusAssigned,
		HospitalID: &hosp.ID,
	}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	partner := session.PartnerPrincipal(hosp.ID)
	_, err := f.svc.Transition(ctx, partner, lead.ID, TransitionRequest{To: StatusCompleted})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("skip = %v, want ErrInvalidTransition", err)
	}
}

func TestServicePatientReadOnlySingleLead(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	lead := f.newLead(t, "+919800000001")
	other := f.newLead(t, "+912222222222")

	patient := session.PatientPrincipal(lead.ID)

	got, err := f.svc.GetOwn(ctx, patient)
	if err != nil {
		t.Fatalf("GetOwn: %v", err)
	}
	if got.ID != lead.ID {
		t.Errorf("GetOwn returned %s", got.ID)
	}

	if _, err := f.svc.Get(ctx, patient, other.ID); !errors.Is(err, session.ErrForbidden) {
		t.Errorf("patient cross-lead get = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.Transition(ctx, patient, lead.ID, TransitionRequest{To: StatusContacted}); !errors.Is(err, session.ErrForbidden) {
		t.Errorf("patient transition = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.UpdateDetails(ctx, patient, lead.ID, &UpdateDetailsRequest{}); !errors.Is(err, session.ErrForbidden) {
		t.Errorf("patient update = %v, want ErrForbidden", err)
	}
}

func TestServiceDoctorHasNoLeadAccess(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	lead := f.newLead(t, "+919800000001")

	doctor := session.DoctorPrincipal("doc-1")
	if _, err := f.svc.Get(ctx, doctor, lead.ID); !errors.Is(err, session.ErrForbidden) {
		t.Errorf("doctor get = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.List(ctx, doctor, ListFilter{}); !errors.Is(err, session.ErrForbidden) {
		t.Errorf("doctor list = %v, want ErrForbidden", err)
	}
}

func TestServiceTransitionVersionConflict(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	admin := session.AdminPrincipal("admin-1")
	lead := f.newLead(t, "+919800000001")

	// A racing writer bumps the version between our read and write.
	contacted := StatusContacted
	if _, err := f.repo.Update(ctx, session.Scope{Role: session.RoleAdmin}, lead.ID, UpdatePatch{Status: &contacted}, lead.Version); err != nil {
		t.Fatalf("racing update: %v", err)
	}

	// The service re-reads, so a normal call succeeds; simulate the race by
	// going through the repository with the stale version directly.
	qualified := StatusQualified
	_, err := f.repo.Update(ctx, session.Scope{Role: session.RoleAdmin}, lead.ID, UpdatePatch{Status: &qualified}, lead.Version)
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("stale write = %v, want ErrVersionConflict", err)
	}

	// Service-level transition still works against the current version.
	if _, err := f.svc.Transition(ctx, admin, lead.ID, TransitionRequest{To: StatusQualified}); err != nil {
		t.Fatalf("Transition: %v", err)
	}
}

func TestServiceTransitionUnknownHospital(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	admin := session.AdminPrincipal("admin-1")
	lead := f.newLead(t, "+919800000001")

	ghost := "hosp-ghost"
	_, err := f.svc.Transition(ctx, admin, lead.ID, TransitionRequest{
		To:         StatusAssigned,
		HospitalID: &ghost,
	})
	if !errors.Is(err, ErrUnknownHospital) {
		t.Fatalf("unknown hospital = %v, want ErrUnknownHospital", err)
	}

	// Nothing was written.
	got, err := f.svc.Get(ctx, admin, lead.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusNew || got.Version != lead.Version {
		t.Errorf("rejected transition leaked a write: %+v", got)
	}
}

func TestServiceUpdateDetailsAdminOnly(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	admin := session.AdminPrincipal("admin-1")
	hosp := f.addHospital(t, "Hospital A", 10)
	lead := f.newLead(t, "+919800000001")

	name := "Asha V."
	updated, err := f.svc.UpdateDetails(ctx, admin, lead.ID, &UpdateDetailsRequest{FullName: &name})
	if err != nil {
		t.Fatalf("UpdateDetails: %v", err)
	}
	if updated.FullName != "Asha V." {
		t.Errorf("FullName = %q", updated.FullName)
	}
	if updated.Status != StatusNew {
		t.Errorf("details update must not touch status")
	}

	partner := session.PartnerPrincipal(hosp.ID)
	if _, err := f.svc.UpdateDetails(ctx, partner, lead.ID, &UpdateDetailsRequest{FullName: &name}); !errors.Is(err, session.ErrForbidden) {
		t.Errorf("partner details update = %v, want ErrForbidden", err)
	}
}

func TestServiceNoNotificationOnRejectedTransition(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	lead := f.newLead(t, "+919800000001")

	patient := session.PatientPrincipal(lead.ID)
	if _, err := f.svc.Transition(ctx, patient, lead.ID, TransitionRequest{To: StatusContacted}); err == nil {
		t.Fatal("expected rejection")
	}
	if f.notifier.count() != 0 {
		t.Errorf("rejected transition must not notify, got %d", f.notifier.count())
	}
}
