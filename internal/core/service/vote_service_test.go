package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/civicbeacon/reputation-system/internal/core/domain"
	"github.com/civicbeacon/reputation-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubCitizenRepo struct {
	byID      map[string]*domain.Citizen
	updateErr error
}

func newStubCitizenRepo() *stubCitizenRepo {
	return &stubCitizenRepo{byID: make(map[string]*domain.Citizen)}
}

func (r *stubCitizenRepo) Create(_ context.Context, c *domain.Citizen) (*domain.Citizen, error) {
	for _, existing := range r.byID {
		if existing.Username == c.Username {
			return nil, domain.ErrCitizenExists
		}
	}
	if c.ID == "" {
		c.ID = fmt.Sprintf("cit_%d", len(r.byID)+1)
	}
	r.byID[c.ID] = c
	return c, nil
}

func (r *stubCitizenRepo) FindByID(_ context.Context, id string) (*domain.Citizen, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrCitizenNotFound
	}
	return c, nil
}

func (r *stubCitizenRepo) FindByUsername(_ context.Context, username string) (*domain.Citizen, error) {
	for _, c := range r.byID {
		if c.Username == username {
			return c, nil
		}
	}
	return nil, domain.ErrCitizenNotFound
}

func (r *stubCitizenRepo) FindByCredentialHash(_ context.Context, hash string) (*domain.Citizen, error) {
	for _, c := range r.byID {
		if c.CredentialHash == hash {
			return c, nil
		}
	}
	return nil, domain.ErrCitizenNotFound
}

func (r *stubCitizenRepo) Update(_ context.Context, c *domain.Citizen) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.byID[c.ID]; !ok {
		return domain.ErrCitizenNotFound
	}
	r.byID[c.ID] = c
	return nil
}

func (r *stubCitizenRepo) ListActive(_ context.Context) ([]*domain.Citizen, error) {
	var out []*domain.Citizen
	for _, c := range r.byID {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

type stubEntityRepo struct {
	byID map[string]*domain.Entity
}

func newStubEntityRepo() *stubEntityRepo {
	return &stubEntityRepo{byID: make(map[string]*domain.Entity)}
}

func (r *stubEntityRepo) FindByID(_ context.Context, id string) (*domain.Entity, error) {
	e, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrEntityNotFound
	}
	return e, nil
}

func (r *stubEntityRepo) ListByType(_ context.Context, t domain.EntityType) ([]*domain.Entity, error) {
	var out []*domain.Entity
	for _, e := range r.byID {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *stubEntityRepo) UpdateReputation(_ context.Context, id string, score float64, totalReviews int) error {
	e, ok := r.byID[id]
	if !ok {
		return domain.ErrEntityNotFound
	}
	e.ReputationScore = score
	e.TotalReviews = totalReviews
	return nil
}

type stubVoteRepo struct {
	byKey     map[string]*domain.Vote
	upsertErr error
}

func newStubVoteRepo() *stubVoteRepo {
	return &stubVoteRepo{byKey: make(map[string]*domain.Vote)}
}

func (r *stubVoteRepo) Upsert(_ context.Context, v *domain.Vote) (bool, error) {
	if r.upsertErr != nil {
		return false, r.upsertErr
	}
	_, existed := r.byKey[v.Key()]
	r.byKey[v.Key()] = v
	return existed, nil
}

func (r *stubVoteRepo) FindByCitizenEntity(_ context.Context, citizenID, entityID string) (*domain.Vote, error) {
	v, ok := r.byKey[citizenID+":"+entityID]
	if !ok {
		return nil, domain.ErrVoteNotFound
	}
	return v, nil
}

func (r *stubVoteRepo) ListByEntity(_ context.Context, entityID string, countedOnly bool) ([]*domain.Vote, error) {
	var out []*domain.Vote
	for _, v := range r.byKey {
		if v.EntityID != entityID {
			continue
		}
		if countedOnly && !v.IsCounted {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

type stubPulse struct {
	publishErr error
	events     []ports.PulseEvent
}

func (p *stubPulse) Publish(_ context.Context, ev ports.PulseEvent) error {
	if p.publishErr != nil {
		return p.publishErr
	}
	p.events = append(p.events, ev)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type voteFixture struct {
	engine   *VoteEngine
	votes    *stubVoteRepo
	citizens *stubCitizenRepo
	entities *stubEntityRepo
	pulse    *stubPulse
	sink     *stubAuditSink
}

func newVoteFixture() *voteFixture {
	f := &voteFixture{
		votes:    newStubVoteRepo(),
		citizens: newStubCitizenRepo(),
		entities: newStubEntityRepo(),
		pulse:    &stubPulse{},
		sink:     &stubAuditSink{},
	}
	audit := NewAuditBus(f.sink, zerolog.Nop())
	f.engine = NewVoteEngine(
		f.votes, f.citizens, f.entities,
		NewTerritoryResolver(nil, 0),
		NewStealthPolicy(nil, 0, audit, zerolog.Nop()),
		f.pulse, audit, zerolog.Nop(),
	)
	return f
}

func (f *voteFixture) seedCitizen(id string, rank domain.Rank, communeID *int) *domain.Citizen {
	c := &domain.Citizen{
		ID:             id,
		Username:       "user_" + id,
		Rank:           rank,
		IntegrityScore: 0.8,
		IsActive:       true,
		CommuneID:      communeID,
	}
	f.citizens.byID[id] = c
	return c
}

func (f *voteFixture) seedEntity(id string, t domain.EntityType, jurisdictionID *int) *domain.Entity {
	e := &domain.Entity{ID: id, Name: "entity " + id, Type: t, JurisdictionID: jurisdictionID, IsActive: true}
	f.entities.byID[id] = e
	return e
}

func submitInput(citizenID, entityID string, sliders map[string]int) ports.SubmitVoteInput {
	return ports.SubmitVoteInput{
		CitizenID: citizenID,
		EntityID:  entityID,
		Sliders:   sliders,
		Gate:      ports.GateResult{Score: 100, Classification: domain.GateHuman},
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestVoteEngine_Submit_GoldLocalVote(t *testing.T) {
	f := newVoteFixture()
	f.seedCitizen("cit_1", domain.RankGold, intPtr(13101))
	f.seedEntity("ent_1", domain.EntityPerson, intPtr(13101))

	res, err := f.engine.Submit(context.Background(), submitInput("cit_1", "ent_1", map[string]int{
		"honestidad": 4, "competencia": 3,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.IsCounted {
		t.Fatalf("expected counted vote, got shadow reason %q", res.ShadowReason)
	}
	if !res.IsLocal {
		t.Fatal("expected local vote")
	}
	if res.RawAverage != 3.5 {
		t.Errorf("expected raw average 3.5, got %.2f", res.RawAverage)
	}
	// GOLD weight 2.5 × bonus 1.5
	if res.EffectiveWeight != 3.75 {
		t.Errorf("expected effective weight 3.75, got %.2f", res.EffectiveWeight)
	}
	if res.WasUpdated {
		t.Error("first submission must not report an update")
	}
	if len(f.pulse.events) != 1 || f.pulse.events[0].Type != "vote_pulse" {
		t.Errorf("expected one vote_pulse event, got %+v", f.pulse.events)
	}
	if !f.pulse.events[0].IsGoldVerdict {
		t.Error("expected gold verdict flag on pulse")
	}
}

func TestVoteEngine_Submit_UpsertReplacesPreviousVote(t *testing.T) {
	f := newVoteFixture()
	f.seedCitizen("cit_1", domain.RankBronze, nil)
	f.seedEntity("ent_1", domain.EntityCompany, nil)

	first, err := f.engine.Submit(context.Background(), submitInput("cit_1", "ent_1", map[string]int{"servicio": 2}))
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if first.WasUpdated {
		t.Error("first vote should be an insert")
	}

	second, err := f.engine.Submit(context.Background(), submitInput("cit_1", "ent_1", map[string]int{"servicio": 5}))
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if !second.WasUpdated {
		t.Error("second vote on same pair must replace, not insert")
	}
	if len(f.votes.byKey) != 1 {
		t.Fatalf("expected exactly one live vote, got %d", len(f.votes.byKey))
	}
	if f.votes.byKey["cit_1:ent_1"].RawAverage != 5.0 {
		t.Errorf("expected replacement to win, got %.2f", f.votes.byKey["cit_1:ent_1"].RawAverage)
	}
}

func TestVoteEngine_Submit_LowGateScoreGoesShadow(t *testing.T) {
	f := newVoteFixture()
	f.seedCitizen("cit_1", domain.RankSilver, nil)
	f.seedEntity("ent_1", domain.EntityCompany, nil)

	in := submitInput("cit_1", "ent_1", map[string]int{"servicio": 4})
	in.Gate = ports.GateResult{Score: 40, Classification: domain.GateSuspicious}

	res, err := f.engine.Submit(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Shadow submissions still succeed from the caller's perspective.
	if !res.Success {
		t.Fatal("expected success")
	}
	if res.IsCounted {
		t.Fatal("expected shadow vote")
	}
	if res.ShadowReason != domain.ShadowReasonDNAScore {
		t.Errorf("expected DNA score reason, got %q", res.ShadowReason)
	}
	// The vote record is persisted anyway.
	if len(f.votes.byKey) != 1 {
		t.Fatal("expected shadow vote to be persisted")
	}
	if f.votes.byKey["cit_1:ent_1"].IsCounted {
		t.Error("persisted vote must carry is_counted=false")
	}
	// No pulse for shadow votes.
	if len(f.pulse.events) != 0 {
		t.Errorf("expected no pulse events, got %+v", f.pulse.events)
	}
}

func TestVoteEngine_Submit_GateReasonWinsOverPolicyReason(t *testing.T) {
	f := newVoteFixture()
	c := f.seedCitizen("cit_1", domain.RankBronze, nil)
	c.IsShadowBanned = true
	f.seedEntity("ent_1", domain.EntityCompany, nil)

	in := submitInput("cit_1", "ent_1", map[string]int{"servicio": 4})
	in.Gate = ports.GateResult{Score: 10, Classification: domain.GateDisplaced}

	res, err := f.engine.Submit(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ShadowReason != domain.ShadowReasonDNAScore {
		t.Errorf("gate reason is evaluated first, got %q", res.ShadowReason)
	}
	if len(res.Alerts) == 0 {
		t.Error("policy alerts must still be recorded")
	}
}

func TestVoteEngine_Submit_EmptySlidersNeutralAverage(t *testing.T) {
	f := newVoteFixture()
	f.seedCitizen("cit_1", domain.RankBronze, nil)
	f.seedEntity("ent_1", domain.EntityPoll, nil)

	res, err := f.engine.Submit(context.Background(), submitInput("cit_1", "ent_1", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RawAverage != 3.0 {
		t.Errorf("expected neutral average 3.0, got %.2f", res.RawAverage)
	}
}

func TestVoteEngine_Submit_TerritorialEligibility(t *testing.T) {
	commune := intPtr(13101)

	cases := []struct {
		name         string
		rank         domain.Rank
		entityType   domain.EntityType
		jurisdiction *int
		wantLocal    bool
		wantWeight   float64
	}{
		{"bronze rank ineligible", domain.RankBronze, domain.EntityPerson, commune, false, 1.0},
		{"company entity ineligible", domain.RankSilver, domain.EntityCompany, commune, false, 1.5},
		{"no jurisdiction ineligible", domain.RankSilver, domain.EntityPerson, nil, false, 1.5},
		{"silver person local", domain.RankSilver, domain.EntityPerson, commune, true, 2.25},
		{"diamond person local", domain.RankDiamond, domain.EntityPerson, commune, true, 7.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newVoteFixture()
			f.seedCitizen("cit_1", tc.rank, commune)
			f.seedEntity("ent_1", tc.entityType, tc.jurisdiction)

			res, err := f.engine.Submit(context.Background(), submitInput("cit_1", "ent_1", map[string]int{"x": 4}))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.IsLocal != tc.wantLocal {
				t.Errorf("IsLocal = %v, want %v", res.IsLocal, tc.wantLocal)
			}
			if res.EffectiveWeight != tc.wantWeight {
				t.Errorf("EffectiveWeight = %.2f, want %.2f", res.EffectiveWeight, tc.wantWeight)
			}
		})
	}
}

func TestVoteEngine_Submit_GeoIPFallbackForLocality(t *testing.T) {
	f := newVoteFixture()
	f.seedCitizen("cit_1", domain.RankSilver, nil) // no profile commune
	f.seedEntity("ent_1", domain.EntityPerson, intPtr(13101))

	in := submitInput("cit_1", "ent_1", map[string]int{"x": 4})
	in.GeoIPCommuneID = intPtr(13101)

	res, err := f.engine.Submit(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsLocal {
		t.Fatal("expected local via GeoIP fallback")
	}
}

func TestVoteEngine_Submit_UnknownCitizen(t *testing.T) {
	f := newVoteFixture()
	f.seedEntity("ent_1", domain.EntityCompany, nil)

	_, err := f.engine.Submit(context.Background(), submitInput("ghost", "ent_1", nil))
	if !errors.Is(err, domain.ErrCitizenNotFound) {
		t.Errorf("expected ErrCitizenNotFound, got %v", err)
	}
}

func TestVoteEngine_Submit_UnknownEntity(t *testing.T) {
	f := newVoteFixture()
	f.seedCitizen("cit_1", domain.RankBronze, nil)

	_, err := f.engine.Submit(context.Background(), submitInput("cit_1", "ghost", nil))
	if !errors.Is(err, domain.ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound, got %v", err)
	}
}

func TestVoteEngine_Submit_InvalidRank(t *testing.T) {
	f := newVoteFixture()
	c := f.seedCitizen("cit_1", domain.RankBronze, nil)
	c.Rank = "PLATINUM"
	f.seedEntity("ent_1", domain.EntityCompany, nil)

	_, err := f.engine.Submit(context.Background(), submitInput("cit_1", "ent_1", nil))
	if !errors.Is(err, domain.ErrInvalidRank) {
		t.Errorf("expected ErrInvalidRank, got %v", err)
	}
}

func TestVoteEngine_Submit_PulseFailureIsNonFatal(t *testing.T) {
	f := newVoteFixture()
	f.pulse.publishErr = errors.New("redis down")
	f.seedCitizen("cit_1", domain.RankBronze, nil)
	f.seedEntity("ent_1", domain.EntityCompany, nil)

	res, err := f.engine.Submit(context.Background(), submitInput("cit_1", "ent_1", map[string]int{"x": 4}))
	if err != nil {
		t.Fatalf("publish failure must not fail the vote, got: %v", err)
	}
	if !res.IsCounted {
		t.Error("expected counted vote")
	}
}
