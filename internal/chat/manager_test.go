package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dostlabs/dost-server/internal/domain"
	"github.com/dostlabs/dost-server/internal/oracle"
	"github.com/dostlabs/dost-server/internal/store"
)

// stubRepo serves the personalization rows the manager loads on first turn.
type stubRepo struct {
	user       *domain.UserProfile
	lifestyle  *domain.LifestyleProfile
	challenges []domain.ChallengeSelection
}

func (r *stubRepo) GetUser(context.Context, int64) (*domain.UserProfile, error) {
	return r.user, nil
}
func (r *stubRepo) GetLifestyle(context.Context, int64) (*domain.LifestyleProfile, error) {
	return r.lifestyle, nil
}
func (r *stubRepo) ListChallenges(context.Context, int64) ([]domain.ChallengeSelection, error) {
	return r.challenges, nil
}
func (r *stubRepo) AddChallenge(context.Context, *domain.ChallengeSelection) error { return nil }
func (r *stubRepo) GetActivity(context.Context, int64) (*domain.Activity, error)   { return nil, nil }
func (r *stubRepo) ListActivities(context.Context) ([]domain.Activity, error)      { return nil, nil }
func (r *stubRepo) SeedActivities(context.Context, []domain.Activity) (int, error) { return 0, nil }
func (r *stubRepo) CompleteActivity(context.Context, int64, int64, time.Time) (store.CompletionResult, error) {
	return store.CompletionResult{}, nil
}
func (r *stubRepo) CountCompletions(context.Context, int64, domain.Date) (int, error) {
	return 0, nil
}
func (r *stubRepo) GetSessionUser(context.Context, string) (int64, error) { return 0, nil }
func (r *stubRepo) DeleteSession(context.Context, string) error           { return nil }
func (r *stubRepo) Ping(context.Context) error                            { return nil }
func (r *stubRepo) Close() error                                          { return nil }

// stubOracle counts sessions and echoes messages. Failures are switchable
// per call.
type stubOracle struct {
	startCalls    atomic.Int64
	generateCalls atomic.Int64
	failStart     bool
	failSend      atomic.Bool
	failGenerate  int32 // fail the first n Generate calls
}

func (o *stubOracle) StartChat(_ context.Context, system string, seed []domain.Turn) (oracle.Chat, error) {
	o.startCalls.Add(1)
	if o.failStart {
		return nil, errors.New("oracle down")
	}
	if system == "" || len(seed) == 0 {
		return nil, errors.New("missing system context or seed")
	}
	return &stubChat{parent: o}, nil
}

func (o *stubOracle) Generate(context.Context, string) (string, error) {
	n := o.generateCalls.Add(1)
	if int32(n) <= atomic.LoadInt32(&o.failGenerate) {
		return "", errors.New("quota exceeded")
	}
	return "You are stronger than one tough week.", nil
}

type stubChat struct {
	parent *stubOracle
}

func (c *stubChat) Send(_ context.Context, message string) (string, error) {
	if c.parent.failSend.Load() {
		return "", errors.New("deadline exceeded")
	}
	return "echo: " + message, nil
}

func completeRepo() *stubRepo {
	return &stubRepo{
		user:      &domain.UserProfile{ID: 1, FirstName: "Asha", FieldOfStudy: "Computer Science"},
		lifestyle: &domain.LifestyleProfile{UserID: 1, SleepHrs: 6, StressLevel: 7},
		challenges: []domain.ChallengeSelection{
			{Category: "Career", Subcategory: "Academic stress (exams, competition)"},
		},
	}
}

func TestSendTurnInitializesOnceAndGrowsTranscript(t *testing.T) {
	t.Parallel()

	o := &stubOracle{}
	m := NewManager(completeRepo(), o, NewMemoryStore())
	ctx := context.Background()

	res, err := m.SendTurn(ctx, 1, "exams are stressing me out")
	if err != nil {
		t.Fatalf("first SendTurn: %v", err)
	}
	if res.IsCrisis {
		t.Error("ordinary message flagged as crisis")
	}
	if !strings.HasPrefix(res.Reply, "echo:") {
		t.Errorf("unexpected reply %q", res.Reply)
	}

	if _, err := m.SendTurn(ctx, 1, "thanks, that helps"); err != nil {
		t.Fatalf("second SendTurn: %v", err)
	}

	if got := o.startCalls.Load(); got != 1 {
		t.Errorf("oracle sessions started = %d, want 1", got)
	}

	transcript, ok := m.Transcript(1)
	if !ok {
		t.Fatal("no transcript for user 1")
	}
	// Greeting, then one user+assistant pair per call.
	if len(transcript) != 5 {
		t.Fatalf("transcript length = %d, want 5", len(transcript))
	}
	if transcript[0].Role != domain.RoleAssistant {
		t.Errorf("transcript[0].Role = %q, want the greeting turn", transcript[0].Role)
	}
}

func TestSendTurnValidation(t *testing.T) {
	t.Parallel()

	m := NewManager(completeRepo(), &stubOracle{}, NewMemoryStore())
	_, err := m.SendTurn(context.Background(), 1, "   \n\t ")
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestSendTurnRequiresCompleteProfile(t *testing.T) {
	t.Parallel()

	repo := completeRepo()
	repo.lifestyle = nil
	o := &stubOracle{}
	m := NewManager(repo, o, NewMemoryStore())

	_, err := m.SendTurn(context.Background(), 1, "hello")
	if !errors.Is(err, domain.ErrDataIncomplete) {
		t.Fatalf("err = %v, want ErrDataIncomplete", err)
	}
	if o.startCalls.Load() != 0 {
		t.Error("oracle session started despite incomplete profile")
	}
	if _, ok := m.Transcript(1); ok {
		t.Error("session cached despite failed initialization")
	}
}

func TestSendTurnFlagsCrisisMessages(t *testing.T) {
	t.Parallel()

	m := NewManager(completeRepo(), &stubOracle{}, NewMemoryStore())
	res, err := m.SendTurn(context.Background(), 1, "I feel hopeless and want to end it all")
	if err != nil {
		t.Fatalf("SendTurn: %v", err)
	}
	if !res.IsCrisis {
		t.Fatal("crisis message not flagged")
	}

	transcript, _ := m.Transcript(1)
	userTurn := transcript[len(transcript)-2]
	if userTurn.Role != domain.RoleUser || !userTurn.Crisis {
		t.Errorf("user turn not crisis-tagged for audit: %+v", userTurn)
	}
}

func TestOracleFailureYieldsFallbackAndKeepsTranscript(t *testing.T) {
	t.Parallel()

	o := &stubOracle{}
	m := NewManager(completeRepo(), o, NewMemoryStore())
	ctx := context.Background()

	if _, err := m.SendTurn(ctx, 1, "first message"); err != nil {
		t.Fatalf("SendTurn: %v", err)
	}
	before, _ := m.Transcript(1)

	o.failSend.Store(true)
	res, err := m.SendTurn(ctx, 1, "second message")
	if err != nil {
		t.Fatalf("SendTurn during outage: %v", err)
	}
	if res.Reply != FallbackReply {
		t.Errorf("reply = %q, want the fallback reply", res.Reply)
	}

	after, _ := m.Transcript(1)
	if len(after) != len(before) {
		t.Errorf("failed turn changed transcript length %d -> %d", len(before), len(after))
	}

	// The session survives the outage.
	o.failSend.Store(false)
	if _, err := m.SendTurn(ctx, 1, "third message"); err != nil {
		t.Fatalf("SendTurn after outage: %v", err)
	}
	if o.startCalls.Load() != 1 {
		t.Errorf("session was reinitialized after a transient send failure")
	}
}

func TestFailedDialogueOpenIsNotCached(t *testing.T) {
	t.Parallel()

	o := &stubOracle{failStart: true}
	m := NewManager(completeRepo(), o, NewMemoryStore())
	ctx := context.Background()

	res, err := m.SendTurn(ctx, 1, "hello")
	if err != nil {
		t.Fatalf("SendTurn: %v", err)
	}
	if res.Reply != FallbackReply {
		t.Errorf("reply = %q, want fallback while oracle is down", res.Reply)
	}

	// Recovery: next call retries initialization from scratch.
	o.failStart = false
	if _, err := m.SendTurn(ctx, 1, "hello again"); err != nil {
		t.Fatalf("SendTurn after recovery: %v", err)
	}
	if got := o.startCalls.Load(); got != 2 {
		t.Errorf("start calls = %d, want a fresh attempt after failure", got)
	}
}

func TestConcurrentFirstTurnsShareOneSession(t *testing.T) {
	t.Parallel()

	o := &stubOracle{}
	m := NewManager(completeRepo(), o, NewMemoryStore())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := m.SendTurn(context.Background(), 1, fmt.Sprintf("message %d", i)); err != nil {
				t.Errorf("SendTurn: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if got := o.startCalls.Load(); got != 1 {
		t.Errorf("oracle sessions started = %d, want 1", got)
	}
	transcript, _ := m.Transcript(1)
	if len(transcript) != 1+16*2 {
		t.Errorf("transcript length = %d, want %d", len(transcript), 1+16*2)
	}
}

func TestAffirmationRetriesOnce(t *testing.T) {
	t.Parallel()

	o := &stubOracle{failGenerate: 1}
	m := NewManager(completeRepo(), o, NewMemoryStore())

	text, err := m.Affirmation(context.Background(), 1)
	if err != nil {
		t.Fatalf("Affirmation: %v", err)
	}
	if text == "" {
		t.Error("empty affirmation")
	}
	if got := o.generateCalls.Load(); got != 2 {
		t.Errorf("generate calls = %d, want 2 (one retry)", got)
	}
}

func TestAffirmationGivesUpAfterRetry(t *testing.T) {
	t.Parallel()

	o := &stubOracle{failGenerate: 10}
	m := NewManager(completeRepo(), o, NewMemoryStore())

	_, err := m.Affirmation(context.Background(), 1)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
	if got := o.generateCalls.Load(); got != 2 {
		t.Errorf("generate calls = %d, want exactly 2", got)
	}
}

func TestEvictForcesFreshPersonalization(t *testing.T) {
	t.Parallel()

	o := &stubOracle{}
	m := NewManager(completeRepo(), o, NewMemoryStore())
	ctx := context.Background()

	if _, err := m.SendTurn(ctx, 1, "hello"); err != nil {
		t.Fatalf("SendTurn: %v", err)
	}
	m.Evict(1)
	if _, ok := m.Transcript(1); ok {
		t.Fatal("transcript still live after eviction")
	}

	if _, err := m.SendTurn(ctx, 1, "back again"); err != nil {
		t.Fatalf("SendTurn after eviction: %v", err)
	}
	if got := o.startCalls.Load(); got != 2 {
		t.Errorf("start calls = %d, want reinitialization after eviction", got)
	}
}
