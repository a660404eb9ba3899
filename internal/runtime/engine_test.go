package runtime_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/toolguide/internal/runtime"
	"github.com/aretw0/toolguide/pkg/adapters/memory"
	"github.com/aretw0/toolguide/pkg/domain"
	"github.com/aretw0/toolguide/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quizGuide asks for a color, then a yes/no confirmation.
func quizGuide() *domain.Guide {
	const (
		askColor domain.StateName = "ASK_COLOR"
		confirm  domain.StateName = "CONFIRM"
		limbo    domain.StateName = "LIMBO"
	)
	return &domain.Guide{
		Name:          "quiz",
		Noun:          "quiz",
		CancelMessage: "Quiz cancelled.",
		Initial:       domain.StateStart,
		States:        []domain.StateName{domain.StateStart, askColor, confirm, limbo, domain.StateComplete, domain.StateCancelled},
		Transitions: []domain.Transition{
			{From: domain.StateStart, To: askColor},
			{From: askColor, To: confirm},
			{From: confirm, To: domain.StateComplete},
			{From: confirm, To: domain.StateCancelled},
		},
		Begin: func(ctx context.Context, s *domain.Session) domain.Response {
			s.State = askColor
			return domain.Response{Status: domain.StatusInProgress, Action: domain.ActionAskUser, Prompt: "Color?"}
		},
		Handlers: map[domain.StateName]domain.Handler{
			askColor: func(ctx context.Context, s *domain.Session, in domain.Input) (domain.Response, error) {
				switch in.Text {
				case "":
					return domain.Response{Status: domain.StatusInProgress, StayInState: true, Prompt: "Color?"}, nil
				case "jump":
					s.State = domain.StateComplete
					return domain.Response{Status: domain.StatusComplete}, nil
				case "explode":
					return domain.Response{}, errors.New("handler exploded")
				}
				s.Data["color"] = in.Text
				s.State = confirm
				return domain.Response{Status: domain.StatusInProgress, Prompt: "Sure?"}, nil
			},
			confirm: func(ctx context.Context, s *domain.Session, in domain.Input) (domain.Response, error) {
				if in.Text == "yes" {
					s.State = domain.StateComplete
					return domain.Response{Status: domain.StatusComplete, Message: "done"}, nil
				}
				s.State = domain.StateCancelled
				return domain.Response{Status: domain.StatusCancelled}, nil
			},
		},
	}
}

func newEngine(t *testing.T, opts ...runtime.EngineOption) (*runtime.Engine, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	eng := runtime.NewEngine(session.NewManager(store), opts...)
	require.NoError(t, eng.Register(quizGuide()))
	return eng, store
}

func TestEngine_StartPersistsAtFirstState(t *testing.T) {
	eng, store := newEngine(t)
	ctx := context.Background()

	resp, err := eng.Start(ctx, "quiz")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, resp.Status)
	assert.Len(t, resp.SessionID, 8)

	s, err := store.Load(ctx, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateName("ASK_COLOR"), s.State)
	assert.Equal(t, "quiz", s.Guide)
}

func TestEngine_UnknownGuide(t *testing.T) {
	eng, _ := newEngine(t)
	_, err := eng.Start(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrUnknownGuide))
}

func TestEngine_ContinueHappyPath(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	start, err := eng.Start(ctx, "quiz")
	require.NoError(t, err)

	resp, err := eng.Continue(ctx, "quiz", start.SessionID, domain.TextInput("blue"))
	require.NoError(t, err)
	assert.Equal(t, "Sure?", resp.Prompt)
	assert.Equal(t, start.SessionID, resp.SessionID)

	resp, err = eng.Continue(ctx, "quiz", start.SessionID, domain.TextInput("yes"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplete, resp.Status)

	view, found, err := eng.Get(ctx, "quiz", start.SessionID)
	require.NoError(t, err)
	require.True(t, found, "completed sessions stay queryable")
	assert.Equal(t, "COMPLETE", view["state"])
}

func TestEngine_ContinueUnknownSession(t *testing.T) {
	eng, _ := newEngine(t)
	resp, err := eng.Continue(context.Background(), "quiz", "deadbeef", domain.TextInput("x"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, resp.Status)
	assert.Equal(t, "Session deadbeef not found. Please start a new quiz.", resp.Message)
}

func TestEngine_ContinueAfterComplete(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	start, _ := eng.Start(ctx, "quiz")
	_, _ = eng.Continue(ctx, "quiz", start.SessionID, domain.TextInput("red"))
	_, _ = eng.Continue(ctx, "quiz", start.SessionID, domain.TextInput("yes"))

	resp, err := eng.Continue(ctx, "quiz", start.SessionID, domain.TextInput("again"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, resp.Status)
	assert.Equal(t, "Unknown state: COMPLETE", resp.Message)
}

func TestEngine_CancelledStatusDeletesSession(t *testing.T) {
	eng, store := newEngine(t)
	ctx := context.Background()

	start, _ := eng.Start(ctx, "quiz")
	_, _ = eng.Continue(ctx, "quiz", start.SessionID, domain.TextInput("red"))
	resp, err := eng.Continue(ctx, "quiz", start.SessionID, domain.TextInput("no"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, resp.Status)

	_, err = store.Load(ctx, start.SessionID)
	assert.True(t, errors.Is(err, domain.ErrSessionNotFound))
}

func TestEngine_StayInStateKeepsState(t *testing.T) {
	eng, store := newEngine(t)
	ctx := context.Background()

	start, _ := eng.Start(ctx, "quiz")
	resp, err := eng.Continue(ctx, "quiz", start.SessionID, domain.TextInput(""))
	require.NoError(t, err)
	assert.True(t, resp.StayInState)

	s, err := store.Load(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateName("ASK_COLOR"), s.State)
}

func TestEngine_IllegalTransitionIsNotPersisted(t *testing.T) {
	eng, store := newEngine(t)
	ctx := context.Background()

	start, _ := eng.Start(ctx, "quiz")
	_, err := eng.Continue(ctx, "quiz", start.SessionID, domain.TextInput("jump"))
	assert.True(t, errors.Is(err, domain.ErrIllegalTransition))

	s, err := store.Load(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateName("ASK_COLOR"), s.State)
}

func TestEngine_HandlerErrorSurfaces(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	start, _ := eng.Start(ctx, "quiz")
	_, err := eng.Continue(ctx, "quiz", start.SessionID, domain.TextInput("explode"))
	assert.ErrorContains(t, err, "handler exploded")
}

func TestEngine_OtherGuideSessionIsNotFound(t *testing.T) {
	eng, _ := newEngine(t)
	other := quizGuide()
	other.Name = "trivia"
	other.Noun = "trivia game"
	require.NoError(t, eng.Register(other))
	ctx := context.Background()

	start, _ := eng.Start(ctx, "trivia")

	resp, err := eng.Continue(ctx, "quiz", start.SessionID, domain.TextInput("red"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, resp.Status)

	_, found, err := eng.Get(ctx, "quiz", start.SessionID)
	require.NoError(t, err)
	assert.False(t, found)

	resp, err = eng.Cancel(ctx, "quiz", start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, resp.Status)
}

func TestEngine_Cancel(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	start, _ := eng.Start(ctx, "quiz")
	resp, err := eng.Cancel(ctx, "quiz", start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, resp.Status)
	assert.Equal(t, "Quiz cancelled.", resp.Message)

	resp, err = eng.Cancel(ctx, "quiz", start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, resp.Status)
	assert.Equal(t, fmt.Sprintf("Session %s not found.", start.SessionID), resp.Message)
}

func TestEngine_IDCollisionRegenerates(t *testing.T) {
	ids := []string{"aaaaaaaa", "aaaaaaaa", "bbbbbbbb"}
	var mu sync.Mutex
	next := func() string {
		mu.Lock()
		defer mu.Unlock()
		id := ids[0]
		ids = ids[1:]
		return id
	}
	eng, _ := newEngine(t, runtime.WithIDGenerator(next))
	ctx := context.Background()

	first, err := eng.Start(ctx, "quiz")
	require.NoError(t, err)
	second, err := eng.Start(ctx, "quiz")
	require.NoError(t, err)

	assert.Equal(t, "aaaaaaaa", first.SessionID)
	assert.Equal(t, "bbbbbbbb", second.SessionID)
}

func TestEngine_LifecycleHooks(t *testing.T) {
	var (
		mu     sync.Mutex
		events []domain.EventType
	)
	record := func(ctx context.Context, e *domain.TransitionEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e.Type)
	}
	eng, _ := newEngine(t, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnSessionStart: record,
		OnTransition:   record,
		OnSessionEnd:   record,
	}))
	ctx := context.Background()

	start, _ := eng.Start(ctx, "quiz")
	_, _ = eng.Continue(ctx, "quiz", start.SessionID, domain.TextInput(""))
	_, _ = eng.Continue(ctx, "quiz", start.SessionID, domain.TextInput("green"))
	_, _ = eng.Continue(ctx, "quiz", start.SessionID, domain.TextInput("yes"))

	assert.Equal(t, []domain.EventType{
		domain.EventSessionStart,
		domain.EventTransition,
		domain.EventTransition,
		domain.EventSessionEnd,
	}, events)
}

func TestEngine_RegisterRejectsInvalidGuide(t *testing.T) {
	eng, _ := newEngine(t)
	g := quizGuide()
	g.Initial = "NOWHERE"
	assert.True(t, errors.Is(eng.Register(g), domain.ErrInvalidGuide))
}

func TestNewSessionID(t *testing.T) {
	id := runtime.NewSessionID()
	assert.Regexp(t, `^[0-9a-f]{8}$`, id)
}
