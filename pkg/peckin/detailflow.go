package peckin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/peckin/peckin/backend/go-services/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// FlowKind is the detail form state.
type FlowKind int

const (
	// Unresolved: no fetch has resolved yet for the current user.
	Unresolved FlowKind = iota
	// NeedsInput: no profile, or one without a first name. Show the form.
	NeedsInput
	// Complete: show the read-only profile.
	Complete
	// Failed: the fetch failed; Retry re-issues it.
	Failed
)

func (k FlowKind) String() string {
	switch k {
	case NeedsInput:
		return "NeedsInput"
	case Complete:
		return "Complete"
	case Failed:
		return "Failed"
	}
	return "Unresolved"
}

// FlowState is the tagged detail form state. Doc is set in Complete, Err in
// Failed.
type FlowState struct {
	Kind FlowKind
	Doc  *ProfileDocument
	Err  error
}

var (
	ErrNoUser           = errors.New("no signed-in user")
	ErrNotAwaitingInput = errors.New("profile form is not awaiting input")
	ErrSubmitInProgress = errors.New("profile submit already in progress")
)

// ValidationError lists the invalid form fields by JSON name.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid profile fields: %v", e.Fields)
}

// DetailFlow decides between the profile form and the profile view for the
// signed-in user. One DetailFlow corresponds to one mounted screen.
type DetailFlow struct {
	store    ProfileStore
	validate *validator.Validate
	fetches  singleflight.Group

	mu         sync.Mutex
	uid        string
	state      FlowState
	submitting bool
	closed     bool
}

func NewDetailFlow(store ProfileStore) *DetailFlow {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	return &DetailFlow{store: store, validate: v}
}

func (f *DetailFlow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// SetUser tells the flow who is signed in and resolves the profile when
// needed. A fetch is issued only while the flow is Unresolved for u, and
// concurrent calls for the same user share one request. A nil user resets
// the flow.
func (f *DetailFlow) SetUser(ctx context.Context, u *UserRef) FlowState {
	f.mu.Lock()
	if f.closed {
		st := f.state
		f.mu.Unlock()
		return st
	}
	if u == nil {
		f.uid = ""
		f.state = FlowState{Kind: Unresolved}
		f.mu.Unlock()
		return FlowState{Kind: Unresolved}
	}
	if u.ID != f.uid {
		f.uid = u.ID
		f.state = FlowState{Kind: Unresolved}
	}
	if f.state.Kind != Unresolved {
		st := f.state
		f.mu.Unlock()
		return st
	}
	f.mu.Unlock()
	return f.fetch(ctx, u.ID)
}

// Retry re-issues the fetch after a failure.
func (f *DetailFlow) Retry(ctx context.Context) (FlowState, error) {
	f.mu.Lock()
	if f.uid == "" {
		f.mu.Unlock()
		return FlowState{Kind: Unresolved}, ErrNoUser
	}
	if f.state.Kind != Failed {
		st := f.state
		f.mu.Unlock()
		return st, nil
	}
	uid := f.uid
	f.state = FlowState{Kind: Unresolved}
	f.mu.Unlock()
	return f.fetch(ctx, uid), nil
}

// fetchTimeout bounds a shared profile fetch, which outlives any single
// caller's context.
const fetchTimeout = 15 * time.Second

// fetch resolves the profile for uid. The result is applied inside the
// shared call, so a caller arriving after it completes sees the resolved
// state instead of starting a second request. The request runs detached
// from ctx: one caller giving up must not fail the others.
func (f *DetailFlow) fetch(ctx context.Context, uid string) FlowState {
	_, _, _ = f.fetches.Do(uid, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		doc, err := f.store.Get(fctx, UsersCollection, uid)
		f.apply(uid, doc, err)
		return nil, nil
	})
	return f.State()
}

func (f *DetailFlow) apply(uid string, doc *ProfileDocument, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// the user changed, or the screen went away, while the fetch was in flight
	if f.closed || f.uid != uid || f.state.Kind != Unresolved {
		return
	}
	switch {
	case err != nil:
		logger.Warnf("profile fetch for %s failed: %v", uid, err)
		f.state = FlowState{Kind: Failed, Err: err}
	case doc.Complete():
		f.state = FlowState{Kind: Complete, Doc: doc}
	default:
		f.state = FlowState{Kind: NeedsInput}
	}
}

// Submit validates the form and writes it as the user's profile, replacing
// any previous document. On success the flow moves to Complete without
// re-reading the store.
func (f *DetailFlow) Submit(ctx context.Context, form ProfileDocument) (FlowState, error) {
	if err := f.validate.Struct(form); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			out := &ValidationError{}
			for _, fe := range ve {
				out.Fields = append(out.Fields, fe.Field())
			}
			return f.State(), out
		}
		return f.State(), err
	}
	if form.Major == nil {
		form.Major = []string{}
	}
	if form.Minor == nil {
		form.Minor = []string{}
	}

	f.mu.Lock()
	switch {
	case f.uid == "":
		f.mu.Unlock()
		return FlowState{Kind: Unresolved}, ErrNoUser
	case f.state.Kind != NeedsInput:
		st := f.state
		f.mu.Unlock()
		return st, ErrNotAwaitingInput
	case f.submitting:
		st := f.state
		f.mu.Unlock()
		return st, ErrSubmitInProgress
	}
	uid := f.uid
	f.submitting = true
	f.mu.Unlock()

	err := f.store.Set(ctx, UsersCollection, uid, form)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	if err != nil {
		return f.state, err
	}
	if !f.closed && f.uid == uid {
		doc := form
		f.state = FlowState{Kind: Complete, Doc: &doc}
	}
	return f.state, nil
}

// Close detaches the flow from its screen. Results of requests still in
// flight are dropped.
func (f *DetailFlow) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}
