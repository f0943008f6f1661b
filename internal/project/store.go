package project

import (
	"log"
	"sync"
	"time"
)

// Action is the closed vocabulary of store mutations. Every implementation
// lives in this file; the store accepts nothing else.
type Action interface {
	actionName() string
}

type SetLoading struct{ Loading bool }

// SetError records a user-facing failure message. An empty message clears it.
type SetError struct{ Message string }

// SetProject replaces the loaded project wholesale and clears loading/error.
// A nil project unloads the store.
type SetProject struct{ Project *Project }

type AddArtifact struct{ Artifact Artifact }

type DeleteArtifact struct{ ID string }

type AddCandidate struct{ Candidate Candidate }

type AddInterviewer struct{ Interviewer Interviewer }

// UpdateCandidate shallow-merges the set fields into the candidate with the
// matching ID. Unknown IDs are dropped silently.
type UpdateCandidate struct {
	ID        string
	Name      *string
	Role      *string
	Company   *string
	Email     *string
	Phone     *string
	PhotoURL  *string
	Artifacts *int
}

type UpdateInterviewer struct {
	ID        string
	Name      *string
	Position  *string
	Company   *string
	Email     *string
	Phone     *string
	PhotoURL  *string
	Artifacts *int
}

type AddOutput struct{ Output Output }

type DeleteOutput struct{ ID string }

type ToggleOutputSelection struct{ ID string }

// SetDeletingDocument marks the single output delete allowed in flight.
// An empty ID clears the marker.
type SetDeletingDocument struct{ ID string }

// expireError is dispatched internally by the error TTL timer. Gen guards
// against clearing an error set after the timer was armed.
type expireError struct{ gen uint64 }

func (SetLoading) actionName() string            { return "SET_LOADING" }
func (SetError) actionName() string              { return "SET_ERROR" }
func (SetProject) actionName() string            { return "SET_PROJECT" }
func (AddArtifact) actionName() string           { return "ADD_ARTIFACT" }
func (DeleteArtifact) actionName() string        { return "DELETE_ARTIFACT" }
func (AddCandidate) actionName() string          { return "ADD_CANDIDATE" }
func (AddInterviewer) actionName() string        { return "ADD_INTERVIEWER" }
func (UpdateCandidate) actionName() string       { return "UPDATE_CANDIDATE" }
func (UpdateInterviewer) actionName() string     { return "UPDATE_INTERVIEWER" }
func (AddOutput) actionName() string             { return "ADD_OUTPUT" }
func (DeleteOutput) actionName() string          { return "DELETE_OUTPUT" }
func (ToggleOutputSelection) actionName() string { return "TOGGLE_OUTPUT_SELECTION" }
func (SetDeletingDocument) actionName() string   { return "SET_DELETING_DOCUMENT" }
func (expireError) actionName() string           { return "EXPIRE_ERROR" }

// State is the store's full value. Project is nil while nothing is loaded.
// DeletingDocument is empty when no output delete is in flight.
type State struct {
	Project          *Project
	Loading          bool
	Err              string
	DeletingDocument string
	SelectedOutputs  []string

	errGen uint64
}

// ArtifactsByCategory is the derived view the artifact panels read.
func (s State) ArtifactsByCategory(cat Category) []Artifact {
	if s.Project == nil {
		return nil
	}
	out := make([]Artifact, 0, len(s.Project.Artifacts))
	for _, a := range s.Project.Artifacts {
		if a.Category == cat {
			out = append(out, a)
		}
	}
	return out
}

// OutputSelected reports membership in the selection set.
func (s State) OutputSelected(id string) bool {
	for _, sel := range s.SelectedOutputs {
		if sel == id {
			return true
		}
	}
	return false
}

func (s State) clone() State {
	out := s
	if s.Project != nil {
		p := *s.Project
		p.Artifacts = append([]Artifact(nil), s.Project.Artifacts...)
		p.Candidates = append([]Candidate(nil), s.Project.Candidates...)
		p.Interviewers = append([]Interviewer(nil), s.Project.Interviewers...)
		p.Outputs = append([]Output(nil), s.Project.Outputs...)
		out.Project = &p
	}
	out.SelectedOutputs = append([]string(nil), s.SelectedOutputs...)
	return out
}

// reduce is the single transition function. It is pure: no I/O, no
// mutation of the input state, total over the action vocabulary.
func reduce(s State, a Action) State {
	switch act := a.(type) {
	case SetLoading:
		s.Loading = act.Loading
		s.Err = ""
		return s
	case SetError:
		s.Err = act.Message
		s.Loading = false
		s.errGen++
		return s
	case expireError:
		if act.gen == s.errGen {
			s.Err = ""
		}
		return s
	case SetProject:
		s.Project = act.Project
		s.Loading = false
		s.Err = ""
		return s
	case SetDeletingDocument:
		s.DeletingDocument = act.ID
		return s
	case ToggleOutputSelection:
		sel := make([]string, 0, len(s.SelectedOutputs)+1)
		found := false
		for _, id := range s.SelectedOutputs {
			if id == act.ID {
				found = true
				continue
			}
			sel = append(sel, id)
		}
		if !found {
			sel = append(sel, act.ID)
		}
		s.SelectedOutputs = sel
		return s
	}

	// Everything below mutates the loaded project's entity lists. With no
	// project loaded the action is dropped, never an error; a racing load
	// must not corrupt state by landing out of order.
	if s.Project == nil {
		return s
	}
	p := *s.Project

	switch act := a.(type) {
	case AddArtifact:
		p.Artifacts = append(append([]Artifact(nil), p.Artifacts...), act.Artifact)
		p.ArtifactCount = len(p.Artifacts)
	case DeleteArtifact:
		kept := make([]Artifact, 0, len(p.Artifacts))
		for _, art := range p.Artifacts {
			if art.ID != act.ID {
				kept = append(kept, art)
			}
		}
		p.Artifacts = kept
		p.ArtifactCount = len(p.Artifacts)
	case AddCandidate:
		p.Candidates = append(append([]Candidate(nil), p.Candidates...), act.Candidate)
	case AddInterviewer:
		p.Interviewers = append(append([]Interviewer(nil), p.Interviewers...), act.Interviewer)
	case UpdateCandidate:
		list := append([]Candidate(nil), p.Candidates...)
		for i := range list {
			if list[i].ID != act.ID {
				continue
			}
			mergeString(&list[i].Name, act.Name)
			mergeString(&list[i].Role, act.Role)
			mergeString(&list[i].Company, act.Company)
			mergeString(&list[i].Email, act.Email)
			mergeString(&list[i].Phone, act.Phone)
			mergeString(&list[i].PhotoURL, act.PhotoURL)
			if act.Artifacts != nil {
				list[i].Artifacts = *act.Artifacts
			}
		}
		p.Candidates = list
	case UpdateInterviewer:
		list := append([]Interviewer(nil), p.Interviewers...)
		for i := range list {
			if list[i].ID != act.ID {
				continue
			}
			mergeString(&list[i].Name, act.Name)
			mergeString(&list[i].Position, act.Position)
			mergeString(&list[i].Company, act.Company)
			mergeString(&list[i].Email, act.Email)
			mergeString(&list[i].Phone, act.Phone)
			mergeString(&list[i].PhotoURL, act.PhotoURL)
			if act.Artifacts != nil {
				list[i].Artifacts = *act.Artifacts
			}
		}
		p.Interviewers = list
	case AddOutput:
		p.Outputs = append(append([]Output(nil), p.Outputs...), act.Output)
	case DeleteOutput:
		kept := make([]Output, 0, len(p.Outputs))
		for _, out := range p.Outputs {
			if out.ID != act.ID {
				kept = append(kept, out)
			}
		}
		p.Outputs = kept
	}

	s.Project = &p
	return s
}

func mergeString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func isEntityAction(a Action) bool {
	switch a.(type) {
	case AddArtifact, DeleteArtifact, AddCandidate, AddInterviewer,
		UpdateCandidate, UpdateInterviewer, AddOutput, DeleteOutput:
		return true
	}
	return false
}

// DropHook is called when an entity action arrives with no project loaded.
type DropHook func(action string)

// Store owns the project state. All mutation flows through the dispatch
// queue and is applied by a single loop goroutine, so the transition
// function never races with itself and readers only ever see the value
// before or after a whole action.
type Store struct {
	actions   chan Action
	reads     chan chan State
	watchers  chan chan State
	done      chan struct{}
	closeOnce sync.Once

	dropHook DropHook
	errTTL   time.Duration
}

type StoreOption func(*Store)

// WithDropHook overrides the diagnostic invoked on silently dropped actions.
func WithDropHook(h DropHook) StoreOption {
	return func(s *Store) { s.dropHook = h }
}

// WithErrorTTL overrides how long a SetError message survives before the
// store clears it. Zero disables expiry.
func WithErrorTTL(ttl time.Duration) StoreOption {
	return func(s *Store) { s.errTTL = ttl }
}

const defaultErrorTTL = 5 * time.Second

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		actions:  make(chan Action, 64),
		reads:    make(chan chan State),
		watchers: make(chan chan State),
		done:     make(chan struct{}),
		errTTL:   defaultErrorTTL,
		dropHook: func(action string) {
			log.Printf("project store: dropped %s, no project loaded", action)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.loop()
	return s
}

func (s *Store) loop() {
	var state State
	var watchers []chan State
	for {
		select {
		case a := <-s.actions:
			if isEntityAction(a) && state.Project == nil {
				if s.dropHook != nil {
					s.dropHook(a.actionName())
				}
				continue
			}
			state = reduce(state, a)
			if se, ok := a.(SetError); ok && se.Message != "" && s.errTTL > 0 {
				gen := state.errGen
				time.AfterFunc(s.errTTL, func() {
					s.Dispatch(expireError{gen: gen})
				})
			}
			for _, w := range watchers {
				select {
				case w <- state.clone():
				default:
				}
			}
		case req := <-s.reads:
			req <- state.clone()
		case w := <-s.watchers:
			watchers = append(watchers, w)
		case <-s.done:
			for _, w := range watchers {
				close(w)
			}
			return
		}
	}
}

// Dispatch enqueues an action. It never reports failure: the store's
// operations are total and dropped entity actions are diagnosed via the
// drop hook instead.
func (s *Store) Dispatch(a Action) {
	select {
	case s.actions <- a:
	case <-s.done:
	}
}

// Snapshot returns a copy of the current state. The copy is detached: the
// caller can hold it across later dispatches without tearing.
func (s *Store) Snapshot() State {
	req := make(chan State, 1)
	select {
	case s.reads <- req:
		return <-req
	case <-s.done:
		return State{}
	}
}

// Watch registers a state feed. Slow consumers miss intermediate states
// rather than stalling the loop; the channel closes when the store closes.
func (s *Store) Watch() <-chan State {
	w := make(chan State, 8)
	select {
	case s.watchers <- w:
	case <-s.done:
		close(w)
	}
	return w
}

func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}
