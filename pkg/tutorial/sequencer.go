package tutorial

import (
	"log/slog"

	"github.com/jwebster45206/orchard-engine/pkg/events"
)

// State is the persisted form of a sequencer.
type State struct {
	CurrentStep          Step   `json:"currentStep" yaml:"currentStep"`
	ExpectedNPCQuestID   string `json:"expectedNPCQuestID" yaml:"expectedNPCQuestID"`
	ExpectedClaimQuestID string `json:"expectedClaimQuestID" yaml:"expectedClaimQuestID"`
	IsFinished           bool   `json:"isFinished" yaml:"isFinished"`
}

// Sequencer is the tutorial state machine. It only moves when an event
// matches the step it is waiting on; anything else is dropped, so replayed
// or duplicated events cannot push it off course.
type Sequencer struct {
	logger    *slog.Logger
	pub       events.Publisher
	presenter Presenter
	script    *Script

	step        Step
	expectNPC   string
	expectClaim string
}

func NewSequencer(script *Script, presenter Presenter, pub events.Publisher, logger *slog.Logger) *Sequencer {
	if script == nil {
		script = DefaultScript()
	}
	if presenter == nil {
		presenter = LogPresenter{Logger: logger}
	}
	if pub == nil {
		pub = events.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequencer{
		logger:    logger,
		pub:       pub,
		presenter: presenter,
		script:    script,
		step:      StepNone,
	}
}

// Attach subscribes the sequencer to every event it reacts to.
func (s *Sequencer) Attach(bus *events.Bus) {
	for _, t := range Listens() {
		bus.Subscribe(t, s.Handle)
	}
}

func (s *Sequencer) Step() Step            { return s.step }
func (s *Sequencer) ExpectedNPC() string   { return s.expectNPC }
func (s *Sequencer) ExpectedClaim() string { return s.expectClaim }
func (s *Sequencer) Finished() bool        { return s.step == StepFinished }

// Start enters the first step of a fresh tutorial. It does nothing once the
// tutorial has started.
func (s *Sequencer) Start() {
	if s.step != StepNone {
		return
	}
	s.enter(s.script.Start, true)
}

// Handle feeds one domain event to the sequencer.
func (s *Sequencer) Handle(e events.Event) {
	switch e.Type {
	case events.InteractNPC:
		if s.step != StepInteractNPC || e.ID != s.expectNPC {
			return
		}
		if tr, ok := s.script.Interact[e.ID]; ok {
			s.apply(tr)
		}
	case events.QuestClaimed:
		if s.step != StepClaimQuest || e.ID != s.expectClaim {
			return
		}
		if tr, ok := s.script.Claim[e.ID]; ok {
			s.apply(tr)
		}
	default:
		from, ok := awaited[e.Type]
		if !ok || from != s.step {
			return
		}
		if tr, ok := s.script.Linear[from]; ok {
			s.apply(tr)
		}
	}
}

func (s *Sequencer) apply(tr Transition) {
	if tr.ExpectNPC != "" {
		s.expectNPC = tr.ExpectNPC
	}
	if tr.ExpectClaim != "" {
		s.expectClaim = tr.ExpectClaim
	}
	s.enter(tr.To, true)
}

// enter switches to step and shows its guidance. Presentation is a pure
// function of the step and the branch memory.
func (s *Sequencer) enter(step Step, announce bool) {
	s.step = step
	p := s.presenter

	p.HideNarrative()
	if step != StepInteractNPC {
		p.ClearGuide()
	}

	switch step {
	case StepNone:
	case StepInteractNPC:
		p.ShowNarrative(s.script.interactNarrative(s.expectNPC))
		p.PointTo(Target{Kind: TargetNPC, ID: s.expectNPC})
	case StepClaimQuest:
		p.ShowNarrative(s.script.claimNarrative(s.expectClaim))
	case StepFinished:
		p.Notify(s.script.FinishMessage, s.script.FinishDuration)
	default:
		if n, ok := s.script.Narratives[step]; ok {
			p.ShowNarrative(n)
		}
		if lm, ok := s.script.Landmarks[step]; ok {
			p.PointTo(Target{Kind: TargetLandmark, ID: lm})
		}
	}

	if !announce {
		return
	}
	s.logger.Debug("Tutorial step", "step", string(step), "expect_npc", s.expectNPC, "expect_claim", s.expectClaim)
	s.pub.Publish(events.New(events.TutorialStep, string(step)).
		With("expected_npc", s.expectNPC).
		With("expected_claim", s.expectClaim))
	if step == StepFinished {
		s.pub.Publish(events.New(events.TutorialFinished, ""))
	}
}

func (s *Sequencer) Export() State {
	return State{
		CurrentStep:          s.step,
		ExpectedNPCQuestID:   s.expectNPC,
		ExpectedClaimQuestID: s.expectClaim,
		IsFinished:           s.step == StepFinished,
	}
}

// Import restores a saved state. A finished tutorial is set directly; any
// other step re-runs its entry guidance without checking how it was reached.
func (s *Sequencer) Import(st State) {
	s.expectNPC = st.ExpectedNPCQuestID
	s.expectClaim = st.ExpectedClaimQuestID

	if st.IsFinished || st.CurrentStep == StepFinished {
		s.step = StepFinished
		s.presenter.ClearGuide()
		s.presenter.HideNarrative()
		return
	}

	step := st.CurrentStep
	if !step.Valid() {
		s.logger.Warn("Unknown saved tutorial step, restarting tutorial", "step", string(step))
		s.Reset()
		return
	}
	if step == StepNone {
		s.step = StepNone
		return
	}
	s.enter(step, false)
}

// Reset restarts the tutorial from its first step.
func (s *Sequencer) Reset() {
	s.step = StepNone
	s.expectNPC = ""
	s.expectClaim = ""
	s.presenter.ClearGuide()
	s.presenter.HideNarrative()
	s.Start()
}
