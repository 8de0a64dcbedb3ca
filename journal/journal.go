// Package journal implements the reversible-computing substrate: an
// append-only log of per-step undo records that the driver replays
// backwards to undo instructions, and forwards (by re-execution, never by
// redo) to rewrite history.
package journal

// Trap carries the architectural exception info attached to a frame whose
// step ended in a trap, purely for observability; the CSR writes that made
// it happen are already present as ordinary Csr records.
type Trap struct {
	Cause uint32
	Tval  uint32
}

// Frame is the journal entry for one retired instruction step.
type Frame struct {
	StepIndex        int
	PCBefore, PCAfter uint32
	Records          []Record
	Trap             *Trap
}

type entry struct {
	frame     *Frame  // non-nil for a step entry
	hostInput []Record // non-empty for a host-input entry
}

func (e entry) isStep() bool { return e.frame != nil }

// Journal is the ordered sequence of frames and interleaved host-input
// events described in the temporal-store design. It is not safe for
// concurrent use; the driver is the sole owner.
type Journal struct {
	entries []entry
	cursor  int // entries[:cursor] is the applied prefix; entries[cursor:] is stale "future" kept until truncated
	current int // current_step: step entries within entries[:cursor] plus those evicted from the front

	maxFrames int // 0 = unbounded
	evicted   int // step frames evicted from the front by the ring bound

	open *Frame
}

// New returns an empty Journal. maxFrames bounds the number of retained
// step frames; 0 means unbounded.
func New(maxFrames int) *Journal {
	return &Journal{maxFrames: maxFrames}
}

// Current returns current_step.
func (j *Journal) Current() int { return j.current }

// Len returns the number of step frames retained in the applied prefix,
// i.e. journal.len() from the spec.
func (j *Journal) Len() int { return j.current - j.evicted }

// BeginFrame opens a fresh frame for the step about to execute.
func (j *Journal) BeginFrame(pcBefore uint32) error {
	if j.open != nil {
		return ErrFrameOpen
	}
	j.open = &Frame{StepIndex: j.current, PCBefore: pcBefore}
	return nil
}

// Record appends an undo record to the currently open frame.
func (j *Journal) Record(r Record) error {
	if j.open == nil {
		return ErrNoOpenFrame
	}
	j.open.Records = append(j.open.Records, r)
	return nil
}

// Commit closes the open frame and appends it to the journal, advancing
// current_step. Any stale future entries left over from an earlier
// reverse are discarded first, per the "rewrite history" rule: taking a
// new forward step while behind the prior tip abandons that tip.
func (j *Journal) Commit(pcAfter uint32, trap *Trap) error {
	if j.open == nil {
		return ErrNoOpenFrame
	}

	j.TruncateFuture()

	j.open.PCAfter = pcAfter
	j.open.Trap = trap
	j.entries = append(j.entries, entry{frame: j.open})
	j.open = nil
	j.cursor = len(j.entries)
	j.current++

	j.evictIfBounded()

	return nil
}

// Abort discards the open frame, first reverting any records already
// appended to it so that live state is left untouched, then drops the
// frame without advancing current_step.
func (j *Journal) Abort() {
	if j.open == nil {
		return
	}
	undoRecords(j.open.Records)
	j.open = nil
}

// PushHostInput appends an already-applied host-originated mutation (e.g.
// a UART RX push) as an event between steps. It does not affect
// current_step.
func (j *Journal) PushHostInput(r Record) {
	j.TruncateFuture()
	j.entries = append(j.entries, entry{hostInput: []Record{r}})
	j.cursor = len(j.entries)
}

// RevertOne pops the most recently applied step, undoing any host-input
// events that sit directly above it first, and decrements current_step.
// It returns the reverted frame's PCBefore so the caller can restore pc.
func (j *Journal) RevertOne() (pcBefore uint32, err error) {
	if j.current <= j.evicted {
		return 0, ErrNoHistory
	}

	for j.cursor > 0 && !j.entries[j.cursor-1].isStep() {
		e := j.entries[j.cursor-1]
		undoRecords(e.hostInput)
		j.cursor--
	}

	if j.cursor == 0 {
		return 0, ErrNoHistory
	}

	e := j.entries[j.cursor-1]
	undoRecords(e.frame.Records)
	j.cursor--
	j.current--

	return e.frame.PCBefore, nil
}

// Goto reverts steps one at a time until current_step == target. It
// returns ErrDivergentGoto if target is ahead of current_step: the
// journal holds no redo data, so the driver must re-execute forward
// itself in that case.
func (j *Journal) Goto(target int) (pc uint32, moved bool, err error) {
	if target > j.current {
		return 0, false, ErrDivergentGoto
	}
	for j.current > target {
		pc, err = j.RevertOne()
		if err != nil {
			return 0, moved, err
		}
		moved = true
	}
	return pc, moved, nil
}

// TruncateFuture discards every entry beyond the applied prefix. It is
// idempotent.
func (j *Journal) TruncateFuture() {
	j.entries = j.entries[:j.cursor]
}

func (j *Journal) evictIfBounded() {
	if j.maxFrames <= 0 {
		return
	}
	for j.current-j.evicted > j.maxFrames && len(j.entries) > 0 {
		e := j.entries[0]
		j.entries = j.entries[1:]
		j.cursor--
		if e.isStep() {
			j.evicted++
		}
	}
}

func undoRecords(records []Record) {
	for i := len(records) - 1; i >= 0; i-- {
		records[i].Undo()
	}
}
