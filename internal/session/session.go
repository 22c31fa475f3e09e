package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/skylark/spectra-backend/internal/utils"
	"github.com/skylark/spectra-backend/pkg/logger"
)

// User-facing notices for the retry and terminal states.
const (
	noticeDropped        = "The connection dropped before the interview finished. Please start the interview again."
	noticeStartFailed    = "Could not start the interview session. Please try again."
	noticeAlreadyClosed  = "This interview was already completed and cannot be restarted."
	noticeRetryExhausted = "The connection kept dropping. Please contact the recruiting team to reschedule."
)

// Controller is the interview room state machine. The transport calls
// HandleConnect, HandleMessage and HandleDisconnect as agent events
// arrive; the user drives Start and End. All methods are safe for
// concurrent use.
type Controller struct {
	cfg     Config
	backend Backend
	dialer  Dialer
	now     func() time.Time

	mu             sync.Mutex
	state          State
	notice         string
	session        VoiceSession
	liveAt         time.Time
	userEnded      bool
	finalized      bool
	resumeAttempts int
	transcript     []Entry
}

func NewController(cfg Config, backend Backend, dialer Dialer) *Controller {
	return &Controller{
		cfg:     cfg,
		backend: backend,
		dialer:  dialer,
		now:     time.Now,
		state:   StateIdle,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Notice is the user-facing message for the current terminal state.
func (c *Controller) Notice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notice
}

func (c *Controller) Transcript() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// Start marks the candidate interviewing, then dials the agent through
// the fallback chain: conversation token, signed URL, public agent id.
// A candidate already completed cannot start again.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.notice = ""
	c.mu.Unlock()

	if err := c.backend.MarkInterviewing(ctx, c.cfg.CandidateID); err != nil {
		// Only a 409 means the interview is closed; anything else is
		// a transient backend failure the candidate can retry.
		if errors.Is(err, ErrConflict) {
			c.fail(noticeAlreadyClosed)
		} else {
			c.resetForRetry(noticeStartFailed)
		}
		return err
	}

	session, err := c.dial(ctx)
	if err != nil {
		c.resetForRetry(noticeStartFailed)
		return err
	}

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()
	return nil
}

// dial walks the fallback chain, returning the first session that
// opens. Each layer failing logs and falls through to the next.
func (c *Controller) dial(ctx context.Context) (VoiceSession, error) {
	token, err := c.backend.ConversationToken(ctx)
	if err == nil {
		session, dialErr := c.dialer.DialWithToken(ctx, token, c.cfg.CandidateID)
		if dialErr == nil {
			return session, nil
		}
		err = dialErr
	}
	logger.Warn().Err(err).Msg("token session start failed, trying signed URL")

	signedURL, err := c.backend.SignedURL(ctx)
	if err == nil {
		session, dialErr := c.dialer.DialWithSignedURL(ctx, signedURL, c.cfg.CandidateID)
		if dialErr == nil {
			return session, nil
		}
		err = dialErr
	}
	logger.Warn().Err(err).Msg("signed URL session start failed, trying public agent id")

	return c.dialer.DialWithAgentID(ctx, c.cfg.AgentID, c.cfg.CandidateID)
}

// HandleConnect flips the room live and starts the live clock.
func (c *Controller) HandleConnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnecting {
		return
	}
	c.state = StateLive
	c.liveAt = c.now()
}

// HandleMessage appends one agent or user utterance to the transcript
// view.
func (c *Controller) HandleMessage(role, text string) {
	if text == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transcript = append(c.transcript, Entry{Role: role, Text: text, At: c.now()})
}

// HandleDisconnect decides whether an agent-side disconnect is the
// natural end of the interview or a dropped call. Only sessions that
// were live long enough finalize; short-lived sessions reset to idle
// with a retry notice and never complete the candidate, until the
// configured resume budget runs out.
func (c *Controller) HandleDisconnect(ctx context.Context) {
	c.mu.Lock()
	if c.userEnded || c.finalized {
		c.mu.Unlock()
		return
	}
	live := c.state == StateLive
	lived := c.now().Sub(c.liveAt)
	if live && lived >= c.cfg.MinLiveDuration {
		c.mu.Unlock()
		c.finalize(ctx)
		return
	}
	c.resumeAttempts++
	attempt := c.resumeAttempts
	exhausted := c.cfg.MaxResumeAttempts > 0 && attempt >= c.cfg.MaxResumeAttempts
	c.mu.Unlock()

	logger.Warn().Dur("lived", lived).Int("attempt", attempt).
		Msg("session dropped before completion threshold")
	if exhausted {
		c.fail(noticeRetryExhausted)
		return
	}
	c.resetForRetry(noticeDropped)
}

// End is the user hanging up. The voice session close and the
// finalization are both time-bounded so the room never hangs on a
// slow provider.
func (c *Controller) End(ctx context.Context) {
	c.mu.Lock()
	if c.userEnded {
		c.mu.Unlock()
		return
	}
	c.userEnded = true
	session := c.session
	c.mu.Unlock()

	if session != nil {
		_ = utils.FirstOf(ctx, c.cfg.EndTimeout, session.End)
	}
	c.finalize(ctx)
}

// finalize completes the candidate, replays the buffered transcript
// through the webhook in case the provider delivery never arrives,
// and warms the results view, all within the finalize bound. At most
// one finalization runs per room.
func (c *Controller) finalize(ctx context.Context) {
	c.mu.Lock()
	if c.finalized {
		c.mu.Unlock()
		return
	}
	c.finalized = true
	entries := make([]Entry, len(c.transcript))
	copy(entries, c.transcript)
	callID := ""
	if c.session != nil {
		callID = c.session.ID()
	}
	c.mu.Unlock()

	ops := []func(context.Context) error{
		func(ctx context.Context) error {
			return c.backend.MarkCompleted(ctx, c.cfg.CandidateID)
		},
		func(ctx context.Context) error {
			return c.backend.FetchResults(ctx, c.cfg.CandidateID)
		},
	}
	if len(entries) > 0 {
		ops = append(ops, func(ctx context.Context) error {
			return c.backend.PushTranscript(ctx, c.cfg.CandidateID, callID, entries)
		})
	}

	settled := utils.AllSettledWithin(ctx, c.cfg.FinalizeTimeout, ops...)
	if !settled {
		logger.Warn().Str("candidate_id", c.cfg.CandidateID).
			Msg("finalization exceeded its bound, proceeding anyway")
	}

	c.mu.Lock()
	c.state = StateCompleted
	c.mu.Unlock()
}

// resetForRetry returns the room to idle so Start can run again, with
// a notice explaining what happened.
func (c *Controller) resetForRetry(notice string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateIdle
	c.notice = notice
	c.session = nil
}

// fail is terminal: Start will not accept the room again.
func (c *Controller) fail(notice string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateError
	c.notice = notice
}
