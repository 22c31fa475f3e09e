// Package session drives the interview room lifecycle for a headless
// interview client: dialing the voice agent, tracking live state, and
// finalizing the candidate within hard time bounds once the call ends.
package session

import (
	"context"
	"time"
)

// State is the room lifecycle phase.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateLive       State = "live"
	StateCompleted  State = "completed"
	StateError      State = "error"
)

// Entry is one line of the in-room transcript view.
type Entry struct {
	Role string
	Text string
	At   time.Time
}

// VoiceSession is an open connection to the voice agent.
type VoiceSession interface {
	// ID is the provider conversation id, empty until known.
	ID() string
	End(ctx context.Context) error
}

// Dialer opens voice sessions. The three methods are the session
// start fallback chain, tried in order.
type Dialer interface {
	DialWithToken(ctx context.Context, token string, candidateID string) (VoiceSession, error)
	DialWithSignedURL(ctx context.Context, signedURL string, candidateID string) (VoiceSession, error)
	DialWithAgentID(ctx context.Context, agentID string, candidateID string) (VoiceSession, error)
}

// Backend is the slice of the screening API the room needs.
type Backend interface {
	ConversationToken(ctx context.Context) (string, error)
	SignedURL(ctx context.Context) (string, error)
	MarkInterviewing(ctx context.Context, candidateID string) error
	MarkCompleted(ctx context.Context, candidateID string) error
	// PushTranscript posts the locally buffered transcript through the
	// post-call webhook, covering deliveries the provider drops.
	PushTranscript(ctx context.Context, candidateID, callID string, entries []Entry) error
	FetchResults(ctx context.Context, candidateID string) error
}

// Config carries the lifecycle policy knobs for one room.
type Config struct {
	CandidateID string
	AgentID     string
	// Connected time below this treats a disconnect as a dropped call.
	MinLiveDuration time.Duration
	// Bound on the post-call finalization wait.
	FinalizeTimeout time.Duration
	// Bound on the voice-session close wait.
	EndTimeout time.Duration
	// Dropped-call restarts allowed before the room stops prompting
	// for a retry. Zero means prompt forever.
	MaxResumeAttempts int
}
