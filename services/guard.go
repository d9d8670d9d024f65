package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/juliosud/yummo4-sub000/utils"
)

type GuardState string

const (
	GuardLoading GuardState = "loading"
	GuardAllowed GuardState = "allowed"
	GuardBlocked GuardState = "blocked"
)

type BlockReason string

const (
	ReasonNoSession    BlockReason = "no_session"
	ReasonSessionEnded BlockReason = "session_ended"
)

// RecoveryAction is a next step offered on the blocked screen.
type RecoveryAction struct {
	Action string `json:"action"`
	Label  string `json:"label"`
	Href   string `json:"href,omitempty"`
}

// Decision is what the guard tells a customer surface to render.
type Decision struct {
	State       GuardState       `json:"state"`
	Reason      BlockReason      `json:"reason,omitempty"`
	Message     string           `json:"message,omitempty"`
	Recovery    []RecoveryAction `json:"recovery,omitempty"`
	TableID     string           `json:"table_id,omitempty"`
	SessionCode string           `json:"session_code,omitempty"`
}

func (d Decision) Allowed() bool { return d.State == GuardAllowed }

// SessionChecker is the part of the session service the guard depends on.
type SessionChecker interface {
	CheckActiveForTable(ctx context.Context, tableID, code string) bool
}

// Guard gates every customer surface on a live session. It never shows
// content for a pair it could not positively confirm.
type Guard struct {
	Checker  SessionChecker
	Interval time.Duration
	Timeout  time.Duration
	// HomeURL is where the "go home" recovery action points.
	HomeURL string
	// RescanURL resolves where a customer of a table can get a new session.
	// An empty result leaves the rescan action without a link: the customer
	// scans the printed QR code again.
	RescanURL func(tableID string) string
}

func NewGuard(checker SessionChecker, interval, timeout time.Duration) *Guard {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Guard{Checker: checker, Interval: interval, Timeout: timeout, HomeURL: "/"}
}

// Loading is the state shown before the first check completes.
func (g *Guard) Loading(sc SessionContext) Decision {
	return Decision{State: GuardLoading, TableID: sc.TableID, SessionCode: sc.SessionCode}
}

// Evaluate runs one check. A check that errors, hangs past Timeout or is
// cancelled blocks with session_ended.
func (g *Guard) Evaluate(ctx context.Context, sc SessionContext) Decision {
	if sc.Empty() {
		return g.blocked(sc, ReasonNoSession)
	}

	ctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	result := make(chan bool, 1)
	go func() {
		result <- g.Checker.CheckActiveForTable(ctx, sc.TableID, sc.SessionCode)
	}()

	select {
	case ok := <-result:
		if ok {
			return Decision{State: GuardAllowed, TableID: sc.TableID, SessionCode: sc.SessionCode}
		}
	case <-ctx.Done():
		utils.ErrorLogger.WithFields(logrus.Fields{"table": sc.TableID, "session": sc.SessionCode}).
			Warn("session check timed out, blocking")
	}
	return g.blocked(sc, ReasonSessionEnded)
}

// Watch evaluates immediately and then every Interval while the pair stays
// allowed. emit receives every decision; Watch returns the first blocked
// decision, or the last one seen when ctx ends.
func (g *Guard) Watch(ctx context.Context, sc SessionContext, emit func(Decision)) Decision {
	decision := g.Evaluate(ctx, sc)
	emit(decision)
	if !decision.Allowed() {
		return decision
	}

	ticker := time.NewTicker(g.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return decision
		case <-ticker.C:
			decision = g.Evaluate(ctx, sc)
			if ctx.Err() != nil {
				return decision
			}
			emit(decision)
			if !decision.Allowed() {
				return decision
			}
		}
	}
}

func (g *Guard) blocked(sc SessionContext, reason BlockReason) Decision {
	msg := "This table has no active session. Please scan the QR code on your table."
	if reason == ReasonSessionEnded {
		msg = "This session has ended. Please scan the QR code on your table again or ask staff for help."
	}
	var rescan string
	if sc.TableID != "" && g.RescanURL != nil {
		rescan = g.RescanURL(sc.TableID)
	}
	return Decision{
		State:       GuardBlocked,
		Reason:      reason,
		Message:     msg,
		TableID:     sc.TableID,
		SessionCode: sc.SessionCode,
		Recovery: []RecoveryAction{
			{Action: "rescan", Label: "Scan QR code again", Href: rescan},
			{Action: "home", Label: "Go to home", Href: g.HomeURL},
		},
	}
}
