package services

import "strings"

// SessionContext is the request-scoped (table, session) pair. It is read
// once from the inbound request and passed explicitly to the guard, the
// cart and the order code.
type SessionContext struct {
	TableID     string `json:"table_id"`
	SessionCode string `json:"session_code"`
}

func NewSessionContext(tableID, sessionCode string) SessionContext {
	return SessionContext{
		TableID:     strings.TrimSpace(tableID),
		SessionCode: strings.TrimSpace(sessionCode),
	}
}

// SessionID is the derived cart scope for this pair.
func (sc SessionContext) SessionID() string {
	return DeriveSessionID(sc.TableID, sc.SessionCode)
}

func (sc SessionContext) Empty() bool {
	return sc.TableID == "" || sc.SessionCode == ""
}
