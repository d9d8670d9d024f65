package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/juliosud/yummo4-sub000/models"
	"github.com/juliosud/yummo4-sub000/store"
	"github.com/juliosud/yummo4-sub000/utils"
)

const mintAttempts = 3

var tableIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,50}$`)

// SessionService creates, validates and ends table sessions. Regular tables
// reuse one code per QR until it is replaced; terminals mint a new code on
// every visit to their static entry URL.
type SessionService struct {
	Store    store.Store
	Registry *TableRegistry
	QR       QRRenderer
	// Carts, when set, forgets the mirrored carts of ended sessions.
	Carts        *CartService
	Origin       string
	CheckTimeout time.Duration
	Now          func() time.Time
}

func NewSessionService(s store.Store, registry *TableRegistry, qr QRRenderer, origin string) *SessionService {
	return &SessionService{
		Store:        s,
		Registry:     registry,
		QR:           qr,
		Origin:       strings.TrimRight(origin, "/"),
		CheckTimeout: 3 * time.Second,
		Now:          time.Now,
	}
}

// StartResult is what staff receive when starting a table session.
type StartResult struct {
	TableID     string           `json:"table_id"`
	Type        models.TableType `json:"type"`
	SessionCode string           `json:"session_code,omitempty"`
	MenuURL     string           `json:"menu_url"`
	QRImage     string           `json:"qr_image"`
}

// TerminalVisit is the outcome of a customer entering a terminal.
type TerminalVisit struct {
	TableID      string `json:"table_id"`
	SessionCode  string `json:"session_code"`
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
	RedirectURL  string `json:"redirect_url"`
}

// TableInput is the staff form for creating a table.
type TableInput struct {
	TableID string           `json:"table_id"`
	Name    string           `json:"name"`
	Seats   int              `json:"seats"`
	Type    models.TableType `json:"type"`
	Status  string           `json:"status"`
}

// MenuURL is the customer entry URL of a regular table session.
func (s *SessionService) MenuURL(tableID, code string) string {
	return fmt.Sprintf("%s/menu?table=%s&session=%s", s.Origin, url.QueryEscape(tableID), url.QueryEscape(code))
}

// TerminalURL is the static entry URL printed on a terminal.
func (s *SessionService) TerminalURL(tableID string) string {
	return s.Origin + "/term/" + url.PathEscape(tableID)
}

// RescanURL is the recovery link for a blocked customer. Terminals serve a
// static entry page that mints a fresh session; a regular table only has its
// printed QR code, so there is no link to give.
func (s *SessionService) RescanURL(tableID string) string {
	if t, ok := s.Registry.Get(tableID); ok && t.IsTerminal() {
		return s.TerminalURL(t.TableID)
	}
	return ""
}

func (s *SessionService) table(ctx context.Context, tableID string) (*models.Table, error) {
	table, err := s.Store.GetTable(ctx, tableID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, err
	}
	return table, nil
}

func (s *SessionService) CreateTable(ctx context.Context, in TableInput) (*models.Table, error) {
	verr := &ValidationError{}
	in.TableID = strings.TrimSpace(in.TableID)
	if !tableIDPattern.MatchString(in.TableID) {
		verr.add("table_id", "must be 1-50 letters, digits, '-' or '_'")
	}
	if in.Type == "" {
		in.Type = models.TableTypeRegular
	}
	if !models.ValidTableType(in.Type) {
		verr.add("type", "must be regular or terminal")
	}
	if in.Status == "" {
		in.Status = models.TableStatusAvailable
	}
	if !models.ValidTableStatus(in.Status) {
		verr.add("status", "must be available, occupied or reserved")
	}
	if in.Seats < 0 {
		verr.add("seats", "must not be negative")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	table := &models.Table{
		TableID: in.TableID,
		Name:    strings.TrimSpace(in.Name),
		Seats:   in.Seats,
		Type:    in.Type,
		Status:  in.Status,
	}
	if table.Name == "" {
		table.Name = "Table " + table.TableID
	}
	if table.IsTerminal() {
		table.Seats = 0
	}

	if err := s.Store.CreateTable(ctx, table); err != nil {
		return nil, fmt.Errorf("create table %s: %w", table.TableID, err)
	}
	s.Registry.Put(*table)

	utils.InfoLogger.WithFields(logrus.Fields{"table": table.TableID, "type": table.Type}).Info("table created")
	return table, nil
}

func (s *SessionService) UpdateTableStatus(ctx context.Context, tableID, status string) (*models.Table, error) {
	if !models.ValidTableStatus(status) {
		return nil, &ValidationError{Fields: map[string]string{"status": "must be available, occupied or reserved"}}
	}
	if err := s.Store.UpdateTableStatus(ctx, tableID, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	table, err := s.table(ctx, tableID)
	if err != nil {
		return nil, err
	}
	s.Registry.Put(*table)
	if current, ok := s.Registry.Get(tableID); ok {
		table.SessionActive = current.SessionActive
	}
	return table, nil
}

// ListTables refreshes the registry and returns every table with its
// derived SessionActive flag.
func (s *SessionService) ListTables(ctx context.Context) ([]models.Table, error) {
	if err := s.Registry.Sync(ctx); err != nil {
		return nil, err
	}
	return s.Registry.List(), nil
}

func (s *SessionService) GetTable(ctx context.Context, tableID string) (*models.Table, error) {
	table, err := s.table(ctx, tableID)
	if err != nil {
		return nil, err
	}
	active, err := s.HasActiveSession(ctx, tableID)
	if err != nil {
		return nil, err
	}
	table.SessionActive = active
	return table, nil
}

func (s *SessionService) HasActiveSession(ctx context.Context, tableID string) (bool, error) {
	active, err := s.Store.ActiveTableIDs(ctx)
	if err != nil {
		return false, err
	}
	return active[tableID], nil
}

func (s *SessionService) SessionHistory(ctx context.Context, tableID string) ([]models.TableSession, error) {
	if _, err := s.table(ctx, tableID); err != nil {
		return nil, err
	}
	return s.Store.ListSessions(ctx, tableID)
}

// StartSession opens a session for a table. A regular table gets a fresh
// code and any previous active code is ended in the same write, so a table
// never has two live codes. A terminal gets its static entry URL and no
// session row; sessions are minted per visit.
func (s *SessionService) StartSession(ctx context.Context, tableID string) (*StartResult, error) {
	table, err := s.table(ctx, tableID)
	if err != nil {
		return nil, err
	}

	if table.IsTerminal() {
		entry := s.TerminalURL(table.TableID)
		qr, err := s.QR.Render(entry)
		if err != nil {
			return nil, err
		}
		return &StartResult{TableID: table.TableID, Type: table.Type, MenuURL: entry, QRImage: qr}, nil
	}

	for attempt := 0; attempt < mintAttempts; attempt++ {
		code := NewSessionCode(table.TableID, s.Now())
		menuURL := s.MenuURL(table.TableID, code)
		qr, err := s.QR.Render(menuURL)
		if err != nil {
			return nil, err
		}

		session := &models.TableSession{
			TableID:     table.TableID,
			SessionCode: code,
			CreatedAt:   s.Now(),
			QRCodeData:  qr,
			MenuURL:     menuURL,
		}
		err = s.Store.CreateSession(ctx, session, true)
		if errors.Is(err, store.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("start session for table %s: %w", table.TableID, err)
		}

		s.Registry.SetSessionActive(table.TableID, true)
		utils.InfoLogger.WithFields(logrus.Fields{"table": table.TableID, "session": code}).Info("session started")
		return &StartResult{
			TableID:     table.TableID,
			Type:        table.Type,
			SessionCode: code,
			MenuURL:     menuURL,
			QRImage:     qr,
		}, nil
	}
	return nil, ErrSessionCodeExhausted
}

// EndSession deactivates the sessions of a table and returns how many rows
// it touched. Terminals end every session ever minted for them; regular
// tables end only the active one. Ending an ended table is a no-op.
func (s *SessionService) EndSession(ctx context.Context, tableID string) (int, error) {
	table, err := s.table(ctx, tableID)
	if err != nil {
		return 0, err
	}
	return s.endSession(ctx, table)
}

func (s *SessionService) endSession(ctx context.Context, table *models.Table) (int, error) {
	allHistorical := table.IsTerminal()
	codes, err := s.Store.DeactivateSessions(ctx, table.TableID, allHistorical, s.Now())
	if err != nil {
		return 0, fmt.Errorf("end session for table %s: %w", table.TableID, err)
	}
	s.Registry.SetSessionActive(table.TableID, false)

	if len(codes) > 0 {
		// Cart yang tertinggal tidak bisa dipakai lagi karena kodenya sudah mati,
		// pembersihan ini hanya merapikan data.
		ids := make([]string, 0, len(codes))
		for _, code := range codes {
			ids = append(ids, DeriveSessionID(table.TableID, code))
		}
		if err := s.Store.ClearCart(ctx, ids...); err != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{"table": table.TableID}).
				Errorf("purging carts of ended sessions: %v", err)
		}
		if s.Carts != nil {
			s.Carts.Forget(ids...)
		}
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"table":          table.TableID,
		"all_historical": allHistorical,
		"sessions":       len(codes),
	}).Info("session ended")
	return len(codes), nil
}

// BulkEndAllTerminalSessions ends every terminal that currently has a live
// session and reports how many terminals were ended.
func (s *SessionService) BulkEndAllTerminalSessions(ctx context.Context) (int, error) {
	if err := s.Registry.Sync(ctx); err != nil {
		return 0, fmt.Errorf("bulk end terminal sessions: %w", err)
	}

	ended := 0
	var errs []error
	for _, terminal := range s.Registry.Terminals(true) {
		t := terminal
		if _, err := s.endSession(ctx, &t); err != nil {
			errs = append(errs, err)
			continue
		}
		ended++
	}
	utils.InfoLogger.WithField("terminals", ended).Info("bulk ended terminal sessions")
	return ended, errors.Join(errs...)
}

// CheckActive reports whether a session code currently grants access.
// Unknown and ended codes are both false. Any backend error or timeout is
// also false: customer surfaces fail closed.
func (s *SessionService) CheckActive(ctx context.Context, code string) bool {
	_, ok := s.activeSession(ctx, code)
	return ok
}

// CheckActiveForTable is CheckActive plus the requirement that the code was
// issued for tableID.
func (s *SessionService) CheckActiveForTable(ctx context.Context, tableID, code string) bool {
	session, ok := s.activeSession(ctx, code)
	return ok && session.TableID == tableID
}

func (s *SessionService) activeSession(ctx context.Context, code string) (*models.TableSession, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, false
	}
	if s.CheckTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.CheckTimeout)
		defer cancel()
	}

	session, err := s.Store.GetActiveSession(ctx, code)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			utils.ErrorLogger.WithField("session", code).Errorf("session check failed, denying access: %v", err)
		}
		return nil, false
	}
	return session, true
}

// MintTerminalSession creates a brand-new session for one terminal visit.
// Uniqueness is enforced by the store; a collision retries with a new code.
func (s *SessionService) MintTerminalSession(ctx context.Context, tableID string) (*models.TableSession, error) {
	table, err := s.table(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if !table.IsTerminal() {
		return nil, ErrNotTerminal
	}

	for attempt := 0; attempt < mintAttempts; attempt++ {
		code := NewSessionCode(table.TableID, s.Now())
		session := &models.TableSession{
			TableID:     table.TableID,
			SessionCode: code,
			CreatedAt:   s.Now(),
			MenuURL:     s.MenuURL(table.TableID, code),
		}
		err := s.Store.CreateSession(ctx, session, false)
		if errors.Is(err, store.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("mint session for terminal %s: %w", table.TableID, err)
		}
		s.Registry.SetSessionActive(table.TableID, true)
		return session, nil
	}
	return nil, ErrSessionCodeExhausted
}

// RegisterTerminalVisit validates the customer's name and phone, mints a
// session for the terminal and returns where to send the customer next.
func (s *SessionService) RegisterTerminalVisit(ctx context.Context, tableID, name, phone string) (*TerminalVisit, error) {
	verr := &ValidationError{}
	name = strings.TrimSpace(name)
	if name == "" {
		verr.add("name", "is required")
	}
	digits := utils.NormalizePhone(phone)
	if !utils.ValidPhone(digits) {
		verr.add("phone", "must contain 10 to 15 digits")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	session, err := s.MintTerminalSession(ctx, tableID)
	if err != nil {
		return nil, err
	}

	customer := &models.Customer{
		TableID:     session.TableID,
		SessionCode: session.SessionCode,
		Name:        name,
		Phone:       digits,
	}
	if err := s.Store.SaveCustomer(ctx, customer); err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{"table": tableID, "session": session.SessionCode}).
			Errorf("saving terminal customer: %v", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{"table": tableID, "session": session.SessionCode}).Info("terminal visit started")
	return &TerminalVisit{
		TableID:      session.TableID,
		SessionCode:  session.SessionCode,
		CustomerName: name,
		Phone:        digits,
		RedirectURL:  session.MenuURL,
	}, nil
}

// DeleteTable removes a table. A table with a live session is only removed
// when confirmed, and its sessions are ended first so no live code points
// at a deleted table.
func (s *SessionService) DeleteTable(ctx context.Context, tableID string, confirmed bool) error {
	table, err := s.table(ctx, tableID)
	if err != nil {
		return err
	}
	active, err := s.HasActiveSession(ctx, tableID)
	if err != nil {
		return err
	}
	if active {
		if !confirmed {
			return ErrConfirmationRequired
		}
		if _, err := s.endSession(ctx, table); err != nil {
			return err
		}
	}

	if err := s.Store.DeleteTable(ctx, tableID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTableNotFound
		}
		return fmt.Errorf("delete table %s: %w", tableID, err)
	}
	s.Registry.Remove(tableID)
	utils.InfoLogger.WithField("table", tableID).Info("table deleted")
	return nil
}
