package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/juliosud/yummo4-sub000/models"
)

// MemoryStore keeps every row in process memory. It honours the same
// contract as GormStore, including the change feed, but nothing survives a
// restart.
type MemoryStore struct {
	mu sync.RWMutex

	tables    map[string]models.Table
	sessions  map[string]models.TableSession
	customers map[string]models.Customer
	menus     map[uint]models.Menu
	carts     map[string]map[uint]models.CartItem
	orders    map[uint]models.Order
	users     map[string]models.User
	changes   []models.DBChange

	nextID uint
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables:    make(map[string]models.Table),
		sessions:  make(map[string]models.TableSession),
		customers: make(map[string]models.Customer),
		menus:     make(map[uint]models.Menu),
		carts:     make(map[string]map[uint]models.CartItem),
		orders:    make(map[uint]models.Order),
		users:     make(map[string]models.User),
	}
}

func (m *MemoryStore) id() uint {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) record(entity, key, action string) {
	m.changes = append(m.changes, models.DBChange{
		ID:         m.id(),
		Entity:     entity,
		RecordKey:  key,
		ActionType: action,
		ChangedAt:  time.Now(),
	})
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// ---------------------------------------------------------------- tables

func (m *MemoryStore) CreateTable(ctx context.Context, table *models.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tables[table.TableID]; exists {
		return ErrDuplicate
	}
	now := time.Now()
	table.CreatedAt, table.UpdatedAt = now, now
	row := *table
	row.SessionActive = false
	m.tables[table.TableID] = row
	m.record(models.EntityTable, table.TableID, models.ChangeInsert)
	return nil
}

func (m *MemoryStore) GetTable(ctx context.Context, tableID string) (*models.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	table, ok := m.tables[tableID]
	if !ok {
		return nil, ErrNotFound
	}
	return &table, nil
}

func (m *MemoryStore) ListTables(ctx context.Context) ([]models.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tables := make([]models.Table, 0, len(m.tables))
	for _, t := range m.tables {
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].TableID < tables[j].TableID })
	return tables, nil
}

func (m *MemoryStore) UpdateTableStatus(ctx context.Context, tableID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	table, ok := m.tables[tableID]
	if !ok {
		return ErrNotFound
	}
	table.Status = status
	table.UpdatedAt = time.Now()
	m.tables[tableID] = table
	m.record(models.EntityTable, tableID, models.ChangeUpdate)
	return nil
}

func (m *MemoryStore) DeleteTable(ctx context.Context, tableID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[tableID]; !ok {
		return ErrNotFound
	}
	delete(m.tables, tableID)
	m.record(models.EntityTable, tableID, models.ChangeDelete)
	return nil
}

// -------------------------------------------------------------- sessions

func (m *MemoryStore) CreateSession(ctx context.Context, session *models.TableSession, deactivatePrior bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[session.SessionCode]; exists {
		return ErrDuplicate
	}
	session.IsActive = true
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if deactivatePrior {
		m.deactivate(session.TableID, false, session.CreatedAt)
	}
	session.ID = m.id()
	m.sessions[session.SessionCode] = *session
	m.record(models.EntitySession, session.SessionCode, models.ChangeInsert)
	return nil
}

func (m *MemoryStore) GetSession(ctx context.Context, code string) (*models.TableSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[code]
	if !ok {
		return nil, ErrNotFound
	}
	return &session, nil
}

func (m *MemoryStore) GetActiveSession(ctx context.Context, code string) (*models.TableSession, error) {
	session, err := m.GetSession(ctx, code)
	if err != nil {
		return nil, err
	}
	if !session.IsActive {
		return nil, ErrNotFound
	}
	return session, nil
}

func (m *MemoryStore) ListSessions(ctx context.Context, tableID string) ([]models.TableSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sessions []models.TableSession
	for _, s := range m.sessions {
		if s.TableID == tableID {
			sessions = append(sessions, s)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID > sessions[j].ID })
	return sessions, nil
}

func (m *MemoryStore) ActiveTableIDs(ctx context.Context) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	active := make(map[string]bool)
	for _, s := range m.sessions {
		if s.IsActive {
			active[s.TableID] = true
		}
	}
	return active, nil
}

func (m *MemoryStore) DeactivateSessions(ctx context.Context, tableID string, allHistorical bool, at time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deactivate(tableID, allHistorical, at), nil
}

func (m *MemoryStore) deactivate(tableID string, allHistorical bool, at time.Time) []string {
	var codes []string
	for code, s := range m.sessions {
		if s.TableID != tableID || (!allHistorical && !s.IsActive) {
			continue
		}
		// sudah berakhir sepenuhnya, tidak ada yang berubah
		if !s.IsActive && s.EndedAt != nil {
			continue
		}
		s.IsActive = false
		if s.EndedAt == nil {
			ended := at
			s.EndedAt = &ended
		}
		m.sessions[code] = s
		codes = append(codes, code)
		m.record(models.EntitySession, code, models.ChangeUpdate)
	}
	sort.Strings(codes)
	return codes
}

func (m *MemoryStore) SaveCustomer(ctx context.Context, customer *models.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.customers[customer.SessionCode]; exists {
		return ErrDuplicate
	}
	customer.ID = m.id()
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now()
	}
	m.customers[customer.SessionCode] = *customer
	return nil
}

func (m *MemoryStore) GetCustomer(ctx context.Context, code string) (*models.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	customer, ok := m.customers[code]
	if !ok {
		return nil, ErrNotFound
	}
	return &customer, nil
}

// ------------------------------------------------------------------ menu

func (m *MemoryStore) CreateMenuItem(ctx context.Context, item *models.Menu) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.ID = m.id()
	now := time.Now()
	item.CreatedAt, item.UpdatedAt = now, now
	m.menus[item.ID] = *item
	return nil
}

func (m *MemoryStore) GetMenuItem(ctx context.Context, id uint) (*models.Menu, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.menus[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &item, nil
}

func (m *MemoryStore) ListMenuItems(ctx context.Context, onlyAvailable bool) ([]models.Menu, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]models.Menu, 0, len(m.menus))
	for _, item := range m.menus {
		if onlyAvailable && !item.Available {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return items[i].Category < items[j].Category
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

// ------------------------------------------------------------------ cart

func (m *MemoryStore) ListCartItems(ctx context.Context, sessionID string) ([]models.CartItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]models.CartItem, 0, len(m.carts[sessionID]))
	for _, item := range m.carts[sessionID] {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (m *MemoryStore) GetCartItem(ctx context.Context, sessionID string, menuItemID uint) (*models.CartItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.carts[sessionID][menuItemID]
	if !ok {
		return nil, ErrNotFound
	}
	return &item, nil
}

func (m *MemoryStore) SaveCartItem(ctx context.Context, item *models.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines, ok := m.carts[item.SessionID]
	if !ok {
		lines = make(map[uint]models.CartItem)
		m.carts[item.SessionID] = lines
	}
	now := time.Now()
	if existing, ok := lines[item.MenuItemID]; ok {
		item.ID = existing.ID
		item.CreatedAt = existing.CreatedAt
	} else {
		item.ID = m.id()
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	lines[item.MenuItemID] = *item
	m.record(models.EntityCart, item.SessionID, models.ChangeUpdate)
	return nil
}

func (m *MemoryStore) DeleteCartItem(ctx context.Context, sessionID string, menuItemID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts[sessionID], menuItemID)
	m.record(models.EntityCart, sessionID, models.ChangeDelete)
	return nil
}

func (m *MemoryStore) ClearCart(ctx context.Context, sessionIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range sessionIDs {
		delete(m.carts, id)
		m.record(models.EntityCart, id, models.ChangeDelete)
	}
	return nil
}

// ---------------------------------------------------------------- orders

func cloneOrder(o models.Order) models.Order {
	o.OrderItems = append([]models.OrderItem(nil), o.OrderItems...)
	return o
}

func (m *MemoryStore) CreateOrder(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order.ID = m.id()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	order.UpdatedAt = order.CreatedAt
	for i := range order.OrderItems {
		order.OrderItems[i].ID = m.id()
		order.OrderItems[i].OrderID = order.ID
		order.OrderItems[i].CreatedAt = order.CreatedAt
	}
	m.orders[order.ID] = cloneOrder(*order)
	m.record(models.EntityOrder, orderKey(order.ID), models.ChangeInsert)
	return nil
}

func (m *MemoryStore) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	order = cloneOrder(order)
	return &order, nil
}

func (m *MemoryStore) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var orders []models.Order
	for _, o := range m.orders {
		if !filter.IncludeArchived && o.Status == models.OrderStatusArchived {
			continue
		}
		if filter.TableNumber != "" && o.TableNumber != filter.TableNumber {
			continue
		}
		if filter.SessionCode != "" && (o.SessionCode == nil || *o.SessionCode != filter.SessionCode) {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		orders = append(orders, cloneOrder(o))
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

func (m *MemoryStore) UpdateOrderStatus(ctx context.Context, id uint, from, to models.OrderStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	if order.Status != from {
		return ErrStale
	}
	order.Status = to
	order.UpdatedAt = at
	m.orders[id] = order
	m.record(models.EntityOrder, orderKey(id), models.ChangeUpdate)
	return nil
}

func (m *MemoryStore) ReplaceOrderItems(ctx context.Context, id uint, items []models.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	for i := range items {
		items[i].ID = m.id()
		items[i].OrderID = id
		items[i].CreatedAt = now
	}
	order.OrderItems = append([]models.OrderItem(nil), items...)
	order.Total = models.ComputeTotal(items)
	order.UpdatedAt = now
	m.orders[id] = order
	m.record(models.EntityOrder, orderKey(id), models.ChangeUpdate)
	return nil
}

// ----------------------------------------------------------------- users

func (m *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(user.Email)
	if _, exists := m.users[key]; exists {
		return ErrDuplicate
	}
	user.ID = m.id()
	m.users[key] = *user
	return nil
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m *MemoryStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if user.ID == id {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

// ----------------------------------------------------------- change feed

func (m *MemoryStore) PendingChanges(ctx context.Context, limit int) ([]models.DBChange, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var pending []models.DBChange
	for _, c := range m.changes {
		if c.Processed {
			continue
		}
		pending = append(pending, c)
		if len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (m *MemoryStore) MarkChangesProcessed(ctx context.Context, ids []uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	done := make(map[uint]bool, len(ids))
	for _, id := range ids {
		done[id] = true
	}
	kept := m.changes[:0]
	for _, c := range m.changes {
		if !done[c.ID] {
			kept = append(kept, c)
		}
	}
	m.changes = kept
	return nil
}
