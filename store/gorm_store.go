package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/juliosud/yummo4-sub000/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	DB *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// Models lists every row type owned by the store, in migration order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Table{},
		&models.TableSession{},
		&models.Customer{},
		&models.Menu{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.DBChange{},
	}
}

// AutoMigrate creates or updates every table the store needs.
func (s *GormStore) AutoMigrate() error {
	return s.DB.AutoMigrate(Models()...)
}

func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrStale), errors.Is(err, ErrDuplicate):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return fmt.Errorf("%w: %s", ErrDuplicate, op)
	default:
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	}
}

// isUniqueViolation catches drivers opened without TranslateError.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}

func recordChange(tx *gorm.DB, entity, key, action string) error {
	return tx.Create(&models.DBChange{
		Entity:     entity,
		RecordKey:  key,
		ActionType: action,
		ChangedAt:  time.Now(),
	}).Error
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return translate("ping", err)
	}
	return translate("ping", sqlDB.PingContext(ctx))
}

// ---------------------------------------------------------------- tables

func (s *GormStore) CreateTable(ctx context.Context, table *models.Table) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(table).Error; err != nil {
			return err
		}
		return recordChange(tx, models.EntityTable, table.TableID, models.ChangeInsert)
	})
	return translate("create table", err)
}

func (s *GormStore) GetTable(ctx context.Context, tableID string) (*models.Table, error) {
	var table models.Table
	if err := s.DB.WithContext(ctx).First(&table, "table_id = ?", tableID).Error; err != nil {
		return nil, translate("get table", err)
	}
	return &table, nil
}

func (s *GormStore) ListTables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	if err := s.DB.WithContext(ctx).Order("table_id asc").Find(&tables).Error; err != nil {
		return nil, translate("list tables", err)
	}
	return tables, nil
}

func (s *GormStore) UpdateTableStatus(ctx context.Context, tableID, status string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Table{}).Where("table_id = ?", tableID).
			Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return recordChange(tx, models.EntityTable, tableID, models.ChangeUpdate)
	})
	return translate("update table status", err)
}

func (s *GormStore) DeleteTable(ctx context.Context, tableID string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("table_id = ?", tableID).Delete(&models.Table{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return recordChange(tx, models.EntityTable, tableID, models.ChangeDelete)
	})
	return translate("delete table", err)
}

// -------------------------------------------------------------- sessions

func (s *GormStore) CreateSession(ctx context.Context, session *models.TableSession, deactivatePrior bool) error {
	session.IsActive = true
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if deactivatePrior {
			if _, err := deactivate(tx, session.TableID, false, session.CreatedAt); err != nil {
				return err
			}
		}
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		return recordChange(tx, models.EntitySession, session.SessionCode, models.ChangeInsert)
	})
	return translate("create session", err)
}

func (s *GormStore) GetSession(ctx context.Context, code string) (*models.TableSession, error) {
	var session models.TableSession
	if err := s.DB.WithContext(ctx).First(&session, "session_code = ?", code).Error; err != nil {
		return nil, translate("get session", err)
	}
	return &session, nil
}

func (s *GormStore) GetActiveSession(ctx context.Context, code string) (*models.TableSession, error) {
	var session models.TableSession
	err := s.DB.WithContext(ctx).
		Where("session_code = ? AND is_active = ?", code, true).
		First(&session).Error
	if err != nil {
		return nil, translate("get active session", err)
	}
	return &session, nil
}

func (s *GormStore) ListSessions(ctx context.Context, tableID string) ([]models.TableSession, error) {
	var sessions []models.TableSession
	err := s.DB.WithContext(ctx).
		Where("table_id = ?", tableID).
		Order("created_at desc, id desc").
		Find(&sessions).Error
	if err != nil {
		return nil, translate("list sessions", err)
	}
	return sessions, nil
}

func (s *GormStore) ActiveTableIDs(ctx context.Context) (map[string]bool, error) {
	var ids []string
	err := s.DB.WithContext(ctx).Model(&models.TableSession{}).
		Where("is_active = ?", true).
		Distinct().
		Pluck("table_id", &ids).Error
	if err != nil {
		return nil, translate("active tables", err)
	}
	active := make(map[string]bool, len(ids))
	for _, id := range ids {
		active[id] = true
	}
	return active, nil
}

func (s *GormStore) DeactivateSessions(ctx context.Context, tableID string, allHistorical bool, at time.Time) ([]string, error) {
	var codes []string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		codes, err = deactivate(tx, tableID, allHistorical, at)
		return err
	})
	if err != nil {
		return nil, translate("deactivate sessions", err)
	}
	return codes, nil
}

func deactivate(tx *gorm.DB, tableID string, allHistorical bool, at time.Time) ([]string, error) {
	scope := func() *gorm.DB {
		q := tx.Model(&models.TableSession{}).Where("table_id = ?", tableID)
		if !allHistorical {
			q = q.Where("is_active = ?", true)
		}
		return q
	}

	// hanya baris yang benar-benar berubah; mengakhiri ulang adalah no-op
	var codes []string
	if err := scope().Where("is_active = ? OR ended_at IS NULL", true).
		Order("session_code").Pluck("session_code", &codes).Error; err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return nil, nil
	}

	// ended_at pertama dipertahankan untuk sesi yang sudah berakhir
	if err := scope().Where("ended_at IS NULL").Update("ended_at", at).Error; err != nil {
		return nil, err
	}
	if err := scope().Where("is_active = ?", true).Update("is_active", false).Error; err != nil {
		return nil, err
	}
	for _, code := range codes {
		if err := recordChange(tx, models.EntitySession, code, models.ChangeUpdate); err != nil {
			return nil, err
		}
	}
	return codes, nil
}

func (s *GormStore) SaveCustomer(ctx context.Context, customer *models.Customer) error {
	return translate("save customer", s.DB.WithContext(ctx).Create(customer).Error)
}

func (s *GormStore) GetCustomer(ctx context.Context, code string) (*models.Customer, error) {
	var customer models.Customer
	if err := s.DB.WithContext(ctx).First(&customer, "session_code = ?", code).Error; err != nil {
		return nil, translate("get customer", err)
	}
	return &customer, nil
}

// ------------------------------------------------------------------ menu

func (s *GormStore) CreateMenuItem(ctx context.Context, item *models.Menu) error {
	return translate("create menu item", s.DB.WithContext(ctx).Create(item).Error)
}

func (s *GormStore) GetMenuItem(ctx context.Context, id uint) (*models.Menu, error) {
	var item models.Menu
	if err := s.DB.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, translate("get menu item", err)
	}
	return &item, nil
}

func (s *GormStore) ListMenuItems(ctx context.Context, onlyAvailable bool) ([]models.Menu, error) {
	var items []models.Menu
	q := s.DB.WithContext(ctx).Order("category asc, name asc")
	if onlyAvailable {
		q = q.Where("available = ?", true)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, translate("list menu items", err)
	}
	return items, nil
}

// ------------------------------------------------------------------ cart

func (s *GormStore) ListCartItems(ctx context.Context, sessionID string) ([]models.CartItem, error) {
	var items []models.CartItem
	err := s.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at asc, id asc").
		Find(&items).Error
	if err != nil {
		return nil, translate("list cart items", err)
	}
	return items, nil
}

func (s *GormStore) GetCartItem(ctx context.Context, sessionID string, menuItemID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := s.DB.WithContext(ctx).
		Where("session_id = ? AND menu_item_id = ?", sessionID, menuItemID).
		First(&item).Error
	if err != nil {
		return nil, translate("get cart item", err)
	}
	return &item, nil
}

func (s *GormStore) SaveCartItem(ctx context.Context, item *models.CartItem) error {
	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "menu_item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "price", "item_name", "item_image", "updated_at"}),
		}).Create(item).Error
		if err != nil {
			return err
		}
		return recordChange(tx, models.EntityCart, item.SessionID, models.ChangeUpdate)
	})
	return translate("save cart item", err)
}

func (s *GormStore) DeleteCartItem(ctx context.Context, sessionID string, menuItemID uint) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("session_id = ? AND menu_item_id = ?", sessionID, menuItemID).
			Delete(&models.CartItem{}).Error
		if err != nil {
			return err
		}
		return recordChange(tx, models.EntityCart, sessionID, models.ChangeDelete)
	})
	return translate("delete cart item", err)
}

func (s *GormStore) ClearCart(ctx context.Context, sessionIDs ...string) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id IN ?", sessionIDs).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		for _, id := range sessionIDs {
			if err := recordChange(tx, models.EntityCart, id, models.ChangeDelete); err != nil {
				return err
			}
		}
		return nil
	})
	return translate("clear cart", err)
}

// ---------------------------------------------------------------- orders

func (s *GormStore) CreateOrder(ctx context.Context, order *models.Order) error {
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = order.CreatedAt
	for i := range order.OrderItems {
		order.OrderItems[i].CreatedAt = order.CreatedAt
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		return recordChange(tx, models.EntityOrder, orderKey(order.ID), models.ChangeInsert)
	})
	return translate("create order", err)
}

func (s *GormStore) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.DB.WithContext(ctx).
		Preload("OrderItems", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		First(&order, id).Error
	if err != nil {
		return nil, translate("get order", err)
	}
	return &order, nil
}

func (s *GormStore) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	q := s.DB.WithContext(ctx).
		Preload("OrderItems", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") })
	if !filter.IncludeArchived {
		q = q.Where("status <> ?", models.OrderStatusArchived)
	}
	if filter.TableNumber != "" {
		q = q.Where("table_number = ?", filter.TableNumber)
	}
	if filter.SessionCode != "" {
		q = q.Where("session_code = ?", filter.SessionCode)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var orders []models.Order
	if err := q.Order("created_at asc, id asc").Find(&orders).Error; err != nil {
		return nil, translate("list orders", err)
	}
	return orders, nil
}

func (s *GormStore) UpdateOrderStatus(ctx context.Context, id uint, from, to models.OrderStatus, at time.Time) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, from).
			Updates(map[string]interface{}{"status": to, "updated_at": at})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrNotFound
			}
			return ErrStale
		}
		return recordChange(tx, models.EntityOrder, orderKey(id), models.ChangeUpdate)
	})
	return translate("update order status", err)
}

func (s *GormStore) ReplaceOrderItems(ctx context.Context, id uint, items []models.OrderItem) error {
	now := time.Now()
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, id).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ID = 0
			items[i].OrderID = id
			items[i].CreatedAt = now
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		err := tx.Model(&order).Updates(map[string]interface{}{
			"total":      models.ComputeTotal(items),
			"updated_at": now,
		}).Error
		if err != nil {
			return err
		}
		return recordChange(tx, models.EntityOrder, orderKey(id), models.ChangeUpdate)
	})
	return translate("replace order items", err)
}

func orderKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// ----------------------------------------------------------------- users

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return translate("create user", s.DB.WithContext(ctx).Create(user).Error)
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate("get user", err)
	}
	return &user, nil
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate("get user", err)
	}
	return &user, nil
}

// ----------------------------------------------------------- change feed

func (s *GormStore) PendingChanges(ctx context.Context, limit int) ([]models.DBChange, error) {
	var changes []models.DBChange
	err := s.DB.WithContext(ctx).
		Where("processed = ?", false).
		Order("id asc").
		Limit(limit).
		Find(&changes).Error
	if err != nil {
		return nil, translate("pending changes", err)
	}
	return changes, nil
}

func (s *GormStore) MarkChangesProcessed(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.DB.WithContext(ctx).Model(&models.DBChange{}).
		Where("id IN ?", ids).
		Update("processed", true).Error
	return translate("mark changes processed", err)
}
