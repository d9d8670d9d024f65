package services

import (
	"context"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/juliosud/yummo4-sub000/broker"
	"github.com/juliosud/yummo4-sub000/kds"
	"github.com/juliosud/yummo4-sub000/models"
	"github.com/juliosud/yummo4-sub000/store"
	"github.com/juliosud/yummo4-sub000/utils"
)

// ChangeMonitor polls the change feed and turns every change into a
// refetch hint for websocket clients and the broker.
type ChangeMonitor struct {
	Store     store.Store
	Publisher broker.Publisher
	StopChan  chan struct{}
	Interval  time.Duration
	BatchSize int
}

func NewChangeMonitor(s store.Store, publisher broker.Publisher) *ChangeMonitor {
	if publisher == nil {
		publisher = broker.NopPublisher{}
	}
	return &ChangeMonitor{
		Store:     s,
		Publisher: publisher,
		StopChan:  make(chan struct{}),
		Interval:  500 * time.Millisecond,
		BatchSize: 100,
	}
}

func (cm *ChangeMonitor) Start() {
	go func() {
		ticker := time.NewTicker(cm.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), cm.Interval*4)
				cm.Poll(ctx)
				cancel()
			case <-cm.StopChan:
				return
			}
		}
	}()
}

func (cm *ChangeMonitor) Stop() {
	close(cm.StopChan)
}

// Poll processes one batch of pending changes and returns how many were
// handled. Changes are marked processed even when a websocket or broker
// send fails; hints are best effort.
func (cm *ChangeMonitor) Poll(ctx context.Context) int {
	changes, err := cm.Store.PendingChanges(ctx, cm.BatchSize)
	if err != nil {
		utils.ErrorLogger.Errorf("Error fetching changes: %v", err)
		return 0
	}
	if len(changes) == 0 {
		return 0
	}

	ids := make([]uint, 0, len(changes))
	for _, change := range changes {
		hint := kds.Hint{Entity: change.Entity, Key: change.RecordKey, Action: change.ActionType}

		// Proses berdasarkan tipe tabel
		switch change.Entity {
		case models.EntityTable:
			cm.processTableChange(ctx, hint)
		case models.EntitySession:
			cm.processSessionChange(ctx, &hint)
		case models.EntityCart:
			kds.SendToSession(change.RecordKey, kds.Message{Event: kds.EventCartUpdate, Data: hint})
		case models.EntityOrder:
			cm.processOrderChange(ctx, &hint)
		}

		if err := cm.Publisher.Publish(ctx, broker.RoutingKey(change.Entity, change.ActionType), hint); err != nil {
			utils.ErrorLogger.WithField("change", change.ID).Errorf("Error publishing change: %v", err)
		}
		ids = append(ids, change.ID)
	}

	if err := cm.Store.MarkChangesProcessed(ctx, ids); err != nil {
		utils.ErrorLogger.Errorf("Error marking changes as processed: %v", err)
		return 0
	}
	utils.InfoLogger.WithField("changes", len(ids)).Debug("Processed change feed")
	return len(ids)
}

func (cm *ChangeMonitor) processTableChange(ctx context.Context, hint kds.Hint) {
	if hint.Action == models.ChangeDelete {
		kds.BroadcastTableDelete(hint.Key)
		return
	}

	table, err := cm.Store.GetTable(ctx, hint.Key)
	if err != nil {
		utils.ErrorLogger.WithField("table", hint.Key).Errorf("Error fetching table: %v", err)
		return
	}
	if hint.Action == models.ChangeInsert {
		kds.BroadcastTableCreate(*table)
		return
	}
	kds.BroadcastTableUpdate(*table)
}

func (cm *ChangeMonitor) processSessionChange(ctx context.Context, hint *kds.Hint) {
	session, err := cm.Store.GetSession(ctx, hint.Key)
	if err != nil {
		utils.ErrorLogger.WithField("session", hint.Key).Errorf("Error fetching session: %v", err)
		kds.BroadcastMessage(kds.Message{Event: kds.EventSessionUpdate, Data: hint})
		return
	}
	hint.Table = session.TableID
	msg := kds.Message{Event: kds.EventSessionUpdate, Data: hint}
	kds.BroadcastMessage(msg)
	kds.SendToSession(DeriveSessionID(session.TableID, session.SessionCode), msg)
}

func (cm *ChangeMonitor) processOrderChange(ctx context.Context, hint *kds.Hint) {
	id, err := strconv.ParseUint(hint.Key, 10, 64)
	if err != nil {
		utils.ErrorLogger.WithField("order", hint.Key).Errorf("Invalid order key: %v", err)
		return
	}
	order, err := cm.Store.GetOrder(ctx, uint(id))
	if err != nil {
		utils.ErrorLogger.WithField("order", hint.Key).Errorf("Error fetching order: %v", err)
		return
	}
	hint.Table = order.TableNumber

	kds.BroadcastKitchenUpdate(hint)
	if order.SessionCode != nil {
		kds.SendToSession(DeriveSessionID(order.TableNumber, *order.SessionCode), kds.Message{Event: kds.EventOrderUpdate, Data: hint})
	}
	utils.InfoLogger.WithFields(logrus.Fields{"order": order.ID, "status": order.Status, "action": hint.Action}).Debug("Order change fanned out")
}
