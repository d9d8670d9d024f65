package services

import "github.com/juliosud/yummo4-sub000/models"

// Actor is who asks for a status change.
type Actor string

const (
	ActorCustomer Actor = "customer"
	ActorStaff    Actor = "staff"
)

// OrderTransition is a single allowed edge of the order state machine.
type OrderTransition struct {
	From   models.OrderStatus
	To     models.OrderStatus
	Actors []Actor
}

var orderTransitions = []OrderTransition{
	// Kitchen path
	{From: models.OrderStatusPending, To: models.OrderStatusPreparing, Actors: []Actor{ActorCustomer, ActorStaff}},
	{From: models.OrderStatusPreparing, To: models.OrderStatusReady, Actors: []Actor{ActorStaff}},
	{From: models.OrderStatusReady, To: models.OrderStatusCompleted, Actors: []Actor{ActorStaff, ActorCustomer}},

	// Served at the counter without a ready call
	{From: models.OrderStatusPreparing, To: models.OrderStatusCompleted, Actors: []Actor{ActorStaff}},

	{From: models.OrderStatusCompleted, To: models.OrderStatusArchived, Actors: []Actor{ActorStaff}},
}

// CanTransition reports whether actor may move an order from one status to another.
func CanTransition(from, to models.OrderStatus, actor Actor) bool {
	for _, tr := range orderTransitions {
		if tr.From != from || tr.To != to {
			continue
		}
		for _, a := range tr.Actors {
			if a == actor {
				return true
			}
		}
	}
	return false
}

// AllowedTransitions lists the statuses actor can move an order to from from.
func AllowedTransitions(from models.OrderStatus, actor Actor) []models.OrderStatus {
	var next []models.OrderStatus
	for _, tr := range orderTransitions {
		if tr.From == from && CanTransition(tr.From, tr.To, actor) {
			next = append(next, tr.To)
		}
	}
	return next
}
