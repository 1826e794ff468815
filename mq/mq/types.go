package mq

import (
	"fmt"
	"slices"
)

// Table names the stored table a change happened in. It is the topic every
// queue routes on.
type Table string

const (
	TableVehicles   Table = "vehicles"
	TableTrips      Table = "trips"
	TableCurrencies Table = "currencies"
	TableFuelPrices Table = "fuel_prices"
)

// Tables lists every topic.
var Tables = []Table{TableVehicles, TableTrips, TableCurrencies, TableFuelPrices}

func (t Table) Valid() bool {
	return slices.Contains(Tables, t)
}

type Action int

const (
	ActionCreate Action = iota
	ActionUpdate
	ActionDelete
	ActionCnt
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// ChangeMessage announces that rows of Table changed. UserID is empty for
// tables shared by every user.
type ChangeMessage struct {
	Table  Table  `json:"table"`
	Action Action `json:"action"`
	UserID string `json:"userId,omitempty"`
	RowID  string `json:"rowId,omitempty"`
}

func (m ChangeMessage) GetTopic() string {
	return string(m.Table)
}
