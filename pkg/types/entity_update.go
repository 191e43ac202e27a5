package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/NotCoffee418/emu_power/pkg/entities"
	"github.com/NotCoffee418/emu_power/pkg/store"
)

// EntityUpdate is one stored entity as sent to websocket clients.
type EntityUpdate struct {
	Kind       entities.Kind   `json:"kind"`
	ReceivedAt time.Time       `json:"received_at"`
	Checksum   uint16          `json:"checksum"`
	Raw        string          `json:"raw"`
	Record     json.RawMessage `json:"record"`
}

func EntityUpdateFromEntity(e store.Entity) (*EntityUpdate, error) {
	record, err := json.Marshal(e.Record)
	if err != nil {
		return nil, fmt.Errorf("encode %s record: %w", e.Kind, err)
	}
	return &EntityUpdate{
		Kind:       e.Kind,
		ReceivedAt: e.ReceivedAt,
		Checksum:   e.Message.Checksum(),
		Raw:        string(e.Message.Raw),
		Record:     record,
	}, nil
}

func (u *EntityUpdate) ToJsonBytes() ([]byte, error) {
	return json.Marshal(u)
}

// EntityUpdateFromJsonBytes returns nil when data is not a valid update.
func EntityUpdateFromJsonBytes(data []byte) *EntityUpdate {
	var u EntityUpdate
	if err := json.Unmarshal(data, &u); err != nil || u.Kind == "" {
		return nil
	}
	return &u
}

// Demand decodes the record of an InstantaneousDemand update.
func (u *EntityUpdate) Demand() (*entities.InstantaneousDemand, error) {
	var rec entities.InstantaneousDemand
	return &rec, u.decode(entities.KindInstantaneousDemand, &rec)
}

// Summation decodes the record of a CurrentSummationDelivered update.
func (u *EntityUpdate) Summation() (*entities.CurrentSummationDelivered, error) {
	var rec entities.CurrentSummationDelivered
	return &rec, u.decode(entities.KindCurrentSummationDelivered, &rec)
}

// Price decodes the record of a PriceCluster update.
func (u *EntityUpdate) Price() (*entities.PriceCluster, error) {
	var rec entities.PriceCluster
	return &rec, u.decode(entities.KindPriceCluster, &rec)
}

func (u *EntityUpdate) decode(kind entities.Kind, into any) error {
	if u.Kind != kind {
		return fmt.Errorf("update is %s, not %s", u.Kind, kind)
	}
	return json.Unmarshal(u.Record, into)
}
