package store

import (
	"time"

	"github.com/NotCoffee418/emu_power/pkg/entities"
	"github.com/NotCoffee418/emu_power/pkg/wire"
)

// Entity is a parsed message of a known kind as held by the store.
// Values are copies; a new message of the same kind replaces the entry.
type Entity struct {
	Kind       entities.Kind
	Message    wire.Message
	Record     entities.Record
	Fresh      bool
	ReceivedAt time.Time
}
