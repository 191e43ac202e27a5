package main

import (
	"github.com/NotCoffee418/emu_power/pkg/entities"
	"github.com/NotCoffee418/emu_power/pkg/readingdb"
	"github.com/NotCoffee418/emu_power/pkg/types"
	"github.com/NotCoffee418/emu_power/pkg/units"
	"github.com/rs/zerolog/log"
)

// storeUpdate writes the readings we keep history for. Other kinds are ignored.
func storeUpdate(update *types.EntityUpdate) (bool, error) {
	switch update.Kind {
	case entities.KindInstantaneousDemand:
		rec, err := update.Demand()
		if err != nil {
			return false, err
		}
		return readingdb.InsertDemandReading(&readingdb.DemandReading{
			Timestamp:  entities.FromDeviceTime(rec.TimeStamp).Unix(),
			MeterMacId: rec.MeterMacId,
			Watt:       units.KwToW(rec.Reading),
			Checksum:   update.Checksum,
		})

	case entities.KindCurrentSummationDelivered:
		rec, err := update.Summation()
		if err != nil {
			return false, err
		}
		return readingdb.InsertSummationReading(&readingdb.SummationReading{
			Timestamp:   entities.FromDeviceTime(rec.TimeStamp).Unix(),
			MeterMacId:  rec.MeterMacId,
			DeliveredWh: units.KwhToWh(rec.Reading),
			ReceivedWh:  units.KwhToWh(rec.Scale(rec.SummationReceived)),
			Checksum:    update.Checksum,
		})

	case entities.KindPriceCluster:
		rec, err := update.Price()
		if err != nil {
			return false, err
		}
		return readingdb.InsertPriceReading(&readingdb.PriceReading{
			Timestamp:      entities.FromDeviceTime(rec.TimeStamp).Unix(),
			MeterMacId:     rec.MeterMacId,
			Price:          rec.Price,
			TrailingDigits: rec.TrailingDigits,
			Currency:       rec.Currency,
			Tier:           rec.Tier,
			Checksum:       update.Checksum,
		})
	}
	return false, nil
}

func handleEntityUpdate(update *types.EntityUpdate) {
	written, err := storeUpdate(update)
	if err != nil {
		log.Error().Err(err).Str("kind", string(update.Kind)).Msg("Failed to store reading")
		return
	}
	if written {
		log.Debug().Str("kind", string(update.Kind)).Msg("Stored reading")
	}
}
