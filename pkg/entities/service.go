package entities

import (
	"sort"
	"strings"
	"time"

	"github.com/NotCoffee418/emu_power/pkg/wire"
)

// Device clocks count seconds from 2000-01-01 UTC.
var deviceEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// FromDeviceTime converts device epoch seconds to time.Time.
func FromDeviceTime(seconds uint64) time.Time {
	return deviceEpoch.Add(time.Duration(seconds) * time.Second)
}

// ToDeviceTime is the inverse of FromDeviceTime. Times before the epoch map to 0.
func ToDeviceTime(t time.Time) uint64 {
	if t.Before(deviceEpoch) {
		return 0
	}
	return uint64(t.Sub(deviceEpoch) / time.Second)
}

// Catalogue maps each supported kind to its extraction.
var Catalogue = map[Kind]Descriptor{}

func register(kind Kind, parse func(f fields) Record) {
	Catalogue[kind] = Descriptor{
		Kind: kind,
		Parse: func(msg wire.Message) Record {
			return parse(fields{msg})
		},
	}
}

// Classify looks up the descriptor for a root element name.
func Classify(kind string) (Descriptor, bool) {
	d, ok := Catalogue[Kind(kind)]
	return d, ok
}

// Parse classifies and extracts msg in one step.
func Parse(msg wire.Message) (Record, bool) {
	d, ok := Classify(msg.Kind)
	if !ok {
		return nil, false
	}
	return d.Parse(msg), true
}

// Kinds lists every supported kind in name order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(Catalogue))
	for k := range Catalogue {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// fields reads optional values off a message. Missing or unparseable values are zero.
type fields struct {
	msg wire.Message
}

func (f fields) text(name string) string {
	v, _ := f.msg.Text(name)
	return strings.TrimSpace(v)
}

func (f fields) hex(name string) uint64 {
	v, err := wire.ParseHex(f.text(name))
	if err != nil {
		return 0
	}
	return v
}

func (f fields) common() Common {
	return Common{DeviceMacId: f.text("DeviceMacId")}
}

func (f fields) metering() Metering {
	return Metering{
		Multiplier:          f.hex("Multiplier"),
		Divisor:             f.hex("Divisor"),
		DigitsRight:         f.hex("DigitsRight"),
		DigitsLeft:          f.hex("DigitsLeft"),
		SuppressLeadingZero: f.text("SuppressLeadingZero"),
	}
}

func init() {
	register(KindConnectionStatus, func(f fields) Record {
		return ConnectionStatus{
			Common:       f.common(),
			MeterMacId:   f.text("MeterMacId"),
			Status:       f.text("Status"),
			Description:  f.text("Description"),
			StatusCode:   f.text("StatusCode"),
			ExtPanId:     f.text("ExtPanId"),
			Channel:      f.text("Channel"),
			ShortAddr:    f.text("ShortAddr"),
			LinkStrength: f.text("LinkStrength"),
		}
	})
	register(KindDeviceInfo, func(f fields) Record {
		return DeviceInfo{
			Common:       f.common(),
			InstallCode:  f.text("InstallCode"),
			LinkKey:      f.text("LinkKey"),
			FWVersion:    f.text("FWVersion"),
			HWVersion:    f.text("HWVersion"),
			ImageType:    f.text("ImageType"),
			Manufacturer: f.text("Manufacturer"),
			ModelId:      f.text("ModelId"),
			DateCode:     f.text("DateCode"),
		}
	})
	register(KindScheduleInfo, func(f fields) Record {
		return ScheduleInfo{
			Common:     f.common(),
			MeterMacId: f.text("MeterMacId"),
			Event:      f.text("Event"),
			Frequency:  f.text("Frequency"),
			Enabled:    f.text("Enabled"),
		}
	})
	register(KindMeterList, func(f fields) Record {
		var macs []string
		for _, mac := range f.msg.All("MeterMacId") {
			macs = append(macs, strings.TrimSpace(mac))
		}
		return MeterList{Common: f.common(), MeterMacIds: macs}
	})
	register(KindMeterInfo, func(f fields) Record {
		return MeterInfo{
			Common:     f.common(),
			MeterMacId: f.text("MeterMacId"),
			MeterType:  f.text("MeterType"),
			NickName:   f.text("NickName"),
			Account:    f.text("Account"),
			Auth:       f.text("Auth"),
			Host:       f.text("Host"),
			Enabled:    f.text("Enabled"),
		}
	})
	register(KindNetworkInfo, func(f fields) Record {
		return NetworkInfo{
			Common:       f.common(),
			CoordMacId:   f.text("CoordMacId"),
			Status:       f.text("Status"),
			Description:  f.text("Description"),
			StatusCode:   f.text("StatusCode"),
			ExtPanId:     f.text("ExtPanId"),
			Channel:      f.text("Channel"),
			ShortAddr:    f.text("ShortAddr"),
			LinkStrength: f.text("LinkStrength"),
		}
	})
	register(KindTimeCluster, func(f fields) Record {
		return TimeCluster{
			Common:     f.common(),
			MeterMacId: f.text("MeterMacId"),
			UTCTime:    f.hex("UTCTime"),
			LocalTime:  f.hex("LocalTime"),
		}
	})
	register(KindMessageCluster, func(f fields) Record {
		return MessageCluster{
			Common:               f.common(),
			MeterMacId:           f.text("MeterMacId"),
			TimeStamp:            f.hex("TimeStamp"),
			Id:                   f.text("Id"),
			Text:                 f.text("Text"),
			ConfirmationRequired: f.text("ConfirmationRequired"),
			Confirmed:            f.text("Confirmed"),
			Queue:                f.text("Queue"),
		}
	})
	register(KindPriceCluster, func(f fields) Record {
		return PriceCluster{
			Common:         f.common(),
			MeterMacId:     f.text("MeterMacId"),
			TimeStamp:      f.hex("TimeStamp"),
			Price:          f.hex("Price"),
			Currency:       f.hex("Currency"),
			TrailingDigits: f.hex("TrailingDigits"),
			Tier:           f.text("Tier"),
			TierLabel:      f.text("TierLabel"),
			RateLabel:      f.text("RateLabel"),
		}
	})
	register(KindInstantaneousDemand, func(f fields) Record {
		m := f.metering()
		demand := f.hex("Demand")
		return InstantaneousDemand{
			Common:     f.common(),
			Metering:   m,
			MeterMacId: f.text("MeterMacId"),
			TimeStamp:  f.hex("TimeStamp"),
			Demand:     demand,
			Reading:    m.Scale(demand),
		}
	})
	register(KindCurrentSummationDelivered, func(f fields) Record {
		m := f.metering()
		delivered := f.hex("SummationDelivered")
		return CurrentSummationDelivered{
			Common:             f.common(),
			Metering:           m,
			MeterMacId:         f.text("MeterMacId"),
			TimeStamp:          f.hex("TimeStamp"),
			SummationDelivered: delivered,
			SummationReceived:  f.hex("SummationReceived"),
			Reading:            m.Scale(delivered),
		}
	})
	register(KindCurrentPeriodUsage, func(f fields) Record {
		m := f.metering()
		usage := f.hex("CurrentUsage")
		return CurrentPeriodUsage{
			Common:       f.common(),
			Metering:     m,
			MeterMacId:   f.text("MeterMacId"),
			TimeStamp:    f.hex("TimeStamp"),
			CurrentUsage: usage,
			StartDate:    f.hex("StartDate"),
			Reading:      m.Scale(usage),
		}
	})
	register(KindLastPeriodUsage, func(f fields) Record {
		m := f.metering()
		usage := f.hex("LastUsage")
		return LastPeriodUsage{
			Common:     f.common(),
			Metering:   m,
			MeterMacId: f.text("MeterMacId"),
			LastUsage:  usage,
			StartDate:  f.hex("StartDate"),
			EndDate:    f.hex("EndDate"),
			Reading:    m.Scale(usage),
		}
	})
	register(KindProfileData, func(f fields) Record {
		return ProfileData{
			Common:                   f.common(),
			MeterMacId:               f.text("MeterMacId"),
			EndTime:                  f.hex("EndTime"),
			Status:                   f.text("Status"),
			ProfileIntervalPeriod:    f.text("ProfileIntervalPeriod"),
			NumberOfPeriodsDelivered: f.text("NumberOfPeriodsDelivered"),
			IntervalData:             f.msg.All("IntervalData"),
		}
	})
}
