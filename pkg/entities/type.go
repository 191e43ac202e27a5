package entities

import (
	"time"

	"github.com/NotCoffee418/emu_power/pkg/wire"
)

// Kind identifies a device message by its root element name.
type Kind string

const (
	KindConnectionStatus          Kind = "ConnectionStatus"
	KindDeviceInfo                Kind = "DeviceInfo"
	KindScheduleInfo              Kind = "ScheduleInfo"
	KindMeterList                 Kind = "MeterList"
	KindMeterInfo                 Kind = "MeterInfo"
	KindNetworkInfo               Kind = "NetworkInfo"
	KindTimeCluster               Kind = "TimeCluster"
	KindMessageCluster            Kind = "MessageCluster"
	KindPriceCluster              Kind = "PriceCluster"
	KindInstantaneousDemand       Kind = "InstantaneousDemand"
	KindCurrentSummationDelivered Kind = "CurrentSummationDelivered"
	KindCurrentPeriodUsage        Kind = "CurrentPeriodUsage"
	KindLastPeriodUsage           Kind = "LastPeriodUsage"
	KindProfileData               Kind = "ProfileData"
)

// Record is the typed content of a message of a known kind.
type Record interface {
	EntityKind() Kind
}

// Descriptor ties a kind to its field extraction.
type Descriptor struct {
	Kind  Kind
	Parse func(msg wire.Message) Record
}

// Common carries the fields every notification has.
type Common struct {
	DeviceMacId string `json:"device_mac_id"`
}

// Metering holds the scaling fields shared by the simple metering notifications.
type Metering struct {
	Multiplier          uint64 `json:"multiplier"`
	Divisor             uint64 `json:"divisor"`
	DigitsRight         uint64 `json:"digits_right"`
	DigitsLeft          uint64 `json:"digits_left"`
	SuppressLeadingZero string `json:"suppress_leading_zero"`
}

// Scale applies multiplier/divisor to a raw value. A zero divisor yields 0.
func (m Metering) Scale(value uint64) float64 {
	if m.Divisor == 0 {
		return 0
	}
	return float64(value) * float64(m.Multiplier) / float64(m.Divisor)
}

//
// Raven notifications
//

type ConnectionStatus struct {
	Common
	MeterMacId   string `json:"meter_mac_id"`
	Status       string `json:"status"`
	Description  string `json:"description"`
	StatusCode   string `json:"status_code"` // 0x00 to 0xFF
	ExtPanId     string `json:"ext_pan_id"`
	Channel      string `json:"channel"`       // 11 to 26
	ShortAddr    string `json:"short_addr"`    // 0x0000 to 0xFFFF
	LinkStrength string `json:"link_strength"` // 0x00 to 0x64
}

type DeviceInfo struct {
	Common
	InstallCode  string `json:"install_code"`
	LinkKey      string `json:"link_key"`
	FWVersion    string `json:"fw_version"`
	HWVersion    string `json:"hw_version"`
	ImageType    string `json:"image_type"`
	Manufacturer string `json:"manufacturer"`
	ModelId      string `json:"model_id"`
	DateCode     string `json:"date_code"`
}

type ScheduleInfo struct {
	Common
	MeterMacId string `json:"meter_mac_id"`
	Event      string `json:"event"`
	Frequency  string `json:"frequency"`
	Enabled    string `json:"enabled"`
}

type MeterList struct {
	Common
	MeterMacIds []string `json:"meter_mac_ids"`
}

//
// Meter notifications
//

type MeterInfo struct {
	Common
	MeterMacId string `json:"meter_mac_id"`
	MeterType  string `json:"meter_type"`
	NickName   string `json:"nick_name"`
	Account    string `json:"account"`
	Auth       string `json:"auth"`
	Host       string `json:"host"`
	Enabled    string `json:"enabled"`
}

type NetworkInfo struct {
	Common
	CoordMacId   string `json:"coord_mac_id"`
	Status       string `json:"status"`
	Description  string `json:"description"`
	StatusCode   string `json:"status_code"`
	ExtPanId     string `json:"ext_pan_id"`
	Channel      string `json:"channel"`
	ShortAddr    string `json:"short_addr"`
	LinkStrength string `json:"link_strength"`
}

//
// Time, message and price notifications
//

type TimeCluster struct {
	Common
	MeterMacId string `json:"meter_mac_id"`
	UTCTime    uint64 `json:"utc_time"`
	LocalTime  uint64 `json:"local_time"`
}

// UTC converts the device clock to wall time.
func (t TimeCluster) UTC() time.Time {
	return FromDeviceTime(t.UTCTime)
}

// Local is the meter's local clock expressed as if it were UTC.
func (t TimeCluster) Local() time.Time {
	return FromDeviceTime(t.LocalTime)
}

type MessageCluster struct {
	Common
	MeterMacId           string `json:"meter_mac_id"`
	TimeStamp            uint64 `json:"timestamp"`
	Id                   string `json:"id"`
	Text                 string `json:"text"`
	ConfirmationRequired string `json:"confirmation_required"`
	Confirmed            string `json:"confirmed"`
	Queue                string `json:"queue"`
}

type PriceCluster struct {
	Common
	MeterMacId     string `json:"meter_mac_id"`
	TimeStamp      uint64 `json:"timestamp"`
	Price          uint64 `json:"price"`
	Currency       uint64 `json:"currency"` // ISO-4217
	TrailingDigits uint64 `json:"trailing_digits"`
	Tier           string `json:"tier"`
	TierLabel      string `json:"tier_label"`
	RateLabel      string `json:"rate_label"`
}

// Amount is the price with its trailing digits applied.
func (p PriceCluster) Amount() float64 {
	amount := float64(p.Price)
	for i := uint64(0); i < p.TrailingDigits; i++ {
		amount /= 10
	}
	return amount
}

//
// Simple metering notifications
//

type InstantaneousDemand struct {
	Common
	Metering
	MeterMacId string  `json:"meter_mac_id"`
	TimeStamp  uint64  `json:"timestamp"`
	Demand     uint64  `json:"demand"`
	Reading    float64 `json:"reading"` // kW
}

type CurrentSummationDelivered struct {
	Common
	Metering
	MeterMacId         string  `json:"meter_mac_id"`
	TimeStamp          uint64  `json:"timestamp"`
	SummationDelivered uint64  `json:"summation_delivered"`
	SummationReceived  uint64  `json:"summation_received"`
	Reading            float64 `json:"reading"` // kWh
}

type CurrentPeriodUsage struct {
	Common
	Metering
	MeterMacId   string  `json:"meter_mac_id"`
	TimeStamp    uint64  `json:"timestamp"`
	CurrentUsage uint64  `json:"current_usage"`
	StartDate    uint64  `json:"start_date"`
	Reading      float64 `json:"reading"`
}

type LastPeriodUsage struct {
	Common
	Metering
	MeterMacId string  `json:"meter_mac_id"`
	LastUsage  uint64  `json:"last_usage"`
	StartDate  uint64  `json:"start_date"`
	EndDate    uint64  `json:"end_date"`
	Reading    float64 `json:"reading"`
}

type ProfileData struct {
	Common
	MeterMacId               string   `json:"meter_mac_id"`
	EndTime                  uint64   `json:"end_time"`
	Status                   string   `json:"status"`
	ProfileIntervalPeriod    string   `json:"profile_interval_period"`
	NumberOfPeriodsDelivered string   `json:"number_of_periods_delivered"`
	IntervalData             []string `json:"interval_data"`
}

func (ConnectionStatus) EntityKind() Kind          { return KindConnectionStatus }
func (DeviceInfo) EntityKind() Kind                { return KindDeviceInfo }
func (ScheduleInfo) EntityKind() Kind              { return KindScheduleInfo }
func (MeterList) EntityKind() Kind                 { return KindMeterList }
func (MeterInfo) EntityKind() Kind                 { return KindMeterInfo }
func (NetworkInfo) EntityKind() Kind               { return KindNetworkInfo }
func (TimeCluster) EntityKind() Kind               { return KindTimeCluster }
func (MessageCluster) EntityKind() Kind            { return KindMessageCluster }
func (PriceCluster) EntityKind() Kind              { return KindPriceCluster }
func (InstantaneousDemand) EntityKind() Kind       { return KindInstantaneousDemand }
func (CurrentSummationDelivered) EntityKind() Kind { return KindCurrentSummationDelivered }
func (CurrentPeriodUsage) EntityKind() Kind        { return KindCurrentPeriodUsage }
func (LastPeriodUsage) EntityKind() Kind           { return KindLastPeriodUsage }
func (ProfileData) EntityKind() Kind               { return KindProfileData }
