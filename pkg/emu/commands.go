package emu

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/NotCoffee418/emu_power/pkg/entities"
	"github.com/NotCoffee418/emu_power/pkg/store"
	"github.com/NotCoffee418/emu_power/pkg/wire"
)

// Events accepted by the schedule commands.
var Events = []string{
	"time", "summation", "billing_period", "block_period",
	"message", "price", "scheduled_prices", "demand",
}

func checkEvent(event *string, allowNone bool) error {
	if event == nil {
		if allowNone {
			return nil
		}
		return fmt.Errorf("%w: event is required", ErrInvalidEvent)
	}
	if !slices.Contains(Events, *event) {
		return fmt.Errorf("%w: %q", ErrInvalidEvent, *event)
	}
	return nil
}

func (s *Session) send(ctx context.Context, name string, params ...wire.Param) error {
	_, err := s.IssueCommand(ctx, wire.NewCommand(name, params...), "")
	return err
}

func (s *Session) query(ctx context.Context, name string, expected entities.Kind, params ...wire.Param) (*store.Entity, error) {
	return s.IssueCommand(ctx, wire.NewCommand(name, params...), expected)
}

func refreshParam(refresh bool) wire.Param {
	return wire.Opt("Refresh", wire.FormatYN(&refresh))
}

//
// Raven commands
//

func (s *Session) Restart(ctx context.Context) error {
	return s.send(ctx, "restart")
}

// FactoryReset decommissions the device.
func (s *Session) FactoryReset(ctx context.Context) error {
	return s.send(ctx, "factory_reset")
}

func (s *Session) GetConnectionStatus(ctx context.Context) (*store.Entity, error) {
	return s.query(ctx, "get_connection_status", entities.KindConnectionStatus)
}

func (s *Session) GetDeviceInfo(ctx context.Context) (*store.Entity, error) {
	return s.query(ctx, "get_device_info", entities.KindDeviceInfo)
}

func (s *Session) GetSchedule(ctx context.Context, mac, event *string) (*store.Entity, error) {
	if err := checkEvent(event, true); err != nil {
		return nil, err
	}
	return s.query(ctx, "get_schedule", entities.KindScheduleInfo,
		wire.Opt("MeterMacId", mac),
		wire.Opt("Event", event),
	)
}

func (s *Session) SetSchedule(ctx context.Context, mac *string, event string, frequency uint64, enabled bool) error {
	if err := checkEvent(&event, false); err != nil {
		return err
	}
	return s.send(ctx, "set_schedule",
		wire.Opt("MeterMacId", mac),
		wire.Set("Event", event),
		wire.Set("Frequency", wire.FormatHex(frequency, 8)),
		wire.Opt("Enabled", wire.FormatYN(&enabled)),
	)
}

func (s *Session) SetScheduleDefault(ctx context.Context, mac, event *string) error {
	if err := checkEvent(event, true); err != nil {
		return err
	}
	return s.send(ctx, "set_schedule_default",
		wire.Opt("MeterMacId", mac),
		wire.Opt("Event", event),
	)
}

func (s *Session) GetMeterList(ctx context.Context) (*store.Entity, error) {
	return s.query(ctx, "get_meter_list", entities.KindMeterList)
}

//
// Meter commands
//

func (s *Session) GetMeterInfo(ctx context.Context, mac *string) (*store.Entity, error) {
	return s.query(ctx, "get_meter_info", entities.KindMeterInfo, wire.Opt("MeterMacId", mac))
}

func (s *Session) GetNetworkInfo(ctx context.Context) (*store.Entity, error) {
	return s.query(ctx, "get_network_info", entities.KindNetworkInfo)
}

// MeterInfoUpdate holds the optional fields of set_meter_info. Nil fields are not sent.
type MeterInfoUpdate struct {
	MeterMacId *string
	NickName   *string
	Account    *string
	Auth       *string
	Host       *string
	Enabled    *bool
}

func (s *Session) SetMeterInfo(ctx context.Context, update MeterInfoUpdate) error {
	return s.send(ctx, "set_meter_info",
		wire.Opt("MeterMacId", update.MeterMacId),
		wire.Opt("NickName", update.NickName),
		wire.Opt("Account", update.Account),
		wire.Opt("Auth", update.Auth),
		wire.Opt("Host", update.Host),
		wire.Opt("Enabled", wire.FormatYN(update.Enabled)),
	)
}

//
// Time and message commands
//

func (s *Session) GetTime(ctx context.Context, mac *string, refresh bool) (*store.Entity, error) {
	return s.query(ctx, "get_time", entities.KindTimeCluster, wire.Opt("MeterMacId", mac), refreshParam(refresh))
}

func (s *Session) GetMessage(ctx context.Context, mac *string, refresh bool) (*store.Entity, error) {
	return s.query(ctx, "get_message", entities.KindMessageCluster, wire.Opt("MeterMacId", mac), refreshParam(refresh))
}

func (s *Session) ConfirmMessage(ctx context.Context, mac *string, messageId *uint64) error {
	if messageId == nil {
		return fmt.Errorf("%w: message id", ErrMissingParameter)
	}
	return s.send(ctx, "confirm_message",
		wire.Opt("MeterMacId", mac),
		wire.Set("Id", wire.FormatHex(*messageId, 8)),
	)
}

//
// Price commands
//

func (s *Session) GetCurrentPrice(ctx context.Context, mac *string, refresh bool) (*store.Entity, error) {
	return s.query(ctx, "get_current_price", entities.KindPriceCluster, wire.Opt("MeterMacId", mac), refreshParam(refresh))
}

// SetCurrentPrice sets the price in cents with decimals, e.g. "24.373".
func (s *Session) SetCurrentPrice(ctx context.Context, mac *string, price string) error {
	value, trailing, err := parsePrice(price)
	if err != nil {
		return err
	}
	return s.send(ctx, "set_current_price",
		wire.Opt("MeterMacId", mac),
		wire.Set("Price", wire.FormatHex(value, 8)),
		wire.Set("TrailingDigits", wire.FormatHex(trailing, 2)),
	)
}

// parsePrice turns a decimal cent string into an integer price and its trailing digit count.
func parsePrice(price string) (uint64, uint64, error) {
	whole, fraction, hasFraction := strings.Cut(strings.TrimSpace(price), ".")
	digits := whole + fraction
	if digits == "" {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPrice, price)
	}
	value, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPrice, price)
	}
	trailing := uint64(2)
	if hasFraction {
		trailing += uint64(len(fraction))
	}
	return value, trailing, nil
}

//
// Simple metering commands
//

func (s *Session) GetInstantaneousDemand(ctx context.Context, mac *string, refresh bool) (*store.Entity, error) {
	return s.query(ctx, "get_instantaneous_demand", entities.KindInstantaneousDemand, wire.Opt("MeterMacId", mac), refreshParam(refresh))
}

func (s *Session) GetCurrentSummationDelivered(ctx context.Context, mac *string, refresh bool) (*store.Entity, error) {
	return s.query(ctx, "get_current_summation_delivered", entities.KindCurrentSummationDelivered, wire.Opt("MeterMacId", mac), refreshParam(refresh))
}

func (s *Session) GetCurrentPeriodUsage(ctx context.Context, mac *string) (*store.Entity, error) {
	return s.query(ctx, "get_current_period_usage", entities.KindCurrentPeriodUsage, wire.Opt("MeterMacId", mac))
}

func (s *Session) GetLastPeriodUsage(ctx context.Context, mac *string) (*store.Entity, error) {
	return s.query(ctx, "get_last_period_usage", entities.KindLastPeriodUsage, wire.Opt("MeterMacId", mac))
}

func (s *Session) CloseCurrentPeriod(ctx context.Context, mac *string) error {
	return s.send(ctx, "close_current_period", wire.Opt("MeterMacId", mac))
}

func (s *Session) SetFastPoll(ctx context.Context, mac *string, frequency, duration uint64) error {
	return s.send(ctx, "set_fast_poll",
		wire.Opt("MeterMacId", mac),
		wire.Set("Frequency", wire.FormatHex(frequency, 4)),
		wire.Set("Duration", wire.FormatHex(duration, 4)),
	)
}
