package main

import (
	"fmt"
	"time"

	"github.com/NotCoffee418/emu_power/pkg/emu"
	"github.com/NotCoffee418/emu_power/pkg/entities"
	"github.com/NotCoffee418/emu_power/pkg/wire"
)

const (
	simDeviceMac = "0xd8d5b90000001234"
	simMeterMac  = "0x00135003001a2b3c"
)

// newSimulatedDevice answers the common query commands with plausible frames.
func newSimulatedDevice() *emu.SimulatedTransport {
	sim := emu.NewSimulatedTransport()
	sim.Respond = func(cmd wire.Command) []string {
		return simulatedResponse(cmd, time.Now())
	}
	return sim
}

func simulatedResponse(cmd wire.Command, now time.Time) []string {
	ts := wire.FormatHex(entities.ToDeviceTime(now), 8)
	var frame string
	switch cmd.Name {
	case "get_instantaneous_demand":
		frame = fmt.Sprintf("<InstantaneousDemand><DeviceMacId>%s</DeviceMacId><MeterMacId>%s</MeterMacId>"+
			"<TimeStamp>%s</TimeStamp><Demand>%s</Demand><Multiplier>0x00000001</Multiplier>"+
			"<Divisor>0x000003e8</Divisor><DigitsRight>0x03</DigitsRight><DigitsLeft>0x0f</DigitsLeft>"+
			"<SuppressLeadingZero>Y</SuppressLeadingZero></InstantaneousDemand>",
			simDeviceMac, simMeterMac, ts, wire.FormatHex(uint64(500+now.Second()*10), 6))
	case "get_current_summation_delivered":
		frame = fmt.Sprintf("<CurrentSummationDelivered><DeviceMacId>%s</DeviceMacId><MeterMacId>%s</MeterMacId>"+
			"<TimeStamp>%s</TimeStamp><SummationDelivered>0x0000000001321a5f</SummationDelivered>"+
			"<SummationReceived>0x0000000000000000</SummationReceived><Multiplier>0x00000001</Multiplier>"+
			"<Divisor>0x000003e8</Divisor></CurrentSummationDelivered>",
			simDeviceMac, simMeterMac, ts)
	case "get_current_price":
		frame = fmt.Sprintf("<PriceCluster><DeviceMacId>%s</DeviceMacId><MeterMacId>%s</MeterMacId>"+
			"<TimeStamp>%s</TimeStamp><Price>0x00005f35</Price><Currency>0x0348</Currency>"+
			"<TrailingDigits>0x05</TrailingDigits><Tier>0x01</Tier><RateLabel>Set by User</RateLabel></PriceCluster>",
			simDeviceMac, simMeterMac, ts)
	case "get_connection_status":
		frame = fmt.Sprintf("<ConnectionStatus><DeviceMacId>%s</DeviceMacId><MeterMacId>%s</MeterMacId>"+
			"<Status>Connected</Status><Channel>20</Channel><LinkStrength>0x64</LinkStrength></ConnectionStatus>",
			simDeviceMac, simMeterMac)
	case "get_device_info":
		frame = fmt.Sprintf("<DeviceInfo><DeviceMacId>%s</DeviceMacId><FWVersion>2.0.0 (7400)</FWVersion>"+
			"<HWVersion>2.7.3</HWVersion><Manufacturer>Rainforest Automation, Inc.</Manufacturer>"+
			"<ModelId>Z105-2-EMU2-LEDD_JM</ModelId></DeviceInfo>",
			simDeviceMac)
	default:
		return nil
	}
	// Split like a slow serial line would
	mid := len(frame) / 2
	return []string{frame[:mid], frame[mid:] + "\r\n"}
}
