// internal/status/status_test.go
package status

import (
	"testing"

	"github.com/tamzrod/pumpcluster/internal/device"
)

func TestFromEvent_HealthPriority(t *testing.T) {
	cases := []struct {
		name string
		ev   device.Event
		want uint16
	}{
		{"auto", device.Event{Mode: true}, HealthOK},
		{"manual", device.Event{Mode: false}, HealthManual},
		{"overload wins over manual", device.Event{Overload: true}, HealthAlarm},
		{"standby start alarm", device.Event{Mode: true, Run: true, StandbyStart: true}, HealthAlarm},
	}
	for _, c := range cases {
		if got := FromEvent(c.ev).Health; got != c.want {
			t.Fatalf("%s: health got=%d want=%d", c.name, got, c.want)
		}
	}
}

func TestFromEvent_Flags(t *testing.T) {
	s := FromEvent(device.Event{
		Run:         true,
		RunLamp:     true,
		StandbyLamp: true,
		Mode:        true,
		HeaterOn:    true,
		Status:      device.StatusStandBy3to2OneRun,
	})

	want := FlagRun | FlagRunLamp | FlagStandbyLamp | FlagMode | FlagHeaterOn
	if s.Flags != want {
		t.Fatalf("flags got=%#04x want=%#04x", s.Flags, want)
	}
	if s.ClusterStatus != uint16(device.StatusStandBy3to2OneRun) {
		t.Fatalf("cluster status got=%d", s.ClusterStatus)
	}
	if s.SecondsInAlarm != 0 {
		t.Fatalf("seconds must be left to the caller")
	}
}

func TestEncode_Layout(t *testing.T) {
	name := EncodeDeviceName("BP-1")
	regs := Encode(Snapshot{Health: HealthAlarm, Flags: 0x0009, ClusterStatus: 3, SecondsInAlarm: 12}, name)

	if len(regs) != SlotsPerDevice {
		t.Fatalf("block size got=%d", len(regs))
	}
	if regs[SlotHealthCode] != HealthAlarm || regs[SlotFlags] != 0x0009 ||
		regs[SlotClusterStatus] != 3 || regs[SlotSecondsInAlarm] != 12 {
		t.Fatalf("live slots: %v", regs[:4])
	}
	for i := SlotReservedStart; i <= SlotReservedEnd; i++ {
		if regs[i] != 0 {
			t.Fatalf("reserved slot %d not zero", i)
		}
	}
	if regs[SlotDeviceNameStart] != uint16('B')<<8|uint16('P') {
		t.Fatalf("name slot 0 got=%#04x", regs[SlotDeviceNameStart])
	}
	if regs[SlotDeviceNameStart+1] != uint16('-')<<8|uint16('1') {
		t.Fatalf("name slot 1 got=%#04x", regs[SlotDeviceNameStart+1])
	}
	if SlotDeviceNameEnd != SlotsPerDevice-1 {
		t.Fatalf("device name must end the block")
	}
}

func TestEncodeDeviceName_SanitizesAndTruncates(t *testing.T) {
	regs := EncodeDeviceName("AB\x01CDEFGHIJKLMNOPQRS")
	if regs[1] != uint16('?')<<8|uint16('C') {
		t.Fatalf("control char not sanitized: %#04x", regs[1])
	}
	if regs[7] != uint16('N')<<8|uint16('O') {
		t.Fatalf("not truncated at 16 chars: %#04x", regs[7])
	}
}
