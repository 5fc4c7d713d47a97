// internal/writer/device_status_writer_test.go
package writer

import (
	"errors"
	"testing"

	"github.com/tamzrod/pumpcluster/internal/status"
)

// ---- fake endpoint client ----

type fakeEndpointClient struct {
	writes int
	failOn int // 1-based write index that fails; 0 = never

	lastUnitID   uint8
	lastRegsAddr uint16
	lastRegs     []uint16
}

func (f *fakeEndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	f.writes++
	if f.failOn != 0 && f.writes == f.failOn {
		return errors.New("link down")
	}
	f.lastUnitID = unitID
	f.lastRegsAddr = addr
	f.lastRegs = append([]uint16(nil), regs...)
	return nil
}

func testPlan() StatusPlan {
	return StatusPlan{
		Endpoint:   "status-endpoint",
		UnitID:     1,
		BaseSlot:   2,
		DeviceName: "BP-01",
	}
}

// ---- tests ----

func TestDeviceNameWrittenOnFullAssertOnly(t *testing.T) {
	cli := &fakeEndpointClient{}
	plan := testPlan()
	sw := NewDeviceStatusWriter(plan, cli)

	// ---- first write: FULL ASSERT ----
	first := status.Snapshot{Health: status.HealthOK, Flags: status.FlagMode}

	if err := sw.WriteStatus(first); err != nil {
		t.Fatalf("initial full assert failed: %v", err)
	}

	if len(cli.lastRegs) != status.SlotsPerDevice {
		t.Fatalf(
			"expected full block write (%d regs), got %d",
			status.SlotsPerDevice,
			len(cli.lastRegs),
		)
	}
	if cli.lastRegsAddr != 2*status.SlotsPerDevice {
		t.Fatalf("block base addr got=%d want=%d", cli.lastRegsAddr, 2*status.SlotsPerDevice)
	}

	// Verify device name encoding EXACTLY
	expectedNameRegs := status.EncodeDeviceName(plan.DeviceName)

	for i := 0; i < status.SlotDeviceNameSlots; i++ {
		slot := status.SlotDeviceNameStart + i
		if cli.lastRegs[slot] != expectedNameRegs[i] {
			t.Fatalf(
				"device name slot %d mismatch: got=%d want=%d",
				slot,
				cli.lastRegs[slot],
				expectedNameRegs[i],
			)
		}
	}

	// ---- second write: INCREMENTAL ONLY ----
	second := first
	second.Flags |= status.FlagRun

	if err := sw.WriteStatus(second); err != nil {
		t.Fatalf("incremental write failed: %v", err)
	}

	if len(cli.lastRegs) != 1 {
		t.Fatalf("device name should not be rewritten on incremental update")
	}
	if cli.lastRegsAddr != 2*status.SlotsPerDevice+status.SlotFlags {
		t.Fatalf("flags slot addr got=%d", cli.lastRegsAddr)
	}
}

func TestSecondsInAlarmResetOnRecovery(t *testing.T) {
	cli := &fakeEndpointClient{}
	plan := testPlan()
	sw := NewDeviceStatusWriter(plan, cli)

	// simulate ALARM
	alarm := status.Snapshot{
		Health:         status.HealthAlarm,
		Flags:          status.FlagOverload | status.FlagMode,
		SecondsInAlarm: 3,
	}
	if err := sw.WriteStatus(alarm); err != nil {
		t.Fatalf("alarm snapshot write failed: %v", err)
	}

	// recovery touches health, flags and seconds; seconds is written last
	ok := status.Snapshot{Health: status.HealthOK, Flags: status.FlagMode}
	if err := sw.WriteStatus(ok); err != nil {
		t.Fatalf("recovery snapshot write failed: %v", err)
	}

	expectedAddr := plan.BaseSlot*status.SlotsPerDevice + status.SlotSecondsInAlarm
	if cli.lastRegsAddr != expectedAddr {
		t.Fatalf("unexpected write addr: got=%d want=%d", cli.lastRegsAddr, expectedAddr)
	}
	if len(cli.lastRegs) != 1 || cli.lastRegs[0] != 0 {
		t.Fatalf("seconds_in_alarm not reset: got=%v", cli.lastRegs)
	}
	if cli.writes != 1+3 {
		t.Fatalf("expected 3 incremental writes, got %d", cli.writes-1)
	}
}

func TestFailedWriteForcesFullReassert(t *testing.T) {
	cli := &fakeEndpointClient{failOn: 2}
	sw := NewDeviceStatusWriter(testPlan(), cli)

	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthOK}); err != nil {
		t.Fatalf("full assert failed: %v", err)
	}

	// incremental write fails
	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthManual}); err == nil {
		t.Fatalf("expected write error")
	}

	// next write must be the full block again
	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthManual}); err != nil {
		t.Fatalf("re-assert failed: %v", err)
	}
	if len(cli.lastRegs) != status.SlotsPerDevice {
		t.Fatalf("expected full block after failure, got %d regs", len(cli.lastRegs))
	}
}

func TestMissingClient(t *testing.T) {
	sw := NewDeviceStatusWriter(testPlan(), nil)
	if err := sw.WriteStatus(status.Snapshot{}); err == nil {
		t.Fatalf("expected error for missing client")
	}
}
