// internal/device/commands.go
package device

import (
	"github.com/tamzrod/uhf-inventory/internal/inventory"
	"github.com/tamzrod/uhf-inventory/internal/reader"
)

// ------------------------------------------------------------
// parameters / identity
// ------------------------------------------------------------

func (d *Device) Parameter() reader.Parameter { return d.rd.Parameter() }

func (d *Device) SetParameter(p reader.Parameter) error { return d.rd.SetParameter(p) }

// ReaderInfo re-probes the reader and refreshes the cached identity.
func (d *Device) ReaderInfo() (reader.Info, error) {
	if err := d.session(); err != nil {
		return reader.Info{}, err
	}
	info, err := d.rd.ReaderInfo()
	if err != nil {
		return reader.Info{}, d.check(err)
	}

	d.mu.Lock()
	d.info = info
	d.mu.Unlock()
	return info, nil
}

// ------------------------------------------------------------
// settings
// ------------------------------------------------------------

func (d *Device) SetRfPower(power byte) error {
	if err := d.session(); err != nil {
		return err
	}
	return d.check(d.rd.SetRfPower(power))
}

func (d *Device) SetRegion(band, maxFreq, minFreq byte) error {
	if err := d.session(); err != nil {
		return err
	}
	return d.check(d.rd.SetRegion(band, maxFreq, minFreq))
}

func (d *Device) SetAntenna(mask byte) error {
	if err := d.session(); err != nil {
		return err
	}
	return d.check(d.rd.SetAntenna(mask))
}

func (d *Device) SetWorkMode(mode byte) error {
	if err := d.session(); err != nil {
		return err
	}
	return d.check(d.rd.SetWorkMode(mode))
}

func (d *Device) SetPowerMode(mode byte) error {
	if err := d.session(); err != nil {
		return err
	}
	return d.check(d.rd.SetPowerMode(mode))
}

func (d *Device) RfOutput(on byte) error {
	if err := d.session(); err != nil {
		return err
	}
	return d.check(d.rd.RfOutput(on))
}

func (d *Device) SetBeepNotification(on byte) error {
	if err := d.session(); err != nil {
		return err
	}
	return d.check(d.rd.SetBeepNotification(on))
}

// SetBaudRate switches the reader's line speed and reopens the port at the
// new rate. Refused while scanning.
func (d *Device) SetBaudRate(baud int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.session(); err != nil {
		return err
	}
	if d.eng.State() == inventory.Scanning {
		return ErrScanning
	}

	if err := d.rd.SetBaudRate(baud); err != nil {
		return d.check(err)
	}

	_ = d.tr.Close()
	if err := d.tr.Open(d.path, baud); err != nil {
		d.connected.Store(false)
		d.eng.Reset()
		return err
	}
	d.rd.ResetBuffer()
	d.baud = baud

	d.log.WithField("baud", baud).Info("baud rate changed")
	return nil
}

// ------------------------------------------------------------
// measurements
// ------------------------------------------------------------

func (d *Device) MeasureTemperature() (reader.Temperature, error) {
	if err := d.session(); err != nil {
		return reader.Temperature{}, err
	}
	t, err := d.rd.MeasureTemperature()
	return t, d.check(err)
}

func (d *Device) MeasureReturnLoss(freqKHz uint32, ant byte) (byte, error) {
	if err := d.session(); err != nil {
		return 0, err
	}
	v, err := d.rd.MeasureReturnLoss(freqKHz, ant)
	return v, d.check(err)
}

// ------------------------------------------------------------
// inventory
// ------------------------------------------------------------

// StartInventory shares d.mu with SetBaudRate so a scan never starts while
// the port is being reopened.
func (d *Device) StartInventory() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.session(); err != nil {
		return err
	}
	return d.eng.Start()
}

// StopInventory waits for the current round to end. Safe when idle.
func (d *Device) StopInventory() { d.eng.Stop() }

func (d *Device) InventoryState() inventory.State { return d.eng.State() }

func (d *Device) Feedback() bool { return d.eng.Feedback() }

func (d *Device) Tags() []inventory.TagRecord { return d.eng.Tags() }

func (d *Device) TagCount() int { return d.eng.TagCount() }

func (d *Device) Rounds() []inventory.RoundResult { return d.eng.Rounds() }

func (d *Device) Observations() []inventory.Observation { return d.eng.Observations() }

// ------------------------------------------------------------
// tag memory
// ------------------------------------------------------------

func (d *Device) ReadByEPC(epc string, rq reader.ReadRequest) ([]byte, error) {
	if err := d.session(); err != nil {
		return nil, err
	}
	b, err := d.rd.ReadByEPC(epc, rq)
	return b, d.check(err)
}

func (d *Device) ReadByTID(tid string, rq reader.ReadRequest) ([]byte, error) {
	if err := d.session(); err != nil {
		return nil, err
	}
	b, err := d.rd.ReadByTID(tid, rq)
	return b, d.check(err)
}

func (d *Device) WriteByEPC(epc string, rq reader.WriteRequest, data string) error {
	if err := d.session(); err != nil {
		return err
	}
	return d.check(d.rd.WriteByEPC(epc, rq, data))
}

func (d *Device) WriteByTID(tid string, rq reader.WriteRequest, data string) error {
	if err := d.session(); err != nil {
		return err
	}
	return d.check(d.rd.WriteByTID(tid, rq, data))
}

func (d *Device) WriteEPCByTID(tid, epc, password string) error {
	if err := d.session(); err != nil {
		return err
	}
	return d.check(d.rd.WriteEPCByTID(tid, epc, password))
}

func (d *Device) Lock(epc string, sel, protect byte, password string) error {
	if err := d.session(); err != nil {
		return err
	}
	return d.check(d.rd.Lock(epc, sel, protect, password))
}

func (d *Device) Kill(epc, password string) error {
	if err := d.session(); err != nil {
		return err
	}
	return d.check(d.rd.Kill(epc, password))
}
