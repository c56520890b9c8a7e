package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pluma/prontuario/internal/audio"
)

// DevicesCmd lists available audio devices.
type DevicesCmd struct{}

// Run executes the devices command.
func (dcmd *DevicesCmd) Run() error {
	devices, err := audio.EnumerateDevices(context.Background())
	if err != nil {
		return fmt.Errorf("failed to enumerate audio devices: %w", err)
	}

	if len(devices) == 0 {
		fmt.Println("No capture devices found.")
		return nil
	}

	rows := make([][]string, 0, len(devices))
	for _, dev := range devices {
		def := ""
		if dev.IsDefault {
			def = "yes"
		}
		rows = append(rows, []string{dev.Name, def, strconv.Itoa(dev.FormatCount), strings.Join(dev.Formats, "\n")})
	}

	fmt.Println(renderTable([]string{"Device", "Default", "Formats", "Native formats"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight}))

	return nil
}
