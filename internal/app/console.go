// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/gomugic/internal/config"
	"github.com/relabs-tech/gomugic/internal/source"
)

func fmtVec(x, y, z float64) string {
	return fmt.Sprintf("%8.2f %8.2f %8.2f", x, y, z)
}

// RunConsole shows a live terminal dashboard of the calibrated record
// and the derived motion signals. Keys: c calibrates against the
// current pose, f clears the movement frame, q quits.
func RunConsole() error {
	cfg := config.Get()

	dev := buildDevice(cfg)
	src, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go source.Pump(ctx, src, dev)

	if err := ui.Init(); err != nil {
		return fmt.Errorf("console: terminal init: %w", err)
	}
	defer ui.Close()

	table := widgets.NewTable()
	table.Title = "gomugic"
	table.ColumnWidths = []int{12, 40}
	table.TextStyle = ui.NewStyle(ui.ColorWhite)
	table.SetRect(0, 0, 56, 26)

	render := func() {
		st := snapshot(dev)
		rows := [][]string{
			{"connected", fmt.Sprintf("%v", st.Connected)},
		}
		if st.Datagram != nil {
			d := st.Datagram
			rows = append(rows,
				[]string{"accel", fmtVec(d.AX, d.AY, d.AZ)},
				[]string{"euler", fmtVec(d.EX, d.EY, d.EZ)},
				[]string{"gyro", fmtVec(d.GX, d.GY, d.GZ)},
				[]string{"quat", fmt.Sprintf("%6.3f %6.3f %6.3f %6.3f", d.QW, d.QX, d.QY, d.QZ)},
				[]string{"battery", fmt.Sprintf("%.0f%%", d.Battery)},
				[]string{"frame", fmtVec(st.Frame[0], st.Frame[1], st.Frame[2])},
				[]string{"moving", strings.Join(st.Moving, " ")},
				[]string{"rotating", strings.Join(st.Rotating, " ")},
				[]string{"pointing", strings.Join(st.Pointing, " ")},
				[]string{"jolted", fmt.Sprintf("%v", st.Jolted)},
			)
		}
		rows = append(rows, []string{"keys", "c=calibrate f=reset frame q=quit"})
		table.Rows = rows
		ui.Render(table)
	}

	render()
	ticker := time.NewTicker(time.Duration(cfg.PublishInterval) * time.Millisecond)
	defer ticker.Stop()
	events := ui.PollEvents()

	for {
		select {
		case e := <-events:
			switch e.ID {
			case "q", "<C-c>":
				return nil
			case "c":
				dev.Calibrate(nil)
				log.Info("console: calibrated against current pose")
			case "f":
				dev.ResetFrame()
			}
		case <-ticker.C:
			render()
		}
	}
}
