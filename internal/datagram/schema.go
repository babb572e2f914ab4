// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package datagram

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrSchemaMismatch is returned when a raw value sequence does not have
// the exact arity the schema declares. The offending packet is rejected;
// pipeline state is unaffected.
var ErrSchemaMismatch = errors.New("datagram: value count does not match schema")

// Kind is the declared numeric type of a wire position.
type Kind int

const (
	Float Kind = iota
	Int
)

// Field binds one wire position to a named Datagram channel.
type Field struct {
	Name string
	Kind Kind
	Get  func(*Datagram) float64
	Set  func(*Datagram, float64)
}

// Schema is the static declaration of a device's wire record: field
// order, names, and per-position numeric kinds. Field order is part of
// the wire contract.
type Schema struct {
	Name   string
	Fields []Field
}

// Arity returns the number of wire positions.
func (s *Schema) Arity() int { return len(s.Fields) }

// Decode converts an ordered value sequence into a typed record.
// Integer-kind positions are truncated toward zero.
func (s *Schema) Decode(values []float64) (Datagram, error) {
	var d Datagram
	if len(values) != len(s.Fields) {
		return d, fmt.Errorf("%w: schema %s wants %d values, got %d",
			ErrSchemaMismatch, s.Name, len(s.Fields), len(values))
	}
	for i, f := range s.Fields {
		v := values[i]
		if f.Kind == Int {
			v = math.Trunc(v)
		}
		f.Set(&d, v)
	}
	return d, nil
}

// Values flattens a record back into wire order.
func (s *Schema) Values(d *Datagram) []float64 {
	out := make([]float64, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Get(d)
	}
	return out
}

// FormatLine renders a record as one comma-joined line in schema order,
// the recording wire format. Integer-kind fields render without a
// decimal point.
func (s *Schema) FormatLine(d *Datagram) string {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		v := f.Get(d)
		if f.Kind == Int {
			parts[i] = strconv.FormatInt(int64(v), 10)
		} else {
			parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
	}
	return strings.Join(parts, ",")
}

// ParseLine parses one comma-joined line back into an ordered value
// sequence. Arity is checked here so a truncated line fails before it
// reaches the pipeline.
func (s *Schema) ParseLine(line string) ([]float64, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != len(s.Fields) {
		return nil, fmt.Errorf("%w: schema %s wants %d fields, line has %d",
			ErrSchemaMismatch, s.Name, len(s.Fields), len(parts))
	}
	values := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("datagram: field %s: %w", s.Fields[i].Name, err)
		}
		values[i] = v
	}
	return values, nil
}

// imuFields is the generic 9-axis layout shared by both schemas:
// accelerometer, Euler angles, gyroscope, magnetometer, quaternion.
func imuFields() []Field {
	return []Field{
		{"AX", Float, func(d *Datagram) float64 { return d.AX }, func(d *Datagram, v float64) { d.AX = v }},
		{"AY", Float, func(d *Datagram) float64 { return d.AY }, func(d *Datagram, v float64) { d.AY = v }},
		{"AZ", Float, func(d *Datagram) float64 { return d.AZ }, func(d *Datagram, v float64) { d.AZ = v }},
		{"EX", Float, func(d *Datagram) float64 { return d.EX }, func(d *Datagram, v float64) { d.EX = v }},
		{"EY", Float, func(d *Datagram) float64 { return d.EY }, func(d *Datagram, v float64) { d.EY = v }},
		{"EZ", Float, func(d *Datagram) float64 { return d.EZ }, func(d *Datagram, v float64) { d.EZ = v }},
		{"GX", Float, func(d *Datagram) float64 { return d.GX }, func(d *Datagram, v float64) { d.GX = v }},
		{"GY", Float, func(d *Datagram) float64 { return d.GY }, func(d *Datagram, v float64) { d.GY = v }},
		{"GZ", Float, func(d *Datagram) float64 { return d.GZ }, func(d *Datagram, v float64) { d.GZ = v }},
		{"MX", Float, func(d *Datagram) float64 { return d.MX }, func(d *Datagram, v float64) { d.MX = v }},
		{"MY", Float, func(d *Datagram) float64 { return d.MY }, func(d *Datagram, v float64) { d.MY = v }},
		{"MZ", Float, func(d *Datagram) float64 { return d.MZ }, func(d *Datagram, v float64) { d.MZ = v }},
		{"QW", Float, func(d *Datagram) float64 { return d.QW }, func(d *Datagram, v float64) { d.QW = v }},
		{"QX", Float, func(d *Datagram) float64 { return d.QX }, func(d *Datagram, v float64) { d.QX = v }},
		{"QY", Float, func(d *Datagram) float64 { return d.QY }, func(d *Datagram, v float64) { d.QY = v }},
		{"QZ", Float, func(d *Datagram) float64 { return d.QZ }, func(d *Datagram, v float64) { d.QZ = v }},
	}
}

// IMU9Axis is the plain 9-axis schema: 16 float fields, no device
// status channels.
var IMU9Axis = &Schema{Name: "imu9axis", Fields: imuFields()}

// Mugic is the MUGIC device schema: the 9-axis layout followed by
// battery state, per-subsystem calibration confidence, device uptime
// and sequence number (17 floats, 5 ints, 1 float, 1 int).
var Mugic = &Schema{
	Name: "mugic",
	Fields: append(imuFields(), []Field{
		{"Battery", Float, func(d *Datagram) float64 { return d.Battery }, func(d *Datagram, v float64) { d.Battery = v }},
		{"mV", Int, func(d *Datagram) float64 { return d.MV }, func(d *Datagram, v float64) { d.MV = v }},
		{"calib_sys", Int, func(d *Datagram) float64 { return d.CalibSys }, func(d *Datagram, v float64) { d.CalibSys = v }},
		{"calib_gyro", Int, func(d *Datagram) float64 { return d.CalibGyro }, func(d *Datagram, v float64) { d.CalibGyro = v }},
		{"calib_accel", Int, func(d *Datagram) float64 { return d.CalibAccel }, func(d *Datagram, v float64) { d.CalibAccel = v }},
		{"calib_mag", Int, func(d *Datagram) float64 { return d.CalibMag }, func(d *Datagram, v float64) { d.CalibMag = v }},
		{"seconds", Float, func(d *Datagram) float64 { return d.Seconds }, func(d *Datagram, v float64) { d.Seconds = v }},
		{"seqnum", Int, func(d *Datagram) float64 { return d.SeqNum }, func(d *Datagram, v float64) { d.SeqNum = v }},
	}...),
}
