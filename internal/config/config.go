// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// Transport
	OSCPort    int
	SerialPort string // optional; OSC is used when empty
	SerialBaud int

	// Pipeline
	BufferSize        int
	ReserveSize       int // 0 none, -1 unbounded, >0 bounded
	SmoothWindow      int
	DisconnectTimeout int // milliseconds
	Legacy            bool

	// Classifier thresholds
	MoveThreshold   float64
	RotateThreshold float64
	FacingTolerance float64
	PointThreshold  float64
	JoltThreshold   float64

	// Frame detector
	AccelDelta    float64
	AccelLowPassX float64
	AccelLowPassY float64
	AccelLowPassZ float64
	MaxFrameMs    int

	// MQTT
	MQTTBroker          string
	MQTTClientIDMonitor string
	TopicDatagram       string
	TopicMotion         string
	PublishInterval     int // milliseconds

	// Web Server
	WebServerPort int
}

// Default returns the configuration used when a key is absent from the
// config file.
func Default() *Config {
	return &Config{
		OSCPort:             4000,
		SerialBaud:          115200,
		BufferSize:          10,
		ReserveSize:         0,
		SmoothWindow:        6,
		DisconnectTimeout:   5000,
		MoveThreshold:       0.1,
		RotateThreshold:     80,
		FacingTolerance:     45,
		PointThreshold:      0.70,
		JoltThreshold:       10,
		AccelDelta:          2,
		AccelLowPassX:       3,
		AccelLowPassY:       5,
		AccelLowPassZ:       5,
		MaxFrameMs:          2000,
		MQTTBroker:          "tcp://localhost:1883",
		MQTTClientIDMonitor: "gomugic-monitor",
		TopicDatagram:       "mugic/datagram",
		TopicMotion:         "mugic/motion",
		PublishInterval:     50,
		WebServerPort:       8080,
	}
}

// Package-level unexported variables for the singleton: external code
// must use InitGlobal() to set and Get() to read.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
// Missing keys keep their defaults; a missing file is an error.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseIntValue(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseFloatValue(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// Transport
	case "OSC_PORT":
		c.OSCPort, err = parseIntValue(key, value)
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD":
		c.SerialBaud, err = parseIntValue(key, value)

	// Pipeline
	case "BUFFER_SIZE":
		c.BufferSize, err = parseIntValue(key, value)
	case "RESERVE_SIZE":
		c.ReserveSize, err = parseIntValue(key, value)
	case "SMOOTH_WINDOW":
		c.SmoothWindow, err = parseIntValue(key, value)
	case "DISCONNECT_TIMEOUT_MS":
		c.DisconnectTimeout, err = parseIntValue(key, value)
	case "LEGACY":
		c.Legacy, err = strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid LEGACY %q: %w", value, err)
		}

	// Classifier thresholds
	case "MOVE_THRESHOLD":
		c.MoveThreshold, err = parseFloatValue(key, value)
	case "ROTATE_THRESHOLD":
		c.RotateThreshold, err = parseFloatValue(key, value)
	case "FACING_TOLERANCE":
		c.FacingTolerance, err = parseFloatValue(key, value)
	case "POINT_THRESHOLD":
		c.PointThreshold, err = parseFloatValue(key, value)
	case "JOLT_THRESHOLD":
		c.JoltThreshold, err = parseFloatValue(key, value)

	// Frame detector
	case "ACCEL_DELTA":
		c.AccelDelta, err = parseFloatValue(key, value)
	case "ACCEL_LOW_PASS_X":
		c.AccelLowPassX, err = parseFloatValue(key, value)
	case "ACCEL_LOW_PASS_Y":
		c.AccelLowPassY, err = parseFloatValue(key, value)
	case "ACCEL_LOW_PASS_Z":
		c.AccelLowPassZ, err = parseFloatValue(key, value)
	case "MAX_FRAME_MS":
		c.MaxFrameMs, err = parseIntValue(key, value)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_MONITOR":
		c.MQTTClientIDMonitor = value
	case "TOPIC_DATAGRAM":
		c.TopicDatagram = value
	case "TOPIC_MOTION":
		c.TopicMotion = value
	case "PUBLISH_INTERVAL":
		c.PublishInterval, err = parseIntValue(key, value)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseIntValue(key, value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks that all required fields are sane.
func (c *Config) validate() error {
	if c.OSCPort <= 0 || c.OSCPort > 65535 {
		return fmt.Errorf("OSC_PORT must be 1-65535, got %d", c.OSCPort)
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("BUFFER_SIZE must be positive, got %d", c.BufferSize)
	}
	if c.SmoothWindow < 0 {
		return fmt.Errorf("SMOOTH_WINDOW must not be negative, got %d", c.SmoothWindow)
	}
	if c.DisconnectTimeout <= 0 {
		return fmt.Errorf("DISCONNECT_TIMEOUT_MS must be positive, got %d", c.DisconnectTimeout)
	}
	if c.PublishInterval <= 0 {
		return fmt.Errorf("PUBLISH_INTERVAL must be positive, got %d", c.PublishInterval)
	}
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file. Uses
// sync.Once so this only runs once even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// InitGlobalDefault installs the default configuration when no config
// file is given.
func InitGlobalDefault() {
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig = Default()
	})
}

// Get returns the global configuration instance. InitGlobal (or
// InitGlobalDefault) must be called first, or this returns nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
