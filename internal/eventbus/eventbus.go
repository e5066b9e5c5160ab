/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package eventbus selects the event fan-out backend from configuration.
package eventbus

import (
	"github.com/friendsincode/videogallery/internal/config"
	"github.com/friendsincode/videogallery/internal/events"
	"github.com/rs/zerolog"
)

// New returns the broker configured by cfg.EventBus.
func New(cfg *config.Config, logger zerolog.Logger) events.Broker {
	nodeID := NodeID(cfg.InstanceID)

	switch cfg.EventBus {
	case config.EventBusRedis:
		rc := DefaultRedisConfig()
		rc.Addr = cfg.RedisAddr
		rc.Password = cfg.RedisPassword
		rc.DB = cfg.RedisDB
		return NewRedisBus(rc, nodeID, logger)
	case config.EventBusNATS:
		return NewNATSBus(cfg.NATSURL, nodeID, logger)
	default:
		return events.NewBus()
	}
}
