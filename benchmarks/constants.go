package test

import "time"

const (
	RunTimes      = 1e5
	PoolSize      = 64
	Producers     = 8
	Consumers     = 8
	ElimWindow    = 20 * time.Microsecond
	DefaultExpiry = 10 * time.Second
)
