package lockwatch

import (
	"blockballot/modules/config"
)

type lockwatchConfig struct {
	// StuckAfterMinutes is how old a lock must be before it is
	// considered abandoned and reported.
	StuckAfterMinutes uint64
}

type LockwatchConfig struct {
	*config.Config[lockwatchConfig]
}

func NewLockwatchConfig() LockwatchConfig {
	return LockwatchConfig{
		config.New(lockwatchConfig{
			StuckAfterMinutes: 5,
		}),
	}
}
