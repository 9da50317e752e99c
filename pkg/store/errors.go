package store

import "errors"

var (
	ErrConnectFailed   = errors.New("failed to connect to store")
	ErrPingFailed      = errors.New("failed to ping store")
	ErrProvisionFailed = errors.New("failed to provision destination")
	ErrInsertFailed    = errors.New("failed to insert entries")
)
