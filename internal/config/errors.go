package config

import "errors"

// Sentinel errors returned by Load and Validate.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")

	// ErrUnknownStore is wrapped alongside ErrInvalidConfig when store names
	// no supported backend.
	ErrUnknownStore = errors.New("unknown store")
	// ErrStoreAddress is wrapped when a persistent backend has no address.
	ErrStoreAddress = errors.New("store address missing")
)
