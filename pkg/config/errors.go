package config

import "errors"

var (
	// ErrNoAssets indicates that no assets are configured.
	ErrNoAssets = errors.New("at least one asset must be configured")
	// ErrNoSourcesConfigured indicates that no price sources are configured.
	ErrNoSourcesConfigured = errors.New("at least one price source must be configured")
	// ErrSourceTypeRequired indicates that source type is required.
	ErrSourceTypeRequired = errors.New("source type is required")
	// ErrSourceNameRequired indicates that source name is required.
	ErrSourceNameRequired = errors.New("source name is required")
	// ErrInvalidSourceType indicates that the source type is invalid.
	ErrInvalidSourceType = errors.New("invalid source type")
	// ErrSubmitURLRequired indicates that submit.url must be specified for the http sink.
	ErrSubmitURLRequired = errors.New("submit.url must be specified when submit.type is http")
)
