package sources

import "errors"

var (
	// ErrUnknownFetcher indicates that no factory is registered for the name.
	ErrUnknownFetcher = errors.New("unknown fetcher")
	// ErrAssetNotFound indicates that the provider does not know the asset.
	ErrAssetNotFound = errors.New("asset not found")
	// ErrUnexpectedStatus indicates a non-200 response from the provider.
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrInvalidPrice indicates that the provider returned an unparseable price.
	ErrInvalidPrice = errors.New("invalid price data")
)
