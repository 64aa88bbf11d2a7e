package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tc.com/oracle-node/pkg/oracle"
)

type fakeFetcher struct{ name string }

func (f *fakeFetcher) FetchQuote(_ context.Context, asset string) (oracle.Quote, error) {
	return oracle.NewQuote(asset, 1, 1, f.name), nil
}

func (f *fakeFetcher) Name() string { return f.name }

func TestRegistry_CreateRegistered(t *testing.T) {
	Register("cex.fake", func(config map[string]interface{}) (oracle.Fetcher, error) {
		name, _ := config["name"].(string)
		return &fakeFetcher{name: name}, nil
	})

	fetcher, err := Create("cex", "fake", map[string]interface{}{"name": "fake-exchange"})
	require.NoError(t, err)
	assert.Equal(t, "fake-exchange", fetcher.Name())
}

func TestRegistry_CreateUnknown(t *testing.T) {
	_, err := Create("cex", "does-not-exist", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownFetcher)
}

func TestRegistry_ListIsSorted(t *testing.T) {
	Register("index.zzz", func(map[string]interface{}) (oracle.Fetcher, error) {
		return &fakeFetcher{name: "zzz"}, nil
	})
	Register("cex.aaa", func(map[string]interface{}) (oracle.Fetcher, error) {
		return &fakeFetcher{name: "aaa"}, nil
	})

	names := List()
	require.GreaterOrEqual(t, len(names), 2)
	for i := 1; i < len(names); i++ {
		assert.LessOrEqual(t, names[i-1], names[i])
	}
}

func TestParsePrice(t *testing.T) {
	price, err := ParsePrice("45050.10000000")
	require.NoError(t, err)
	assert.Equal(t, 45050.1, price)

	price, err = ParsePrice("0.00012")
	require.NoError(t, err)
	assert.Equal(t, 0.00012, price)

	_, err = ParsePrice("not-a-number")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = ParsePrice("")
	assert.Error(t, err)
}
