package assets

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cocktail-collective/cocktail/internal/domain"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()

	provider := NewProvider(&ProviderConfig{MaxEntries: 10, Timeout: 5 * time.Second}, zap.NewNop())
	httpmock.ActivateNonDefault(provider.client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return provider
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func awaitAsset(t *testing.T, done <-chan *Asset) *Asset {
	t.Helper()
	select {
	case asset := <-done:
		return asset
	case <-time.After(5 * time.Second):
		t.Fatal("asset callback never fired")
		return nil
	}
}

func TestProvider_FetchesAndCaches(t *testing.T) {
	provider := newTestProvider(t)

	url := "https://example.test/image.png"
	httpmock.RegisterResponder("GET", url,
		httpmock.NewBytesResponder(200, pngBytes(t)))

	done := make(chan *Asset, 1)
	provider.Request(Request{URL: url}, func(asset *Asset) { done <- asset })

	asset := awaitAsset(t, done)
	require.NoError(t, asset.Err)
	require.NotNil(t, asset.Image)
	assert.False(t, asset.Preview)
	assert.Equal(t, 4, asset.Image.Bounds().Dx())

	// A second request is served from the cache without touching the network.
	done2 := make(chan *Asset, 1)
	provider.Request(Request{URL: url}, func(asset *Asset) { done2 <- asset })

	cached := awaitAsset(t, done2)
	assert.Same(t, asset, cached)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestProvider_DeduplicatesConcurrentFetches(t *testing.T) {
	provider := newTestProvider(t)

	url := "https://example.test/image.png"
	release := make(chan struct{})
	httpmock.RegisterResponder("GET", url,
		func(req *http.Request) (*http.Response, error) {
			<-release
			return httpmock.NewBytesResponse(200, pngBytes(t)), nil
		})

	first := make(chan *Asset, 1)
	second := make(chan *Asset, 1)
	provider.Request(Request{URL: url}, func(asset *Asset) { first <- asset })
	provider.Request(Request{URL: url}, func(asset *Asset) { second <- asset })

	close(release)

	a := awaitAsset(t, first)
	b := awaitAsset(t, second)
	assert.Same(t, a, b, "both waiters must receive the same value")
	assert.Equal(t, 1, httpmock.GetTotalCallCount(), "only one fetch for concurrent requests")
}

func TestProvider_ErrorPlaceholderIsStable(t *testing.T) {
	provider := newTestProvider(t)

	url := "https://example.test/missing.png"
	httpmock.RegisterResponder("GET", url,
		httpmock.NewStringResponder(404, "not found"))

	done := make(chan *Asset, 1)
	provider.Request(Request{URL: url}, func(asset *Asset) { done <- asset })

	asset := awaitAsset(t, done)
	require.Error(t, asset.Err)
	assert.True(t, errors.Is(asset.Err, domain.ErrAssetUnavailable))
	assert.Nil(t, asset.Image)

	// The placeholder is served from the cache; no retry happens.
	done2 := make(chan *Asset, 1)
	provider.Request(Request{URL: url}, func(asset *Asset) { done2 <- asset })

	cached := awaitAsset(t, done2)
	assert.Same(t, asset, cached)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestProvider_UndecodableBodyIsError(t *testing.T) {
	provider := newTestProvider(t)

	url := "https://example.test/broken.png"
	httpmock.RegisterResponder("GET", url,
		httpmock.NewStringResponder(200, "this is not an image"))

	done := make(chan *Asset, 1)
	provider.Request(Request{URL: url}, func(asset *Asset) { done <- asset })

	asset := awaitAsset(t, done)
	assert.True(t, errors.Is(asset.Err, domain.ErrAssetUnavailable))
}

func TestProvider_BlurhashPreview(t *testing.T) {
	provider := newTestProvider(t)

	url := "https://example.test/image.png"
	release := make(chan struct{})
	httpmock.RegisterResponder("GET", url,
		func(req *http.Request) (*http.Response, error) {
			<-release
			return httpmock.NewBytesResponse(200, pngBytes(t)), nil
		})

	done := make(chan *Asset, 1)
	provider.Request(Request{
		URL:      url,
		BlurHash: "LGF5]+Yk^6#M@-5c,1J5@[or[Q6.",
		Width:    512,
		Height:   256,
	}, func(asset *Asset) { done <- asset })

	// While the fetch is in flight the cache holds the preview placeholder.
	preview, ok := provider.Get(url)
	require.True(t, ok, "preview placeholder should be cached during the fetch")
	assert.True(t, preview.Preview)
	require.NotNil(t, preview.Image)
	assert.Equal(t, 32, preview.Image.Bounds().Dx())
	assert.Equal(t, 16, preview.Image.Bounds().Dy(), "preview keeps the source aspect ratio")

	close(release)
	final := awaitAsset(t, done)
	require.NoError(t, final.Err)
	assert.False(t, final.Preview)

	cached, ok := provider.Get(url)
	require.True(t, ok)
	assert.Same(t, final, cached, "final image replaces the preview")
}

func TestProvider_InvalidBlurhashSkipsPreview(t *testing.T) {
	provider := newTestProvider(t)

	url := "https://example.test/image.png"
	httpmock.RegisterResponder("GET", url,
		httpmock.NewBytesResponder(200, pngBytes(t)))

	done := make(chan *Asset, 1)
	provider.Request(Request{
		URL:      url,
		BlurHash: "not-a-blurhash",
		Width:    512,
		Height:   512,
	}, func(asset *Asset) { done <- asset })

	final := awaitAsset(t, done)
	require.NoError(t, final.Err)
}
