// Package ociwasm resolves a Wasm core module from an OCI registry
// reference instead of a local file, for "gravity --registry ..."
// (SPEC_FULL.md §3.3). It is a thin adaptation of wit-bindgen-go's
// internal/oci package: the same regclient plumbing, pointed at a module's
// Wasm-artifact layer instead of a WIT-artifact layer.
package ociwasm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/regclient/regclient"
	"github.com/regclient/regclient/types/manifest"
	"github.com/regclient/regclient/types/ref"
)

// IsReference reports whether path looks like an OCI reference rather than
// a local filesystem path: it does not exist on disk, and regclient can
// parse it as a ref.
func IsReference(path string) bool {
	if _, err := os.Stat(path); err == nil {
		return false
	}
	_, err := ref.New(path)
	return err == nil
}

// PullModule fetches the Wasm module stored at the OCI reference,
// returning the first layer's raw bytes. Wasm-module OCI artifacts
// conventionally carry exactly one layer.
func PullModule(ctx context.Context, reference string) ([]byte, error) {
	r, err := ref.New(reference)
	if err != nil {
		return nil, fmt.Errorf("ociwasm: parsing reference %q: %w", reference, err)
	}

	rc := regclient.New()
	defer rc.Close(ctx, r)

	m, err := rc.ManifestGet(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("ociwasm: fetching manifest for %q: %w", reference, err)
	}
	imager, ok := m.(manifest.Imager)
	if !ok {
		return nil, fmt.Errorf("ociwasm: manifest for %q is not an image manifest", reference)
	}

	layers, err := imager.GetLayers()
	if err != nil {
		return nil, fmt.Errorf("ociwasm: listing layers for %q: %w", reference, err)
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("ociwasm: %q has no layers", reference)
	}
	layer := layers[0]
	if err := layer.Digest.Validate(); err != nil {
		return nil, fmt.Errorf("ociwasm: layer digest %s invalid: %w", layer.Digest, err)
	}

	blob, err := rc.BlobGet(ctx, r, layer)
	if err != nil {
		return nil, fmt.Errorf("ociwasm: fetching blob for %q: %w", reference, err)
	}
	defer blob.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, blob); err != nil {
		return nil, fmt.Errorf("ociwasm: reading blob for %q: %w", reference, err)
	}
	return buf.Bytes(), nil
}
