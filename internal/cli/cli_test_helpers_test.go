package cli

import (
	"context"
	"io"
	"iter"
	"os"
	"testing"

	"bucketgate/internal/config"
	"bucketgate/internal/gateway"

	"github.com/rs/zerolog"
)

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	original := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	runErr := fn()
	_ = w.Close()
	os.Stdout = original

	out, readErr := io.ReadAll(r)
	_ = r.Close()
	if readErr != nil {
		t.Fatalf("read stdout: %v", readErr)
	}
	return string(out), runErr
}

func setCLIHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", home)
	return home
}

type fakeGateway struct {
	uploadName string
	uploadPath string
	uploadOpts gateway.UploadOptions
	result     gateway.UploadResult
	url        string
	exists     bool
	removed    bool
	keys       []string
	pages      [][]string
	err        error
}

func (f *fakeGateway) Upload(_ context.Context, name, path string, opts gateway.UploadOptions) (gateway.UploadResult, error) {
	f.uploadName, f.uploadPath, f.uploadOpts = name, path, opts
	return f.result, f.err
}

func (f *fakeGateway) URL(context.Context, string) (string, error) { return f.url, f.err }

func (f *fakeGateway) Exists(context.Context, string) (bool, error) { return f.exists, f.err }

func (f *fakeGateway) Remove(context.Context, string) (bool, error) { return f.removed, f.err }

func (f *fakeGateway) List(context.Context) ([]string, error) { return f.keys, f.err }

func (f *fakeGateway) Objects(context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, page := range f.pages {
			for _, key := range page {
				if !yield(key, nil) {
					return
				}
			}
		}
		if f.err != nil {
			yield("", f.err)
		}
	}
}

// useFakeGateway swaps the gateway factory for the duration of the test and
// records the store config it was opened with.
func useFakeGateway(t *testing.T, fake *fakeGateway) *config.StoreConfig {
	t.Helper()
	var opened config.StoreConfig
	original := openGateway
	openGateway = func(_ context.Context, cfg config.StoreConfig, _ zerolog.Logger) (objectGateway, error) {
		opened = cfg
		return fake, nil
	}
	t.Cleanup(func() { openGateway = original })
	return &opened
}
