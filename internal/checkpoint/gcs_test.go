package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

// fakeGCS serves just enough of the GCS JSON upload API and object reads.
type fakeGCS struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeGCS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && strings.Contains(r.URL.Path, "/upload/storage/v1/b/test-bucket/o"):
		meta, data, err := readMultipartUpload(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		name := r.URL.Query().Get("name")
		if name == "" {
			name = meta.Name
		}
		f.objects[name] = data
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"bucket":"test-bucket","name":"`+name+`"}`)
	case r.Method == http.MethodGet:
		for name, data := range f.objects {
			if strings.HasSuffix(r.URL.Path, "/"+name) {
				w.Header().Set("Content-Type", "text/plain")
				_, _ = w.Write(data)
				return
			}
		}
		http.Error(w, `{"error":{"code":404,"message":"No such object"}}`, http.StatusNotFound)
	default:
		http.Error(w, "unexpected request", http.StatusBadRequest)
	}
}

type objectMeta struct {
	Name string `json:"name"`
}

// readMultipartUpload returns the metadata part and the media part.
func readMultipartUpload(r *http.Request) (objectMeta, []byte, error) {
	var meta objectMeta
	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return meta, nil, err
	}
	reader := multipart.NewReader(r.Body, params["boundary"])
	var parts [][]byte
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return meta, nil, err
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return meta, nil, err
		}
		parts = append(parts, data)
	}
	if len(parts) != 2 {
		return meta, nil, fmt.Errorf("expected metadata and media parts, got %d", len(parts))
	}
	if err := json.Unmarshal(parts[0], &meta); err != nil {
		return meta, nil, err
	}
	return meta, parts[1], nil
}

func newTestGCSStore(t *testing.T) *GCSStore {
	t.Helper()

	server := httptest.NewServer(&fakeGCS{objects: map[string][]byte{}})
	t.Cleanup(server.Close)

	client, err := storage.NewClient(context.Background(),
		option.WithEndpoint(server.URL), option.WithoutAuthentication())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewGCSStore(client, GCSConfig{Bucket: "test-bucket", Object: "checkpoint.txt"})
	require.NoError(t, err)
	return store
}

func TestGCSStoreMissingObjectIsZero(t *testing.T) {
	t.Parallel()

	store := newTestGCSStore(t)
	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestGCSStoreSaveThenLoad(t *testing.T) {
	t.Parallel()

	store := newTestGCSStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, 39))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 39, got)
	assert.Equal(t, "gs://test-bucket/checkpoint.txt", store.URI())
}

func TestNewGCSStoreValidation(t *testing.T) {
	t.Parallel()

	_, err := NewGCSStore(nil, GCSConfig{Bucket: "b", Object: "o"})
	require.Error(t, err)

	client, err := storage.NewClient(context.Background(), option.WithoutAuthentication())
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	_, err = NewGCSStore(client, GCSConfig{Object: "o"})
	require.Error(t, err)
	_, err = NewGCSStore(client, GCSConfig{Bucket: "b"})
	require.Error(t, err)
}
