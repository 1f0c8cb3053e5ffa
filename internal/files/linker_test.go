package files

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-engineer-001/upcraft-crm/internal/store"
)

func newTestLinker(t *testing.T) *Linker {
	t.Helper()
	l, err := NewLinker(Options{
		Endpoint:  "localhost:9000",
		AccessKey: "console",
		SecretKey: "console-secret",
		Bucket:    "documents",
		Region:    "us-east-1",
		TTL:       10 * time.Minute,
	})
	require.NoError(t, err)
	return l
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "agreements/acme.pdf", ObjectKey("/agreements/acme.pdf"))
	assert.Equal(t, "agreements/acme.pdf", ObjectKey("agreements/../agreements/acme.pdf"))
	assert.Equal(t, "", ObjectKey("  "))
}

func TestDownloadURLIsPresigned(t *testing.T) {
	l := newTestLinker(t)
	doc := store.Document{ID: "doc_1", Name: "MSA", FileRef: "/agreements/acme.pdf"}

	u, err := l.DownloadURL(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/documents/agreements/acme.pdf", u.Path)
	q := u.Query()
	assert.Equal(t, "600", q.Get("X-Amz-Expires"))
	assert.NotEmpty(t, q.Get("X-Amz-Signature"))
	assert.True(t, strings.Contains(q.Get("response-content-disposition"), "MSA.pdf"))
}

func TestDownloadURLNeedsFileRef(t *testing.T) {
	l := newTestLinker(t)
	_, err := l.DownloadURL(context.Background(), store.Document{ID: "doc_1"})
	assert.True(t, errors.Is(err, ErrEmptyRef))
}

func TestNewLinkerValidates(t *testing.T) {
	_, err := NewLinker(Options{Bucket: "documents"})
	assert.Error(t, err)
	_, err = NewLinker(Options{Endpoint: "localhost:9000"})
	assert.Error(t, err)

	l, err := NewLinker(Options{Endpoint: "localhost:9000", Bucket: "documents", Region: "us-east-1"})
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, l.TTL())
}
