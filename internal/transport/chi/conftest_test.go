package chi

import (
	"context"
	"crypto/md5" //nolint:gosec // test fixture ids
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	corpusmem "github.com/kailas-cloud/reltag/internal/corpus/memory"
	dbmem "github.com/kailas-cloud/reltag/internal/db/memory"
	"github.com/kailas-cloud/reltag/internal/domain"
	"github.com/kailas-cloud/reltag/internal/domain/post"
	"github.com/kailas-cloud/reltag/internal/domain/tag"
	"github.com/kailas-cloud/reltag/internal/domain/tagsearch"
	"github.com/kailas-cloud/reltag/internal/repository/samplecache"
	healthuc "github.com/kailas-cloud/reltag/internal/usecase/health"
	relateduc "github.com/kailas-cloud/reltag/internal/usecase/related"
)

// failingCorpus reports every query as unavailable.
type failingCorpus struct {
	relateduc.Corpus
}

func (failingCorpus) Count(context.Context, tagsearch.Scope, tagsearch.Search) (int, error) {
	return 0, fmt.Errorf("%w: statement timeout", domain.ErrCorpusUnavailable)
}

func (failingCorpus) Ping(context.Context) error {
	return domain.ErrCorpusUnavailable
}

func md5Of(s string) string {
	h := md5.Sum([]byte(s)) //nolint:gosec // test fixture ids
	return hex.EncodeToString(h[:])
}

func mustPost(t *testing.T, name, rating string, tags ...string) post.Post {
	t.Helper()
	p, err := post.New(md5Of(name), tags, rating)
	if err != nil {
		t.Fatalf("post.New: %v", err)
	}
	return p
}

// testCorpus: cat on 4 posts, dog on 2 of them plus 2 more, solo (meta) on 1.
func testCorpus(t *testing.T) *corpusmem.Corpus {
	t.Helper()
	c := corpusmem.New(
		mustPost(t, "p1", "s", "cat", "dog"),
		mustPost(t, "p2", "s", "cat", "dog", "solo"),
		mustPost(t, "p3", "e", "cat"),
		mustPost(t, "p4", "q", "cat"),
		mustPost(t, "p5", "s", "dog"),
		mustPost(t, "p6", "s", "dog"),
	)
	c.SetCategory("solo", tag.Meta)
	return c
}

type corpus interface {
	relateduc.Corpus
	healthuc.Pinger
}

func newTestRouter(t *testing.T, c corpus) http.Handler {
	t.Helper()
	store := dbmem.New()
	cache := samplecache.New(store, nil, zap.NewNop())
	svc := relateduc.New(c, cache)
	health := healthuc.New(c, store)

	s := NewServer(svc, health, Defaults{TopN: 50, SampleSize: 625, FrequentLimit: 25}, zap.NewNop())
	r := chi.NewRouter()
	s.Register(r)
	return r
}

func doGet(t *testing.T, h http.Handler, target string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if out != nil {
		if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s response %q: %v", target, rr.Body.String(), err)
		}
	}
	return rr
}
