package chi

import (
	"math"
	"net/http"
	"strings"
	"testing"
)

func TestSimilarTags_Exact(t *testing.T) {
	h := newTestRouter(t, testCorpus(t))

	var resp relatedTagsResponse
	rr := doGet(t, h, "/related_tags?search=cat", &resp)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if resp.Strategy != "exact" || resp.Degraded {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(resp.Tags) == 0 || resp.Tags[0].Name != "cat" || resp.Tags[0].Score != 1 {
		t.Fatalf("expected cat first with score 1, got %+v", resp.Tags)
	}
	// cat ∩ dog = 2, |cat| = 4, |dog| = 4 → 2 / 6
	for _, tg := range resp.Tags {
		if tg.Name == "dog" && math.Abs(tg.Score-1.0/3) > 1e-9 {
			t.Errorf("dog score = %v, want 1/3", tg.Score)
		}
	}
}

func TestSimilarTags_LimitAndSafeMode(t *testing.T) {
	h := newTestRouter(t, testCorpus(t))

	var resp relatedTagsResponse
	doGet(t, h, "/related_tags?search=cat&limit=1", &resp)
	if len(resp.Tags) != 1 {
		t.Errorf("limit=1 returned %d tags", len(resp.Tags))
	}

	// Safe mode sees p1 and p2 only; post counts stay corpus-wide.
	var safe relatedTagsResponse
	doGet(t, h, "/related_tags?search=cat&safe_mode=true", &safe)
	if len(safe.Tags) != 3 {
		t.Fatalf("safe mode should only see p1 and p2 tags, got %+v", safe.Tags)
	}
	for _, tg := range safe.Tags {
		if tg.Name == "cat" && tg.Score != 0.5 {
			t.Errorf("safe cat score = %v, want 2 / (2 + 4 - 2)", tg.Score)
		}
	}
}

func TestSimilarTags_BadParams(t *testing.T) {
	h := newTestRouter(t, testCorpus(t))

	tests := []struct {
		target string
		code   string
	}{
		{"/related_tags", codeInvalidSearch},
		{"/related_tags?search=cat+-", codeInvalidSearch},
		{"/related_tags?search=cat&limit=abc", codeBadRequest},
		{"/related_tags?search=cat&limit=-1", codeBadRequest},
		{"/related_tags?search=cat&sample_size=999999", codeBadRequest},
		{"/related_tags?search=cat&safe_mode=maybe", codeBadRequest},
	}
	for _, tt := range tests {
		var errResp errorResponse
		rr := doGet(t, h, tt.target, &errResp)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tt.target, rr.Code)
		}
		if errResp.Code != tt.code {
			t.Errorf("%s: code = %q, want %q", tt.target, errResp.Code, tt.code)
		}
	}
}

func TestSimilarTags_DegradedOnCorpusOutage(t *testing.T) {
	h := newTestRouter(t, failingCorpus{})

	var resp relatedTagsResponse
	rr := doGet(t, h, "/related_tags?search=cat", &resp)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !resp.Degraded || len(resp.Tags) != 0 || resp.Search != "cat" {
		t.Errorf("expected degraded empty result, got %+v", resp)
	}
	if !strings.Contains(rr.Body.String(), `"tags":[]`) {
		t.Errorf("tags should render as an empty array: %s", rr.Body.String())
	}
}

func TestCountPosts_CorpusOutage503(t *testing.T) {
	h := newTestRouter(t, failingCorpus{})

	var errResp errorResponse
	rr := doGet(t, h, "/counts/posts?tags=cat", &errResp)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
	if errResp.Code != codeCorpusUnavailable {
		t.Errorf("code = %q", errResp.Code)
	}
	if strings.Contains(errResp.Message, "statement timeout") {
		t.Errorf("internal detail leaked: %q", errResp.Message)
	}
}

func TestFrequentTags(t *testing.T) {
	h := newTestRouter(t, testCorpus(t))

	var resp frequentTagsResponse
	rr := doGet(t, h, "/related_tags/frequent?search=dog", &resp)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if len(resp.Tags) != 3 || resp.Tags[0].Name != "dog" || resp.Tags[0].Count != 4 {
		t.Errorf("unexpected tags: %+v", resp.Tags)
	}

	var meta frequentTagsResponse
	doGet(t, h, "/related_tags/frequent?search=dog&category=meta", &meta)
	if len(meta.Tags) != 1 || meta.Tags[0].Name != "solo" {
		t.Errorf("meta tags = %+v", meta.Tags)
	}

	var errResp errorResponse
	rr = doGet(t, h, "/related_tags/frequent?search=dog&category=bogus", &errResp)
	if rr.Code != http.StatusBadRequest || errResp.Code != codeBadRequest {
		t.Errorf("bogus category: status %d code %q", rr.Code, errResp.Code)
	}
}

func TestJaccard(t *testing.T) {
	h := newTestRouter(t, testCorpus(t))

	var resp jaccardResponse
	rr := doGet(t, h, "/related_tags/jaccard?a=cat&b=DOG", &resp)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if resp.A != "cat" || resp.B != "dog" || math.Abs(resp.Score-1.0/3) > 1e-9 {
		t.Errorf("unexpected response: %+v", resp)
	}

	rr = doGet(t, h, "/related_tags/jaccard?a=cat", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing b: status = %d, want 400", rr.Code)
	}

	for _, query := range []string{"a=cat&b=-dog", "a=~cat&b=dog", "a=cat&b=rating:s"} {
		var errResp errorResponse
		rr = doGet(t, h, "/related_tags/jaccard?"+query, &errResp)
		if rr.Code != http.StatusBadRequest || errResp.Code != codeBadRequest {
			t.Errorf("%s: status %d code %q, want 400 %s", query, rr.Code, errResp.Code, codeBadRequest)
		}
	}
}

func TestCountPosts(t *testing.T) {
	h := newTestRouter(t, testCorpus(t))

	var resp countsResponse
	rr := doGet(t, h, "/counts/posts?tags=cat+dog", &resp)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if resp.Counts.Posts != 2 {
		t.Errorf("posts = %d, want 2", resp.Counts.Posts)
	}
}

func TestHealthCheck(t *testing.T) {
	var resp healthResponse
	rr := doGet(t, newTestRouter(t, testCorpus(t)), "/health", &resp)
	if rr.Code != http.StatusOK || resp.Status != "ok" {
		t.Errorf("healthy: status %d body %+v", rr.Code, resp)
	}
	if resp.Checks["corpus"] != "ok" || resp.Checks["cache"] != "ok" {
		t.Errorf("checks = %v", resp.Checks)
	}

	var down healthResponse
	rr = doGet(t, newTestRouter(t, failingCorpus{}), "/health", &down)
	if rr.Code != http.StatusServiceUnavailable || down.Status != "error" {
		t.Errorf("corpus down: status %d body %+v", rr.Code, down)
	}
}

func TestNotFound(t *testing.T) {
	var errResp errorResponse
	rr := doGet(t, newTestRouter(t, testCorpus(t)), "/nope", &errResp)
	if rr.Code != http.StatusNotFound || errResp.Code != codeNotFound {
		t.Errorf("status %d code %q", rr.Code, errResp.Code)
	}
}
