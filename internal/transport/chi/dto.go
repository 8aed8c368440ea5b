package chi

import domrel "github.com/kailas-cloud/reltag/internal/domain/related"

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type scoredTag struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type relatedTagsResponse struct {
	Search   string      `json:"search"`
	Strategy string      `json:"strategy,omitempty"`
	Degraded bool        `json:"degraded"`
	Tags     []scoredTag `json:"tags"`
}

type countedTag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type frequentTagsResponse struct {
	Search string       `json:"search"`
	Tags   []countedTag `json:"tags"`
}

type jaccardResponse struct {
	A     string  `json:"a"`
	B     string  `json:"b"`
	Score float64 `json:"score"`
}

type countsResponse struct {
	Counts struct {
		Posts int `json:"posts"`
	} `json:"counts"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func relatedTagsFromResult(res domrel.Result) relatedTagsResponse {
	resp := relatedTagsResponse{
		Search:   res.Search.String(),
		Strategy: res.Strategy.String(),
		Tags:     make([]scoredTag, len(res.Tags)),
	}
	for i, t := range res.Tags {
		resp.Tags[i] = scoredTag{Name: t.Tag, Score: t.Score}
	}
	return resp
}
