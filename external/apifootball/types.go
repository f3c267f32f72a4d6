package apifootball

import (
	"fmt"
	"sort"
	"strings"
)

type fixturesEnvelope struct {
	// The feed sends [] when there are no errors and an object keyed by field otherwise.
	Errors   any           `json:"errors"`
	Results  int           `json:"results"`
	Response []fixtureItem `json:"response"`
}

type fixtureItem struct {
	Fixture struct {
		ID     int64  `json:"id"`
		Date   string `json:"date"`
		Status struct {
			Short string `json:"short"`
			Long  string `json:"long"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		ID     int64  `json:"id"`
		Season int    `json:"season"`
		Round  string `json:"round"`
	} `json:"league"`
	Teams struct {
		Home teamItem `json:"home"`
		Away teamItem `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"goals"`
}

type teamItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (e fixturesEnvelope) hasErrors() bool {
	errs, ok := e.Errors.(map[string]any)
	return ok && len(errs) > 0
}

func (e fixturesEnvelope) errorText() string {
	errs, _ := e.Errors.(map[string]any)
	keys := make([]string, 0, len(errs))
	for key := range errs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", key, errs[key]))
	}
	return strings.Join(parts, "; ")
}
