package usecase

import (
	"regexp"
	"strings"

	"github.com/ekomarov/fundchat/internal/core/domain"
)

// aggregationPatterns cover fund-spanning comparison phrasings. Order
// defines priority; first match wins. Queries matching none of them are
// treated as specific and go to semantic retrieval.
var aggregationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`which fund.*best`),
	regexp.MustCompile(`which fund.*performed`),
	regexp.MustCompile(`which fund.*better`),
	regexp.MustCompile(`compare.*funds`),
	regexp.MustCompile(`top.*funds`),
	regexp.MustCompile(`rank.*funds`),
	regexp.MustCompile(`all funds`),
	regexp.MustCompile(`fund performance`),
	regexp.MustCompile(`best.*yearly.*p[&/]l`),
	regexp.MustCompile(`highest.*p[&/]l`),
	regexp.MustCompile(`lowest.*p[&/]l`),
	regexp.MustCompile(`funds.*better`),
	regexp.MustCompile(`funds.*worse`),
	regexp.MustCompile(`total.*all funds`),
	regexp.MustCompile(`aggregate.*funds`),
}

// Classify routes a question to the aggregation or retrieval path. Purely
// lexical: it never consults the dataset or the index, so a borderline
// query can land on the wrong path but the call itself cannot fail.
func Classify(question string) domain.Route {
	q := strings.ToLower(question)
	for _, pattern := range aggregationPatterns {
		if pattern.MatchString(q) {
			return domain.RouteAggregation
		}
	}
	return domain.RouteSpecific
}
