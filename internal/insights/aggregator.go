// Copyright (c) 2026 Yuvraj Aryan
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package insights computes aggregate analytics over the accumulated
// feedback corpus: sentiment distribution, monthly trends, topic rankings,
// and a bounded feed of recent summaries.
package insights

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/YuvrajAryan2/SmartInsightHub/internal/models"
)

const (
	// topTopicCount bounds the ranked topic list.
	topTopicCount = 10

	// trendMonths bounds the sentiment trend to the most recent buckets.
	trendMonths = 6

	// recentSummaryCount bounds the recent-summary feed.
	recentSummaryCount = 20
)

// Scanner is the slice of the store the aggregator reads through. An empty
// returned token means the scan is exhausted.
type Scanner interface {
	ScanPage(ctx context.Context, token string, limit int) ([]models.FeedbackRecord, string, error)
}

// TopicCount is one entry in the ranked topic list.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// TrendPoint is the per-month sentiment share, as rounded percentages.
type TrendPoint struct {
	Month    string `json:"month"`
	Positive int    `json:"positive"`
	Negative int    `json:"negative"`
	Neutral  int    `json:"neutral"`
}

// SummaryEntry is one reduced record in the recent-summary feed.
type SummaryEntry struct {
	Summary   string   `json:"summary"`
	Sentiment string   `json:"sentiment"`
	Topics    []string `json:"topics"`
	Date      string   `json:"timestamp"`
}

// Report is the full analytics payload served to clients.
type Report struct {
	TotalSubmissions int            `json:"totalSubmissions"`
	ThisMonth        int            `json:"thisMonth"`
	PositivePercent  int            `json:"positivePercent"`
	TopTopic         string         `json:"topTopic"`
	SentimentCounts  map[string]int `json:"sentimentCounts"`
	TopTopics        []TopicCount   `json:"topTopics"`
	SentimentTrend   []TrendPoint   `json:"sentimentTrend"`
	RecentSummaries  []SummaryEntry `json:"recentSummaries"`
	Topics           []string       `json:"topics"`
}

// Aggregator computes insight reports from the full record set. It is
// read-only and holds no state between reports.
type Aggregator struct {
	scanner  Scanner
	pageSize int
	now      func() time.Time
}

// NewAggregator creates an aggregator that scans in pages of the given size.
func NewAggregator(scanner Scanner, pageSize int) *Aggregator {
	return &Aggregator{
		scanner:  scanner,
		pageSize: pageSize,
		now:      time.Now,
	}
}

// Report scans the entire record set and computes the analytics payload.
// The scan offers no snapshot isolation; records written concurrently may
// or may not be reflected.
func (a *Aggregator) Report(ctx context.Context) (*Report, error) {
	sentimentCounts := map[string]int{
		models.SentimentPositive: 0,
		models.SentimentNegative: 0,
		models.SentimentNeutral:  0,
	}

	var (
		total        int
		thisMonth    int
		allTopics    = []string{}
		topicOrder   []string
		topicCounts  = map[string]int{}
		monthly      = map[string]*TrendPoint{}
		monthTotals  = map[string]int{}
		summaries    []SummaryEntry
		currentMonth = a.now().UTC().Format("2006-01")
	)

	token := ""
	for {
		records, next, err := a.scanner.ScanPage(ctx, token, a.pageSize)
		if err != nil {
			return nil, fmt.Errorf("scan records: %w", err)
		}

		for _, r := range records {
			total++

			sentiment := r.Sentiment
			if _, ok := sentimentCounts[sentiment]; !ok {
				sentiment = models.SentimentNeutral
			}
			sentimentCounts[sentiment]++

			monthKey := r.CreatedAt.UTC().Format("2006-01")
			if monthKey == currentMonth {
				thisMonth++
			}

			bucket, ok := monthly[monthKey]
			if !ok {
				bucket = &TrendPoint{}
				monthly[monthKey] = bucket
			}
			monthTotals[monthKey]++
			switch sentiment {
			case models.SentimentPositive:
				bucket.Positive++
			case models.SentimentNegative:
				bucket.Negative++
			default:
				bucket.Neutral++
			}

			if r.Summary != "" && r.AnalysisState == models.StateComplete {
				topics := r.Topics
				if topics == nil {
					topics = []string{}
				}
				summaries = append(summaries, SummaryEntry{
					Summary:   r.Summary,
					Sentiment: sentiment,
					Topics:    topics,
					Date:      r.CreatedAt.UTC().Format("2006-01-02"),
				})
			}

			for _, topic := range r.Topics {
				if _, seen := topicCounts[topic]; !seen {
					topicOrder = append(topicOrder, topic)
				}
				topicCounts[topic]++
				allTopics = append(allTopics, topic)
			}
		}

		if next == "" {
			break
		}
		token = next
	}

	report := &Report{
		TotalSubmissions: total,
		ThisMonth:        thisMonth,
		TopTopic:         "N/A",
		SentimentCounts:  sentimentCounts,
		TopTopics:        rankTopics(topicOrder, topicCounts),
		SentimentTrend:   buildTrend(monthly, monthTotals),
		RecentSummaries:  lastN(summaries, recentSummaryCount),
		Topics:           allTopics,
	}

	if total > 0 {
		report.PositivePercent = roundPercent(sentimentCounts[models.SentimentPositive], total)
	}
	if len(report.TopTopics) > 0 {
		report.TopTopic = report.TopTopics[0].Topic
	}

	return report, nil
}

// rankTopics orders topics by descending count, ties broken by
// first-encountered order, capped at topTopicCount.
func rankTopics(order []string, counts map[string]int) []TopicCount {
	ranked := make([]TopicCount, 0, len(order))
	for _, topic := range order {
		ranked = append(ranked, TopicCount{Topic: topic, Count: counts[topic]})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if len(ranked) > topTopicCount {
		ranked = ranked[:topTopicCount]
	}
	return ranked
}

// buildTrend selects the most recent trend buckets in chronological order
// and converts counts to rounded percentage shares. An empty bucket keeps
// a denominator of 1 so the division is always defined.
func buildTrend(monthly map[string]*TrendPoint, totals map[string]int) []TrendPoint {
	months := make([]string, 0, len(monthly))
	for m := range monthly {
		months = append(months, m)
	}
	sort.Strings(months)
	if len(months) > trendMonths {
		months = months[len(months)-trendMonths:]
	}

	trend := make([]TrendPoint, 0, len(months))
	for _, m := range months {
		bucket := monthly[m]
		denom := totals[m]
		if denom == 0 {
			denom = 1
		}
		trend = append(trend, TrendPoint{
			Month:    monthLabel(m),
			Positive: roundPercent(bucket.Positive, denom),
			Negative: roundPercent(bucket.Negative, denom),
			Neutral:  roundPercent(bucket.Neutral, denom),
		})
	}
	return trend
}

// monthLabel converts "2025-11" to "Nov 25". Unparseable keys pass through.
func monthLabel(monthKey string) string {
	t, err := time.Parse("2006-01", monthKey)
	if err != nil {
		return monthKey
	}
	return t.Format("Jan 06")
}

func roundPercent(part, whole int) int {
	return int(math.Round(float64(part) / float64(whole) * 100))
}

func lastN(entries []SummaryEntry, n int) []SummaryEntry {
	if entries == nil {
		return []SummaryEntry{}
	}
	if len(entries) > n {
		return entries[len(entries)-n:]
	}
	return entries
}
