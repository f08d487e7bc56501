// Package mocks provides gomock implementations of the ports in internal/core.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	queue := mocks.NewMockQueueRepository(ctrl)
//	queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(entry, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=queue_repository_mock.go github.com/briefq/briefq/internal/core QueueRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_record_repository_mock.go github.com/briefq/briefq/internal/core JobRecordRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=history_repository_mock.go github.com/briefq/briefq/internal/core HistoryRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=news_analysis_repository_mock.go github.com/briefq/briefq/internal/core NewsAnalysisRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=reaper_repository_mock.go github.com/briefq/briefq/internal/core ReaperRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/briefq/briefq/internal/core CacheRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=search_provider_mock.go github.com/briefq/briefq/internal/core SearchProvider
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=headline_source_mock.go github.com/briefq/briefq/internal/core HeadlineSource
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=article_analyzer_mock.go github.com/briefq/briefq/internal/core ArticleAnalyzer
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=email_sender_mock.go github.com/briefq/briefq/internal/core EmailSender
