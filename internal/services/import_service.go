package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/openprep/sat-import-service/internal/events"
	"github.com/openprep/sat-import-service/internal/models"
	"github.com/openprep/sat-import-service/internal/normalize"
	"github.com/openprep/sat-import-service/internal/progress"
	"github.com/openprep/sat-import-service/internal/qbank"
	"github.com/openprep/sat-import-service/internal/repositories"
	"github.com/openprep/sat-import-service/internal/taxonomy"
	"github.com/openprep/sat-import-service/internal/utils"
	"github.com/openprep/sat-import-service/internal/validator"
)

// QuestionFetcher is the vendor API surface the orchestrator depends on.
// *qbank.Client satisfies it.
type QuestionFetcher interface {
	FetchOverview(ctx context.Context, testID int, domain string, eventID int) ([]qbank.OverviewItem, error)
	FetchDetail(ctx context.Context, item qbank.OverviewItem) (*qbank.Detail, error)
}

// ItemOutcome classifies what happened to one overview item. Every processed
// index gets exactly one outcome.
type ItemOutcome int

const (
	OutcomeImported ItemOutcome = iota
	OutcomeDuplicate
	OutcomeSkipped
	OutcomeFailed
)

func (o ItemOutcome) String() string {
	switch o {
	case OutcomeImported:
		return "imported"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// BatchResult is the immutable outcome of one pass over a partition window.
type BatchResult struct {
	Partition      models.Partition `json:"partition"`
	TotalQuestions int              `json:"total_questions"`
	StartIndex     int              `json:"start_index"`
	NextIndex      int              `json:"next_index"`
	LastSeenID     string           `json:"last_seen_id,omitempty"`
	Imported       int              `json:"imported"`
	Duplicates     int              `json:"duplicates"`
	Skipped        int              `json:"skipped"`
	Failed         int              `json:"failed"`
}

func (r *BatchResult) Processed() int {
	return r.NextIndex - r.StartIndex
}

func (r *BatchResult) Completed() bool {
	return r.TotalQuestions > 0 && r.NextIndex >= r.TotalQuestions
}

// ImportOptions controls where a pass starts and how far it runs. A negative
// StartIndex resumes from the progress store; MaxQuestions == 0 falls back
// to the rate-limit threshold.
type ImportOptions struct {
	StartIndex   int
	MaxQuestions int
}

// ResumeOptions resumes from the stored position with the default window.
func ResumeOptions() ImportOptions {
	return ImportOptions{StartIndex: -1}
}

// PacingConfig is the stepped delay schedule applied between items. Tiers
// are fixed, not exponential: the vendor rate-limits on sustained request
// rate, not bursts.
type PacingConfig struct {
	ItemDelay       time.Duration
	LightPauseEvery int
	LightPause      time.Duration
	HeavyPauseEvery int
	HeavyPause      time.Duration
}

// ImportServiceConfig bundles orchestrator tuning.
type ImportServiceConfig struct {
	RateLimitThreshold int
	Pacing             PacingConfig
}

const defaultRateLimitThreshold = 422

// ImportService drives the per-partition import loop.
type ImportService interface {
	ImportPartition(ctx context.Context, partition models.Partition, opts ImportOptions) (*BatchResult, error)
	ImportDomain(ctx context.Context, domain string, eventIDs []int) ([]*BatchResult, error)
	ImportTest(ctx context.Context, testID int) ([]*BatchResult, error)
	ImportAll(ctx context.Context) ([]*BatchResult, error)
}

type importService struct {
	fetcher   QuestionFetcher
	repo      repositories.QuestionRepository
	store     *progress.Store
	publisher events.EventPublisher
	validator *validator.Validator
	logger    utils.Logger
	threshold int
	pacing    PacingConfig
	sleep     func(ctx context.Context, d time.Duration)
}

func NewImportService(
	fetcher QuestionFetcher,
	repo repositories.QuestionRepository,
	store *progress.Store,
	publisher events.EventPublisher,
	v *validator.Validator,
	logger utils.Logger,
	cfg ImportServiceConfig,
) ImportService {
	threshold := cfg.RateLimitThreshold
	if threshold <= 0 {
		threshold = defaultRateLimitThreshold
	}
	return &importService{
		fetcher:   fetcher,
		repo:      repo,
		store:     store,
		publisher: publisher,
		validator: v,
		logger:    logger,
		threshold: threshold,
		pacing:    cfg.Pacing,
		sleep:     sleepContext,
	}
}

// ImportPartition runs one pass over a partition: fresh overview fetch,
// bounded window, one outcome per item, then a single progress-store update.
func (s *importService) ImportPartition(ctx context.Context, p models.Partition, opts ImportOptions) (*BatchResult, error) {
	key := p.Key()
	rec := s.store.Get(key)

	overview, err := s.fetcher.FetchOverview(ctx, p.TestID, p.Domain, p.EventID)
	if err != nil {
		return nil, fmt.Errorf("overview fetch for %s: %w", key, err)
	}
	total := len(overview)
	if total == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyOverview, key)
	}

	start := s.resolveStart(key, rec, overview, opts)
	if start >= total {
		s.logger.Info("nothing left to process", "partition", key, "total", total, "start_index", start)
		return &BatchResult{Partition: p, TotalQuestions: total, StartIndex: start, NextIndex: start}, nil
	}

	end := start + s.threshold
	if opts.MaxQuestions > 0 {
		end = start + opts.MaxQuestions
	}
	if end > total {
		end = total
	}

	s.logger.Info("importing partition",
		"partition", key,
		"total", total,
		"start_index", start,
		"end_index", end)

	var delta progress.Delta
	lastSeen := ""
	next := start

	for i := start; i < end; i++ {
		if ctx.Err() != nil {
			s.logger.Warn("import interrupted, flushing progress", "partition", key, "index", i)
			break
		}

		item := overview[i]
		outcome, reason := s.processItem(ctx, p, item)
		switch outcome {
		case OutcomeImported:
			delta.Imported++
		case OutcomeDuplicate:
			delta.Duplicates++
		case OutcomeSkipped:
			delta.Skipped++
		case OutcomeFailed:
			delta.Failed++
		}
		if reason != "" && outcome != OutcomeDuplicate {
			s.logger.Warn("item not imported",
				"partition", key,
				"index", i,
				"outcome", outcome.String(),
				"reason", reason)
		}
		if id, _ := item.Identifier(); id != "" {
			lastSeen = id
		}
		next = i + 1

		s.pace(ctx, next-start)
	}

	if err := s.store.Update(key, total, next, lastSeen, delta); err != nil {
		return nil, fmt.Errorf("%w for %s: %v", ErrUpdateProgress, key, err)
	}

	result := &BatchResult{
		Partition:      p,
		TotalQuestions: total,
		StartIndex:     start,
		NextIndex:      next,
		LastSeenID:     lastSeen,
		Imported:       delta.Imported,
		Duplicates:     delta.Duplicates,
		Skipped:        delta.Skipped,
		Failed:         delta.Failed,
	}

	s.logger.Info("partition pass finished",
		"partition", key,
		"imported", result.Imported,
		"duplicates", result.Duplicates,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"next_index", result.NextIndex,
		"completed", result.Completed())

	if result.Completed() {
		cumulative := s.store.Get(key)
		event := events.NewPartitionCompletedEvent(key, total,
			cumulative.Imported, cumulative.Duplicates, cumulative.Skipped, cumulative.Failed)
		if err := s.publisher.PublishImportEvent(ctx, event); err != nil {
			s.logger.LogError(err, "failed to publish partition.completed", "partition", key)
		}
	}

	return result, nil
}

// resolveStart picks the resume point. The stored index only stays valid
// while the vendor returns a stable ordering, so when the last imported
// identifier is found at a different position the window realigns to just
// past it.
func (s *importService) resolveStart(key string, rec progress.Record, overview []qbank.OverviewItem, opts ImportOptions) int {
	if opts.StartIndex >= 0 {
		return opts.StartIndex
	}

	start := rec.NextStartIndex
	if rec.LastSeenID == "" {
		return start
	}
	for i, item := range overview {
		id, _ := item.Identifier()
		if id == rec.LastSeenID {
			if i+1 != start {
				s.logger.Warn("overview ordering drifted, realigning resume point",
					"partition", key,
					"stored_index", start,
					"last_seen_id", rec.LastSeenID,
					"realigned_index", i+1)
			}
			return i + 1
		}
	}
	return start
}

func (s *importService) processItem(ctx context.Context, p models.Partition, item qbank.OverviewItem) (ItemOutcome, string) {
	id, legacy := item.Identifier()
	if id == "" {
		return OutcomeSkipped, "no external_id or ibn in overview"
	}

	// Classify before fetching detail so unknown codes cost no network call.
	skillID, ok := taxonomy.SkillID(item.SkillCode)
	if !ok {
		return OutcomeSkipped, fmt.Sprintf("unknown skill code %q", item.SkillCode)
	}
	domainID, subjectID, ok := taxonomy.Classify(item.SkillCode)
	if !ok {
		return OutcomeSkipped, fmt.Sprintf("unclassifiable skill code %q", item.SkillCode)
	}

	exists, err := s.itemExists(ctx, id, legacy)
	if err != nil {
		s.logger.LogError(err, "existence check failed, relying on upsert", "id", id)
	}
	if exists {
		return OutcomeDuplicate, "already exists"
	}

	detail, err := s.fetcher.FetchDetail(ctx, item)
	if err != nil {
		return OutcomeFailed, fmt.Sprintf("detail fetch: %v", err)
	}

	content, err := normalize.FromDetail(detail)
	if err != nil {
		return OutcomeSkipped, fmt.Sprintf("normalize: %v", err)
	}

	question, err := buildQuestion(item, content, id, legacy, skillID, domainID, subjectID)
	if err != nil {
		return OutcomeFailed, fmt.Sprintf("encode: %v", err)
	}
	if err := s.validator.ValidateQuestion(question); err != nil {
		return OutcomeSkipped, fmt.Sprintf("validate: %v", err)
	}

	created, err := s.repo.Upsert(ctx, question)
	if err != nil {
		return OutcomeFailed, fmt.Sprintf("upsert: %v", err)
	}
	if !created {
		// The backend returns no row both for conflicts and for silent
		// failures; after the pre-check passed this is treated as a racing
		// duplicate, never as an error.
		return OutcomeDuplicate, "duplicate detected by upsert"
	}

	event := events.NewQuestionImportedEvent(p.Key(), question.Origin,
		deref(question.SATExternalID), deref(question.SATIBN), skillID)
	if err := s.publisher.PublishImportEvent(ctx, event); err != nil {
		s.logger.LogError(err, "failed to publish question.imported", "id", id)
	}

	return OutcomeImported, ""
}

func (s *importService) itemExists(ctx context.Context, id string, legacy bool) (bool, error) {
	if legacy {
		return s.repo.ExistsByIBN(ctx, id)
	}
	return s.repo.ExistsByExternalID(ctx, id)
}

func buildQuestion(item qbank.OverviewItem, content *normalize.Content, id string, legacy bool, skillID, domainID, subjectID string) (*models.Question, error) {
	question := &models.Question{
		Origin:       models.OriginSATOfficial,
		QuestionText: content.QuestionText,
		Stimulus:     content.Stimulus,
		QuestionType: content.QuestionType,
		SkillID:      skillID,
		DomainID:     domainID,
		SubjectID:    subjectID,
		Explanation:  content.Explanation,
		IsActive:     true,
	}

	if legacy {
		question.Origin = models.OriginSATOfficialIBN
		question.SATIBN = &id
	} else {
		question.SATExternalID = &id
	}

	question.DifficultyBand = item.ScoreBand
	if question.DifficultyBand == 0 {
		question.DifficultyBand = 3
	}
	if item.Difficulty != "" {
		difficulty := item.Difficulty
		question.DifficultyLetter = &difficulty
	}
	question.SATProgram = item.Program
	if question.SATProgram == "" {
		question.SATProgram = "SAT"
	}

	if len(content.AnswerOptions) > 0 {
		raw, err := json.Marshal(content.AnswerOptions)
		if err != nil {
			return nil, fmt.Errorf("marshal answer options: %w", err)
		}
		question.AnswerOptions = datatypes.JSON(raw)
	}

	correct := content.CorrectAnswers
	if correct == nil {
		correct = []string{}
	}
	raw, err := json.Marshal(correct)
	if err != nil {
		return nil, fmt.Errorf("marshal correct answers: %w", err)
	}
	question.CorrectAnswers = datatypes.JSON(raw)

	return question, nil
}

func (s *importService) pace(ctx context.Context, processed int) {
	s.sleep(ctx, s.pacing.ItemDelay)
	if s.pacing.LightPauseEvery > 0 && processed%s.pacing.LightPauseEvery == 0 {
		s.sleep(ctx, s.pacing.LightPause)
	}
	if s.pacing.HeavyPauseEvery > 0 && processed%s.pacing.HeavyPauseEvery == 0 {
		s.sleep(ctx, s.pacing.HeavyPause)
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// ImportDomain imports every requested event of one domain, resuming each
// partition from its stored position. Partition-level failures are logged
// and do not stop the remaining events.
func (s *importService) ImportDomain(ctx context.Context, domain string, eventIDs []int) ([]*BatchResult, error) {
	info, ok := taxonomy.Domains[domain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDomain, domain)
	}
	if len(eventIDs) == 0 {
		eventIDs = taxonomy.DefaultEventIDs
	}

	var results []*BatchResult
	for _, eventID := range eventIDs {
		if ctx.Err() != nil {
			break
		}
		partition := models.Partition{TestID: info.TestID, Domain: domain, EventID: eventID}
		result, err := s.ImportPartition(ctx, partition, ResumeOptions())
		if err != nil {
			s.logger.LogError(err, "partition import failed, continuing", "partition", partition.Key())
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

// ImportTest imports every domain of one test.
func (s *importService) ImportTest(ctx context.Context, testID int) ([]*BatchResult, error) {
	domains := taxonomy.DomainsForTest(testID)
	if domains == nil {
		return nil, fmt.Errorf("%w: test %d", ErrUnknownDomain, testID)
	}

	var results []*BatchResult
	for _, domain := range domains {
		if ctx.Err() != nil {
			break
		}
		domainResults, err := s.ImportDomain(ctx, domain, nil)
		if err != nil {
			return results, err
		}
		results = append(results, domainResults...)
	}
	return results, nil
}

// ImportAll imports both tests, reading/writing first.
func (s *importService) ImportAll(ctx context.Context) ([]*BatchResult, error) {
	var results []*BatchResult
	for _, testID := range []int{taxonomy.TestReadingWriting, taxonomy.TestMath} {
		if ctx.Err() != nil {
			break
		}
		testResults, err := s.ImportTest(ctx, testID)
		results = append(results, testResults...)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
