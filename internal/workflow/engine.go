// Package workflow implements the per-site check DAG: fetch, extract,
// then detect and vectorize concurrently, classify when the change is
// significant or ambiguous, persist, and alert. A single struct wires
// the pipeline's stages together behind one exported entry point,
// Run.
package workflow

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sitesentry/sitesentry/internal/browser"
	"github.com/sitesentry/sitesentry/internal/classifier/ensemble"
	"github.com/sitesentry/sitesentry/internal/clock"
	"github.com/sitesentry/sitesentry/internal/detector"
	appErrors "github.com/sitesentry/sitesentry/internal/errors"
	"github.com/sitesentry/sitesentry/internal/hasher"
	"github.com/sitesentry/sitesentry/internal/metrics"
	"github.com/sitesentry/sitesentry/internal/models"
	"github.com/sitesentry/sitesentry/internal/notifier"
	"github.com/sitesentry/sitesentry/internal/store"
	"github.com/sitesentry/sitesentry/internal/vectorizer"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sergi/go-diff/diffmatchpatch"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// defaultSiteDownThreshold is how many consecutive fetch failures a site
// needs before the engine raises a site_down alert.
const defaultSiteDownThreshold = 3

// FetchSession is the narrow view of a leased browser session the
// engine needs, so tests can substitute a fake instead of a real
// rod.Browser.
type FetchSession interface {
	Fetch(ctx context.Context, url string) (*browser.FetchResult, error)
}

// FetchPool is the narrow view of browser.Pool the engine needs.
type FetchPool interface {
	Acquire(ctx context.Context) (FetchSession, error)
	Release(session FetchSession)
}

// poolAdapter satisfies FetchPool against a real *browser.Pool, whose
// Acquire/Release operate on the concrete *browser.Session type.
type poolAdapter struct{ pool *browser.Pool }

// WrapPool adapts a real browser pool to the FetchPool interface Engine
// depends on.
func WrapPool(pool *browser.Pool) FetchPool { return poolAdapter{pool: pool} }

func (a poolAdapter) Acquire(ctx context.Context) (FetchSession, error) {
	return a.pool.Acquire(ctx)
}

func (a poolAdapter) Release(session FetchSession) {
	if s, ok := session.(*browser.Session); ok {
		a.pool.Release(s)
	}
}

// Engine runs the DAG for one site at a time via Run, which satisfies
// scheduler.RunFunc so the scheduler can invoke it directly.
type Engine struct {
	browsers      FetchPool
	extractor     *hasher.Extractor
	fingerprinter *hasher.Fingerprinter
	detector      *detector.Detector
	vectorizer    *vectorizer.Vectorizer // nil disables the vectorize step
	classifier    *ensemble.Pipeline

	snapshots store.SnapshotStore
	vectors   store.VectorStore
	alerts    store.AlertStore
	sites     store.SiteStore
	notify    notifier.Notifier

	clock             clock.Clock
	logger            zerolog.Logger
	sem               *semaphore.Weighted
	siteDownThreshold int

	mu                       sync.Mutex
	consecutiveFetchFailures map[string]int
}

// New builds an Engine. maxConcurrentJobs bounds how many sites can be
// mid-workflow at once, enforced by a weighted semaphore independent of
// whatever gate the caller (typically the scheduler) already applies.
func New(
	browsers FetchPool,
	extractor *hasher.Extractor,
	fingerprinter *hasher.Fingerprinter,
	det *detector.Detector,
	vec *vectorizer.Vectorizer,
	classifier *ensemble.Pipeline,
	snapshots store.SnapshotStore,
	vectors store.VectorStore,
	alerts store.AlertStore,
	sites store.SiteStore,
	notify notifier.Notifier,
	maxConcurrentJobs int,
	c clock.Clock,
	logger zerolog.Logger,
) *Engine {
	if maxConcurrentJobs <= 0 {
		maxConcurrentJobs = 1
	}
	return &Engine{
		browsers:                 browsers,
		extractor:                extractor,
		fingerprinter:            fingerprinter,
		detector:                 det,
		vectorizer:               vec,
		classifier:               classifier,
		snapshots:                snapshots,
		vectors:                  vectors,
		alerts:                   alerts,
		sites:                    sites,
		notify:                   notify,
		clock:                    c,
		logger:                   logger.With().Str("component", "workflow_engine").Logger(),
		sem:                      semaphore.NewWeighted(int64(maxConcurrentJobs)),
		siteDownThreshold:        defaultSiteDownThreshold,
		consecutiveFetchFailures: map[string]int{},
	}
}

// Run executes one full check cycle for site. It matches
// scheduler.RunFunc's signature.
func (e *Engine) Run(ctx context.Context, site *models.Site) error {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer e.sem.Release(1)

	fetchResult, fetchErr := e.fetch(ctx, site)
	if fetchErr != nil {
		e.recordFetchFailure(ctx, site)
		return fetchErr
	}
	e.clearFetchFailures(site.ID)

	content, truncated, err := e.extractor.Extract(site.URL, fetchResult.RawHTML)
	if err != nil {
		e.logger.Error().Err(err).Str("site_id", site.ID).Msg("extraction failed, aborting check")
		return err
	}

	fingerprints := e.fingerprinter.Fingerprint(content)

	baseline, err := e.snapshots.Baseline(ctx, site.ID)
	if err != nil && !stderrors.Is(err, appErrors.ErrNotFound) {
		return fmt.Errorf("load baseline: %w", err)
	}

	snapshot := &models.Snapshot{
		ID:            uuid.NewString(),
		SiteID:        site.ID,
		CapturedAt:    e.clock.Now(),
		HTTPStatus:    fetchResult.HTTPStatus,
		ResponseTime:  fetchResult.Elapsed,
		RawHTML:       fetchResult.RawHTML,
		ExtractedText: content.NormalizedText,
		Fingerprints:  fingerprints,
		Truncated:     truncated,
		Depth:         0,
	}

	if baseline == nil {
		snapshot.Verdict = models.VerdictInitial
		return e.persistAndAlert(ctx, site, snapshot, nil)
	}

	decision, vector, baselineContent := e.detectAndVectorize(ctx, site, baseline, &fingerprints, content)

	snapshot.PrevSimilarityScore = &decision.KeywordSimilarity

	if !decision.Magnitude.RequiresClassification() {
		if decision.Magnitude == models.ChangeUnchanged {
			snapshot.Verdict = baseline.Verdict
		} else {
			snapshot.Verdict = verdictForMagnitude(decision.Magnitude)
		}
		if vector != nil {
			snapshot.VectorRef = snapshot.ID
		}
		return e.persistAndAlert(ctx, site, snapshot, vector)
	}

	classifyStart := e.clock.Now()
	result, weights := e.classifier.Classify(ctx, e.classificationRequest(ctx, site, baseline, baselineContent, content, vector))
	metrics.ObserveClassifyDuration(e.clock.Now().Sub(classifyStart))
	for _, sub := range result.SubResults {
		metrics.ObserveClassifierVote(sub.Classifier, string(sub.Tag))
	}
	snapshot.Verdict = result.Verdict
	snapshot.Confidence = result.Confidence
	if vector != nil {
		snapshot.VectorRef = snapshot.ID
	}

	if site.ClassifierWeights == nil {
		site.ClassifierWeights = map[string]float64{}
	}
	for k, v := range weights {
		site.ClassifierWeights[k] = v
	}
	if err := e.sites.Update(ctx, site); err != nil {
		e.logger.Warn().Err(err).Str("site_id", site.ID).Msg("failed to persist adaptive classifier weights")
	}

	return e.persistAndAlert(ctx, site, snapshot, vector)
}

func (e *Engine) fetch(ctx context.Context, site *models.Site) (*browser.FetchResult, error) {
	session, err := e.browsers.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire browser session: %w", err)
	}
	defer e.browsers.Release(session)

	start := e.clock.Now()
	result, err := session.Fetch(ctx, site.URL)
	metrics.ObserveFetchDuration(site.ID, e.clock.Now().Sub(start))
	return result, err
}

func (e *Engine) recordFetchFailure(ctx context.Context, site *models.Site) {
	e.mu.Lock()
	e.consecutiveFetchFailures[site.ID]++
	count := e.consecutiveFetchFailures[site.ID]
	e.mu.Unlock()

	if count < e.siteDownThreshold {
		return
	}

	alert := models.Alert{
		ID:        uuid.NewString(),
		SiteID:    site.ID,
		Kind:      models.AlertSiteDown,
		Severity:  models.SeverityHigh,
		Title:     "Site unreachable",
		Description: fmt.Sprintf("%d consecutive fetch failures for %s", count, site.URL),
		Status:    models.AlertOpen,
		CreatedAt: e.clock.Now(),
		UpdatedAt: e.clock.Now(),
	}
	e.raiseAlert(ctx, alert)
}

func (e *Engine) clearFetchFailures(siteID string) {
	e.mu.Lock()
	delete(e.consecutiveFetchFailures, siteID)
	e.mu.Unlock()
}

// detectAndVectorize runs the detect and vectorize steps concurrently,
// since neither depends on the other's output. A vectorize failure is
// non-fatal: the classifier tolerates a nil vector.
func (e *Engine) detectAndVectorize(ctx context.Context, site *models.Site, baseline *models.Snapshot, currentFingerprints *models.Fingerprints, currentContent *models.ExtractedContent) (detector.Decision, []float32, *models.ExtractedContent) {
	baselineContent, degraded := e.resolveBaselineContent(baseline)

	var decision detector.Decision
	var vector []float32

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if degraded {
			decision = detector.Decision{Magnitude: models.ChangeSignificant}
			return nil
		}
		decision = e.detector.Compare(site, &baseline.Fingerprints, currentFingerprints, baselineContent, currentContent)
		return nil
	})
	g.Go(func() error {
		if e.vectorizer == nil {
			return nil
		}
		v, err := e.vectorizer.Vectorize(gctx, currentContent.NormalizedText, models.VectorMain)
		if err != nil {
			e.logger.Warn().Err(err).Str("site_id", site.ID).Msg("vectorization failed, proceeding without vector")
			return nil
		}
		vector = v
		return nil
	})
	_ = g.Wait() // both goroutines swallow their own errors; nothing to propagate

	return decision, vector, baselineContent
}

// resolveBaselineContent re-extracts the baseline's content from its
// stored RawHTML when available. When the baseline predates content
// retention or its HTML was never kept, there is nothing to diff
// keyword/structural similarity against; the caller treats this as a
// significant change rather than guessing.
func (e *Engine) resolveBaselineContent(baseline *models.Snapshot) (*models.ExtractedContent, bool) {
	if len(baseline.RawHTML) == 0 {
		return nil, true
	}
	content, _, err := e.extractor.Extract("", baseline.RawHTML)
	if err != nil {
		return nil, true
	}
	return content, false
}

func (e *Engine) classificationRequest(ctx context.Context, site *models.Site, baseline *models.Snapshot, baselineContent, content *models.ExtractedContent, currentVector []float32) ensemble.Request {
	baselineVectors := map[models.VectorKind][]float32{}
	if bv := e.loadBaselineVector(ctx, baseline); bv != nil {
		baselineVectors[models.VectorMain] = bv
	}
	currentVectors := map[models.VectorKind][]float32{}
	if currentVector != nil {
		currentVectors[models.VectorMain] = currentVector
	}

	var changed, static []string
	if baselineContent != nil {
		changed = changedExcerpts(baselineContent.NormalizedText, content.NormalizedText)
		static = staticContext(content.TextBlocks, changed)
	}

	return ensemble.Request{
		SiteURL:             site.URL,
		NormalizedText:      content.NormalizedText,
		TextBlocks:          content.TextBlocks,
		ChangedContent:      changed,
		StaticContext:       static,
		PreviousVerdict:     baseline.Verdict,
		BaselineVectors:     baselineVectors,
		CurrentVectors:      currentVectors,
		HasBaseline:         true,
		SiteMetadataPresent: site.DisplayName != "",
		PreviousWeights:     site.ClassifierWeights,
	}
}

// loadBaselineVector fetches the baseline snapshot's main embedding so
// the semantic sub-classifier has both sides of the cosine comparison;
// an empty VectorRef means the baseline predates vectorization or the
// vectorize step was disabled when it was captured.
func (e *Engine) loadBaselineVector(ctx context.Context, baseline *models.Snapshot) []float32 {
	if baseline.VectorRef == "" {
		return nil
	}
	vectors, err := e.vectors.BySnapshot(ctx, baseline.VectorRef)
	if err != nil {
		e.logger.Warn().Err(err).Str("snapshot_id", baseline.VectorRef).Msg("failed to load baseline vector")
		return nil
	}
	for _, v := range vectors {
		if v.Kind == models.VectorMain {
			return v.Payload
		}
	}
	return nil
}

// changedExcerpts line-diffs the baseline and current text and returns
// the non-equal segments, trimmed and capped, for the LLM prompt's
// "changed content" section. Inserted (current) segments come first,
// followed by the deleted baseline segments.
func changedExcerpts(baselineText, currentText string) []string {
	dmp := diffmatchpatch.New()
	baseChars, curChars, lineArray := dmp.DiffLinesToChars(baselineText, currentText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(baseChars, curChars, false), lineArray)

	const maxExcerpts = 20
	var inserted, deleted []string
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			continue
		}
		text := strings.TrimSpace(d.Text)
		if text == "" {
			continue
		}
		if d.Type == diffmatchpatch.DiffInsert {
			inserted = append(inserted, text)
		} else {
			deleted = append(deleted, text)
		}
	}
	excerpts := append(inserted, deleted...)
	if len(excerpts) > maxExcerpts {
		excerpts = excerpts[:maxExcerpts]
	}
	return excerpts
}

// staticContext picks a handful of text blocks that did not change, so
// the LLM sees the page's stable surroundings alongside the diff.
func staticContext(blocks, changed []string) []string {
	changedSet := make(map[string]struct{}, len(changed))
	for _, c := range changed {
		changedSet[c] = struct{}{}
	}

	const maxBlocks = 5
	var static []string
	for _, b := range blocks {
		if _, ok := changedSet[b]; ok {
			continue
		}
		static = append(static, b)
		if len(static) >= maxBlocks {
			break
		}
	}
	return static
}

// verdictForMagnitude assigns the verdict for magnitudes that skip
// classification. ChangeUnchanged is handled by the caller, which
// carries the baseline's own verdict forward instead.
func verdictForMagnitude(m models.ChangeMagnitude) models.Verdict {
	if m == models.ChangeMinor {
		return models.VerdictBenign
	}
	return models.VerdictUnclear
}

// persistAndAlert saves the snapshot (and vector, if any), retrying the
// snapshot save once on failure before surfacing it as a job failure,
// then raises an alert when the verdict warrants one.
func (e *Engine) persistAndAlert(ctx context.Context, site *models.Site, snapshot *models.Snapshot, vector []float32) error {
	if err := e.saveSnapshotWithRetry(ctx, snapshot); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}

	if vector != nil {
		v := &models.Vector{
			ID:         uuid.NewString(),
			SiteID:     site.ID,
			SnapshotID: snapshot.ID,
			Kind:       models.VectorMain,
			Dimension:  len(vector),
			Payload:    vector,
		}
		if err := e.vectors.Save(ctx, v); err != nil {
			e.logger.Warn().Err(err).Str("snapshot_id", snapshot.ID).Msg("failed to persist vector")
		}
	}

	if snapshot.Verdict == models.VerdictDefacement || snapshot.Verdict == models.VerdictSuspicious {
		alert := models.Alert{
			ID:           uuid.NewString(),
			SiteID:       site.ID,
			SnapshotID:   snapshot.ID,
			Kind:         alertKindForVerdict(snapshot.Verdict),
			Severity:     models.SeverityForClassification(snapshot.Verdict, snapshot.Confidence),
			Title:        alertTitleForVerdict(snapshot.Verdict),
			Description:  fmt.Sprintf("verdict=%s confidence=%.2f", snapshot.Verdict, snapshot.Confidence),
			VerdictLabel: snapshot.Verdict,
			Confidence:   snapshot.Confidence,
			Status:       models.AlertOpen,
			CreatedAt:    e.clock.Now(),
			UpdatedAt:    e.clock.Now(),
		}
		e.raiseAlert(ctx, alert)
	}

	return nil
}

func (e *Engine) saveSnapshotWithRetry(ctx context.Context, snapshot *models.Snapshot) error {
	err := e.snapshots.Save(ctx, snapshot)
	if err == nil {
		return nil
	}
	e.logger.Warn().Err(err).Str("snapshot_id", snapshot.ID).Msg("snapshot save failed, retrying once")
	time.Sleep(100 * time.Millisecond)
	return e.snapshots.Save(ctx, snapshot)
}

// raiseAlert persists the alert and hands it to the notifier
// fire-and-forget: the core does not block on delivery, so Emit runs
// in its own goroutine with a bounded timeout.
func (e *Engine) raiseAlert(ctx context.Context, alert models.Alert) {
	if err := e.alerts.Save(ctx, &alert); err != nil {
		e.logger.Error().Err(err).Str("site_id", alert.SiteID).Msg("failed to persist alert")
		return
	}
	metrics.ObserveAlert(string(alert.Kind), string(alert.Severity))
	if e.notify == nil {
		return
	}
	go func() {
		notifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.notify.Emit(notifyCtx, alert); err != nil {
			e.logger.Warn().Err(err).Str("alert_id", alert.ID).Msg("notification delivery failed")
		}
	}()
}

func alertKindForVerdict(v models.Verdict) models.AlertKind {
	if v == models.VerdictDefacement {
		return models.AlertDefacement
	}
	return models.AlertSuspicious
}

func alertTitleForVerdict(v models.Verdict) string {
	if v == models.VerdictDefacement {
		return "Possible defacement detected"
	}
	return "Suspicious content change detected"
}
