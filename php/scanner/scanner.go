// Package scanner keeps the persisted intel of project roots current. A
// single background worker drains a queue of file paths and full-project
// scans, extracting declarations and updating each root's index.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/phpintel/php"
	"github.com/dhamidi/phpintel/php/intel"
)

var log = commonlog.GetLogger("phpintel.scanner")

// All is the queue entry that rescans every root.
const All = "__all__"

const DefaultSaveEvery = 100

var ErrAborted = errors.New("scan aborted")

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusAborted    Status = "aborted"
	StatusFailed     Status = "failed"
)

// Progress describes the state of one worker run.
type Progress struct {
	ID        string
	Status    Status
	Root      string
	Path      string
	Message   string
	Files     int
	Queued    int
	StartedAt time.Time
	Elapsed   time.Duration
	Err       error
}

func (p Progress) Done() bool {
	switch p.Status {
	case StatusCompleted, StatusAborted, StatusFailed:
		return true
	}
	return false
}

type Options struct {
	Filter Filter
	// SaveEvery is the number of files scanned between index saves during
	// a full scan.
	SaveEvery int
}

type Scanner struct {
	intel     *intel.Intel
	filter    Filter
	saveEvery int
	abort     atomic.Bool

	mu      sync.Mutex
	queue   []string
	running bool
	idle    chan struct{}
	cancel  context.CancelFunc
	current Progress
	subs    map[int]chan Progress
	nextSub int
}

func New(in *intel.Intel, opts Options) *Scanner {
	if opts.SaveEvery <= 0 {
		opts.SaveEvery = DefaultSaveEvery
	}
	if len(opts.Filter.Extensions) == 0 {
		opts.Filter.Extensions = DefaultFilter().Extensions
	}
	idle := make(chan struct{})
	close(idle)
	return &Scanner{
		intel:     in,
		filter:    opts.Filter,
		saveEvery: opts.SaveEvery,
		idle:      idle,
		current:   Progress{Status: StatusPending},
		subs:      make(map[int]chan Progress),
	}
}

// Enqueue schedules path, or All, for scanning and starts the worker if
// none is running. It reports false when path is already queued.
func (s *Scanner) Enqueue(path string) bool {
	return s.enqueue(context.Background(), path)
}

func (s *Scanner) enqueue(ctx context.Context, path string) bool {
	if path != All {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	added := true
	for _, queued := range s.queue {
		if queued == path {
			added = false
			break
		}
	}
	if added {
		s.queue = append(s.queue, path)
	}
	if !s.running {
		s.start(ctx)
	}
	return added
}

// start launches the worker. Callers hold s.mu.
func (s *Scanner) start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.idle = make(chan struct{})
	s.abort.Store(false)
	go s.run(ctx, s.idle)
}

// Run queues paths and blocks until the worker is idle. Cancelling ctx
// aborts the scan.
func (s *Scanner) Run(ctx context.Context, paths ...string) error {
	for _, path := range paths {
		s.enqueue(ctx, path)
	}

	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
	case <-ctx.Done():
		s.Abort()
		<-idle
	}
	return s.Status().Err
}

// Wait blocks until the worker is idle and returns the error of its last
// run.
func (s *Scanner) Wait() error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()
	<-idle
	return s.Status().Err
}

// Abort drops queued work and stops the worker after the file in flight.
func (s *Scanner) Abort() {
	s.abort.Store(true)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = nil
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Scanner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scanner) Status() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe returns a channel of progress updates and a function that
// unsubscribes it. Updates are dropped while the channel is full.
func (s *Scanner) Subscribe() (<-chan Progress, func()) {
	ch := make(chan Progress, 16)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *Scanner) publish(update func(p *Progress)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	update(&s.current)
	s.current.Queued = len(s.queue)
	if !s.current.StartedAt.IsZero() {
		s.current.Elapsed = time.Since(s.current.StartedAt)
	}
	for _, ch := range s.subs {
		select {
		case ch <- s.current:
		default:
			if !s.current.Done() {
				continue
			}
			// The final update replaces the oldest pending one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s.current:
			default:
			}
		}
	}
}

func (s *Scanner) aborted(ctx context.Context) bool {
	return s.abort.Load() || ctx.Err() != nil
}

func (s *Scanner) run(ctx context.Context, idle chan struct{}) {
	for {
		s.finish(ctx, s.drain(ctx))

		// Paths queued while finishing were not seen by drain.
		s.mu.Lock()
		if len(s.queue) > 0 && !s.aborted(ctx) {
			s.mu.Unlock()
			continue
		}
		s.queue = nil
		s.running = false
		s.cancel()
		s.cancel = nil
		s.mu.Unlock()
		close(idle)
		return
	}
}

// drain scans queued paths until the queue is empty or the run is aborted.
func (s *Scanner) drain(ctx context.Context) *scanRun {
	run := &scanRun{id: uuid.NewString(), started: time.Now()}
	log.Infof("scan %s started", run.id)
	s.publish(func(p *Progress) {
		*p = Progress{ID: run.id, Status: StatusInProgress, StartedAt: run.started}
	})

	for {
		s.mu.Lock()
		if len(s.queue) == 0 || s.aborted(ctx) {
			s.mu.Unlock()
			return run
		}
		path := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if path == All {
			s.scanAll(ctx, run)
		} else {
			s.scanOne(path, run)
		}
	}
}

// scanRun accumulates the outcome of one worker run.
type scanRun struct {
	id      string
	started time.Time
	files   int
	errs    []error
}

func (r *scanRun) fail(err error) {
	log.Errorf("%v", err)
	r.errs = append(r.errs, err)
}

func (s *Scanner) finish(ctx context.Context, run *scanRun) {
	elapsed := time.Since(run.started)
	status := StatusCompleted
	var err error
	switch {
	case s.aborted(ctx):
		status, err = StatusAborted, ErrAborted
	case len(run.errs) > 0:
		status, err = StatusFailed, errors.Join(run.errs...)
	}

	message := ""
	switch {
	case status == StatusAborted:
		message = "Scan aborted"
	case run.files > 0:
		message = "Scan completed in " + FormatElapsed(elapsed)
	}
	log.Infof("scan %s %s: %d files in %s", run.id, status, run.files, FormatElapsed(elapsed))

	s.publish(func(p *Progress) {
		p.Status = status
		p.Path = ""
		p.Message = message
		p.Files = run.files
		p.Err = err
	})
}

// scanAll rebuilds the index of every root from scratch.
func (s *Scanner) scanAll(ctx context.Context, run *scanRun) {
	tokenizer := s.intel.Tokenizer()
	for _, store := range s.intel.Stores() {
		if s.aborted(ctx) {
			return
		}
		root := store.Root()
		index := intel.NewIndex()
		log.Infof("scanning %s", root)

		err := Walk(ctx, root, s.filter, func(path string) error {
			if s.abort.Load() {
				return ErrAborted
			}
			s.publish(func(p *Progress) {
				p.Root = root
				p.Path = path
				p.Message = "Scanning .../" + filepath.Join(filepath.Base(filepath.Dir(path)), filepath.Base(path))
				p.Files = run.files
			})

			decls := php.DeclarationsFromFile(tokenizer, path)
			log.Debugf("scanned %s: %d declarations", path, len(decls))
			if len(decls) > 0 {
				if err := store.SaveDeclarations(path, decls); err != nil {
					run.fail(fmt.Errorf("save %s: %w", path, err))
				} else {
					index.Update(path, decls)
				}
			}

			run.files++
			if run.files%s.saveEvery == 0 {
				if err := store.SaveIndex(index); err != nil {
					run.fail(fmt.Errorf("save index of %s: %w", root, err))
				}
			}
			return nil
		})
		if err != nil && !errors.Is(err, ErrAborted) && !errors.Is(err, context.Canceled) {
			run.fail(fmt.Errorf("walk %s: %w", root, err))
		}

		if err := store.SaveIndex(index); err != nil {
			run.fail(fmt.Errorf("save index of %s: %w", root, err))
		}
	}
}

// scanOne rescans a single file and merges it into its root's saved
// index. A file that no longer exists is dropped from the index.
func (s *Scanner) scanOne(path string, run *scanRun) {
	store, ok := s.intel.StoreFor(path)
	if !ok {
		log.Debugf("%s is outside every root", path)
		return
	}
	if !s.filter.Accepts(store.Root(), path) {
		log.Debugf("skipping %s", path)
		return
	}

	s.publish(func(p *Progress) {
		p.Root = store.Root()
		p.Path = path
		p.Message = "Scanning " + path
		p.Files = run.files
	})

	index := store.LoadIndex()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		index.Remove(path)
	} else {
		decls := php.DeclarationsFromFile(s.intel.Tokenizer(), path)
		if err := store.SaveDeclarations(path, decls); err != nil {
			run.fail(fmt.Errorf("save %s: %w", path, err))
			return
		}
		index.Update(path, decls)
	}
	run.files++

	if err := store.SaveIndex(index); err != nil {
		run.fail(fmt.Errorf("save index of %s: %w", store.Root(), err))
	}
}

// FormatElapsed renders d as seconds with two decimals, or as minutes and
// seconds beyond two minutes.
func FormatElapsed(d time.Duration) string {
	if d > 120*time.Second {
		secs := int(d.Seconds())
		return fmt.Sprintf("%dm%ds", secs/60, secs%60)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
