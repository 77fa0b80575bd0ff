package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fardannozami/wa-session-gateway/internal/metrics"
	"github.com/fardannozami/wa-session-gateway/internal/session"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Sender is the part of a session connection the dispatcher needs.
type Sender interface {
	ID() string
	Send(ctx context.Context, to string, p session.Payload) (session.Receipt, error)
}

// Delivery lists the receipts of one request, one per payload sent.
type Delivery struct {
	Target   string            `json:"target"`
	Receipts []session.Receipt `json:"receipts"`
}

type ItemResult struct {
	Index    int               `json:"index"`
	Target   string            `json:"target"`
	Success  bool              `json:"success"`
	Receipts []session.Receipt `json:"receipts,omitempty"`
	Error    string            `json:"error,omitempty"`
}

type BatchResult struct {
	Items       []ItemResult `json:"items"`
	Attempted   int          `json:"attempted"`
	Succeeded   int          `json:"succeeded"`
	Failed      int          `json:"failed"`
	SuccessRate float64      `json:"successRate"`
}

func (r *BatchResult) add(item ItemResult) {
	r.Items = append(r.Items, item)
	r.Attempted++
	if item.Success {
		r.Succeeded++
	} else {
		r.Failed++
	}
	r.SuccessRate = float64(r.Succeeded) / float64(r.Attempted)
}

type Options struct {
	// SendInterval is the minimum spacing between sends on one session. Zero
	// disables limiting.
	SendInterval time.Duration
	SendBurst    int
}

// Dispatcher turns message requests into payloads and submits them through a
// session. Batches run sequentially in the caller's goroutine.
type Dispatcher struct {
	opts Options
	log  zerolog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func New(opts Options, logger zerolog.Logger) *Dispatcher {
	if opts.SendBurst < 1 {
		opts.SendBurst = 1
	}
	return &Dispatcher{
		opts:     opts,
		log:      logger,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (d *Dispatcher) limiter(id string) *rate.Limiter {
	if d.opts.SendInterval <= 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.limiters[id]
	if !ok {
		l = rate.NewLimiter(rate.Every(d.opts.SendInterval), d.opts.SendBurst)
		d.limiters[id] = l
	}
	return l
}

// Forget drops the limiter of a removed session.
func (d *Dispatcher) Forget(id string) {
	d.mu.Lock()
	delete(d.limiters, id)
	d.mu.Unlock()
}

type prepared struct {
	target   string
	payloads []session.Payload
}

func prepare(index int, req Request) (prepared, error) {
	target, err := NormalizeTarget(req.Target)
	if err != nil {
		return prepared{}, &InvalidPayloadError{Index: index, Reason: err.Error()}
	}
	if err := validate(req.Content); err != nil {
		return prepared{}, &InvalidPayloadError{Index: index, Reason: err.Error()}
	}
	ps, err := payloads(req.Content)
	if err != nil {
		return prepared{}, &InvalidPayloadError{Index: index, Reason: err.Error()}
	}
	return prepared{target: target, payloads: ps}, nil
}

func batchRequests(target string, items []Content) []Request {
	reqs := make([]Request, len(items))
	for i, c := range items {
		reqs[i] = Request{Target: target, Content: c}
	}
	return reqs
}

func prepareAll(reqs []Request) ([]prepared, error) {
	if len(reqs) == 0 {
		return nil, &InvalidPayloadError{Index: -1, Reason: "no items"}
	}
	prep := make([]prepared, len(reqs))
	for i, req := range reqs {
		p, err := prepare(i, req)
		if err != nil {
			return nil, err
		}
		prep[i] = p
	}
	return prep, nil
}

// Validate runs the fan-out checks without sending anything.
func Validate(reqs []Request) error {
	_, err := prepareAll(reqs)
	return err
}

// ValidateBatch runs the batch checks without sending anything.
func ValidateBatch(target string, items []Content) error {
	return Validate(batchRequests(target, items))
}

// Send delivers one request. Invalid requests fail with ErrInvalidPayload before
// the session is touched.
func (d *Dispatcher) Send(ctx context.Context, s Sender, req Request) (Delivery, error) {
	p, err := prepare(-1, req)
	if err != nil {
		return Delivery{}, err
	}
	return d.deliver(ctx, s, p)
}

func (d *Dispatcher) deliver(ctx context.Context, s Sender, p prepared) (Delivery, error) {
	out := Delivery{Target: p.target}
	for _, payload := range p.payloads {
		if l := d.limiter(s.ID()); l != nil {
			if err := l.Wait(ctx); err != nil {
				return out, err
			}
		}
		r, err := s.Send(ctx, p.target, payload)
		metrics.RecordMessage(payload.KindLabel(), err == nil)
		if err != nil {
			return out, err
		}
		out.Receipts = append(out.Receipts, r)
	}
	return out, nil
}

// SendBatch sends every item to one target, in order, pausing delay between items.
// All items are validated before the first send.
func (d *Dispatcher) SendBatch(ctx context.Context, s Sender, target string, items []Content, delay time.Duration) (BatchResult, error) {
	return d.run(ctx, s, "batch", batchRequests(target, items), delay)
}

// SendFanout sends one message per target with the same ordering, isolation and
// pre-validation rules as SendBatch.
func (d *Dispatcher) SendFanout(ctx context.Context, s Sender, reqs []Request, delay time.Duration) (BatchResult, error) {
	return d.run(ctx, s, "fanout", reqs, delay)
}

func (d *Dispatcher) run(ctx context.Context, s Sender, mode string, reqs []Request, delay time.Duration) (BatchResult, error) {
	prep, err := prepareAll(reqs)
	if err != nil {
		return BatchResult{}, err
	}

	start := time.Now()
	log := d.log.With().Str("session", s.ID()).Str("mode", mode).Logger()
	log.Info().Int("items", len(prep)).Dur("delay", delay).Msg("batch started")

	res := BatchResult{Items: make([]ItemResult, 0, len(prep))}
	for i, p := range prep {
		if i > 0 && ctx.Err() == nil {
			sleep(ctx, delay)
		}

		item := ItemResult{Index: i, Target: p.target}
		if err := ctx.Err(); err != nil {
			item.Error = err.Error()
			res.add(item)
			continue
		}

		delivery, err := d.deliver(ctx, s, p)
		item.Receipts = delivery.Receipts
		if err != nil {
			item.Error = errorText(err)
			log.Warn().Err(err).Int("index", i).Str("target", p.target).Msg("batch item failed")
		} else {
			item.Success = true
		}
		res.add(item)
	}

	metrics.RecordBatch(mode, time.Since(start))
	log.Info().
		Int("succeeded", res.Succeeded).
		Int("failed", res.Failed).
		Float64("success_rate", res.SuccessRate).
		Msg("batch finished")
	return res, nil
}

func errorText(err error) string {
	var se *session.SendError
	if errors.As(err, &se) {
		return se.Err.Error()
	}
	return err.Error()
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
