// Package generate produces randomized e-commerce clickstream events.
package generate

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/cartflow/cartflow/pkg/types"
)

// Counts holds how many events of each variant a batch contains.
type Counts struct {
	PageViews  int
	AddToCarts int
	Purchases  int
	Reviews    int
}

// Total returns the batch size. Negative counts contribute nothing.
func (c Counts) Total() int {
	total := 0
	for _, n := range []int{c.PageViews, c.AddToCarts, c.Purchases, c.Reviews} {
		if n > 0 {
			total += n
		}
	}
	return total
}

// Generator produces events with randomized field values. It is not safe
// for concurrent use; give each goroutine its own Generator.
type Generator struct {
	rng   *rand.Rand
	now   func() time.Time
	newID func() string
}

// Option configures a Generator.
type Option func(*Generator)

// WithRand sets the random source, making output reproducible.
func WithRand(rng *rand.Rand) Option {
	return func(g *Generator) {
		g.rng = rng
	}
}

// WithSeed seeds a fresh random source. A zero seed keeps the default
// time-based source.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		if seed != 0 {
			g.rng = rand.New(rand.NewSource(seed))
		}
	}
}

// WithNow sets the clock used for event timestamps.
func WithNow(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithIDFunc sets the identifier source used for event, session, and
// order IDs.
func WithIDFunc(newID func() string) Option {
	return func(g *Generator) {
		g.newID = newID
	}
}

// New creates a Generator. Without options it uses a time-seeded random
// source and the wall clock. Identifiers are UUIDv4s drawn from the same
// random source, so a seeded generator reproduces its IDs too.
func New(opts ...Option) *Generator {
	g := &Generator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.newID == nil {
		g.newID = func() string {
			return uuid.Must(uuid.NewRandomFromReader(g.rng)).String()
		}
	}
	return g
}

// Generate produces one event of the given variant.
func (g *Generator) Generate(t types.EventType) (*types.Event, error) {
	ev := &types.Event{
		ID:        g.newID(),
		Type:      t,
		UserID:    g.intBetween(1000, 9999),
		Timestamp: types.FormatEventTime(g.now()),
	}

	switch t {
	case types.EventTypePageView:
		ev.PageView = g.pageView()
	case types.EventTypeAddToCart:
		ev.AddToCart = g.addToCart()
	case types.EventTypePurchase:
		ev.Purchase = g.purchase()
	case types.EventTypeProductReview:
		ev.ProductReview = g.productReview()
	default:
		return nil, fmt.Errorf("generate: %w: %q", types.ErrUnknownEventType, string(t))
	}
	return ev, nil
}

// GenerateBatch produces exactly the requested number of each variant,
// in canonical variant order, then shuffles the batch in place when
// shuffle is set.
func (g *Generator) GenerateBatch(counts Counts, shuffle bool) ([]types.Event, error) {
	events := make([]types.Event, 0, counts.Total())

	blocks := []struct {
		t types.EventType
		n int
	}{
		{types.EventTypePageView, counts.PageViews},
		{types.EventTypeAddToCart, counts.AddToCarts},
		{types.EventTypePurchase, counts.Purchases},
		{types.EventTypeProductReview, counts.Reviews},
	}
	for _, block := range blocks {
		for i := 0; i < block.n; i++ {
			ev, err := g.Generate(block.t)
			if err != nil {
				return nil, err
			}
			events = append(events, *ev)
		}
	}

	if shuffle {
		g.rng.Shuffle(len(events), func(i, j int) {
			events[i], events[j] = events[j], events[i]
		})
	}
	return events, nil
}

func (g *Generator) pageView() *types.PageView {
	return &types.PageView{
		SessionID: g.newID(),
		PageURL:   fmt.Sprintf("/products/%s/%s", g.pick(categories), g.pick(pageSlugs)),
		Device:    g.pick(devices),
		Browser:   g.pick(browsers),
	}
}

func (g *Generator) addToCart() *types.AddToCart {
	return &types.AddToCart{
		SessionID:   g.newID(),
		ProductID:   g.intBetween(100, 999),
		ProductName: g.productName(),
		Price:       g.priceBetween(10, 500),
		Quantity:    g.intBetween(1, 3),
	}
}

func (g *Generator) purchase() *types.Purchase {
	// Line item prices are rounded individually before summing, so the
	// total is itself exact to two decimals.
	items := int(g.intBetween(1, 5))
	var total float64
	for i := 0; i < items; i++ {
		total += g.priceBetween(10, 200)
	}

	return &types.Purchase{
		OrderID:       g.newID(),
		TotalAmount:   round2(total),
		ItemsCount:    int64(items),
		PaymentMethod: g.pick(paymentMethods),
		ShippingAddress: types.ShippingAddress{
			City:  g.pick(cities),
			State: g.pick(stateAbbrs),
			Zip:   fmt.Sprintf("%05d", g.rng.Intn(100000)),
		},
	}
}

func (g *Generator) productReview() *types.ProductReview {
	return &types.ProductReview{
		ProductID:        g.intBetween(100, 999),
		Rating:           g.intBetween(1, 5),
		ReviewText:       g.pick(reviewSentences),
		VerifiedPurchase: g.rng.Intn(2) == 1,
	}
}

func (g *Generator) productName() string {
	return g.pick(productAdjectives) + " " + g.pick(productNouns)
}

func (g *Generator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

// intBetween returns a uniform value in [lo, hi].
func (g *Generator) intBetween(lo, hi int64) int64 {
	return lo + g.rng.Int63n(hi-lo+1)
}

// priceBetween returns a uniform value in [lo, hi) rounded to cents.
func (g *Generator) priceBetween(lo, hi float64) float64 {
	return round2(lo + g.rng.Float64()*(hi-lo))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
