package types

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_EventCodecRoundTrip checks that any well-formed event of any
// variant survives marshal/unmarshal unchanged, and that the instant encoded
// in the timestamp text is preserved exactly.
func TestProperty_EventCodecRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("events round-trip through JSON", prop.ForAll(
		func(variant int, userID int64, productID int64, amount float64, count int, flag bool) bool {
			ev := Event{
				ID:        fmt.Sprintf("fixed-%d-%d", variant, userID),
				UserID:    userID,
				Timestamp: "2026-08-22T10:11:12.131415Z",
			}
			switch variant {
			case 0:
				ev.Type = EventTypePageView
				ev.PageView = &PageView{
					SessionID: "s-1",
					PageURL:   "/products/books/index.html",
					Device:    "desktop",
					Browser:   "Firefox",
				}
			case 1:
				ev.Type = EventTypeAddToCart
				ev.AddToCart = &AddToCart{
					SessionID:   "s-2",
					ProductID:   productID,
					ProductName: "Modern Lamp",
					Price:       amount,
					Quantity:    int64(count),
				}
			case 2:
				ev.Type = EventTypePurchase
				ev.Purchase = &Purchase{
					OrderID:       "o-1",
					TotalAmount:   amount,
					ItemsCount:    int64(count),
					PaymentMethod: "credit_card",
					ShippingAddress: ShippingAddress{
						City:  "Austin",
						State: "TX",
						Zip:   "73301",
					},
				}
			default:
				ev.Type = EventTypeProductReview
				ev.ProductReview = &ProductReview{
					ProductID:        productID,
					Rating:           int64(count%5) + 1,
					ReviewText:       "Does what it says.",
					VerifiedPurchase: flag,
				}
			}

			data, err := json.Marshal(ev)
			if err != nil {
				return false
			}
			var got Event
			if err := json.Unmarshal(data, &got); err != nil {
				return false
			}
			return reflect.DeepEqual(ev, got)
		},
		gen.IntRange(0, 3),
		gen.Int64Range(1000, 9999),
		gen.Int64Range(100, 999),
		gen.Float64Range(10, 500),
		gen.IntRange(1, 5),
		gen.Bool(),
	))

	properties.Property("timestamp text preserves the instant", prop.ForAll(
		func(sec int64, nsec int64) bool {
			orig := time.Unix(sec, nsec).UTC()
			parsed, err := ParseEventTime(FormatEventTime(orig))
			if err != nil {
				return false
			}
			return parsed.Equal(orig)
		},
		gen.Int64Range(0, 4102444800), // through 2100
		gen.Int64Range(0, 999999999),
	))

	properties.TestingRun(t)
}
