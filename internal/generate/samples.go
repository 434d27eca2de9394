package generate

// Value pools the generator draws from. Kept small on purpose so generated
// batches repeat values often enough to be useful in aggregate queries.

var categories = []string{
	"electronics",
	"clothing",
	"books",
	"home",
	"sports",
	"toys",
}

var pageSlugs = []string{
	"index",
	"search",
	"featured",
	"new-arrivals",
	"bestsellers",
	"deals",
	"clearance",
	"trending",
}

var devices = []string{"mobile", "desktop", "tablet"}

var browsers = []string{"Chrome", "Safari", "Firefox", "Edge"}

var paymentMethods = []string{"credit_card", "paypal", "debit_card", "apple_pay"}

var productAdjectives = []string{
	"Ergonomic",
	"Sturdy",
	"Sleek",
	"Compact",
	"Wireless",
	"Classic",
	"Modern",
	"Rugged",
	"Portable",
	"Premium",
}

var productNouns = []string{
	"Headphones",
	"Bookshelf",
	"Desk Lamp",
	"Water Bottle",
	"Yoga Mat",
	"Keyboard",
	"Sneakers",
	"Backpack",
	"Coffee Maker",
	"Puzzle Set",
}

var cities = []string{
	"Springfield",
	"Austin",
	"Portland",
	"Madison",
	"Boulder",
	"Savannah",
	"Tacoma",
	"Raleigh",
	"Fresno",
	"Toledo",
	"Akron",
	"Mobile",
}

var stateAbbrs = []string{
	"IL", "TX", "OR", "WI", "CO", "GA", "WA", "NC", "CA", "OH", "NY", "FL",
}

var reviewSentences = []string{
	"Works exactly as described and shipping was fast.",
	"Decent quality for the price, would order again.",
	"The build feels cheaper than the photos suggest.",
	"Five stars, this replaced a much more expensive brand.",
	"Arrived with a small scratch but support sorted it out.",
	"Does the job, nothing more and nothing less.",
	"My second one of these, the first lasted three years.",
	"Color is slightly off from the listing but still nice.",
	"Setup took two minutes and it has run fine since.",
	"Returned it, the size chart is way off.",
	"Great gift, the kids have not put it down.",
	"Battery life is noticeably better than advertised.",
	"Instructions were useless but assembly was obvious.",
	"Packaging was excessive, product itself is solid.",
	"Quiet, compact, and easy to clean.",
	"Not worth the premium over the basic model.",
}
