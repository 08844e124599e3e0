package domain

import "context"

// IdentityProvider resolves a recipient's display name.
type IdentityProvider interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

// WeatherProvider returns the day's forecast for a six-digit region code.
type WeatherProvider interface {
	Forecast(ctx context.Context, regionCode string) (WeatherSnapshot, error)
}

// NewsProvider returns up to limit cleaned headlines for a category.
type NewsProvider interface {
	Headlines(ctx context.Context, category NewsCategory, limit int) ([]string, error)
}

// RouteLookup resolves a route name to the transit provider's route code.
// Unknown names yield ErrUnknownRoute.
type RouteLookup interface {
	RouteCode(ctx context.Context, routeName string) (string, error)
}

// TransitProvider classifies the current status of a route code.
type TransitProvider interface {
	Status(ctx context.Context, routeCode string) (TransitStatus, error)
}

// PollenProvider returns today's pollen level (1–4) for a prefecture code,
// or ErrNoReading.
type PollenProvider interface {
	Level(ctx context.Context, prefectureCode string) (int, error)
}

// QuoteSource picks one quotation, or returns ErrNoQuotes.
type QuoteSource interface {
	RandomQuote(ctx context.Context) (Quote, error)
}

// Messenger pushes a composed message to a recipient. A returned error is a
// transport failure; a provider rejection is reported through the result.
type Messenger interface {
	Deliver(ctx context.Context, userID string, msg ComposedMessage) (DeliveryResult, error)
}
