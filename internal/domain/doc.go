// Package domain models the daily briefing: subscriptions, the normalized
// values each provider contributes, the alert rules, and the message
// composer.
//
// # Providers and fault isolation
//
// Every external source sits behind a small port (WeatherProvider,
// NewsProvider, TransitProvider, PollenProvider, QuoteSource,
// IdentityProvider). Adapters return plain errors. The Fetch functions in
// this package are the only callers of the ports and turn any error,
// timeout or panic into a [Source] status:
//
//	SourceOK           value is real and may be rendered
//	SourceAbsent       nothing to report (out of season, no route requested,
//	                   empty quotation store)
//	SourceUnavailable  the provider failed; the section is omitted or
//	                   replaced by a fixed notice
//
// A single provider outage therefore degrades one section of the message and
// never aborts a run.
//
// # Region codes
//
// Regions are JMA forecast office codes, six digits, e.g. "130000" for Tokyo.
// Shorter codes are left-padded with zeros. The first two digits are the
// prefecture code used by the pollen provider.
//
// # Seasonal window
//
// Pollen is reported only from February through May:
//
//	level 1 😊 少ない
//	level 2 😐 やや多い
//	level 3 😷 多い       + mask suggestion
//	level 4 🤧 非常に多い + mask suggestion
//
// # Alert rules
//
// Alerts are evaluated in a fixed order over the forecast:
//
//	precipitation  ≥50% umbrella alert, 30–49% soft advisory
//	heat           max ≥30 caution, ≥25 note
//	cold           min ≤5 caution, ≤10 note (independent of heat)
//	keyword        first of 大雨, 暴風, 雪, 警報, 注意報, 雷 found in the raw text
//
// See [WeatherAlerts] and [Compose].
package domain
