package temporal

import (
	"context"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"
)

// ParseOptions are the settings handed to the date grammar.
type ParseOptions struct {
	PreferFuture          bool
	PreferFirstDayOfMonth bool
	RelativeBase          time.Time // now, in Location
	Location              *time.Location
}

// Parser turns a free-text date phrase into an instant. A false result is
// a definitive "no match"; callers do not retry.
type Parser interface {
	Parse(ctx context.Context, text string, opts ParseOptions) (time.Time, bool)
}

// DateParser is the grammar-based Parser backed by go-dateparser.
type DateParser struct{}

func NewDateParser() *DateParser {
	return &DateParser{}
}

func (p *DateParser) Parse(_ context.Context, text string, opts ParseOptions) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	cfg := &dps.Configuration{
		CurrentTime:     opts.RelativeBase,
		DefaultTimezone: opts.Location,
	}
	if opts.PreferFuture {
		cfg.PreferredDateSource = dps.Future
	}
	if opts.PreferFirstDayOfMonth {
		cfg.PreferredDayOfMonth = dps.First
	}

	dt, err := dps.Parse(cfg, text)
	if err != nil || dt.Time.IsZero() {
		return time.Time{}, false
	}
	return dt.Time, true
}
