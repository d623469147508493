package scrape

import (
	"fmt"
	"strings"

	types "github.com/yungbote/frugalprotein-backend/internal/domain/catalog"
)

type Mode string

const (
	ModeID    Mode = "id"
	ModeInfo  Mode = "info"
	ModePrice Mode = "price"
)

const (
	TargetPrimary = "primary"
	TargetLive    = "live"
)

// ConfigError is an invalid or contradictory scrape request. It is raised
// before any scraping starts.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "invalid scrape configuration: " + e.Msg
	}
	return fmt.Sprintf("invalid scrape configuration: %s: %s", e.Field, e.Msg)
}

func ParseMode(raw string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case ModeID, ModeInfo, ModePrice:
		return m, nil
	default:
		return "", &ConfigError{Field: "mode", Msg: fmt.Sprintf("%q is not one of id, info, price", raw)}
	}
}

// Request is the raw, unvalidated scrape invocation.
type Request struct {
	Mode      string
	All       bool
	Stores    []string
	Live      bool
	Exclusive []string
	Exclude   []string
	// Available is what --all expands to. Empty means every known store.
	Available []types.Store
}

// Options is a validated Request.
type Options struct {
	Mode   Mode
	Stores []types.Store
	Live   bool
	Info   InfoOptions
}

func (o Options) Target() string {
	if o.Live {
		return TargetLive
	}
	return TargetPrimary
}

// NewOptions validates req. With neither --all nor --store every known store
// is scraped.
func NewOptions(req Request) (Options, error) {
	mode, err := ParseMode(req.Mode)
	if err != nil {
		return Options{}, err
	}
	names := splitList(req.Stores)
	if req.All && len(names) > 0 {
		return Options{}, &ConfigError{Field: "store", Msg: "--all and --store are mutually exclusive"}
	}

	opts := Options{Mode: mode, Live: req.Live}
	if len(names) == 0 {
		if len(req.Available) > 0 {
			opts.Stores = append(opts.Stores, req.Available...)
		} else {
			opts.Stores = append(opts.Stores, types.AllStores...)
		}
	} else {
		seen := map[types.Store]bool{}
		for _, n := range names {
			s, err := types.ParseStore(n)
			if err != nil {
				return Options{}, &ConfigError{Field: "store", Msg: err.Error()}
			}
			if !seen[s] {
				seen[s] = true
				opts.Stores = append(opts.Stores, s)
			}
		}
	}

	if req.Live && mode == ModeID {
		return Options{}, &ConfigError{Field: "live", Msg: "--live only applies to info and price scrapes"}
	}

	exclusive, exclude := splitList(req.Exclusive), splitList(req.Exclude)
	if (len(exclusive) > 0 || len(exclude) > 0) && mode != ModeInfo {
		return Options{}, &ConfigError{Field: "exclusive", Msg: "--exclusive/--exclude only apply to info scrapes"}
	}
	if len(exclusive) > 0 && len(exclude) > 0 {
		return Options{}, &ConfigError{Field: "exclusive", Msg: "--exclusive and --exclude are mutually exclusive"}
	}
	for _, k := range append(append([]string{}, exclusive...), exclude...) {
		if !types.ValidInfoKey(k) {
			return Options{}, &ConfigError{Field: "exclusive", Msg: fmt.Sprintf("unknown info key %q (valid: %s)", k, strings.Join(types.InfoKeys, ", "))}
		}
	}
	opts.Info = InfoOptions{Exclusive: exclusive, Exclude: exclude}
	return opts, nil
}

// splitList accepts both repeated flags and comma separated values.
func splitList(in []string) []string {
	var out []string
	for _, raw := range in {
		for _, part := range strings.Split(raw, ",") {
			if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
