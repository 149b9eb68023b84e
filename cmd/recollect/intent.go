package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/recollect/internal/common"
	"github.com/Veraticus/recollect/internal/llmcontext"
	"github.com/Veraticus/recollect/internal/model"
	"github.com/Veraticus/recollect/internal/pipeline"
)

const dateLayout = "2006-01-02"

// intentFlags are the flags shared by ask and context. They stand in for
// the external intent extractor.
type intentFlags struct {
	intent      string
	subIntents  []string
	period      string
	from        string
	to          string
	entities    []string
	categories  []string
	city        string
	country     string
	minRating   float64
	intentFile  string
	historyFile string
	weather     string
	weatherLoc  string
	temperature float64
}

func (f *intentFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.intent, "intent", "i", "general", "primary intent (general, notes, tasks, locations, emails, expenses, navigation, weather)")
	flags.StringSliceVar(&f.subIntents, "also", nil, "secondary intents")
	flags.StringVarP(&f.period, "period", "p", "", "date range label (today, this week, last month, ...)")
	flags.StringVar(&f.from, "from", "", "custom range start (YYYY-MM-DD)")
	flags.StringVar(&f.to, "to", "", "custom range end (YYYY-MM-DD, inclusive)")
	flags.StringSliceVarP(&f.entities, "entity", "e", nil, "entities mentioned in the question")
	flags.StringSliceVarP(&f.categories, "category", "c", nil, "categories mentioned in the question")
	flags.StringVar(&f.city, "city", "", "restrict places to a city")
	flags.StringVar(&f.country, "country", "", "restrict places to a country")
	flags.Float64Var(&f.minRating, "min-rating", 0, "minimum place rating")
	flags.StringVar(&f.intentFile, "intent-file", "", "JSON intent context; overrides the intent flags")
	flags.StringVar(&f.historyFile, "history", "", "JSON array of prior conversation turns")
	flags.StringVar(&f.weather, "weather", "", "current weather condition")
	flags.StringVar(&f.weatherLoc, "weather-location", "", "where the weather applies")
	flags.Float64Var(&f.temperature, "temp", 0, "current temperature in Celsius")
}

// request builds a pipeline request for question. Periods resolve against
// now in loc.
func (f *intentFlags) request(question string, now time.Time, loc *time.Location) (pipeline.Request, error) {
	var req pipeline.Request

	intent, err := f.intentContext(now, loc)
	if err != nil {
		return req, err
	}
	if intent.Query == "" {
		intent.Query = question
	}
	req.Intent = intent

	if f.historyFile != "" {
		history, err := readHistory(f.historyFile)
		if err != nil {
			return req, err
		}
		req.History = history
	}

	if f.weather != "" {
		req.Weather = &model.Weather{
			Condition:    f.weather,
			Location:     f.weatherLoc,
			TemperatureC: f.temperature,
		}
	}
	return req, nil
}

func (f *intentFlags) intentContext(now time.Time, loc *time.Location) (model.IntentContext, error) {
	if f.intentFile != "" {
		return readIntentFile(f.intentFile)
	}

	var ic model.IntentContext
	primary, err := model.ParseIntentType(f.intent)
	if err != nil {
		return ic, fmt.Errorf("%w: %w", common.ErrInvalidIntent, err)
	}
	ic.Intent = primary

	for _, s := range f.subIntents {
		sub, err := model.ParseIntentType(s)
		if err != nil {
			return ic, fmt.Errorf("%w: %w", common.ErrInvalidIntent, err)
		}
		if sub != primary {
			ic.SubIntents = append(ic.SubIntents, sub)
		}
	}

	ic.Entities = trimAll(f.entities)
	ic.Categories = trimAll(f.categories)

	dr, err := f.dateRange(now, loc)
	if err != nil {
		return ic, err
	}
	ic.DateRange = dr

	if f.city != "" || f.country != "" || f.minRating > 0 {
		lf := &model.LocationFilter{City: f.city, Country: f.country}
		if f.minRating > 0 {
			rating := f.minRating
			lf.MinRating = &rating
		}
		ic.LocationFilter = lf
	}
	return ic, nil
}

// dateRange resolves --period, or --from/--to as a custom range.
func (f *intentFlags) dateRange(now time.Time, loc *time.Location) (*model.DateRange, error) {
	if f.from != "" || f.to != "" {
		return customRange(f.from, f.to, f.period, loc)
	}
	if f.period == "" {
		return nil, nil
	}

	period := llmcontext.NormalizePeriod(f.period)
	start, end, ok := period.Bounds(now, loc)
	if !ok {
		return nil, fmt.Errorf("unknown period %q: use --from and --to for custom ranges", f.period)
	}
	return &model.DateRange{Start: start, End: end, PeriodLabel: string(period)}, nil
}

func customRange(from, to, label string, loc *time.Location) (*model.DateRange, error) {
	if from == "" || to == "" {
		return nil, fmt.Errorf("--from and --to must be given together")
	}
	start, err := time.ParseInLocation(dateLayout, from, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid --from date: %w", err)
	}
	last, err := time.ParseInLocation(dateLayout, to, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid --to date: %w", err)
	}
	if last.Before(start) {
		return nil, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	if label == "" {
		label = string(llmcontext.PeriodCustom)
	}
	return &model.DateRange{
		Start:       start,
		End:         last.AddDate(0, 0, 1).Add(-time.Nanosecond),
		PeriodLabel: label,
	}, nil
}

func readIntentFile(path string) (model.IntentContext, error) {
	var ic model.IntentContext
	data, err := os.ReadFile(path)
	if err != nil {
		return ic, fmt.Errorf("failed to read intent file: %w", err)
	}
	if err := json.Unmarshal(data, &ic); err != nil {
		return ic, fmt.Errorf("failed to parse intent file %s: %w", path, err)
	}
	if _, err := model.ParseIntentType(string(ic.Intent)); err != nil {
		return ic, fmt.Errorf("%w: %w", common.ErrInvalidIntent, err)
	}
	if ic.Intent == "" {
		ic.Intent = model.IntentGeneral
	}
	return ic, nil
}

func readHistory(path string) ([]llmcontext.Turn, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	var turns []llmcontext.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("failed to parse history %s: %w", path, err)
	}
	return turns, nil
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
