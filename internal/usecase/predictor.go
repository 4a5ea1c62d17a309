package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"Horacle/internal/domain/models"
	domsvc "Horacle/internal/domain/service"
	"Horacle/internal/rules"
	"Horacle/internal/services/gates"
	"Horacle/internal/services/scoring"
	"Horacle/pkg/logger"
)

const (
	DefaultStepDays       = 7
	DefaultMinProbability = 60
	DefaultMaxRangeDays   = 3660
)

// recordNamespace seeds deterministic event ids.
var recordNamespace = uuid.MustParse("6f1c7a52-4b0e-5d7a-9a61-2f3e8c0d9b14")

// PredictorConfig tunes the sweep.
type PredictorConfig struct {
	StepDays       int
	MaxHouses      int
	MaxRangeDays   int
	JaiminiEnabled bool
	NadiEnabled    bool
}

func DefaultPredictorConfig() PredictorConfig {
	return PredictorConfig{
		StepDays:       DefaultStepDays,
		MaxHouses:      gates.DefaultMaxHouses,
		MaxRangeDays:   DefaultMaxRangeDays,
		JaiminiEnabled: true,
		NadiEnabled:    true,
	}
}

type PredictorOption func(*Predictor)

// WithJaimini sets the optional Jaimini collaborator.
func WithJaimini(p domsvc.JaiminiProvider) PredictorOption {
	return func(pr *Predictor) { pr.jaimini = p }
}

// WithStrength sets the optional strength-table collaborator.
func WithStrength(p domsvc.StrengthProvider) PredictorOption {
	return func(pr *Predictor) { pr.strength = p }
}

func WithPredictorConfig(cfg PredictorConfig) PredictorOption {
	return func(pr *Predictor) { pr.cfg = cfg }
}

func WithPredictorLogger(l *logger.Logger) PredictorOption {
	return func(pr *Predictor) {
		if l != nil {
			pr.log = l
		}
	}
}

// Predictor sweeps a date range through the gate pipeline. It holds no
// per-request state; every call builds its own gates.
type Predictor struct {
	eph      domsvc.Ephemeris
	jaimini  domsvc.JaiminiProvider
	strength domsvc.StrengthProvider
	cfg      PredictorConfig
	log      *logger.Logger
	validate *validator.Validate
}

func NewPredictor(eph domsvc.Ephemeris, opts ...PredictorOption) *Predictor {
	p := &Predictor{
		eph:      eph,
		cfg:      DefaultPredictorConfig(),
		log:      logger.Nop(),
		validate: validator.New(),
	}
	for _, o := range opts {
		o(p)
	}
	if p.cfg.StepDays <= 0 {
		p.cfg.StepDays = DefaultStepDays
	}
	if p.cfg.MaxHouses <= 0 {
		p.cfg.MaxHouses = gates.DefaultMaxHouses
	}
	if p.cfg.MaxRangeDays <= 0 {
		p.cfg.MaxRangeDays = DefaultMaxRangeDays
	}
	p.log = p.log.With(logger.String("component", "predictor"))
	return p
}

// PredictParams is one predict_events call.
type PredictParams struct {
	Birth          models.Birth
	Start          time.Time
	End            time.Time
	MinProbability int
	RequestID      string
}

// Prediction is the driver output before persistence concerns.
type Prediction struct {
	Events       []models.EventRecord
	Degradations []models.Degradation
}

// Validate checks the birth record and the sweep window.
func (p *Predictor) Validate(params PredictParams) error {
	var fields []models.FieldError
	if err := p.validate.Struct(params.Birth); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields = append(fields, models.FieldError{Field: "birth." + jsonName(fe.Field()), Message: fe.Tag()})
			}
		} else {
			fields = append(fields, models.FieldError{Field: "birth", Message: err.Error()})
		}
	}
	if params.Birth.Latitude == 0 && params.Birth.Longitude == 0 {
		fields = append(fields, models.FieldError{Field: "birth.coordinates", Message: "required"})
	}
	if len(fields) == 0 {
		if _, err := params.Birth.Moment(); err != nil {
			fields = append(fields, models.FieldError{Field: "birth.timezone", Message: err.Error()})
		}
	}
	if len(fields) > 0 {
		return models.NewValidationError(models.ErrInvalidBirth, fields...)
	}

	switch {
	case params.Start.IsZero() || params.End.IsZero():
		return models.NewValidationError(models.ErrInvalidRange, models.FieldError{Field: "start_date", Message: "required"})
	case params.End.Before(params.Start):
		return models.NewValidationError(models.ErrInvalidRange, models.FieldError{Field: "end_date", Message: "before start_date"})
	case params.End.Sub(params.Start) > time.Duration(p.cfg.MaxRangeDays)*24*time.Hour:
		return models.NewValidationError(models.ErrInvalidRange, models.FieldError{
			Field: "end_date", Message: "range exceeds " + strconv.Itoa(p.cfg.MaxRangeDays) + " days",
		})
	case params.MinProbability < 0 || params.MinProbability > 100:
		return models.NewValidationError(models.ErrInvalidRange, models.FieldError{Field: "min_probability", Message: "must be within 0..100"})
	}
	return nil
}

// sweepContext holds everything built once per request.
type sweepContext struct {
	chart        models.Chart
	strength     *models.StrengthTables
	jaimini      *gates.JaiminiGate
	nadi         *gates.NadiGate
	degradations []models.Degradation
}

// Predict runs the full sweep. Only validation and a missing natal chart are
// returned as errors; everything else degrades and is reported.
func (p *Predictor) Predict(ctx context.Context, params PredictParams) (*Prediction, error) {
	if err := p.Validate(params); err != nil {
		return nil, err
	}
	log := p.log
	if params.RequestID != "" {
		log = log.With(logger.String("request_id", params.RequestID))
	}

	chart, err := p.eph.ComputeChart(ctx, params.Birth)
	if err != nil {
		return nil, fmt.Errorf("natal chart: %w: %v", models.ErrEphemerisUnavailable, err)
	}

	sc := p.prepare(ctx, chart, params.Birth, log)

	dashaGate := gates.NewDashaHouseGate(chart, gates.WithMaxHouses(p.cfg.MaxHouses))
	var bav models.Bhinnashtakavarga
	if sc.strength != nil {
		bav = sc.strength.Bhinnashtakavarga
	}
	finder := gates.NewTriggerFinder(p.eph, chart, bav)

	var candidates []models.EventRecord
	skipped := 0
	for date := params.Start; !date.After(params.End); date = date.AddDate(0, 0, p.cfg.StepDays) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stack, err := p.eph.CurrentDashas(ctx, params.Birth, date)
		if err != nil || stack.Empty() {
			skipped++
			log.Debug("dasha unavailable, date skipped", logger.Time("date", date), logger.Error(err))
			continue
		}
		auths := dashaGate.Evaluate(stack, sc.strength)
		if len(auths) == 0 {
			continue
		}
		snap, err := finder.Snapshot(ctx, date)
		if err != nil {
			skipped++
			log.Debug("transits unavailable, date skipped", logger.Time("date", date), logger.Error(err))
			continue
		}
		candidates = append(candidates, p.evaluateDate(sc, dashaGate, finder, snap, stack, auths, params)...)
	}
	if skipped > 0 {
		sc.degradations = append(sc.degradations, models.DatesSkipped(skipped))
		log.Warn("sweep skipped dates", logger.Int("skipped", skipped))
	}

	events := MergeEvents(candidates)
	log.Info("sweep finished",
		logger.Int("candidates", len(candidates)),
		logger.Int("events", len(events)),
	)
	return &Prediction{Events: events, Degradations: sc.degradations}, nil
}

func (p *Predictor) evaluateDate(
	sc *sweepContext,
	dashaGate *gates.DashaHouseGate,
	finder *gates.TriggerFinder,
	snap gates.TransitSnapshot,
	stack models.DashaStack,
	auths []models.Authorization,
	params PredictParams,
) []models.EventRecord {
	date := snap.Date
	age := params.Birth.AgeAt(date)
	stage := rules.StageFor(age)
	authorized := make(map[int]bool, len(auths))
	for _, a := range auths {
		authorized[a.House] = true
	}
	rulers := stack.Rulers()

	var out []models.EventRecord
	for _, auth := range auths {
		h := auth.House
		trigs := finder.Find(snap, h)
		if len(trigs) == 0 {
			continue
		}
		eventType, ok := rules.EventTypeFor(h, stage)
		if !ok {
			continue
		}
		double := gates.HasPlanet(trigs, models.Jupiter) && gates.HasPlanet(trigs, models.Saturn)
		houseSign := dashaGate.HouseSign(h)
		occupied := len(sc.chart.Occupants(h)) > 0

		for _, trig := range trigs {
			base := scoring.Base(scoring.Input{
				Authorization: auth,
				Trigger:       trig,
				Age:           age,
				DoubleTransit: double,
				NatalOccupied: occupied,
				HouseSign:     houseSign,
				Strength:      sc.strength,
			})
			parashari := base.Total
			if parashari < params.MinProbability {
				continue
			}

			var jv *models.JaiminiValidation
			if sc.jaimini != nil {
				v := sc.jaimini.Validate(h, date)
				jv = &v
			}
			var nv *models.NadiValidation
			if sc.nadi != nil {
				v := sc.nadi.Validate(trig.Planet, trig.Longitude, trig.Retrograde)
				nv = &v
			}
			prob := scoring.Adjust(parashari, jv, nv)
			if prob < params.MinProbability {
				continue
			}

			precision := scoring.Precision(sc.nadi != nil, nv, trig)
			start, end := scoring.Window(date, precision)
			triple, doubleLock, accuracy := scoring.Locks(parashari, jv, nv)
			supporting, karakaActive := annotate(eventType, authorized, rulers)

			out = append(out, models.EventRecord{
				ID:                   RecordID(params.Birth, eventType, h, date),
				EventType:            eventType,
				House:                h,
				Probability:          prob,
				ParashariProbability: parashari,
				Nature:               rules.NatureOf(eventType),
				Quality:              scoring.Quality(auth, sc.strength, houseSign, prob),
				StartDate:            start,
				PeakDate:             date,
				EndDate:              end,
				Authorization:        auth,
				Trigger:              trig,
				DoubleTransit:        double,
				Jaimini:              jv,
				Nadi:                 nv,
				Certainty:            scoring.Certainty(jv),
				TimingPrecision:      precision,
				TripleLock:           triple,
				DoubleLock:           doubleLock,
				AccuracyRange:        accuracy,
				SupportingHouses:     supporting,
				KarakaActive:         karakaActive,
			})
		}
	}
	return out
}

// prepare loads the optional collaborators and builds the validation gates,
// recording a degradation for each missing layer.
func (p *Predictor) prepare(ctx context.Context, chart models.Chart, birth models.Birth, log *logger.Logger) *sweepContext {
	sc := &sweepContext{chart: chart}

	var (
		strength *models.StrengthTables
		jdata    *models.JaiminiData
		jerr     error
	)
	if p.strength != nil {
		strength = p.loadStrength(ctx, chart, log)
	}
	if p.cfg.JaiminiEnabled && p.jaimini != nil {
		jdata, jerr = p.loadJaimini(ctx, chart, birth)
	}

	sc.strength = strength
	if !strength.Validated() {
		sc.degradations = append(sc.degradations, models.DegradationStrength)
		log.Warn("strength tables missing, capacity not validated")
	}

	switch {
	case jdata != nil:
		sc.jaimini = gates.NewJaiminiGate(chart, *jdata)
	case jerr != nil:
		sc.degradations = append(sc.degradations, models.DegradationJaimini)
		log.Warn("jaimini layer disabled", logger.Error(jerr))
	default:
		sc.degradations = append(sc.degradations, models.DegradationJaimini)
		log.Warn("jaimini layer disabled", logger.Error(models.ErrCollaboratorDisabled))
	}

	nadi := gates.NewNadiGate(chart)
	if p.cfg.NadiEnabled && nadi.Ready() {
		sc.nadi = nadi
	} else {
		sc.degradations = append(sc.degradations, models.DegradationNadi)
		log.Warn("nadi layer disabled", logger.Bool("enabled", p.cfg.NadiEnabled), logger.Bool("chart_ready", nadi.Ready()))
	}
	return sc
}

func (p *Predictor) loadStrength(ctx context.Context, chart models.Chart, log *logger.Logger) *models.StrengthTables {
	st := &models.StrengthTables{}
	if v, err := p.strength.Shadbala(ctx, chart); err == nil {
		st.Shadbala = v
	} else {
		log.Warn("shadbala unavailable", logger.Error(err))
	}
	if v, err := p.strength.Sarvashtakavarga(ctx, chart); err == nil {
		st.Sarvashtakavarga = v
	} else {
		log.Debug("sarvashtakavarga unavailable", logger.Error(err))
	}
	if v, err := p.strength.Bhinnashtakavarga(ctx, chart); err == nil {
		st.Bhinnashtakavarga = v
	} else {
		log.Debug("bhinnashtakavarga unavailable", logger.Error(err))
	}
	if v, err := p.strength.PlanetaryDignity(ctx, chart); err == nil {
		st.Dignity = v
	} else {
		log.Debug("dignity unavailable", logger.Error(err))
	}
	if v, err := p.strength.FunctionalBenefics(ctx, chart); err == nil {
		st.Functional = &v
	} else {
		log.Debug("functional natures unavailable", logger.Error(err))
	}
	return st
}

func (p *Predictor) loadJaimini(ctx context.Context, chart models.Chart, birth models.Birth) (*models.JaiminiData, error) {
	karakas, err := p.jaimini.CharaKarakas(ctx, chart)
	if err != nil {
		return nil, fmt.Errorf("chara karakas: %w", err)
	}
	periods, err := p.jaimini.CharaDashaPeriods(ctx, chart, birth)
	if err != nil {
		return nil, fmt.Errorf("chara dasha: %w", err)
	}
	argala, err := p.jaimini.Argala(ctx, chart)
	if err != nil {
		return nil, fmt.Errorf("argala: %w", err)
	}
	d9, err := p.eph.ComputeD9(ctx, chart)
	if err != nil {
		return nil, fmt.Errorf("d9: %w", err)
	}
	ak, ok := karakas[models.Atmakaraka]
	if !ok {
		return nil, fmt.Errorf("atmakaraka missing")
	}
	points, err := p.jaimini.SpecialPoints(ctx, chart, d9, ak.Planet)
	if err != nil {
		return nil, fmt.Errorf("special points: %w", err)
	}
	return &models.JaiminiData{Karakas: karakas, Periods: periods, Argala: argala, SpecialPoints: points}, nil
}

// annotate reports the event rule's supporting houses that are also
// authorized, and whether a required planet runs one of the dasha levels.
func annotate(eventType string, authorized map[int]bool, rulers []models.Planet) ([]int, bool) {
	supporting := []int{}
	rule, ok := rules.RuleFor(eventType)
	if !ok {
		return supporting, false
	}
	for _, h := range rule.SupportingHouses {
		if authorized[h] {
			supporting = append(supporting, h)
		}
	}
	active := false
	for _, rp := range rule.RequiredPlanets {
		if slices.Contains(rulers, rp) {
			active = true
			break
		}
	}
	return supporting, active
}

// MergeEvents keeps one record per (event type, house): the highest
// probability candidate, the earliest peak on ties. Survivors are ordered by
// start date then probability descending.
func MergeEvents(events []models.EventRecord) []models.EventRecord {
	type key struct {
		eventType string
		house     int
	}
	best := make(map[key]models.EventRecord, len(events))
	for _, e := range events {
		k := key{e.EventType, e.House}
		cur, ok := best[k]
		if !ok || e.Probability > cur.Probability ||
			(e.Probability == cur.Probability && e.PeakDate.Before(cur.PeakDate)) {
			best[k] = e
		}
	}

	out := make([]models.EventRecord, 0, len(best))
	for _, e := range best {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Before(b.StartDate)
		}
		if a.Probability != b.Probability {
			return a.Probability > b.Probability
		}
		if a.EventType != b.EventType {
			return a.EventType < b.EventType
		}
		return a.House < b.House
	})
	return out
}

// RecordID derives a stable id from the birth data, the event and its peak date.
func RecordID(b models.Birth, eventType string, house int, peak time.Time) string {
	name := fmt.Sprintf("%s|%s|%.4f|%.4f|%s|%s|%d|%s",
		b.Date, b.Time, b.Latitude, b.Longitude, b.Timezone, eventType, house, peak.Format("2006-01-02"))
	return uuid.NewSHA1(recordNamespace, []byte(name)).String()
}

func jsonName(field string) string {
	switch field {
	case "Date":
		return "date"
	case "Time":
		return "time"
	case "Latitude":
		return "latitude"
	case "Longitude":
		return "longitude"
	case "Timezone":
		return "timezone"
	}
	return field
}
