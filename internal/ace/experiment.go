package ace

import (
	"agmipkit/internal/event"
	"agmipkit/internal/soil"
)

// Bucket and field names used by the views.
const (
	KeySoil              = "soil"
	KeyWeather           = "weather"
	KeySoilLayer         = "soilLayer"
	KeyInitialConditions = "initial_conditions"
	KeyManagement        = "management"
	KeyEvents            = "events"
	KeyDailyWeather      = "dailyWeather"
	KeySoilID            = "soil_id"
	KeyWeatherID         = "wst_id"
	KeyExperimentName    = "exname"
)

// Experiment is a view over one experiment record and the soil and weather it refers to.
// Setters write straight into the underlying dataset.
type Experiment struct {
	Record
	soil    Record
	weather Record
}

func newExperiment(rec Record, soils, weathers []Record) *Experiment {
	e := &Experiment{Record: rec}
	if e.soil = rec.Bucket(KeySoil); e.soil == nil {
		e.soil = lookup(soils, KeySoilID, rec.Value(KeySoilID))
	}
	if e.weather = rec.Bucket(KeyWeather); e.weather == nil {
		e.weather = lookup(weathers, KeyWeatherID, rec.Value(KeyWeatherID))
	}
	return e
}

// Name returns the experiment name, or the soil id when unnamed.
func (e *Experiment) Name() string {
	if n := e.Value(KeyExperimentName); n != "" {
		return n
	}
	return e.Value(KeySoilID)
}

// Soil returns the resolved soil record, or nil.
func (e *Experiment) Soil() Record { return e.soil }

// Weather returns the resolved weather record, or nil.
func (e *Experiment) Weather() Record { return e.weather }

// SoilLayers returns a copy of the soil layers as a depth profile.
func (e *Experiment) SoilLayers() soil.DepthProfile {
	if e.soil == nil {
		return nil
	}
	return fromList[soil.Layer](e.soil, KeySoilLayer)
}

// SetSoilLayers replaces the soil layers. It has no effect when the experiment has no soil.
func (e *Experiment) SetSoilLayers(layers []soil.Layer) {
	if e.soil == nil {
		return
	}
	e.soil[KeySoilLayer] = toList(layers)
}

// InitialLayers returns a copy of the initial-condition layers.
func (e *Experiment) InitialLayers() []soil.Layer {
	ic := e.Bucket(KeyInitialConditions)
	if ic == nil {
		return nil
	}
	return fromList[soil.Layer](ic, KeySoilLayer)
}

// SetInitialLayers replaces the initial-condition layers.
func (e *Experiment) SetInitialLayers(layers []soil.Layer) {
	e.SetBucket(KeyInitialConditions)[KeySoilLayer] = toList(layers)
}

// Events returns a copy of the management events.
func (e *Experiment) Events() []event.Event {
	mgn := e.Bucket(KeyManagement)
	if mgn == nil {
		return nil
	}
	return fromList[event.Event](mgn, KeyEvents)
}

// SetEvents replaces the management events.
func (e *Experiment) SetEvents(events []event.Event) {
	e.SetBucket(KeyManagement)[KeyEvents] = toList(events)
}

// DailyWeather returns the daily weather records in file order.
func (e *Experiment) DailyWeather() []Record {
	if e.weather == nil {
		return nil
	}
	return e.weather.List(KeyDailyWeather)
}
