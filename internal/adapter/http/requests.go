package http

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/couchcryptid/conductor-ice-risk/internal/domain"
	"github.com/go-playground/validator/v10"
)

// Form defaults for manual entry.
const (
	defaultTemperatureC   = -5.0
	defaultWindSpeedMS    = 10.0
	defaultHumidityPct    = 85.0
	defaultWireDiameterMM = 12.7
	defaultSpanLengthM    = 300.0
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// assessRequest is the manual-entry body. Omitted fields take the form defaults.
type assessRequest struct {
	TemperatureC    *float64 `json:"temperature_c"`
	WindSpeedMS     *float64 `json:"wind_speed_ms" validate:"omitempty,gte=0"`
	HumidityPct     *float64 `json:"humidity_pct" validate:"omitempty,gte=0,lte=100"`
	PrecipitationMM float64  `json:"precipitation_mm" validate:"gte=0"`
	CloudinessPct   float64  `json:"cloudiness_pct" validate:"gte=0,lte=100"`
	TempChange6hC   float64  `json:"temp_change_6h_c"`
	WireDiameterMM  *float64 `json:"wire_diameter_mm" validate:"omitempty,gt=0"`
	SpanLengthM     *float64 `json:"span_length_m" validate:"omitempty,gt=0"`
}

func (r assessRequest) resolve() (domain.WeatherReading, domain.ConductorGeometry) {
	return domain.WeatherReading{
			TemperatureC:    valueOr(r.TemperatureC, defaultTemperatureC),
			WindSpeedMS:     valueOr(r.WindSpeedMS, defaultWindSpeedMS),
			HumidityPct:     valueOr(r.HumidityPct, defaultHumidityPct),
			PrecipitationMM: r.PrecipitationMM,
			CloudinessPct:   r.CloudinessPct,
			TempChange6hC:   r.TempChange6hC,
		}, domain.ConductorGeometry{
			WireDiameterMM: valueOr(r.WireDiameterMM, defaultWireDiameterMM),
			SpanLengthM:    valueOr(r.SpanLengthM, defaultSpanLengthM),
		}
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// cityQuery holds query parameters for the weather-driven endpoint.
type cityQuery struct {
	City           string  `json:"city" validate:"required"`
	WireDiameterMM float64 `json:"wire_diameter_mm" validate:"gt=0"`
	SpanLengthM    float64 `json:"span_length_m" validate:"gt=0"`
}

func (q cityQuery) geometry() domain.ConductorGeometry {
	return domain.ConductorGeometry{WireDiameterMM: q.WireDiameterMM, SpanLengthM: q.SpanLengthM}
}

func parseCityQuery(values url.Values) (cityQuery, error) {
	q := cityQuery{
		City:           strings.TrimSpace(values.Get("city")),
		WireDiameterMM: defaultWireDiameterMM,
		SpanLengthM:    defaultSpanLengthM,
	}

	var err error
	if q.WireDiameterMM, err = floatParam(values, "wire_diameter_mm", q.WireDiameterMM); err != nil {
		return q, err
	}
	if q.SpanLengthM, err = floatParam(values, "span_length_m", q.SpanLengthM); err != nil {
		return q, err
	}
	if err := validate.Struct(q); err != nil {
		return q, errors.New(validationMessage(err))
	}
	return q, nil
}

func floatParam(values url.Values, key string, def float64) (float64, error) {
	s := values.Get(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	return v, nil
}

// validationMessage flattens validator errors into one line naming each field.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
