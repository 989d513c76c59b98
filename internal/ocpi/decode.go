package ocpi

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// SupportedVersion is the only CDR/Tariff document version this
// engine accepts. OCPI 2.1.1 -> 2.2.1 structural up-conversion is a
// declared Non-goal; a 2.1.1 document must be up-converted by the
// caller before reaching this engine.
const SupportedVersion = "2.2.1"

// Decode unmarshals and validates a CDR document.
func Decode(r io.Reader) (*Cdr, error) {
	var cdr Cdr
	if err := json.NewDecoder(r).Decode(&cdr); err != nil {
		return nil, NewError(InvalidInput, fmt.Sprintf("cdr: malformed json: %v", err))
	}
	if cdr.Version != SupportedVersion {
		return nil, NewError(InvalidInput, fmt.Sprintf("cdr: unsupported version %q, expected %q (up-convert before decoding)", cdr.Version, SupportedVersion))
	}
	if err := validate.Struct(&cdr); err != nil {
		return nil, NewError(InvalidInput, fmt.Sprintf("cdr: %v", err))
	}
	for i, p := range cdr.ChargingPeriods {
		for _, d := range p.Dimensions {
			if d.Volume.IsNegative() {
				return nil, NewError(InvalidInput, fmt.Sprintf("cdr: charging period %d: negative %s volume", i, d.Type))
			}
		}
	}
	return &cdr, nil
}

// DecodeTariff unmarshals and validates a Tariff document.
func DecodeTariff(r io.Reader) (*Tariff, error) {
	var tariff Tariff
	if err := json.NewDecoder(r).Decode(&tariff); err != nil {
		return nil, NewError(InvalidInput, fmt.Sprintf("tariff: malformed json: %v", err))
	}
	if err := validate.Struct(&tariff); err != nil {
		return nil, NewError(InvalidInput, fmt.Sprintf("tariff: %v", err))
	}
	return &tariff, nil
}
